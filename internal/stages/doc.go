// Package stages binds the named pipeline stages (trim_by_silence, denoise,
// transcript, subtitles, resize, gain, save, compress, generate_metadata) to
// their collaborators and registers them with a pipeline.Registry.
//
// Each stage validates its inputs through pipeline.Context.Require, calls one
// collaborator and folds the result back into the context. Collaborator
// failures are tagged with services markers (ErrMediaIO for ffmpeg work,
// ErrExternalService for transcription, denoise and language models) so the
// workflow aborts only the affected file.
package stages
