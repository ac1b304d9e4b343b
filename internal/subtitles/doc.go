// Package subtitles reads and writes SRT transcripts.
//
// Transcription backends hand back timed segments; Cues are written as
// numbered SRT blocks with millisecond timestamps. PlainText strips indices
// and timings so the transcript can be passed to the metadata generator.
// FilterHallucinations drops the filler phrases and music-only cues speech
// models emit over silence.
package subtitles
