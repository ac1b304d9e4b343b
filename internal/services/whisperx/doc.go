// Package whisperx runs WhisperX through uvx and converts its JSON output into
// subtitle cues for the transcript stage.
//
// Model, language, CUDA and VAD method come from Config. WhisperX writes
// <stem>.json into a scratch directory next to the audio; the directory is
// removed once the segments are loaded.
package whisperx
