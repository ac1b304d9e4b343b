// Package media is reelcut's boundary to ffmpeg and ffprobe.
//
// A Handle is an immutable reference to a probed source plus a pending edit
// list (gain, resize, subtitle overlay, replacement audio). Stages derive new
// handles instead of mutating old ones, and the Encoder renders a handle, a
// clip, or a clip sequence to disk. Audio samples for analysis are read from a
// PCM extraction (all channels) cached per audio source and shared between derived
// handles until the last one is closed.
//
// Every external command goes through a Runner so tests can record argument
// lists without launching ffmpeg.
package media
