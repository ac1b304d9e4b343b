// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Inspect executes ffprobe and returns the parsed Result. Helper methods
// expose duration, frame rate, sample rate and rotation-aware display size,
// which the fragment combiner uses to check fragment compatibility.
package ffprobe
