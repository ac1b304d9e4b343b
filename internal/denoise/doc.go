// Package denoise cleans extracted audio tracks with ffmpeg's afftdn (FFT
// noise reduction) or arnndn (RNNoise model) filters.
package denoise
