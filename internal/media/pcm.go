package media

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const pcmChunkFrames = 8192

// PCMReader serves time windows from a WAV file as samples normalized to
// [-1, 1]. Multi-channel frames are returned interleaved, one value per
// channel, so an RMS over a window covers every signed sample. Windows are
// expected in increasing order; a request behind the read position rewinds.
type PCMReader struct {
	file       *os.File
	decoder    *wav.Decoder
	sampleRate int
	channels   int
	scale      float64
	offset     float64
	position   int64
	buf        *audio.IntBuffer
}

// OpenPCM opens a PCM WAV file for windowed reads.
func OpenPCM(path string) (*PCMReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pcm: %w", err)
	}
	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, fmt.Errorf("open pcm: %s is not a valid wav file", path)
	}
	if err := decoder.FwdToPCM(); err != nil {
		file.Close()
		return nil, fmt.Errorf("open pcm: %w", err)
	}
	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 || decoder.SampleRate == 0 || decoder.NumChans == 0 {
		file.Close()
		return nil, errors.New("open pcm: missing format information")
	}
	r := &PCMReader{
		file:       file,
		decoder:    decoder,
		sampleRate: int(decoder.SampleRate),
		channels:   int(decoder.NumChans),
		scale:      math.Pow(2, float64(bitDepth-1)),
	}
	if bitDepth == 8 {
		// 8-bit WAV samples are unsigned.
		r.scale = 128
		r.offset = 128
	}
	r.buf = &audio.IntBuffer{Data: make([]int, pcmChunkFrames*r.channels)}
	return r, nil
}

// SampleRate returns the sample rate of the underlying file.
func (r *PCMReader) SampleRate() int {
	return r.sampleRate
}

// Channels returns the channel count of the underlying file.
func (r *PCMReader) Channels() int {
	return r.channels
}

// Window returns the interleaved samples of every channel in [start, end)
// seconds. Frames past the end of the file are not padded.
func (r *PCMReader) Window(start, end float64) ([]float64, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("pcm window [%.3f, %.3f) is invalid", start, end)
	}
	first := int64(math.Round(start * float64(r.sampleRate)))
	last := int64(math.Round(end * float64(r.sampleRate)))
	if first < r.position {
		if err := r.rewind(); err != nil {
			return nil, err
		}
	}
	if err := r.skip(first - r.position); err != nil {
		return nil, err
	}
	want := last - first
	samples := make([]float64, 0, want*int64(r.channels))
	for read := int64(0); read < want; {
		frames := min(want-read, pcmChunkFrames)
		got, err := r.readFrames(frames, func(v float64) { samples = append(samples, v) })
		if err != nil {
			return nil, err
		}
		if got == 0 {
			break
		}
		read += got
	}
	return samples, nil
}

// Close releases the underlying file.
func (r *PCMReader) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *PCMReader) rewind() error {
	if err := r.decoder.Rewind(); err != nil {
		return fmt.Errorf("rewind pcm: %w", err)
	}
	r.position = 0
	return nil
}

func (r *PCMReader) skip(frames int64) error {
	for frames > 0 {
		chunk := frames
		if chunk > pcmChunkFrames {
			chunk = pcmChunkFrames
		}
		got, err := r.readFrames(chunk, nil)
		if err != nil {
			return err
		}
		if got == 0 {
			return nil
		}
		frames -= got
	}
	return nil
}

// readFrames decodes up to frames frames and hands every channel's value of
// each whole frame to emit, in interleaved order.
func (r *PCMReader) readFrames(frames int64, emit func(float64)) (int64, error) {
	r.buf.Data = r.buf.Data[:int(frames)*r.channels]
	n, err := r.decoder.PCMBuffer(r.buf)
	if err != nil {
		return 0, fmt.Errorf("read pcm: %w", err)
	}
	whole := n / r.channels
	if emit != nil {
		for _, v := range r.buf.Data[:whole*r.channels] {
			emit(clampUnit((float64(v) - r.offset) / r.scale))
		}
	}
	r.position += int64(whole)
	return int64(whole), nil
}

func clampUnit(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
