package media

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"reelcut/internal/media/ffprobe"
)

// DefaultSampleRate is the PCM rate used for silence analysis.
const DefaultSampleRate = 44100

// Prober inspects media files.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
}

// FFprobe is the Prober backed by the ffprobe binary.
type FFprobe struct {
	Binary string
}

// Probe runs ffprobe against path.
func (p FFprobe) Probe(ctx context.Context, path string) (ffprobe.Result, error) {
	return ffprobe.Inspect(ctx, p.Binary, path)
}

// Decoder opens media files into handles.
type Decoder struct {
	prober     Prober
	extractor  PCMExtractor
	workDir    string
	sampleRate int
}

// DecoderOption customizes a Decoder.
type DecoderOption func(*Decoder)

// WithSampleRate sets the PCM analysis rate.
func WithSampleRate(rate int) DecoderOption {
	return func(d *Decoder) {
		if rate > 0 {
			d.sampleRate = rate
		}
	}
}

// WithWorkDir sets where cached PCM extractions are written.
func WithWorkDir(dir string) DecoderOption {
	return func(d *Decoder) {
		d.workDir = strings.TrimSpace(dir)
	}
}

// NewDecoder builds a decoder that probes with prober and extracts analysis
// audio with extractor.
func NewDecoder(prober Prober, extractor PCMExtractor, opts ...DecoderOption) *Decoder {
	d := &Decoder{prober: prober, extractor: extractor, sampleRate: DefaultSampleRate}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open probes path and returns a handle for it.
func (d *Decoder) Open(ctx context.Context, path string) (*Handle, error) {
	info, err := d.Inspect(ctx, path)
	if err != nil {
		return nil, err
	}
	h := &Handle{info: info}
	if info.HasAudio() && d.extractor != nil {
		h.pcm = newPCMCache(path, d.workDir, d.sampleRate, d.extractor)
	}
	return h, nil
}

// Inspect probes path without creating a handle.
func (d *Decoder) Inspect(ctx context.Context, path string) (Info, error) {
	if strings.TrimSpace(path) == "" {
		return Info{}, errors.New("open media: empty path")
	}
	result, err := d.prober.Probe(ctx, path)
	if err != nil {
		return Info{}, fmt.Errorf("probe %s: %w", path, err)
	}
	return InfoFromProbe(path, result)
}

// InfoFromProbe converts an ffprobe result into Info.
func InfoFromProbe(path string, result ffprobe.Result) (Info, error) {
	duration := result.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		return Info{}, fmt.Errorf("probe %s: media reports no usable duration", path)
	}
	info := Info{
		Path:      path,
		Duration:  duration,
		SizeBytes: result.SizeBytes(),
		BitRate:   result.BitRate(),
	}
	if video, ok := result.VideoStream(); ok {
		info.Width, info.Height = video.DisplaySize()
		info.FrameRate = video.FrameRate()
		info.VideoCodec = video.CodecName
	}
	if audio, ok := result.AudioStream(); ok {
		info.SampleRate = audio.SampleRateHz()
		info.Channels = audio.Channels
		info.AudioCodec = audio.CodecName
	}
	if info.VideoCodec == "" && info.AudioCodec == "" {
		return Info{}, fmt.Errorf("probe %s: no audio or video streams", path)
	}
	return info, nil
}
