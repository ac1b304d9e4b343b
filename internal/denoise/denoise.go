package denoise

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"reelcut/internal/media"
)

// Supported filter methods.
const (
	MethodFFT     = "afftdn"
	MethodRNNoise = "arnndn"
)

// Denoiser writes a cleaned copy of an audio file.
type Denoiser interface {
	Denoise(ctx context.Context, source, dest string) error
}

// Options selects the filter and its parameters.
type Options struct {
	Method     string
	NoiseFloor float64
	ModelPath  string
}

// FFmpeg denoises through an ffmpeg audio filter.
type FFmpeg struct {
	runner media.Runner
	binary string
	opts   Options
}

// New constructs an ffmpeg-backed denoiser. A nil runner uses media.ExecRunner.
func New(runner media.Runner, binary string, opts Options) (*FFmpeg, error) {
	if runner == nil {
		runner = media.ExecRunner{}
	}
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	opts.Method = strings.ToLower(strings.TrimSpace(opts.Method))
	if opts.Method == "" {
		opts.Method = MethodFFT
	}
	switch opts.Method {
	case MethodFFT:
	case MethodRNNoise:
		if strings.TrimSpace(opts.ModelPath) == "" {
			return nil, errors.New("denoise: arnndn requires a model path")
		}
	default:
		return nil, fmt.Errorf("denoise: unsupported method %q", opts.Method)
	}
	return &FFmpeg{runner: runner, binary: binary, opts: opts}, nil
}

// Filter returns the ffmpeg audio filter expression.
func (d *FFmpeg) Filter() string {
	if d.opts.Method == MethodRNNoise {
		return "arnndn=m=" + escape(d.opts.ModelPath)
	}
	filter := "afftdn"
	if d.opts.NoiseFloor != 0 {
		filter += "=nf=" + strconv.FormatFloat(d.opts.NoiseFloor, 'f', -1, 64)
	}
	return filter
}

// Denoise filters source into dest as 16-bit PCM.
func (d *FFmpeg) Denoise(ctx context.Context, source, dest string) error {
	if source == "" || dest == "" {
		return errors.New("denoise: source and destination required")
	}
	stream := ffmpeg.Input(source).Output(dest, ffmpeg.KwArgs{
		"af":     d.Filter(),
		"acodec": "pcm_s16le",
	}).OverWriteOutput()
	args := append([]string{"-hide_banner", "-loglevel", "error", "-nostdin"}, stream.GetArgs()...)
	if err := d.runner.Run(ctx, d.binary, args); err != nil {
		return fmt.Errorf("denoise %s: %w", d.opts.Method, err)
	}
	return nil
}

func escape(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	return "'" + replacer.Replace(value) + "'"
}

var _ Denoiser = (*FFmpeg)(nil)
