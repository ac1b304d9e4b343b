package silence

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/schollz/progressbar/v3"

	"reelcut/internal/media"
	"reelcut/internal/services"
)

// Source is the audio the engine analyses. *media.Handle satisfies it.
type Source interface {
	Duration() float64
	AudioWindow(ctx context.Context, start, end float64) ([]float64, error)
}

// Profile is the result of one analysis pass.
type Profile struct {
	Interval    float64
	Threshold   float64
	Duration    float64
	Amplitudes  []float64
	Loud        []bool
	Breakpoints []float64
	Segments    []media.Clip
}

// Clips returns the segments as clips. With discard set only loud segments
// are kept, in their original order.
func (p Profile) Clips(discard bool) []media.Clip {
	clips := make([]media.Clip, 0, len(p.Segments))
	for _, seg := range p.Segments {
		if discard && !seg.Loud {
			continue
		}
		clips = append(clips, seg)
	}
	return clips
}

// LoudSeconds returns the total duration of loud segments.
func (p Profile) LoudSeconds() float64 {
	total := 0.0
	for _, seg := range p.Segments {
		if seg.Loud {
			total += seg.Duration()
		}
	}
	return total
}

// Option customizes an analysis pass.
type Option func(*options)

type options struct {
	progress io.Writer
}

// WithProgressBar renders a progress bar over the sampled windows to w.
func WithProgressBar(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

// Analyze samples src in windows of interval seconds and classifies each
// against threshold.
func Analyze(ctx context.Context, src Source, interval, threshold float64, opts ...Option) (Profile, error) {
	if interval <= 0 || math.IsNaN(interval) || math.IsInf(interval, 0) {
		return Profile{}, services.Wrap(services.ErrConfiguration, "trim_by_silence", "analyze", fmt.Sprintf("clip interval must be positive, got %v", interval), nil)
	}
	if threshold < 0 || math.IsNaN(threshold) {
		return Profile{}, services.Wrap(services.ErrConfiguration, "trim_by_silence", "analyze", fmt.Sprintf("sound threshold must be >= 0, got %v", threshold), nil)
	}
	duration := src.Duration()
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return Profile{}, services.Wrap(services.ErrMediaIO, "trim_by_silence", "analyze", fmt.Sprintf("media duration must be positive, got %v", duration), nil)
	}

	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}

	count := WindowCount(duration, interval)
	profile := Profile{
		Interval:   interval,
		Threshold:  threshold,
		Duration:   duration,
		Amplitudes: make([]float64, 0, count),
		Loud:       make([]bool, 0, count),
	}

	var bar *progressbar.ProgressBar
	if cfg.progress != nil && count > 0 {
		bar = progressbar.NewOptions(count,
			progressbar.OptionSetWriter(cfg.progress),
			progressbar.OptionSetDescription("analyzing audio"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish() //nolint:errcheck
	}

	for k := 0; k < count; k++ {
		if err := ctx.Err(); err != nil {
			return Profile{}, err
		}
		start := float64(k) * interval
		samples, err := src.AudioWindow(ctx, start, start+interval)
		if err != nil {
			return Profile{}, services.Wrap(services.ErrMediaIO, "trim_by_silence", "read audio", fmt.Sprintf("window %d", k), err)
		}
		amp := RMS(samples)
		profile.Amplitudes = append(profile.Amplitudes, amp)
		profile.Loud = append(profile.Loud, amp > threshold)
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	profile.Segments = segment(profile.Loud, interval, duration)
	profile.Breakpoints = breakpoints(profile.Segments)
	return profile, nil
}

// WindowCount returns how many full windows of interval fit in duration.
func WindowCount(duration, interval float64) int {
	if interval <= 0 || duration <= 0 {
		return 0
	}
	k := 0
	for float64(k)*interval+interval <= duration {
		k++
	}
	return k
}

// RMS returns the root mean square of samples, or 0 for an empty window.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// segment folds window classifications into maximal runs. The last run
// extends to duration.
func segment(loud []bool, interval, duration float64) []media.Clip {
	if len(loud) == 0 {
		return []media.Clip{{Start: 0, End: duration, Loud: true}}
	}
	segments := make([]media.Clip, 0, 4)
	start, current := 0.0, loud[0]
	for k := 1; k < len(loud); k++ {
		if loud[k] == current {
			continue
		}
		at := float64(k) * interval
		segments = append(segments, media.Clip{Start: start, End: at, Loud: current})
		start, current = at, loud[k]
	}
	return append(segments, media.Clip{Start: start, End: duration, Loud: current})
}

func breakpoints(segments []media.Clip) []float64 {
	points := make([]float64, 0, len(segments)+1)
	for _, seg := range segments {
		points = append(points, seg.Start)
	}
	if n := len(segments); n > 0 {
		points = append(points, segments[n-1].End)
	}
	return points
}
