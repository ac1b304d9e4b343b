package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Info is the probed description of a media file.
type Info struct {
	Path       string
	Duration   float64
	Width      int
	Height     int
	FrameRate  float64
	SampleRate int
	Channels   int
	VideoCodec string
	AudioCodec string
	SizeBytes  int64
	BitRate    int64
}

// HasAudio reports whether the source carries an audio stream.
func (i Info) HasAudio() bool {
	return i.AudioCodec != ""
}

// Edits is the pending edit list applied when a handle is rendered.
type Edits struct {
	// Gain is only meaningful when HasGain is set, so a zero gain mutes.
	Gain          float64
	HasGain       bool
	Width         int
	Height        int
	SubtitlesPath string
	AudioPath     string
}

// GainFactor returns the gain multiplier, treating an unset gain as 1.
func (e Edits) GainFactor() float64 {
	if !e.HasGain {
		return 1
	}
	return e.Gain
}

// Resized reports whether a target frame size is set.
func (e Edits) Resized() bool {
	return e.Width > 0 && e.Height > 0
}

// IsZero reports whether rendering would reproduce the source unchanged.
func (e Edits) IsZero() bool {
	return e.GainFactor() == 1 && !e.Resized() && e.SubtitlesPath == "" && e.AudioPath == ""
}

// PCMExtractor writes a PCM WAV of source at sampleRate to dest, keeping
// every channel.
type PCMExtractor interface {
	ExtractPCM(ctx context.Context, source, dest string, sampleRate int) error
}

// Handle is an opaque reference to decoded media. Handles are immutable; the
// With* methods derive new handles that share the audio cache when the audio
// source is unchanged.
type Handle struct {
	info  Info
	edits Edits
	pcm   *pcmCache

	closeOnce sync.Once
}

// NewHandle wraps probed info without an audio extraction backend. AudioWindow
// fails on such handles; use Decoder.Open for analysable media.
func NewHandle(info Info) *Handle {
	return &Handle{info: info}
}

// Info returns the probed source description.
func (h *Handle) Info() Info {
	return h.info
}

// Path returns the source file path.
func (h *Handle) Path() string {
	return h.info.Path
}

// Edits returns the pending edit list.
func (h *Handle) Edits() Edits {
	return h.edits
}

// Duration returns the source duration in seconds.
func (h *Handle) Duration() float64 {
	return h.info.Duration
}

// FrameSize returns the frame size the handle renders at.
func (h *Handle) FrameSize() (int, int) {
	if h.edits.Resized() {
		return h.edits.Width, h.edits.Height
	}
	return h.info.Width, h.info.Height
}

// AudioWindow returns the signed samples of every channel, interleaved and
// normalized to [-1, 1], for [start, end) with the pending gain applied.
func (h *Handle) AudioWindow(ctx context.Context, start, end float64) ([]float64, error) {
	if h.pcm == nil {
		return nil, errors.New("audio window: handle has no audio backend")
	}
	samples, err := h.pcm.window(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if gain := h.edits.GainFactor(); gain != 1 {
		for i, v := range samples {
			samples[i] = clampUnit(v * gain)
		}
	}
	return samples, nil
}

// WithGain derives a handle whose audio is scaled by factor. Gains compound.
func (h *Handle) WithGain(factor float64) *Handle {
	edits := h.edits
	edits.Gain = edits.GainFactor() * factor
	edits.HasGain = true
	return h.derive(edits, h.pcm.retain())
}

// WithSize derives a handle rendered at width x height.
func (h *Handle) WithSize(width, height int) *Handle {
	edits := h.edits
	edits.Width, edits.Height = width, height
	return h.derive(edits, h.pcm.retain())
}

// WithSubtitles derives a handle that burns in the given SRT file.
func (h *Handle) WithSubtitles(path string) *Handle {
	edits := h.edits
	edits.SubtitlesPath = path
	return h.derive(edits, h.pcm.retain())
}

// WithAudio derives a handle whose audio track is replaced by path. The gain
// edit is kept; the replacement is analysed from its own extraction.
func (h *Handle) WithAudio(path string) *Handle {
	edits := h.edits
	edits.AudioPath = path
	var cache *pcmCache
	if h.pcm != nil {
		cache = newPCMCache(path, h.pcm.workDir, h.pcm.sampleRate, h.pcm.extractor)
	}
	return h.derive(edits, cache)
}

// Close releases this handle's reference to the audio cache. The cached
// extraction is removed once no derived handle uses it.
func (h *Handle) Close() error {
	if h == nil {
		return nil
	}
	var err error
	h.closeOnce.Do(func() {
		err = h.pcm.release()
	})
	return err
}

func (h *Handle) derive(edits Edits, cache *pcmCache) *Handle {
	return &Handle{info: h.info, edits: edits, pcm: cache}
}

type pcmCache struct {
	source     string
	workDir    string
	sampleRate int
	extractor  PCMExtractor

	mu     sync.Mutex
	refs   int
	path   string
	reader *PCMReader
}

func newPCMCache(source, workDir string, sampleRate int, extractor PCMExtractor) *pcmCache {
	return &pcmCache{source: source, workDir: workDir, sampleRate: sampleRate, extractor: extractor, refs: 1}
}

func (c *pcmCache) retain() *pcmCache {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	c.refs++
	c.mu.Unlock()
	return c
}

func (c *pcmCache) window(ctx context.Context, start, end float64) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reader == nil {
		if err := c.load(ctx); err != nil {
			return nil, err
		}
	}
	return c.reader.Window(start, end)
}

func (c *pcmCache) load(ctx context.Context) error {
	tmp, err := os.CreateTemp(c.workDir, "reelcut-pcm-*.wav")
	if err != nil {
		return fmt.Errorf("create pcm file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()
	if err := c.extractor.ExtractPCM(ctx, c.source, path, c.sampleRate); err != nil {
		_ = os.Remove(path)
		return err
	}
	reader, err := OpenPCM(path)
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	c.path = path
	c.reader = reader
	return nil
}

func (c *pcmCache) release() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refs--
	if c.refs > 0 {
		return nil
	}
	var errs []error
	if c.reader != nil {
		errs = append(errs, c.reader.Close())
		c.reader = nil
	}
	if c.path != "" {
		if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
		c.path = ""
	}
	return errors.Join(errs...)
}
