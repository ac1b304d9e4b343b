package pipeline

import (
	"fmt"

	"reelcut/internal/media"
	"reelcut/internal/workspace"
)

// Shape is the output frame size.
type Shape struct {
	Width  int
	Height int
}

// Vertical reports whether the frame is taller than wide.
func (s Shape) Vertical() bool {
	return s.Height > s.Width
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Seed carries the per-run parameters copied into every new context.
type Seed struct {
	ClipInterval   float64
	SoundThreshold float64
	DiscardSilence bool
	GainFactor     float64
}

// Context is the record threaded through the stages for one input file or
// fragment. It is owned by a single worker and never shared.
type Context struct {
	layout workspace.Layout

	media          *media.Handle
	stem           string
	shape          Shape
	clipInterval   float64
	soundThreshold float64
	discardSilence bool
	gainFactor     float64

	clips          []media.Clip
	audioPath      string
	denoisedPath   string
	transcriptPath string
	outputPath     string
	outputPaths    []string
	metadataPath   string

	present fieldSet
}

// NewContext seeds a context with h and the run parameters. The context takes
// ownership of h.
func NewContext(h *media.Handle, stem string, seed Seed, layout workspace.Layout) *Context {
	pc := &Context{
		layout:         layout,
		stem:           stem,
		clipInterval:   seed.ClipInterval,
		soundThreshold: seed.SoundThreshold,
		discardSilence: seed.DiscardSilence,
		gainFactor:     seed.GainFactor,
		present:        newFieldSet(FieldStem, FieldClipInterval, FieldSoundThreshold, FieldDiscardSilence, FieldGainFactor),
	}
	if h != nil {
		pc.media = h
		w, ht := h.FrameSize()
		pc.shape = Shape{Width: w, Height: ht}
		pc.present.add(FieldMedia, FieldShape)
	}
	return pc
}

// Require fails with MissingFieldError for the first absent field.
func (c *Context) Require(stage string, fields ...Field) error {
	for _, f := range fields {
		if !c.present.has(f) {
			return &MissingFieldError{Field: f, Stage: stage}
		}
	}
	return nil
}

// Has reports whether f has been set.
func (c *Context) Has(f Field) bool {
	return c.present.has(f)
}

func (c *Context) Layout() workspace.Layout { return c.layout }
func (c *Context) Media() *media.Handle     { return c.media }
func (c *Context) Stem() string             { return c.stem }
func (c *Context) Shape() Shape             { return c.shape }
func (c *Context) ClipInterval() float64    { return c.clipInterval }
func (c *Context) SoundThreshold() float64  { return c.soundThreshold }
func (c *Context) DiscardSilence() bool     { return c.discardSilence }
func (c *Context) Clips() []media.Clip      { return c.clips }
func (c *Context) AudioPath() string        { return c.audioPath }
func (c *Context) DenoisedPath() string     { return c.denoisedPath }
func (c *Context) TranscriptPath() string   { return c.transcriptPath }
func (c *Context) OutputPath() string       { return c.outputPath }
func (c *Context) OutputPaths() []string    { return c.outputPaths }
func (c *Context) MetadataPath() string     { return c.metadataPath }

// GainFactor returns the gain multiplier, 1.0 when unset.
func (c *Context) GainFactor() float64 {
	if !c.present.has(FieldGainFactor) {
		return 1
	}
	return c.gainFactor
}

// SetMedia replaces the current handle and releases the superseded one.
func (c *Context) SetMedia(h *media.Handle) error {
	prev := c.media
	c.media = h
	c.present.add(FieldMedia)
	if prev != nil && prev != h {
		if err := prev.Close(); err != nil {
			return fmt.Errorf("release superseded media: %w", err)
		}
	}
	return nil
}

func (c *Context) SetShape(s Shape) {
	c.shape = s
	c.present.add(FieldShape)
}

// SetClips records segmentation output. An empty slice is a valid result.
func (c *Context) SetClips(clips []media.Clip) {
	c.clips = clips
	c.present.add(FieldClips)
}

func (c *Context) SetAudioPath(p string) {
	c.audioPath = p
	c.present.add(FieldAudioPath)
}

func (c *Context) SetDenoisedPath(p string) {
	c.denoisedPath = p
	c.present.add(FieldDenoisedPath)
}

func (c *Context) SetTranscriptPath(p string) {
	c.transcriptPath = p
	c.present.add(FieldTranscriptPath)
}

func (c *Context) SetOutputPath(p string) {
	c.outputPath = p
	c.present.add(FieldOutputPath)
}

func (c *Context) SetOutputPaths(paths []string) {
	c.outputPaths = paths
	c.present.add(FieldOutputPaths)
}

func (c *Context) SetMetadataPath(p string) {
	c.metadataPath = p
	c.present.add(FieldMetadataPath)
}

// Outputs lists every artifact a save or metadata stage recorded.
func (c *Context) Outputs() []string {
	var out []string
	if c.outputPath != "" {
		out = append(out, c.outputPath)
	}
	out = append(out, c.outputPaths...)
	if c.transcriptPath != "" {
		out = append(out, c.transcriptPath)
	}
	if c.metadataPath != "" {
		out = append(out, c.metadataPath)
	}
	return out
}

// Close releases the current media handle.
func (c *Context) Close() error {
	if c.media == nil {
		return nil
	}
	err := c.media.Close()
	c.media = nil
	return err
}
