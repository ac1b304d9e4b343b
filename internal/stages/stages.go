package stages

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"reelcut/internal/denoise"
	"reelcut/internal/logging"
	"reelcut/internal/media"
	"reelcut/internal/metadata"
	"reelcut/internal/pipeline"
	"reelcut/internal/services/drapto"
	"reelcut/internal/stage"
	"reelcut/internal/subtitles"
)

// Stage names.
const (
	TrimBySilence      = "trim_by_silence"
	Denoise            = "denoise"
	Transcript         = pipeline.StageTranscript
	Subtitles          = "subtitles"
	SetVertical        = "set_vertical"
	SetHorizontal      = "set_horizontal"
	ApplyGain          = "apply_gain"
	SaveVideo          = "save_video"
	SaveJoin           = "save_join"
	SaveSeparatedVideo = "save_separated_video"
	Compress           = "compress"
	GenerateMetadata   = pipeline.StageGenerateMetadata
)

// Renderer is the ffmpeg surface the stages drive. *media.Encoder satisfies it.
type Renderer interface {
	ExtractAudio(ctx context.Context, h *media.Handle, dest string) error
	Render(ctx context.Context, h *media.Handle, dest string) error
	RenderClip(ctx context.Context, h *media.Handle, clip media.Clip, dest string) error
	RenderClips(ctx context.Context, h *media.Handle, clips []media.Clip, dest string) error
}

// Transcriber turns an audio file into timed cues.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]subtitles.Cue, error)
}

// Provider is a language model that answers in JSON.
type Provider interface {
	metadata.Completer
	HealthCheck(ctx context.Context) error
}

// Deps carries the collaborators. A nil collaborator leaves its stage
// registered but not ready, so listing stages never needs credentials.
type Deps struct {
	Renderer    Renderer
	Denoiser    denoise.Denoiser
	Transcriber Transcriber
	Compressor  drapto.Encoder
	Provider    Provider
	// MetadataLanguage is passed to the generator prompt.
	MetadataLanguage string
	// Progress receives the silence analysis progress bar; nil disables it.
	Progress io.Writer
	Logger   *slog.Logger
}

// NewRegistry returns a registry holding every stage bound to deps.
func NewRegistry(deps Deps) (*pipeline.Registry, error) {
	reg := pipeline.NewRegistry()
	if err := Register(reg, deps); err != nil {
		return nil, err
	}
	return reg, nil
}

// Register adds every stage to reg in the order they are listed to users.
func Register(reg *pipeline.Registry, deps Deps) error {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	b := builder{deps: deps, logger: logging.NewComponentLogger(deps.Logger, "stages")}
	for _, s := range []pipeline.Stage{
		b.trimBySilence(),
		b.denoise(),
		b.transcript(),
		b.subtitles(),
		b.saveSeparatedVideo(),
		b.saveJoin(),
		b.saveVideo(),
		b.setVertical(),
		b.setHorizontal(),
		b.applyGain(),
		b.compress(),
		b.generateMetadata(),
	} {
		if err := reg.Register(s); err != nil {
			return err
		}
	}
	return nil
}

type builder struct {
	deps   Deps
	logger *slog.Logger
}

func (b builder) log(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, b.logger)
}

func requireRenderer(b builder) pipeline.ReadyFunc {
	return func() error {
		if b.deps.Renderer == nil {
			return errors.New("no media renderer configured")
		}
		return nil
	}
}

func present(name string, ok bool, detail string) pipeline.HealthFunc {
	return func(context.Context) stage.Health {
		if ok {
			return stage.Healthy(name)
		}
		return stage.Unhealthy(name, detail)
	}
}
