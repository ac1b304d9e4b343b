package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"reelcut/internal/config"
	"reelcut/internal/denoise"
	"reelcut/internal/history"
	"reelcut/internal/logging"
	"reelcut/internal/media"
	"reelcut/internal/pipeline"
	"reelcut/internal/preflight"
	"reelcut/internal/services/drapto"
	"reelcut/internal/services/gemini"
	"reelcut/internal/services/llm"
	"reelcut/internal/services/openai"
	"reelcut/internal/services/whisperx"
	"reelcut/internal/stages"
	"reelcut/internal/workflow"
)

// toolkit holds the collaborators bound into the stage registry.
type toolkit struct {
	registry    *pipeline.Registry
	encoder     *media.Encoder
	decoder     *media.Decoder
	transcriber stages.Transcriber
	provider    stages.Provider
	closers     []func() error
}

// buildToolkit constructs every collaborator the config allows. Missing
// credentials leave the matching collaborator nil so its stage reports not
// ready instead of failing here.
func buildToolkit(ctx context.Context, cfg *config.Config, logger *slog.Logger, progress io.Writer) (*toolkit, error) {
	tk := &toolkit{}
	tk.encoder = media.NewEncoder(media.ExecRunner{}, media.EncodeOptions{
		VideoCodec:    cfg.Encoding.VideoCodec,
		AudioCodec:    cfg.Encoding.AudioCodec,
		Preset:        cfg.Encoding.Preset,
		CRF:           cfg.Encoding.CRF,
		SubtitleStyle: cfg.Encoding.SubtitleStyle,
	}, media.WithBinary(cfg.FFmpegBinary()), media.WithScratchDir(cfg.Paths.WorkDir))
	tk.decoder = media.NewDecoder(media.FFprobe{Binary: cfg.FFprobeBinary()}, tk.encoder,
		media.WithSampleRate(cfg.Silence.SampleRate),
		media.WithWorkDir(cfg.Paths.WorkDir),
	)

	denoiser, err := denoise.New(media.ExecRunner{}, cfg.FFmpegBinary(), denoise.Options{
		Method:     cfg.Denoise.Method,
		NoiseFloor: cfg.Denoise.NoiseFloor,
		ModelPath:  cfg.Denoise.ModelPath,
	})
	if err != nil {
		return nil, err
	}

	tk.transcriber = newTranscriber(cfg)
	if err := tk.connectProvider(ctx, cfg); err != nil {
		logger.Warn("metadata provider unavailable",
			logging.String(logging.FieldEventType, "provider_unavailable"),
			logging.String("provider", cfg.Metadata.Provider),
			logging.Error(err),
		)
	}

	deps := stages.Deps{
		Renderer:         tk.encoder,
		Denoiser:         denoiser,
		Transcriber:      tk.transcriber,
		Compressor:       drapto.NewLibrary(logger),
		Provider:         tk.provider,
		MetadataLanguage: cfg.Metadata.Language,
		Progress:         progress,
		Logger:           logger,
	}
	tk.registry, err = stages.NewRegistry(deps)
	if err != nil {
		tk.Close()
		return nil, err
	}
	return tk, nil
}

func newTranscriber(cfg *config.Config) stages.Transcriber {
	t := cfg.Transcription
	if t.Backend == "openai" {
		if t.APIKey == "" {
			return nil
		}
		return openai.NewClient(openai.Config{
			APIKey:   t.APIKey,
			BaseURL:  t.BaseURL,
			Model:    t.Model,
			Language: t.Language,
		})
	}
	return whisperx.NewService(whisperx.Config{
		Model:       t.Model,
		Language:    t.Language,
		CUDAEnabled: t.CUDAEnabled,
		VADMethod:   t.VADMethod,
		HFToken:     t.HFToken,
	}, cfg.UVXBinary())
}

// connectProvider binds the metadata language model. No key means no
// provider.
func (tk *toolkit) connectProvider(ctx context.Context, cfg *config.Config) error {
	settings := cfg.GetLLM()
	if settings.APIKey == "" {
		return nil
	}
	switch settings.Provider {
	case "openrouter":
		tk.provider = llm.NewClient(llm.Config{
			APIKey:         settings.APIKey,
			BaseURL:        settings.BaseURL,
			Model:          settings.Model,
			Referer:        settings.Referer,
			Title:          settings.Title,
			TimeoutSeconds: settings.TimeoutSeconds,
		})
	case "gemini":
		client, err := gemini.NewClient(ctx, gemini.Config{APIKey: settings.APIKey, Model: settings.Model})
		if err != nil {
			return err
		}
		tk.provider = client
		tk.closers = append(tk.closers, client.Close)
	default:
		tk.provider = openai.NewClient(openai.Config{
			APIKey:         settings.APIKey,
			BaseURL:        settings.BaseURL,
			Model:          settings.Model,
			Referer:        settings.Referer,
			Title:          settings.Title,
			TimeoutSeconds: settings.TimeoutSeconds,
		})
	}
	return nil
}

// managerOptions opens the history ledger when enabled. The store is closed
// with the toolkit.
func (tk *toolkit) managerOptions(cfg *config.Config, logger *slog.Logger) ([]workflow.ManagerOption, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logging.WarnWithContext(logger, "history ledger unavailable", "history_unavailable",
			logging.String("path", cfg.History.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in reelcut history"),
		)
		return nil, nil
	}
	tk.closers = append(tk.closers, store.Close)
	return []workflow.ManagerOption{workflow.WithLedger(store)}, nil
}

// probes lists the remote services doctor should reach.
func (tk *toolkit) probes(cfg *config.Config) []preflight.Probe {
	var probes []preflight.Probe
	if cfg.Pipeline.Metadata || tk.provider != nil {
		p := preflight.Probe{Name: "Metadata provider (" + cfg.Metadata.Provider + ")"}
		if tk.provider != nil {
			p.Service = tk.provider
		}
		probes = append(probes, p)
	}
	if cfg.Transcription.Backend == "openai" {
		p := preflight.Probe{Name: "OpenAI transcription"}
		if checker, ok := tk.transcriber.(preflight.HealthChecker); ok && checker != nil {
			p.Service = checker
		}
		probes = append(probes, p)
	}
	return probes
}

// Close releases provider connections and the ledger.
func (tk *toolkit) Close() error {
	var errs []error
	for i := len(tk.closers) - 1; i >= 0; i-- {
		if err := tk.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	tk.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("close toolkit: %w", errors.Join(errs...))
	}
	return nil
}

// progressWriter is stderr when a single worker draws to a terminal.
func progressWriter(cfg *config.Config) io.Writer {
	if !cfg.Silence.Progress || cfg.Pipeline.FileWorkers > 1 || cfg.Pipeline.FragmentWorkers > 1 {
		return nil
	}
	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return os.Stderr
}
