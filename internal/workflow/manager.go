package workflow

import (
	"context"
	"log/slog"
	"time"

	"reelcut/internal/config"
	"reelcut/internal/fragment"
	"reelcut/internal/history"
	"reelcut/internal/logging"
	"reelcut/internal/pipeline"
	"reelcut/internal/stage"
	"reelcut/internal/stageexec"
	"reelcut/internal/workspace"
)

// Opener probes and opens media files. *media.Decoder satisfies it.
type Opener interface {
	fragment.Inspector
	fragment.Opener
}

// Editor cuts and joins media files. *media.Encoder satisfies it.
type Editor interface {
	fragment.Cutter
	fragment.Joiner
}

// Ledger persists run outcomes. *history.Store satisfies it.
type Ledger interface {
	stageexec.Recorder
	BeginRun(ctx context.Context, run history.Run) error
	RecordFile(ctx context.Context, rec history.FileRecord) error
	FinishRun(ctx context.Context, id string, finished time.Time, failed int) error
}

// Manager coordinates file processing using registered stage functions.
type Manager struct {
	cfg      *config.Config
	registry *pipeline.Registry
	opener   Opener
	splitter *fragment.Splitter
	combiner *fragment.Combiner
	layout   workspace.Layout
	ledger   Ledger
	logger   *slog.Logger
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithLedger records runs, files and stage events into l.
func WithLedger(l Ledger) ManagerOption {
	return func(m *Manager) {
		m.ledger = l
	}
}

// NewManager constructs a workflow manager over the registered stages.
func NewManager(cfg *config.Config, registry *pipeline.Registry, opener Opener, editor Editor, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:      cfg,
		registry: registry,
		opener:   opener,
		splitter: fragment.NewSplitter(opener, editor, cfg.Paths.WorkDir, cfg.Split.StreamCopy, logger),
		combiner: fragment.NewCombiner(opener, opener, editor, logger),
		layout:   workspace.Layout{WorkDir: cfg.Paths.WorkDir, OutputDir: cfg.Paths.OutputDir},
		logger:   logging.NewComponentLogger(logger, "workflow"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Plan resolves and validates the configured pipeline. It has no side effects.
func (m *Manager) Plan() (*pipeline.Plan, error) {
	plan, err := pipeline.NewPlan(m.registry, m.cfg.Pipeline.Stages, m.planOptions())
	if err != nil {
		return nil, err
	}
	if err := plan.Check(m.splitting()); err != nil {
		return nil, err
	}
	if err := plan.Ready(); err != nil {
		return nil, err
	}
	return plan, nil
}

// Health probes every stage of the configured plan, or every registered stage
// when the plan does not resolve.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	stages := m.registry.Stages()
	if plan, err := pipeline.NewPlan(m.registry, m.cfg.Pipeline.Stages, m.planOptions()); err == nil {
		stages = plan.Stages()
	}
	out := make([]stage.Health, 0, len(stages))
	for _, s := range stages {
		out = append(out, s.HealthCheck(ctx))
	}
	return out
}

func (m *Manager) planOptions() pipeline.PlanOptions {
	opts := pipeline.PlanOptions{}
	if m.cfg.Pipeline.Metadata {
		opts.Trailing = pipeline.StageGenerateMetadata
	}
	return opts
}

func (m *Manager) splitting() bool {
	return m.cfg.Split.SizeMB > 0
}

func (m *Manager) seed() pipeline.Seed {
	return pipeline.Seed{
		ClipInterval:   m.cfg.Silence.ClipInterval,
		SoundThreshold: m.cfg.Silence.SoundThreshold,
		DiscardSilence: m.cfg.Silence.DiscardSilence,
		GainFactor:     m.cfg.Audio.GainFactor,
	}
}
