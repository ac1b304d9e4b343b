package workflow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"reelcut/internal/fileutil"
	"reelcut/internal/fragment"
	"reelcut/internal/history"
	"reelcut/internal/logging"
	"reelcut/internal/pipeline"
	"reelcut/internal/services"
	"reelcut/internal/stageexec"
	"reelcut/internal/workspace"
)

// Run processes inputs with the configured plan. A non-nil error means the
// run itself could not proceed (bad plan, locked work directory, fatal
// configuration error, cancellation); per-file failures are only reported in
// the Summary.
func (m *Manager) Run(ctx context.Context, inputs []string) (Summary, error) {
	summary := Summary{Started: time.Now()}

	plan, err := m.Plan()
	if err != nil {
		return summary, err
	}
	for _, s := range plan.Stages() {
		summary.Stages = append(summary.Stages, s.Name)
	}
	if len(inputs) == 0 {
		return summary, services.Wrap(services.ErrConfiguration, "workflow", "inputs", "no input files given", nil)
	}

	lock, err := workspace.AcquireLock(m.cfg.Paths.WorkDir)
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "workflow", "lock", m.cfg.Paths.WorkDir, err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			m.logger.Warn("work directory lock not released", logging.Error(err))
		}
	}()

	summary.RunID = uuid.NewString()
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, m.logger)

	if m.ledger != nil {
		run := history.Run{ID: summary.RunID, Started: summary.Started, Stages: summary.Stages, Inputs: len(inputs)}
		if err := m.ledger.BeginRun(ctx, run); err != nil {
			logging.WarnWithContext(logger, "run not recorded in history", "history_unavailable",
				logging.Error(err),
				logging.String(logging.FieldImpact, "reelcut history will not list this run"),
			)
		}
	}

	fileWorkers := max(1, m.cfg.Pipeline.FileWorkers)
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("files", len(inputs)),
		logging.String("stages", strings.Join(summary.Stages, ",")),
		logging.Int("file_workers", fileWorkers),
		logging.Int("split_size_mb", m.cfg.Split.SizeMB),
	)

	summary.Files = make([]FileResult, len(inputs))
	for i, input := range inputs {
		summary.Files[i] = FileResult{Path: input, Stem: fileutil.Stem(input), Status: StatusSkipped}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fileWorkers)
	for i, input := range inputs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res := m.processFile(gctx, plan, input)
			summary.Files[i] = res
			if res.Err != nil && services.IsFatalForRun(res.Err) {
				return res.Err
			}
			return nil
		})
	}
	runErr := g.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}

	summary.Elapsed = time.Since(summary.Started)
	m.finishRun(ctx, logger, summary)
	return summary, runErr
}

func (m *Manager) finishRun(ctx context.Context, logger *slog.Logger, summary Summary) {
	if m.ledger != nil {
		// Record even when the run was cancelled.
		ledgerCtx := context.WithoutCancel(ctx)
		for _, f := range summary.Files {
			if f.Status != StatusSkipped {
				continue
			}
			if err := m.ledger.RecordFile(ledgerCtx, f.record(summary.RunID)); err != nil {
				logger.Warn("skipped file not recorded in history", logging.Error(err))
			}
		}
		if err := m.ledger.FinishRun(ledgerCtx, summary.RunID, time.Now(), summary.Failed()); err != nil {
			logger.Warn("run completion not recorded in history", logging.Error(err))
		}
	}
	logger.Info("run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("succeeded", summary.Count(StatusSucceeded)),
		logging.Int("failed", summary.Count(StatusFailed)),
		logging.Int("skipped", summary.Count(StatusSkipped)),
		logging.Duration("duration", summary.Elapsed),
	)
}

// processFile runs one input end to end. Cleanup always runs.
func (m *Manager) processFile(ctx context.Context, plan *pipeline.Plan, path string) FileResult {
	started := time.Now()
	ctx = services.WithFile(ctx, path)
	logger := logging.WithContext(ctx, m.logger)
	res := FileResult{Path: path, Stem: fileutil.Stem(path)}

	logger.Info("file started", logging.String(logging.FieldEventType, "file_start"))

	var fragments []fragment.Fragment
	outputs, err := m.runFile(ctx, plan, path, res.Stem, &fragments)
	res.Fragments = len(fragments)
	res.Outputs = outputs
	res.Removed = m.cleanup(ctx, res.Stem, fragments)
	res.Elapsed = time.Since(started)

	if err != nil {
		res.Status = StatusFailed
		res.Stage = failedStage(err)
		res.Err = err
		m.handleFileFailure(logger, &res)
	} else {
		res.Status = StatusSucceeded
		logger.Info("file completed",
			logging.String(logging.FieldEventType, "file_complete"),
			logging.Int("fragments", res.Fragments),
			logging.Int("outputs", len(res.Outputs)),
			logging.Duration("duration", res.Elapsed),
		)
	}

	if m.ledger != nil {
		if err := m.ledger.RecordFile(context.WithoutCancel(ctx), res.record(summaryRunID(ctx))); err != nil {
			logger.Warn("file outcome not recorded in history", logging.Error(err))
		}
	}
	return res
}

// runFile splits, runs the plan and combines. fragments is filled as soon as
// the split succeeds so the caller can clean them up on failure.
func (m *Manager) runFile(ctx context.Context, plan *pipeline.Plan, path, stem string, fragments *[]fragment.Fragment) ([]string, error) {
	if m.splitting() {
		frags, err := m.splitter.Split(ctx, path, m.cfg.Split.SizeMB)
		if err != nil {
			return nil, failedAt("split", err)
		}
		*fragments = frags
	}

	if len(*fragments) == 0 {
		pc, err := m.openContext(ctx, path, stem)
		if err != nil {
			return nil, err
		}
		defer pc.Close()
		if err := m.runStages(ctx, pc, plan.Main); err != nil {
			return pc.Outputs(), err
		}
		err = m.runWhole(ctx, plan, pc)
		return pc.Outputs(), err
	}

	parts, err := m.runFragments(ctx, plan.Main, *fragments)
	outputs := fragmentOutputs(parts)
	if err != nil {
		return outputs, err
	}

	whole, err := m.wholeContext(ctx, path, stem, parts)
	if err != nil {
		return outputs, err
	}
	defer whole.Close()
	err = m.runWhole(ctx, plan, whole)
	return append(outputs, whole.Outputs()...), err
}

func (m *Manager) openContext(ctx context.Context, path, stem string) (*pipeline.Context, error) {
	h, err := m.opener.Open(ctx, path)
	if err != nil {
		return nil, failedAt("open", services.Wrap(services.ErrMediaIO, "open", "probe", path, err))
	}
	return pipeline.NewContext(h, stem, m.seed(), m.layout), nil
}

// runWhole applies the post-combination stages and then the trailing stage.
func (m *Manager) runWhole(ctx context.Context, plan *pipeline.Plan, pc *pipeline.Context) error {
	if err := m.runStages(ctx, pc, plan.Post); err != nil {
		return err
	}
	if plan.Trailing == nil {
		return nil
	}
	return m.runStages(ctx, pc, []pipeline.Stage{*plan.Trailing})
}

func (m *Manager) runStages(ctx context.Context, pc *pipeline.Context, stages []pipeline.Stage) error {
	var recorder stageexec.Recorder
	if m.ledger != nil {
		recorder = m.ledger
	}
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return failedAt(s.Name, err)
		}
		err := stageexec.Run(ctx, stageexec.Options{Logger: m.logger, Recorder: recorder, Stage: s, Context: pc})
		if err != nil {
			return failedAt(s.Name, err)
		}
	}
	return nil
}

// fragmentResult is what a processed fragment hands to the combiner.
type fragmentResult struct {
	fragment fragment.Fragment
	// inputs are the files that represent the fragment in the combined
	// output, in order. Empty when segmentation kept no clips.
	inputs  []string
	outputs []string
}

// runFragments applies the main stages to every fragment on a bounded pool
// and returns the results in fragment order.
func (m *Manager) runFragments(ctx context.Context, stages []pipeline.Stage, fragments []fragment.Fragment) ([]fragmentResult, error) {
	results := make([]fragmentResult, len(fragments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, m.cfg.Pipeline.FragmentWorkers))
	for i, f := range fragments {
		g.Go(func() error {
			fctx := services.WithFragment(gctx, f.Order)
			pc, err := m.openContext(fctx, f.Path, f.Stem())
			if err != nil {
				return err
			}
			defer pc.Close()
			if err := m.runStages(fctx, pc, stages); err != nil {
				return err
			}
			results[i] = fragmentResult{fragment: f, inputs: combinerInputs(pc, f), outputs: pc.Outputs()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// combinerInputs picks the files that stand for a processed fragment: its
// saved output, else its separated outputs, else nothing when segmentation
// kept no clips, else the untouched fragment.
func combinerInputs(pc *pipeline.Context, f fragment.Fragment) []string {
	switch {
	case pc.Has(pipeline.FieldOutputPath):
		return []string{pc.OutputPath()}
	case pc.Has(pipeline.FieldOutputPaths):
		return pc.OutputPaths()
	case pc.Has(pipeline.FieldClips) && len(pc.Clips()) == 0:
		return nil
	default:
		return []string{f.Path}
	}
}

func fragmentOutputs(parts []fragmentResult) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p.outputs...)
	}
	return out
}

// wholeContext builds the context for the post-combination stages: the
// combined file when combining, else the original input.
func (m *Manager) wholeContext(ctx context.Context, path, stem string, parts []fragmentResult) (*pipeline.Context, error) {
	if !m.cfg.Split.Combine {
		return m.openContext(ctx, path, stem)
	}

	var inputs []fragment.Fragment
	for _, p := range parts {
		for _, in := range p.inputs {
			inputs = append(inputs, fragment.Fragment{Path: in, Order: len(inputs), Start: p.fragment.Start, End: p.fragment.End})
		}
	}
	logger := logging.WithContext(ctx, m.logger)
	if len(inputs) == 0 {
		logging.WarnWithContext(logger, "no fragment produced output; combining skipped", "combine_skipped",
			logging.Int("fragments", len(parts)),
			logging.String(logging.FieldImpact, "post-combination stages run on the original input"),
		)
		return m.openContext(ctx, path, stem)
	}

	combined := m.layout.Combined(stem)
	result, err := m.combiner.Combine(ctx, inputs, combined)
	if err != nil {
		return nil, failedAt("combine", err)
	}
	pc := pipeline.NewContext(result.Handle, stem, m.seed(), m.layout)
	pc.SetOutputPath(combined)
	return pc, nil
}

func summaryRunID(ctx context.Context) string {
	id, _ := services.RunIDFromContext(ctx)
	return id
}
