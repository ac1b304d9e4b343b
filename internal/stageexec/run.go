package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reelcut/internal/logging"
	"reelcut/internal/pipeline"
	"reelcut/internal/services"
)

// Event is one finished stage execution.
type Event struct {
	Stage    string
	File     string
	Fragment int
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Recorder persists stage events (the history ledger).
type Recorder interface {
	RecordStage(ctx context.Context, ev Event) error
}

// Options controls a single stage execution.
type Options struct {
	Logger   *slog.Logger
	Recorder Recorder
	Stage    pipeline.Stage
	Context  *pipeline.Context
}

// Run checks the stage's required fields, executes it and logs the
// transition. The stage's own error is returned unchanged.
func Run(ctx context.Context, opts Options) error {
	if opts.Stage.Run == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.Stage.Name)
	}
	if opts.Context == nil {
		return fmt.Errorf("processing context is required")
	}

	stageCtx := services.WithStage(ctx, opts.Stage.Name)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	started := time.Now()

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("stem", opts.Context.Stem()),
	)

	err := opts.Context.Require(opts.Stage.Name, opts.Stage.Requires...)
	if err == nil {
		err = opts.Stage.Run(stageCtx, opts.Context)
	}
	elapsed := time.Since(started)
	record(stageCtx, stageLogger, opts, started, elapsed, err)

	if err != nil {
		return handleFailure(stageLogger, elapsed, err)
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("duration", elapsed),
	)
	return nil
}

func handleFailure(logger *slog.Logger, elapsed time.Duration, stageErr error) error {
	details := services.Details(stageErr)
	message := strings.TrimSpace(details.Message)
	if message == "" {
		message = strings.TrimSpace(stageErr.Error())
	}
	logger.Error(
		"stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String(logging.FieldErrorKind, details.Kind),
		logging.String("error_message", message),
		logging.Duration("duration", elapsed),
		logging.Error(stageErr),
	)
	return stageErr
}

func record(ctx context.Context, logger *slog.Logger, opts Options, started time.Time, elapsed time.Duration, stageErr error) {
	if opts.Recorder == nil {
		return
	}
	ev := Event{
		Stage:    opts.Stage.Name,
		Fragment: -1,
		Started:  started,
		Duration: elapsed,
		Err:      stageErr,
	}
	if file, ok := services.FileFromContext(ctx); ok {
		ev.File = file
	}
	if idx, ok := services.FragmentFromContext(ctx); ok {
		ev.Fragment = idx
	}
	if err := opts.Recorder.RecordStage(ctx, ev); err != nil {
		logger.Warn("stage event not recorded", logging.Error(err))
	}
}
