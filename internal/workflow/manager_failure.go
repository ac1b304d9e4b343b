package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"reelcut/internal/logging"
	"reelcut/internal/services"
)

// stageError ties a failure to the step that produced it.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func failedAt(stageName string, err error) error {
	if err == nil {
		return nil
	}
	var se *stageError
	if errors.As(err, &se) {
		return err
	}
	return &stageError{stage: stageName, err: err}
}

func failedStage(err error) string {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage
	}
	return ""
}

func failureDetails(stageName string, err error) services.ErrorDetails {
	details := services.Details(err)
	message := strings.TrimSpace(details.Message)
	if message == "" {
		message = strings.TrimSpace(err.Error())
	}
	if message == "" {
		message = failureMessage(stageName, "failed")
	}
	details.Message = message
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		details.Kind = "cancelled"
	}
	return details
}

func failureMessage(stageName, defaultMsg string) string {
	if stageName != "" {
		return fmt.Sprintf("%s %s", stageName, defaultMsg)
	}
	return fmt.Sprintf("workflow %s", defaultMsg)
}

func (m *Manager) handleFileFailure(logger *slog.Logger, res *FileResult) {
	details := failureDetails(res.Stage, res.Err)
	impact := "file skipped; remaining files continue"
	if services.IsFatalForRun(res.Err) {
		impact = "run aborted; remaining files are skipped"
	}
	attrs := []logging.Attr{
		logging.String("failed_stage", res.Stage),
		logging.String("error_message", details.Message),
		logging.String(logging.FieldErrorKind, details.Kind),
		logging.String(logging.FieldImpact, impact),
		logging.Duration("duration", res.Elapsed),
		logging.Error(res.Err),
	}
	if hint := failureHint(res.Err); hint != "" {
		attrs = append(attrs, logging.String(logging.FieldErrorHint, hint))
	}
	logging.ErrorWithContext(logger, "file failed", "file_failure", attrs...)
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "check the pipeline and provider settings in config.toml"
	case errors.Is(err, services.ErrMissingField):
		return "reorder the pipeline so a producing stage runs first"
	case errors.Is(err, services.ErrIncompatibleFragment):
		return "set split.stream_copy = false so fragments share encoding parameters"
	case errors.Is(err, services.ErrMediaIO):
		return "run reelcut doctor to verify ffmpeg and ffprobe"
	default:
		return ""
	}
}
