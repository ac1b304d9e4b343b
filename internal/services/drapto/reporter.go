package drapto

import (
	"log/slog"

	draptolib "github.com/five82/drapto"

	"reelcut/internal/logging"
)

// reporter logs Drapto callbacks. Progress lines go through a sampler so a
// long encode logs every 10% instead of every frame batch.
type reporter struct {
	logger   *slog.Logger
	sampler  *logging.ProgressSampler
	callback func(Progress)
}

func newReporter(logger *slog.Logger, callback func(Progress)) *reporter {
	return &reporter{logger: logger, sampler: logging.NewProgressSampler(10), callback: callback}
}

func (r *reporter) emit(p Progress) {
	if r.sampler.ShouldLog(p.Percent, p.Stage) {
		r.logger.Info("compress progress",
			logging.String(logging.FieldEventType, "compress_progress"),
			logging.String("phase", p.Stage),
			logging.Float64("percent", p.Percent),
			logging.String("message", p.Message),
		)
	}
	if r.callback != nil {
		r.callback(p)
	}
}

func (r *reporter) Hardware(s draptolib.HardwareSummary) {
	r.logger.Debug("drapto hardware", logging.Any("hostname", s.Hostname))
}

func (r *reporter) Initialization(s draptolib.InitializationSummary) {
	r.logger.Info("compress initialized",
		logging.Any("input", s.InputFile),
		logging.Any("output", s.OutputFile),
		logging.Any("resolution", s.Resolution),
		logging.Any("dynamic_range", s.DynamicRange),
	)
}

func (r *reporter) StageProgress(s draptolib.StageProgress) {
	r.emit(Progress{Percent: float64(s.Percent), Stage: s.Stage, Message: s.Message})
}

func (r *reporter) CropResult(s draptolib.CropSummary) {
	r.logger.Debug("drapto crop", logging.Any("crop", s.Crop), logging.Any("required", s.Required))
}

func (r *reporter) EncodingConfig(s draptolib.EncodingConfigSummary) {
	r.logger.Info("compress settings",
		logging.Any("encoder", s.Encoder),
		logging.Any("preset", s.Preset),
		logging.Any("quality", s.Quality),
		logging.Any("audio_codec", s.AudioCodec),
	)
}

func (r *reporter) EncodingStarted(totalFrames uint64) {
	r.sampler.Reset()
	r.logger.Debug("compress encoding started", logging.Int64("total_frames", int64(totalFrames)))
}

func (r *reporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	r.emit(Progress{Percent: float64(s.Percent), Stage: "encoding"})
}

func (r *reporter) ValidationComplete(s draptolib.ValidationSummary) {
	if s.Passed {
		r.logger.Debug("compress validation passed")
		return
	}
	for _, step := range s.Steps {
		if !step.Passed {
			r.logger.Warn("compress validation failed",
				logging.Any("check", step.Name),
				logging.Any("details", step.Details),
				logging.String(logging.FieldImpact, "encoded output may not match the source"),
			)
		}
	}
}

func (r *reporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.logger.Info("compress complete",
		logging.Any("output", s.OutputPath),
		logging.Any("original_bytes", s.OriginalSize),
		logging.Any("encoded_bytes", s.EncodedSize),
		logging.Any("elapsed", s.TotalTime),
	)
	r.emit(Progress{Percent: 100, Stage: "complete"})
}

func (r *reporter) Warning(message string) {
	r.logger.Warn("drapto warning", logging.String("message", message))
}

func (r *reporter) Error(e draptolib.ReporterError) {
	r.logger.Error("drapto error",
		logging.Any("title", e.Title),
		logging.Any("message", e.Message),
		logging.Any(logging.FieldErrorHint, e.Suggestion),
	)
}

func (r *reporter) OperationComplete(message string) {
	r.logger.Debug("drapto operation complete", logging.String("message", message))
}

// Batch callbacks never fire for single-file encodes.
func (r *reporter) BatchStarted(draptolib.BatchStartInfo)      {}
func (r *reporter) FileProgress(draptolib.FileProgressContext) {}
func (r *reporter) BatchComplete(draptolib.BatchSummary)       {}

var _ draptolib.Reporter = (*reporter)(nil)
