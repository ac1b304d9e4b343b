package fragment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"reelcut/internal/fileutil"
	"reelcut/internal/logging"
	"reelcut/internal/media"
	"reelcut/internal/services"
)

// Fragment is an on-disk slice of the source timeline.
type Fragment struct {
	Path  string
	Order int
	Start float64
	End   float64
}

// Stem returns the fragment's file stem, used to name its intermediates.
func (f Fragment) Stem() string {
	return fileutil.Stem(f.Path)
}

// Inspector probes media files.
type Inspector interface {
	Inspect(ctx context.Context, path string) (media.Info, error)
}

// Opener opens media files into handles.
type Opener interface {
	Open(ctx context.Context, path string) (*media.Handle, error)
}

// Cutter extracts a time window of a file.
type Cutter interface {
	CutWindow(ctx context.Context, source string, start, end float64, dest string, streamCopy bool) error
}

// Joiner concatenates files without re-encoding.
type Joiner interface {
	Concat(ctx context.Context, paths []string, dest string) error
}

// Splitter cuts inputs into fragments.
type Splitter struct {
	inspector  Inspector
	cutter     Cutter
	workDir    string
	streamCopy bool
	logger     *slog.Logger
}

// NewSplitter constructs a Splitter writing fragments into workDir.
func NewSplitter(inspector Inspector, cutter Cutter, workDir string, streamCopy bool, logger *slog.Logger) *Splitter {
	return &Splitter{
		inspector:  inspector,
		cutter:     cutter,
		workDir:    workDir,
		streamCopy: streamCopy,
		logger:     logging.NewComponentLogger(logger, "fragment"),
	}
}

// Split cuts path into fragments no larger than maxFragmentSizeMB MiB. An
// empty result means the file already fits and must be processed whole.
func (s *Splitter) Split(ctx context.Context, path string, maxFragmentSizeMB int) ([]Fragment, error) {
	if maxFragmentSizeMB <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "split", "plan", fmt.Sprintf("fragment size must be positive, got %d MiB", maxFragmentSizeMB), nil)
	}
	info, err := s.inspector.Inspect(ctx, path)
	if err != nil {
		return nil, services.Wrap(services.ErrMediaIO, "split", "probe", path, err)
	}
	size := info.SizeBytes
	if size <= 0 {
		stat, err := os.Stat(path)
		if err != nil {
			return nil, services.Wrap(services.ErrMediaIO, "split", "stat", path, err)
		}
		size = stat.Size()
	}

	windows := Plan(info.Duration, size, int64(maxFragmentSizeMB)*BytesPerMiB)
	logger := logging.WithContext(ctx, s.logger)
	if len(windows) == 0 {
		logger.Info("input fits fragment budget; processing whole file",
			logging.String(logging.FieldEventType, "split_skipped"),
			logging.Int64("size_bytes", size),
			logging.Int("budget_mib", maxFragmentSizeMB),
		)
		return nil, nil
	}

	stem := fileutil.Stem(path)
	ext := filepath.Ext(path)
	fragments := make([]Fragment, 0, len(windows))
	for _, w := range windows {
		dest := filepath.Join(s.workDir, fmt.Sprintf("%s_part_%03d%s", stem, w.Index+1, ext))
		if err := s.cutter.CutWindow(ctx, path, w.Start, w.End, dest, s.streamCopy); err != nil {
			_ = Remove(fragments)
			return nil, services.Wrap(services.ErrMediaIO, "split", "cut", fmt.Sprintf("fragment %d", w.Index), err)
		}
		fragments = append(fragments, Fragment{Path: dest, Order: w.Index, Start: w.Start, End: w.End})
	}
	logger.Info("input split into fragments",
		logging.String(logging.FieldEventType, "split_complete"),
		logging.Int("fragments", len(fragments)),
		logging.Int64("size_bytes", size),
		logging.Int("budget_mib", maxFragmentSizeMB),
		logging.Bool("stream_copy", s.streamCopy),
	)
	return fragments, nil
}

// Remove deletes fragment files, ignoring missing ones.
func Remove(fragments []Fragment) error {
	var errs []error
	for _, f := range fragments {
		if _, err := fileutil.RemoveIfExists(f.Path); err != nil {
			errs = append(errs, services.Wrap(services.ErrFileSystem, "cleanup", "remove fragment", f.Path, err))
		}
	}
	return errors.Join(errs...)
}

// Result describes a combined file.
type Result struct {
	Handle *media.Handle
	// Expected is the sum of the fragment durations.
	Expected float64
	// Duration is the probed duration of the combined file.
	Duration float64
}

// Combiner joins processed fragments.
type Combiner struct {
	inspector Inspector
	opener    Opener
	joiner    Joiner
	logger    *slog.Logger
}

// NewCombiner constructs a Combiner.
func NewCombiner(inspector Inspector, opener Opener, joiner Joiner, logger *slog.Logger) *Combiner {
	return &Combiner{
		inspector: inspector,
		opener:    opener,
		joiner:    joiner,
		logger:    logging.NewComponentLogger(logger, "fragment"),
	}
}

// Combine concatenates fragments in Order into outputPath and opens the result.
func (c *Combiner) Combine(ctx context.Context, fragments []Fragment, outputPath string) (Result, error) {
	if len(fragments) == 0 {
		return Result{}, services.Wrap(services.ErrValidation, "combine", "order", "no fragments to combine", nil)
	}
	ordered := slices.Clone(fragments)
	slices.SortStableFunc(ordered, func(a, b Fragment) int { return a.Order - b.Order })
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Order == ordered[i-1].Order {
			return Result{}, services.Wrap(services.ErrValidation, "combine", "order", fmt.Sprintf("duplicate fragment order %d", ordered[i].Order), nil)
		}
	}

	infos := make([]media.Info, len(ordered))
	expected := 0.0
	for i, f := range ordered {
		info, err := c.inspector.Inspect(ctx, f.Path)
		if err != nil {
			return Result{}, services.Wrap(services.ErrMediaIO, "combine", "probe", f.Path, err)
		}
		infos[i] = info
		expected += info.Duration
	}
	for i := 1; i < len(ordered); i++ {
		if err := compatible(infos[0], infos[i], ordered[i]); err != nil {
			return Result{}, err
		}
	}

	paths := make([]string, len(ordered))
	for i, f := range ordered {
		paths[i] = f.Path
	}
	if len(paths) == 1 {
		if err := fileutil.CopyFileVerified(paths[0], outputPath); err != nil {
			return Result{}, services.Wrap(services.ErrMediaIO, "combine", "copy", paths[0], err)
		}
	} else if err := c.joiner.Concat(ctx, paths, outputPath); err != nil {
		return Result{}, services.Wrap(services.ErrMediaIO, "combine", "concat", outputPath, err)
	}

	handle, err := c.opener.Open(ctx, outputPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrMediaIO, "combine", "open", outputPath, err)
	}
	result := Result{Handle: handle, Expected: expected, Duration: handle.Duration()}

	logger := logging.WithContext(ctx, c.logger)
	frame := 1.0 / 30
	if fps := infos[0].FrameRate; fps > 0 {
		frame = 1 / fps
	}
	if drift := math.Abs(result.Duration - expected); drift > frame {
		logging.WarnWithContext(logger, "combined duration drifts from fragment total",
			"combine_drift",
			logging.Float64("expected_seconds", expected),
			logging.Float64("actual_seconds", result.Duration),
			logging.Float64("drift_seconds", drift),
			logging.String(logging.FieldImpact, "output timeline may be shifted at fragment boundaries"),
			logging.String(logging.FieldErrorHint, "set split.stream_copy = false for frame-accurate cuts"),
		)
	}
	logger.Info("fragments combined",
		logging.String(logging.FieldEventType, "combine_complete"),
		logging.Int("fragments", len(ordered)),
		logging.String("output", outputPath),
		logging.Float64("duration_seconds", result.Duration),
	)
	return result, nil
}

func compatible(want, got media.Info, f Fragment) error {
	mismatch := func(field, w, g string) error {
		return &IncompatibleFragmentError{Order: f.Order, Path: f.Path, Field: field, Want: w, Got: g}
	}
	if math.Abs(want.FrameRate-got.FrameRate) > 0.01 {
		return mismatch("frame rate", formatFloat(want.FrameRate), formatFloat(got.FrameRate))
	}
	if want.Width != got.Width || want.Height != got.Height {
		return mismatch("frame size", fmt.Sprintf("%dx%d", want.Width, want.Height), fmt.Sprintf("%dx%d", got.Width, got.Height))
	}
	if want.SampleRate != got.SampleRate {
		return mismatch("sample rate", strconv.Itoa(want.SampleRate), strconv.Itoa(got.SampleRate))
	}
	if want.Channels != got.Channels {
		return mismatch("channel count", strconv.Itoa(want.Channels), strconv.Itoa(got.Channels))
	}
	if want.VideoCodec != got.VideoCodec {
		return mismatch("video codec", want.VideoCodec, got.VideoCodec)
	}
	if want.AudioCodec != got.AudioCodec {
		return mismatch("audio codec", want.AudioCodec, got.AudioCodec)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
