package drapto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	draptolib "github.com/five82/drapto"

	"reelcut/internal/logging"
)

// Progress is a simplified view of Drapto progress events.
type Progress struct {
	Percent float64
	Stage   string
	Message string
}

// Encoder compresses inputPath into outputDir and returns the produced file.
type Encoder interface {
	Encode(ctx context.Context, inputPath, outputDir string) (string, error)
}

// Option configures a Library.
type Option func(*Library)

// WithProgress registers a callback for progress events.
func WithProgress(fn func(Progress)) Option {
	return func(l *Library) {
		l.progress = fn
	}
}

// Library implements Encoder with the Drapto Go library.
type Library struct {
	logger   *slog.Logger
	progress func(Progress)
}

// NewLibrary constructs a Library client.
func NewLibrary(logger *slog.Logger, opts ...Option) *Library {
	if logger == nil {
		logger = logging.NewNop()
	}
	l := &Library{logger: logger.With(logging.String(logging.FieldComponent, "drapto"))}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OutputPath returns where Drapto writes the encode of inputPath.
func OutputPath(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(strings.TrimSpace(outputDir), stem+".mkv")
}

// Encode encodes inputPath into outputDir.
func (l *Library) Encode(ctx context.Context, inputPath, outputDir string) (string, error) {
	if strings.TrimSpace(inputPath) == "" {
		return "", errors.New("input path required")
	}
	if strings.TrimSpace(outputDir) == "" {
		return "", errors.New("output directory required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return "", fmt.Errorf("drapto init: %w", err)
	}
	rep := newReporter(logging.WithContext(ctx, l.logger), l.progress)
	if _, err := encoder.EncodeWithReporter(ctx, inputPath, outputDir, rep); err != nil {
		return "", fmt.Errorf("drapto encode: %w", err)
	}
	return OutputPath(inputPath, outputDir), nil
}

var _ Encoder = (*Library)(nil)
