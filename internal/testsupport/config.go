package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"reelcut/internal/config"
)

// ConfigOption adjusts the generated test configuration. base is the temp
// directory holding the work, output and history paths.
type ConfigOption func(t testing.TB, cfg *config.Config, base string)

// NewConfig returns a config whose directories live in a fresh temp dir and
// exist. Progress bars are off and the sample rate matches the PCM fixtures.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.History.Path = filepath.Join(base, "history", "history.db")
	cfg.Silence.Progress = false
	cfg.Silence.SampleRate = PCMRate

	for _, opt := range opts {
		opt(t, &cfg, base)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithStages sets the default pipeline.
func WithStages(names ...string) ConfigOption {
	return func(_ testing.TB, cfg *config.Config, _ string) {
		cfg.Pipeline.Stages = names
	}
}

// WithSplit enables fragment splitting at sizeMB MiB.
func WithSplit(sizeMB int, combine bool) ConfigOption {
	return func(_ testing.TB, cfg *config.Config, _ string) {
		cfg.Split.SizeMB, cfg.Split.Combine = sizeMB, combine
	}
}

// WithMetadata enables the trailing metadata stage with a fake key.
func WithMetadata() ConfigOption {
	return func(_ testing.TB, cfg *config.Config, _ string) {
		cfg.Pipeline.Metadata = true
		cfg.Metadata.APIKey = "test"
	}
}

// WithStubbedBinaries puts do-nothing executables named names (default
// ffmpeg, ffprobe and uvx) first on PATH for the rest of the test.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, _ *config.Config, base string) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "uvx"}
		}
		bin := filepath.Join(base, "bin")
		if err := os.MkdirAll(bin, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(bin, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the temp directory backing cfg.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
