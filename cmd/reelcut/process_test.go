package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"reelcut/internal/config"
	"reelcut/internal/history"
	"reelcut/internal/services"
	"reelcut/internal/testsupport"
	"reelcut/internal/workflow"
)

func newFlagCommand(t *testing.T, args ...string) (*cobra.Command, *processFlags) {
	t.Helper()
	var flags processFlags
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	flags.register(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd, &flags
}

func TestProcessFlagsOverrideOnlyChangedValues(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Stages = []string{"save_video"}
	cfg.Silence.SoundThreshold = 0.05
	cfg.Audio.GainFactor = 1.5

	cmd, flags := newFlagCommand(t,
		"--pipeline", "Trim_By_Silence, save_join",
		"-c", "0.5",
		"-d",
		"--split-size", "200",
		"--combine",
	)
	if err := flags.apply(cmd, &cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if got := strings.Join(cfg.Pipeline.Stages, ","); got != "trim_by_silence,save_join" {
		t.Fatalf("stages = %q", got)
	}
	if cfg.Silence.ClipInterval != 0.5 {
		t.Fatalf("clip interval = %v, want 0.5", cfg.Silence.ClipInterval)
	}
	if !cfg.Silence.DiscardSilence {
		t.Fatal("expected discard silence")
	}
	if cfg.Silence.SoundThreshold != 0.05 {
		t.Fatalf("sound threshold overridden without flag: %v", cfg.Silence.SoundThreshold)
	}
	if cfg.Audio.GainFactor != 1.5 {
		t.Fatalf("gain overridden without flag: %v", cfg.Audio.GainFactor)
	}
	if cfg.Split.SizeMB != 200 || !cfg.Split.Combine {
		t.Fatalf("split = %+v", cfg.Split)
	}
}

func TestSoundThresholdHelpNamesRMS(t *testing.T) {
	cmd, _ := newFlagCommand(t)
	usage := cmd.Flags().Lookup("sound-threshold").Usage
	if !strings.HasPrefix(usage, "RMS amplitude") {
		t.Fatalf("sound-threshold help should describe the RMS measure, got %q", usage)
	}
}

func TestProcessFlagsRevalidate(t *testing.T) {
	cfg := config.Default()
	cmd, flags := newFlagCommand(t, "--combine")
	if err := flags.apply(cmd, &cfg); err == nil {
		t.Fatal("expected combine without split size to be rejected")
	}

	cfg = config.Default()
	cmd, flags = newFlagCommand(t, "--metadata")
	err := flags.apply(cmd, &cfg)
	if err == nil {
		t.Fatal("expected metadata without an api key to be rejected")
	}
	requireContains(t, err.Error(), "metadata.api_key")
}

func TestProcessUnknownStageFailsBeforeAnyWork(t *testing.T) {
	env := setupCLITestEnv(t)
	input := filepath.Join(t.TempDir(), "talk.mp4")
	if err := os.WriteFile(input, []byte("not a video"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	out, _, err := runCLI(t, []string{"--pipeline", "trim_by_silence,make_coffee", input}, env.configPath)
	if err == nil {
		t.Fatal("expected unknown stage error")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, err.Error(), "make_coffee")
	if strings.Contains(out, "talk.mp4") {
		t.Fatalf("no summary expected for an invalid pipeline, got %q", out)
	}
	entries, err := os.ReadDir(env.cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty output dir, got %d entries", len(entries))
	}
}

func TestProcessReportsFailedFiles(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	missing := filepath.Join(t.TempDir(), "missing.mp4")

	out, _, err := runCLI(t, []string{"--pipeline", "save_video", missing}, env.configPath)
	if err == nil {
		t.Fatal("expected failure for a missing input")
	}
	requireContains(t, err.Error(), "1 of 1 files failed")
	requireContains(t, out, "missing.mp4")
	requireContains(t, out, "failed")

	store := testsupport.MustOpenHistory(t, env.cfg)
	runs, err := store.Runs(context.Background(), 5)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Failed != 1 || !runs[0].Done() {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

func TestRootWithoutInputsPrintsHelp(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	requireContains(t, out, "--pipeline")
}

func TestRenderSummary(t *testing.T) {
	summary := workflow.Summary{
		Elapsed: 3 * time.Second,
		Files: []workflow.FileResult{
			{Path: "/in/a.mp4", Status: workflow.StatusSucceeded, Outputs: []string{"/out/a_EDITED.mp4"}, Elapsed: 2 * time.Second},
			{Path: "/in/b.mp4", Status: workflow.StatusFailed, Stage: "save_video", Elapsed: time.Second},
		},
	}
	got := renderSummary(summary)
	for _, want := range []string{"a.mp4", "a_EDITED.mp4", "save_video", "1 succeeded, 1 failed, 0 skipped"} {
		requireContains(t, got, want)
	}
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	store, err := history.Open(env.cfg.History.Path)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	ctx := context.Background()
	started := time.Now().Add(-time.Minute)
	if err := store.BeginRun(ctx, history.Run{ID: "run-1", Started: started, Stages: []string{"save_video"}, Inputs: 1}); err != nil {
		t.Fatalf("begin run: %v", err)
	}
	if err := store.RecordFile(ctx, history.FileRecord{RunID: "run-1", Path: "/in/talk.mp4", Status: history.StatusSucceeded, Outputs: []string{"/out/talk_EDITED.mp4"}}); err != nil {
		t.Fatalf("record file: %v", err)
	}
	if err := store.FinishRun(ctx, "run-1", time.Now(), 0); err != nil {
		t.Fatalf("finish run: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "run-1")
	requireContains(t, out, "save_video")

	out, _, err = runCLI(t, []string{"history", "--run", "run-1"}, env.configPath)
	if err != nil {
		t.Fatalf("history --run: %v", err)
	}
	requireContains(t, out, "talk_EDITED.mp4")

	if _, _, err := runCLI(t, []string{"history", "--run", "nope"}, env.configPath); err == nil {
		t.Fatal("expected unknown run error")
	}
}
