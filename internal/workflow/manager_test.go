package workflow_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"reelcut/internal/config"
	"reelcut/internal/fragment"
	"reelcut/internal/history"
	"reelcut/internal/logging"
	"reelcut/internal/pipeline"
	"reelcut/internal/services"
	"reelcut/internal/stages"
	"reelcut/internal/subtitles"
	"reelcut/internal/testsupport"
	"reelcut/internal/workflow"
	"reelcut/internal/workspace"
)

type stubDenoiser struct{}

func (stubDenoiser) Denoise(_ context.Context, _, dest string) error {
	return os.WriteFile(dest, []byte("RIFF"), 0o644)
}

type stubTranscriber struct {
	mu    sync.Mutex
	paths []string
}

func (s *stubTranscriber) Transcribe(_ context.Context, audioPath string) ([]subtitles.Cue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, audioPath)
	return []subtitles.Cue{{Start: 0.5, End: 1.5, Text: "hello there"}}, nil
}

func (s *stubTranscriber) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// stubProvider answers metadata prompts and records how many transcriptions
// had happened when each prompt arrived.
type stubProvider struct {
	mu          sync.Mutex
	transcriber *stubTranscriber
	seen        []int
}

func (p *stubProvider) CompleteJSON(context.Context, string, string) (string, error) {
	n := len(p.transcriber.calls())
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, n)
	return `{"title": "A Long Talk", "description": "Two people talk.", "hashtags": ["#talk", "#go"]}`, nil
}

func (p *stubProvider) HealthCheck(context.Context) error { return nil }

type harness struct {
	cfg         *config.Config
	media       *testsupport.FakeMedia
	transcriber *stubTranscriber
	layout      workspace.Layout
	deps        stages.Deps
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	fm := testsupport.NewFakeMedia()
	tr := &stubTranscriber{}
	return &harness{
		cfg:         cfg,
		media:       fm,
		transcriber: tr,
		layout:      workspace.Layout{WorkDir: cfg.Paths.WorkDir, OutputDir: cfg.Paths.OutputDir},
		deps: stages.Deps{
			Renderer:         fm,
			Denoiser:         stubDenoiser{},
			Transcriber:      tr,
			MetadataLanguage: "english",
		},
	}
}

func (h *harness) manager(t *testing.T, opts ...workflow.ManagerOption) *workflow.Manager {
	t.Helper()
	return h.managerWithLogger(t, logging.NewNop(), opts...)
}

func (h *harness) managerWithLogger(t *testing.T, logger *slog.Logger, opts ...workflow.ManagerOption) *workflow.Manager {
	t.Helper()
	reg, err := stages.NewRegistry(h.deps)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return workflow.NewManager(h.cfg, reg, h.media.Decoder(h.cfg.Paths.WorkDir), h.media, logger, opts...)
}

func (h *harness) input(t *testing.T, name string, f testsupport.FakeFile) string {
	t.Helper()
	path := filepath.Join(testsupport.BaseDir(h.cfg), "in", name)
	h.media.Add(t, path, f)
	return path
}

const mib = fragment.BytesPerMiB

func talk(duration int, loud bool) testsupport.FakeFile {
	pattern := make([]bool, duration)
	for i := range pattern {
		pattern[i] = loud || i%4 < 2
	}
	return testsupport.FakeFile{Duration: float64(duration), Width: 1920, Height: 1080, Loud: pattern, SizeBytes: mib / 2}
}

func assertMissing(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected %s to be removed, stat err=%v", p, err)
		}
	}
}

func TestRunWholeFileTrimAndJoin(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.TrimBySilence, stages.SaveJoin))
	in := h.input(t, "talk.mp4", talk(8, false))

	summary, err := h.manager(t).Run(context.Background(), []string{in})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}
	if len(summary.Files) != 1 || summary.Files[0].Status != workflow.StatusSucceeded {
		t.Fatalf("unexpected summary %#v", summary.Files)
	}
	want := []string{h.layout.Edited("talk")}
	if got := summary.Files[0].Outputs; !slices.Equal(got, want) {
		t.Fatalf("outputs = %v, want %v", got, want)
	}
	if calls := h.media.CallsTo("render_clips"); len(calls) != 1 || calls[0].Dest != want[0] {
		t.Fatalf("unexpected render calls %#v", calls)
	}
	if summary.ExitCode() != 0 {
		t.Fatalf("exit code = %d", summary.ExitCode())
	}
}

func TestRunRemovesIntermediates(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.Denoise, stages.SaveVideo))
	in := h.input(t, "clip.mp4", talk(4, true))

	summary, err := h.manager(t).Run(context.Background(), []string{in})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	res := summary.Files[0]
	if res.Status != workflow.StatusSucceeded {
		t.Fatalf("file failed: %v", res.Err)
	}
	if res.Removed != 2 {
		t.Fatalf("removed = %d, want 2", res.Removed)
	}
	assertMissing(t, h.layout.Audio("clip"), h.layout.Denoised("clip"))
	if _, err := os.Stat(h.layout.Edited("clip")); err != nil {
		t.Fatalf("expected edited output: %v", err)
	}
}

func TestRunWithoutIntermediatesRemovesNothing(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.SaveVideo))
	in := h.input(t, "clip.mp4", talk(4, true))

	summary, err := h.manager(t).Run(context.Background(), []string{in})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	res := summary.Files[0]
	if res.Status != workflow.StatusSucceeded {
		t.Fatalf("file failed at %s: %v", res.Stage, res.Err)
	}
	if res.Removed != 0 {
		t.Fatalf("removed = %d, want 0", res.Removed)
	}
	if summary.ExitCode() != 0 {
		t.Fatalf("exit code = %d", summary.ExitCode())
	}
}

func TestRunUndeletableIntermediateOnlyWarns(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.SaveVideo))
	in := h.input(t, "clip.mp4", talk(4, true))
	// A non-empty directory where the extracted audio would live cannot be
	// removed with a plain unlink.
	blocker := h.layout.Audio("clip")
	if err := os.MkdirAll(filepath.Join(blocker, "keep"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	summary, err := h.managerWithLogger(t, logger).Run(context.Background(), []string{in})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	res := summary.Files[0]
	if res.Status != workflow.StatusSucceeded || res.Err != nil {
		t.Fatalf("cleanup failure must not fail the file: %#v", res)
	}
	if res.Removed != 0 {
		t.Fatalf("removed = %d, want 0", res.Removed)
	}
	out := buf.String()
	if !strings.Contains(out, `"event_type":"cleanup_failed"`) || !strings.Contains(out, `"error_kind":"file_system"`) {
		t.Fatalf("expected cleanup_failed warning, got %s", out)
	}
	if _, err := os.Stat(blocker); err != nil {
		t.Fatalf("blocker should remain: %v", err)
	}
}

func TestRunCleansUpAfterFailure(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.Denoise, stages.SaveVideo))
	h.media.FailOn("render", errors.New("encoder crashed"))
	in := h.input(t, "clip.mp4", talk(4, true))

	summary, err := h.manager(t).Run(context.Background(), []string{in})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	res := summary.Files[0]
	if res.Status != workflow.StatusFailed || res.Stage != stages.SaveVideo {
		t.Fatalf("unexpected result %#v", res)
	}
	if !errors.Is(res.Err, services.ErrMediaIO) {
		t.Fatalf("expected media io error, got %v", res.Err)
	}
	assertMissing(t, h.layout.Audio("clip"), h.layout.Denoised("clip"))
	if summary.ExitCode() != 1 {
		t.Fatalf("exit code = %d, want 1", summary.ExitCode())
	}
}

func TestRunUnknownStageAbortsBeforeProcessing(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.TrimBySilence, "sharpen"))
	in := h.input(t, "clip.mp4", talk(4, true))

	summary, err := h.manager(t).Run(context.Background(), []string{in})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	var unknown *pipeline.UnknownStageError
	if !errors.As(err, &unknown) || unknown.Name != "sharpen" {
		t.Fatalf("expected UnknownStageError for sharpen, got %v", err)
	}
	if len(summary.Files) != 0 || len(h.media.Calls()) != 0 {
		t.Fatalf("nothing should be processed: files=%d calls=%d", len(summary.Files), len(h.media.Calls()))
	}
	entries, _ := os.ReadDir(h.cfg.Paths.OutputDir)
	if len(entries) != 0 {
		t.Fatalf("output dir should be empty, has %d entries", len(entries))
	}
}

func TestRunMissingFieldIsConfigurationError(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.Compress))
	in := h.input(t, "clip.mp4", talk(4, true))

	_, err := h.manager(t).Run(context.Background(), []string{in})
	if !errors.Is(err, services.ErrConfiguration) || !errors.Is(err, services.ErrMissingField) {
		t.Fatalf("expected configuration error wrapping missing field, got %v", err)
	}
	if len(h.media.Calls()) != 0 {
		t.Fatal("no media operation expected")
	}
}

func TestRunUnconfiguredProviderAborts(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.SaveVideo), testsupport.WithMetadata())
	in := h.input(t, "clip.mp4", talk(4, true))

	_, err := h.manager(t).Run(context.Background(), []string{in})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(h.media.Calls()) != 0 {
		t.Fatal("no media operation expected")
	}
}

func TestRunSplitAndCombine(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.SaveVideo), testsupport.WithSplit(1, true))
	file := talk(6, true)
	file.SizeBytes = 3 * mib
	in := h.input(t, "long.mp4", file)

	summary, err := h.manager(t).Run(context.Background(), []string{in})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	res := summary.Files[0]
	if res.Status != workflow.StatusSucceeded {
		t.Fatalf("file failed at %s: %v", res.Stage, res.Err)
	}
	if res.Fragments != 3 {
		t.Fatalf("fragments = %d, want 3", res.Fragments)
	}
	want := []string{
		h.layout.Edited("long_part_001"),
		h.layout.Edited("long_part_002"),
		h.layout.Edited("long_part_003"),
		h.layout.Combined("long"),
	}
	if !slices.Equal(res.Outputs, want) {
		t.Fatalf("outputs = %v, want %v", res.Outputs, want)
	}
	if n := len(h.media.CallsTo("cut")); n != 3 {
		t.Fatalf("cut calls = %d, want 3", n)
	}
	combined, ok := h.media.File(h.layout.Combined("long"))
	if !ok || combined.Duration != 6 {
		t.Fatalf("unexpected combined file %#v", combined)
	}
	assertMissing(t,
		filepath.Join(h.cfg.Paths.WorkDir, "long_part_001.mp4"),
		filepath.Join(h.cfg.Paths.WorkDir, "long_part_003.mp4"),
	)
}

func TestRunPostStageRunsOnceOnCombinedFile(t *testing.T) {
	// transcript is listed first but is deferred until the combined file exists.
	h := newHarness(t, testsupport.WithStages(stages.Transcript, stages.SaveVideo), testsupport.WithSplit(1, true))
	file := talk(6, true)
	file.SizeBytes = 3 * mib
	in := h.input(t, "long.mp4", file)

	summary, err := h.manager(t).Run(context.Background(), []string{in})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	res := summary.Files[0]
	if res.Status != workflow.StatusSucceeded {
		t.Fatalf("file failed at %s: %v", res.Stage, res.Err)
	}
	if res.Fragments != 3 {
		t.Fatalf("fragments = %d, want 3", res.Fragments)
	}
	if got := h.transcriber.calls(); !slices.Equal(got, []string{h.layout.Audio("long")}) {
		t.Fatalf("transcript should run once on the combined file, got %v", got)
	}
	extracts := h.media.CallsTo("extract_audio")
	if len(extracts) != 1 || extracts[0].Src != h.layout.Combined("long") {
		t.Fatalf("expected one extraction from the combined file, got %#v", extracts)
	}
	if !slices.Contains(res.Outputs, h.layout.Transcript("long")) {
		t.Fatalf("transcript missing from outputs %v", res.Outputs)
	}
}

func TestRunTrailingMetadataAfterPostStages(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.Transcript, stages.SaveVideo),
		testsupport.WithSplit(1, true), testsupport.WithMetadata())
	provider := &stubProvider{transcriber: h.transcriber}
	h.deps.Provider = provider
	file := talk(6, true)
	file.SizeBytes = 3 * mib
	in := h.input(t, "long.mp4", file)

	summary, err := h.manager(t).Run(context.Background(), []string{in})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	res := summary.Files[0]
	if res.Status != workflow.StatusSucceeded {
		t.Fatalf("file failed at %s: %v", res.Stage, res.Err)
	}
	if !slices.Equal(provider.seen, []int{1}) {
		t.Fatalf("expected one metadata call after the single transcription, got %v", provider.seen)
	}
	if len(h.transcriber.calls()) != 1 {
		t.Fatalf("transcriber calls = %v", h.transcriber.calls())
	}
	if got := res.Outputs[len(res.Outputs)-1]; got != h.layout.Metadata("long") {
		t.Fatalf("metadata should be the last output, got %v", res.Outputs)
	}
	data, err := os.ReadFile(h.layout.Metadata("long"))
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if !strings.Contains(string(data), "A Long Talk") {
		t.Fatalf("unexpected metadata %q", data)
	}
}

func TestRunKeepsFragmentsWhenConfigured(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.SaveVideo), testsupport.WithSplit(1, true))
	h.cfg.Split.KeepFragments = true
	file := talk(4, true)
	file.SizeBytes = 2 * mib
	in := h.input(t, "long.mp4", file)

	if _, err := h.manager(t).Run(context.Background(), []string{in}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, name := range []string{"long_part_001.mp4", "long_part_002.mp4"} {
		if _, err := os.Stat(filepath.Join(h.cfg.Paths.WorkDir, name)); err != nil {
			t.Fatalf("expected fragment %s to be kept: %v", name, err)
		}
	}
}

func TestRunSplitWithoutCombineRunsPostStagesOnInput(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.SaveVideo, stages.Transcript), testsupport.WithSplit(1, false))
	file := talk(4, true)
	file.SizeBytes = 2 * mib
	in := h.input(t, "long.mp4", file)

	summary, err := h.manager(t).Run(context.Background(), []string{in})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	res := summary.Files[0]
	if res.Status != workflow.StatusSucceeded {
		t.Fatalf("file failed at %s: %v", res.Stage, res.Err)
	}
	if len(h.media.CallsTo("concat")) != 0 {
		t.Fatal("combine should not run")
	}
	if !slices.Equal(h.transcriber.paths, []string{h.layout.Audio("long")}) {
		t.Fatalf("transcript should run once on the whole input, got %v", h.transcriber.paths)
	}
	if !slices.Contains(res.Outputs, h.layout.Transcript("long")) {
		t.Fatalf("transcript missing from outputs %v", res.Outputs)
	}
	assertMissing(t, h.layout.Audio("long"))
}

func TestRunZeroClipsSkipsCombine(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.TrimBySilence, stages.SaveJoin), testsupport.WithSplit(1, true))
	h.cfg.Silence.DiscardSilence = true
	silent := testsupport.FakeFile{Duration: 4, Width: 1280, Height: 720, SizeBytes: 2 * mib}
	in := h.input(t, "quiet.mp4", silent)

	summary, err := h.manager(t).Run(context.Background(), []string{in})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	res := summary.Files[0]
	if res.Status != workflow.StatusSucceeded {
		t.Fatalf("file failed at %s: %v", res.Stage, res.Err)
	}
	if len(res.Outputs) != 0 {
		t.Fatalf("expected no outputs, got %v", res.Outputs)
	}
	if len(h.media.CallsTo("concat")) != 0 || len(h.media.CallsTo("render_clips")) != 0 {
		t.Fatal("nothing should be rendered or combined")
	}
}

func TestRunFailingFileDoesNotStopOthers(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.SaveVideo))
	missing := filepath.Join(testsupport.BaseDir(h.cfg), "in", "missing.mp4")
	ok := h.input(t, "ok.mp4", talk(4, true))

	summary, err := h.manager(t).Run(context.Background(), []string{missing, ok})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(summary.Files) != 2 {
		t.Fatalf("expected two results, got %d", len(summary.Files))
	}
	first, second := summary.Files[0], summary.Files[1]
	if first.Status != workflow.StatusFailed || first.Stage != "open" || !errors.Is(first.Err, services.ErrMediaIO) {
		t.Fatalf("unexpected first result %#v", first)
	}
	if second.Status != workflow.StatusSucceeded || second.Path != ok {
		t.Fatalf("unexpected second result %#v", second)
	}
	if summary.Failed() != 1 || summary.ExitCode() != 1 {
		t.Fatalf("failed=%d exit=%d", summary.Failed(), summary.ExitCode())
	}
}

func TestRunRefusesLockedWorkDir(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.SaveVideo))
	in := h.input(t, "clip.mp4", talk(4, true))

	lock, err := workspace.AcquireLock(h.cfg.Paths.WorkDir)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer lock.Release()

	_, err = h.manager(t).Run(context.Background(), []string{in})
	if !errors.Is(err, workspace.ErrLocked) {
		t.Fatalf("expected locked error, got %v", err)
	}
}

func TestRunCancelledSkipsFiles(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.SaveVideo))
	in := h.input(t, "clip.mp4", talk(4, true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := h.manager(t).Run(ctx, []string{in})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if summary.Files[0].Status != workflow.StatusSkipped {
		t.Fatalf("expected skipped file, got %#v", summary.Files[0])
	}
}

func TestRunRecordsHistory(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.TrimBySilence, stages.SaveJoin))
	ledger := testsupport.MustOpenHistory(t, h.cfg)
	in := h.input(t, "talk.mp4", talk(8, false))

	summary, err := h.manager(t, workflow.WithLedger(ledger)).Run(context.Background(), []string{in})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ctx := context.Background()
	runs, err := ledger.Runs(ctx, 5)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != summary.RunID || !runs[0].Done() || runs[0].Failed != 0 {
		t.Fatalf("unexpected runs %#v", runs)
	}
	files, err := ledger.Files(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 1 || files[0].Status != history.StatusSucceeded || files[0].Path != in {
		t.Fatalf("unexpected files %#v", files)
	}
	events, err := ledger.Stages(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("Stages: %v", err)
	}
	var names []string
	for _, ev := range events {
		names = append(names, ev.Stage)
	}
	if !slices.Equal(names, []string{stages.TrimBySilence, stages.SaveJoin}) {
		t.Fatalf("unexpected stage events %v", names)
	}
}

func TestHealthCoversPlanStages(t *testing.T) {
	h := newHarness(t, testsupport.WithStages(stages.Denoise, stages.SaveVideo), testsupport.WithMetadata())
	health := h.manager(t).Health(context.Background())

	var names []string
	ready := map[string]bool{}
	for _, s := range health {
		names = append(names, s.Name)
		ready[s.Name] = s.Ready
	}
	want := []string{stages.Denoise, stages.SaveVideo, stages.Transcript, stages.GenerateMetadata}
	if !slices.Equal(names, want) {
		t.Fatalf("health names = %v, want %v", names, want)
	}
	if !ready[stages.Denoise] || ready[stages.GenerateMetadata] {
		t.Fatalf("unexpected readiness %v", ready)
	}
}
