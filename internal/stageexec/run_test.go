package stageexec

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"reelcut/internal/pipeline"
	"reelcut/internal/services"
	"reelcut/internal/workspace"
)

type memoryRecorder struct {
	events []Event
}

func (m *memoryRecorder) RecordStage(_ context.Context, ev Event) error {
	m.events = append(m.events, ev)
	return nil
}

func newContext() *pipeline.Context {
	return pipeline.NewContext(nil, "clip", pipeline.Seed{ClipInterval: 2}, workspace.Layout{})
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestRunLogsStartAndComplete(t *testing.T) {
	logger, buf := bufferLogger()
	rec := &memoryRecorder{}
	ctx := services.WithFragment(services.WithFile(context.Background(), "clip.mp4"), 2)
	s := pipeline.Stage{
		Name:     "save_video",
		Requires: []pipeline.Field{pipeline.FieldStem},
		Run: func(_ context.Context, pc *pipeline.Context) error {
			pc.SetOutputPath("clip_EDITED.mp4")
			return nil
		},
	}
	pc := newContext()
	if err := Run(ctx, Options{Logger: logger, Recorder: rec, Stage: s, Context: pc}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pc.OutputPath() != "clip_EDITED.mp4" {
		t.Fatalf("stage did not run")
	}
	out := buf.String()
	for _, want := range []string{`"event_type":"stage_start"`, `"event_type":"stage_complete"`, `"stage":"save_video"`, `"file":"clip.mp4"`, `"fragment":2`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in logs, got %s", want, out)
		}
	}
	if len(rec.events) != 1 || rec.events[0].File != "clip.mp4" || rec.events[0].Fragment != 2 || rec.events[0].Err != nil {
		t.Fatalf("unexpected events %+v", rec.events)
	}
}

func TestRunFailsOnMissingFieldWithoutRunning(t *testing.T) {
	logger, buf := bufferLogger()
	ran := false
	s := pipeline.Stage{
		Name:     "generate_metadata",
		Requires: []pipeline.Field{pipeline.FieldTranscriptPath},
		Run:      func(context.Context, *pipeline.Context) error { ran = true; return nil },
	}
	err := Run(context.Background(), Options{Logger: logger, Stage: s, Context: newContext()})
	var missing *pipeline.MissingFieldError
	if !errors.As(err, &missing) || missing.Field != pipeline.FieldTranscriptPath {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if ran {
		t.Fatalf("stage must not run without its required fields")
	}
	if !strings.Contains(buf.String(), `"event_type":"stage_failure"`) || !strings.Contains(buf.String(), `"error_kind":"missing_field"`) {
		t.Fatalf("expected failure log, got %s", buf.String())
	}
}
