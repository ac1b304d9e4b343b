package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reelcut/internal/config"
)

type fakeService struct {
	err error
}

func (f fakeService) HealthCheck(context.Context) error { return f.err }

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckService(t *testing.T) {
	if r := CheckService(context.Background(), "Metadata LLM", fakeService{}); !r.Passed {
		t.Fatalf("expected pass, got: %s", r.Detail)
	}
	r := CheckService(context.Background(), "Metadata LLM", fakeService{err: errors.New("401 unauthorized")})
	if r.Passed || r.Detail != "401 unauthorized" {
		t.Fatalf("unexpected result %#v", r)
	}
	r = CheckService(context.Background(), "Metadata LLM", fakeService{err: context.DeadlineExceeded})
	if r.Passed || r.Detail != "health check timed out (API unresponsive)" {
		t.Fatalf("unexpected timeout result %#v", r)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_DirectoriesAndProbes(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")

	results := RunAll(context.Background(), &cfg,
		Probe{Name: "Metadata LLM", Service: fakeService{}},
		Probe{Name: "Transcription API"},
	)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for _, r := range results[:4] {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if results[4].Passed || results[4].Detail != NotConfigured {
		t.Fatalf("unconfigured probe should fail, got %#v", results[4])
	}
	if !Passed(results) {
		t.Fatal("an unconfigured probe should not fail the checks")
	}
	results[0].Passed = false
	if Passed(results) {
		t.Fatal("Passed should report the failing check")
	}
}

func TestCheckSystemDepsMarksUVXOptional(t *testing.T) {
	t.Setenv("PATH", "")
	cfg := config.Default()
	cfg.Pipeline.Stages = []string{"trim_by_silence", "save_join"}

	statuses := CheckSystemDeps(&cfg, "")
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if statuses[2].Name != "uvx" || !statuses[2].Optional {
		t.Fatalf("uvx should be optional without transcription, got %#v", statuses[2])
	}
	if !Failed(statuses) {
		t.Fatal("missing ffmpeg should fail")
	}

	cfg.Pipeline.Stages = append(cfg.Pipeline.Stages, "transcript")
	statuses = CheckSystemDeps(&cfg, "")
	if statuses[2].Optional {
		t.Fatal("uvx should be required for whisperx transcription")
	}
}
