package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"slices"
	"time"

	"golang.org/x/sys/unix"

	"reelcut/internal/config"
	"reelcut/internal/deps"
)

// HealthChecker is a remote API that can verify its credentials.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckService verifies that a remote API is reachable and the key is valid.
// It uses a 30-second timeout.
func CheckService(ctx context.Context, name string, svc HealthChecker) Result {
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := svc.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeServiceError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries for the given config.
// anchor is the running executable; binaries beside it take precedence.
// uvx is only required when WhisperX transcription can run.
func CheckSystemDeps(cfg *config.Config, anchor string) []deps.Status {
	return []deps.Status{
		deps.Check(deps.Requirement{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for audio extraction, rendering, splitting and AV1 compression",
		}, anchor),
		deps.Check(deps.Requirement{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
		}, anchor),
		deps.Check(deps.Requirement{
			Name:        "uvx",
			Command:     cfg.UVXBinary(),
			Description: "Required for WhisperX-driven transcription",
			Optional:    !whisperXPlanned(cfg),
		}, ""),
	}
}

// Failed reports whether a required binary is missing.
func Failed(statuses []deps.Status) bool {
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			return true
		}
	}
	return false
}

func whisperXPlanned(cfg *config.Config) bool {
	if cfg.Transcription.Backend != "whisperx" {
		return false
	}
	return cfg.Pipeline.Metadata || slices.Contains(cfg.Pipeline.Stages, "transcript")
}

// summarizeServiceError produces a human-readable summary for health check failures.
func summarizeServiceError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
