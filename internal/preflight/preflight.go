package preflight

import (
	"context"
	"path/filepath"

	"reelcut/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// NotConfigured is the detail of a probe without a service behind it.
const NotConfigured = "not configured"

// Probe names a remote service to check.
type Probe struct {
	Name    string
	Service HealthChecker
}

// RunAll checks the work, output and history directories, then every probe.
func RunAll(ctx context.Context, cfg *config.Config, probes ...Probe) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
	}
	if cfg.History.Enabled && cfg.History.Path != "" {
		results = append(results, CheckDirectoryAccess("History directory", filepath.Dir(cfg.History.Path)))
	}
	for _, p := range probes {
		if p.Service == nil {
			results = append(results, Result{Name: p.Name, Detail: NotConfigured})
			continue
		}
		results = append(results, CheckService(ctx, p.Name, p.Service))
	}
	return results
}

// Passed reports whether every result passed. Unconfigured probes are optional
// and do not count as failures.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && r.Detail != NotConfigured {
			return false
		}
	}
	return true
}
