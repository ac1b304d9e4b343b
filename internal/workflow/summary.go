package workflow

import (
	"time"

	"reelcut/internal/history"
)

// FileStatus is the outcome of one input file.
type FileStatus string

const (
	StatusSucceeded FileStatus = history.StatusSucceeded
	StatusFailed    FileStatus = history.StatusFailed
	// StatusSkipped marks files never started because the run was cancelled
	// or aborted.
	StatusSkipped FileStatus = history.StatusSkipped
)

// FileResult reports how one input file went.
type FileResult struct {
	Path   string
	Stem   string
	Status FileStatus
	// Stage names the step that failed: a stage name, or split, open,
	// combine for the orchestrator's own steps.
	Stage     string
	Err       error
	Fragments int
	Outputs   []string
	Removed   int
	Elapsed   time.Duration
}

// Summary is the report of one Run.
type Summary struct {
	RunID   string
	Stages  []string
	Started time.Time
	Elapsed time.Duration
	Files   []FileResult
}

// Count returns how many files ended with status.
func (s Summary) Count(status FileStatus) int {
	n := 0
	for _, f := range s.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// Failed is the number of files that did not succeed.
func (s Summary) Failed() int {
	return len(s.Files) - s.Count(StatusSucceeded)
}

// ExitCode is 0 when every file succeeded and 1 otherwise.
func (s Summary) ExitCode() int {
	if s.Failed() > 0 {
		return 1
	}
	return 0
}

func (r FileResult) record(runID string) history.FileRecord {
	rec := history.FileRecord{
		RunID:    runID,
		Path:     r.Path,
		Status:   string(r.Status),
		Stage:    r.Stage,
		Outputs:  r.Outputs,
		Duration: r.Elapsed,
		Finished: time.Now(),
	}
	if r.Err != nil {
		details := failureDetails(r.Stage, r.Err)
		rec.ErrorKind, rec.Error = details.Kind, details.Message
	}
	return rec
}
