package pipeline

import (
	"context"

	"reelcut/internal/stage"
)

// RunFunc applies one stage to the context in place.
type RunFunc func(ctx context.Context, pc *Context) error

// HealthFunc reports whether a stage's collaborators are usable.
type HealthFunc func(ctx context.Context) stage.Health

// ReadyFunc is a cheap, side-effect free check that the stage is wired (for
// example that a provider API key is configured).
type ReadyFunc func() error

// Stage is a named transformation of the processing context.
type Stage struct {
	Name        string
	Description string
	// Requires must be present before Run; Optional fields are read when
	// present and defaulted otherwise.
	Requires []Field
	Optional []Field
	Provides []Field
	Run      RunFunc
	Health   HealthFunc
	Ready    ReadyFunc
}

// HealthCheck runs the stage health probe, treating a missing probe as ready.
func (s Stage) HealthCheck(ctx context.Context) stage.Health {
	if s.Health == nil {
		return stage.Healthy(s.Name)
	}
	h := s.Health(ctx)
	if h.Name == "" {
		h.Name = s.Name
	}
	return h
}
