package pipeline

import (
	"fmt"
	"strings"

	"reelcut/internal/services"
)

// UnknownStageError reports a pipeline name with no registered stage.
type UnknownStageError struct {
	Name      string
	Available []string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown stage %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

func (e *UnknownStageError) Unwrap() error { return services.ErrConfiguration }

// DuplicateStageError reports an attempt to bind a stage name twice.
type DuplicateStageError struct {
	Name string
}

func (e *DuplicateStageError) Error() string {
	return fmt.Sprintf("stage %q already registered", e.Name)
}

func (e *DuplicateStageError) Unwrap() error { return services.ErrConfiguration }

// MissingFieldError reports a stage that needs a context field nobody set.
type MissingFieldError struct {
	Field Field
	Stage string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("stage %q requires context field %q", e.Stage, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return services.ErrMissingField }
