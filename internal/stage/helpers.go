package stage

import (
	"context"
	"errors"

	"reelcut/internal/services"
)

// CollaboratorError tags a failed external call (transcription, denoise,
// metadata) so the orchestrator aborts only the current file. Cancellation is
// returned unchanged.
func CollaboratorError(ctx context.Context, name, operation, hint string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	if services.Kind(err) != "unknown" {
		return err
	}
	return services.Wrap(services.ErrExternalService, name, operation, hint, err)
}

// MediaError tags a failed decode or encode.
func MediaError(ctx context.Context, name, operation string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	if services.Kind(err) != "unknown" {
		return err
	}
	return services.Wrap(services.ErrMediaIO, name, operation, "", err)
}
