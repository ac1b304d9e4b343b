package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration        = errors.New("configuration error")
	ErrValidation           = errors.New("validation error")
	ErrMissingField         = errors.New("missing context field")
	ErrMediaIO              = errors.New("media io error")
	ErrExternalService      = errors.New("external service error")
	ErrIncompatibleFragment = errors.New("incompatible fragment")
	ErrFileSystem           = errors.New("file system error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalService
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatalForRun reports whether err must abort the whole batch rather than only
// the input file that produced it.
func IsFatalForRun(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsNonFatal reports whether err is only worth logging (cleanup failures).
func IsNonFatal(err error) bool {
	return errors.Is(err, ErrFileSystem)
}

// Kind returns a short label for the marker carried by err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrIncompatibleFragment):
		return "incompatible_fragment"
	case errors.Is(err, ErrMediaIO):
		return "media_io"
	case errors.Is(err, ErrExternalService):
		return "external_service"
	case errors.Is(err, ErrFileSystem):
		return "file_system"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "unknown"
	}
}

// ErrorDetails is the user-facing breakdown of a wrapped error.
type ErrorDetails struct {
	Kind    string
	Message string
}

// Details strips the marker prefix so summaries show the cause, not the category.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	msg := strings.TrimSpace(err.Error())
	for _, marker := range []error{
		ErrConfiguration, ErrValidation, ErrMissingField, ErrMediaIO,
		ErrExternalService, ErrIncompatibleFragment, ErrFileSystem,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			msg = strings.TrimPrefix(msg, prefix)
			break
		}
	}
	return ErrorDetails{Kind: Kind(err), Message: msg}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
