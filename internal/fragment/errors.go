package fragment

import (
	"fmt"

	"reelcut/internal/services"
)

// IncompatibleFragmentError reports a fragment whose format differs from the
// first fragment, so stream-copy concatenation would corrupt the output.
type IncompatibleFragmentError struct {
	Order int
	Path  string
	Field string
	Want  string
	Got   string
}

func (e *IncompatibleFragmentError) Error() string {
	return fmt.Sprintf("fragment %d (%s): %s %s does not match %s", e.Order, e.Path, e.Field, e.Got, e.Want)
}

// Unwrap ties the error to the incompatible-fragment marker.
func (e *IncompatibleFragmentError) Unwrap() error {
	return services.ErrIncompatibleFragment
}
