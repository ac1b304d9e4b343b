package media

import "fmt"

// Clip is a non-owning time range view into a Handle, in seconds.
type Clip struct {
	Start float64
	End   float64
	Loud  bool
}

// Duration returns the clip length in seconds.
func (c Clip) Duration() float64 {
	return c.End - c.Start
}

// Validate checks 0 <= start < end <= duration.
func (c Clip) Validate(duration float64) error {
	if c.Start < 0 || c.Start >= c.End || c.End > duration {
		return fmt.Errorf("clip [%.3f, %.3f) outside media duration %.3f", c.Start, c.End, duration)
	}
	return nil
}
