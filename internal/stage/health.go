package stage

import "strings"

// Health summarizes the readiness of a pipeline stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// FromError is Healthy when err is nil and Unhealthy with its message otherwise.
func FromError(name string, err error) Health {
	if err == nil {
		return Healthy(name)
	}
	return Unhealthy(name, strings.TrimSpace(err.Error()))
}

// AllReady reports whether every record is ready.
func AllReady(healths []Health) bool {
	for _, h := range healths {
		if !h.Ready {
			return false
		}
	}
	return true
}
