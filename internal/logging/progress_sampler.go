package logging

import (
	"math"
	"strings"
	"sync"
)

// ProgressSampler thins out progress callbacks. A report passes when its
// phase differs from the last one seen or its percent reaches the next
// multiple of the step. Safe for concurrent use.
type ProgressSampler struct {
	mu    sync.Mutex
	step  float64
	phase string
	// next is the lowest percent that passes within the current phase;
	// math.Inf(1) once 100% has been reported.
	next float64
}

// NewProgressSampler returns a sampler that passes every step percent.
// A non-positive step means 5.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 {
		step = 5
	}
	return &ProgressSampler{step: step}
}

// ShouldLog reports whether a progress report should be logged. A negative
// percent means unknown and only a phase change lets it through. A nil
// sampler passes everything.
func (s *ProgressSampler) ShouldLog(percent float64, phase string) bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pass := false
	if phase = strings.TrimSpace(phase); phase != "" && phase != s.phase {
		s.phase = phase
		s.next = 0
		pass = true
	}
	if percent < 0 || percent < s.next {
		return pass
	}
	if percent >= 100 {
		s.next = math.Inf(1)
	} else {
		s.next = (math.Floor(percent/s.step) + 1) * s.step
	}
	return true
}

// Reset forgets the last phase and percent.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.phase, s.next = "", 0
	s.mu.Unlock()
}
