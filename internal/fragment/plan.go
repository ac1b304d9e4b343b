package fragment

// Window is a contiguous slice of the source timeline in seconds.
type Window struct {
	Index int
	Start float64
	End   float64
}

// Duration returns the window length.
func (w Window) Duration() float64 {
	return w.End - w.Start
}

// Plan returns the split windows for a source of the given duration and size.
// It returns nil when the source fits budgetBytes or any input is unusable.
func Plan(duration float64, sizeBytes, budgetBytes int64) []Window {
	if duration <= 0 || sizeBytes <= 0 || budgetBytes <= 0 {
		return nil
	}
	n := int((sizeBytes + budgetBytes - 1) / budgetBytes)
	if n <= 1 {
		return nil
	}
	step := duration / float64(n)
	windows := make([]Window, n)
	for i := range windows {
		end := float64(i+1) * step
		if i == n-1 {
			end = duration
		}
		windows[i] = Window{Index: i, Start: float64(i) * step, End: end}
	}
	return windows
}

// BytesPerMiB converts the configured fragment budget to bytes.
const BytesPerMiB = 1024 * 1024
