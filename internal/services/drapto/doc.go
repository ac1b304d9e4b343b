// Package drapto runs AV1 encodes through the Drapto library for the compress
// stage. Library wraps the encoder; its reporter turns Drapto callbacks into
// sampled progress logs and optional Progress values.
package drapto
