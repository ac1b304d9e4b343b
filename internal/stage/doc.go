// Package stage holds the readiness records and error helpers shared by the
// pipeline stages.
package stage
