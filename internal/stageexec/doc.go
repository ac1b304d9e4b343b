// Package stageexec runs pipeline stages with uniform logging and history
// recording: stage_start, stage_complete and stage_failure events carry the
// run, file, fragment and stage fields from the context.
package stageexec
