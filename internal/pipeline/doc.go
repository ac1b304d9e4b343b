// Package pipeline defines the processing context threaded through a run, the
// stage contract, the name-keyed stage registry and the execution plan.
//
// A Context is an explicit record with a presence set: a stage declares the
// fields it requires and provides, and the Plan checks the whole field flow
// before any stage runs so a misordered pipeline fails as a configuration
// error instead of midway through a batch. Stages still call Require at run
// time; a field a stage reads must never be silently defaulted.
//
// Post-combination stages (transcription) are pulled out of the user's list
// and run once on the whole-file context. The optional trailing stage
// (metadata generation) runs after everything else.
package pipeline
