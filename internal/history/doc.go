// Package history persists a ledger of reelcut runs in SQLite.
//
// Each run records its configured stages, every input file's outcome and one
// row per executed stage (timing and error kind). The ledger backs the
// `reelcut history` command and is written by the workflow manager through
// the Store, which also satisfies stageexec.Recorder.
//
// Schema changes bump schemaVersion in schema.go; an older database is
// rejected with ErrSchemaMismatch and must be removed by the user.
package history
