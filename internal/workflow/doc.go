// Package workflow drives input files through a resolved stage plan.
//
// The Manager validates the plan before touching any input, takes the work
// directory lock and then processes files on a bounded worker pool. A file
// larger than the configured fragment budget is split, each fragment runs the
// main stages on its own context, and the processed fragments are optionally
// reassembled before the post-combination and trailing stages run once on a
// whole-file context. Intermediates are removed after every file whether or
// not it succeeded.
//
// Failures are scoped to the file that produced them; configuration errors
// abort the run. Outcomes are collected into a Summary and, when a Ledger is
// attached, written to the run history.
package workflow
