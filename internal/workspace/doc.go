// Package workspace names reelcut's on-disk artifacts and guards the work
// directory with an advisory lock so two runs never share intermediates.
//
// Intermediates (extracted and denoised audio, fragments) live in the work
// directory; user-facing artifacts (edited videos, transcripts, metadata,
// combined videos) live in the output directory. Every name derives from the
// input stem so cleanup can find what a run created.
package workspace
