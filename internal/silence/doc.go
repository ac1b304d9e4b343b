// Package silence segments an audio track into alternating loud and quiet
// clips using a fixed-window RMS classifier.
//
// Windows start at k*interval for every k with k*interval+interval <= duration;
// the trailing partial window is never sampled and belongs to the last
// segment. A window is loud when its RMS amplitude is strictly greater than
// the threshold. Segments are built in one left-to-right fold, so consecutive
// segments always alternate. Media shorter than one window yields a single
// whole-duration segment classified loud, so unmeasured audio is never
// discarded.
package silence
