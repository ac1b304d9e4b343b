// Package fragment splits large inputs into size-bounded, timeline-contiguous
// fragments and reassembles processed fragments into one file.
//
// Plan divides the duration into n = ceil(size/budget) equal windows whose
// last window ends exactly at the source duration. When the file already
// fits the budget no windows are produced and Split returns an empty slice,
// which callers treat as "do not split". Fragments are cut into the work
// directory as <stem>_part_NNN<ext>, numbered from 001 while Order stays
// 0-based.
//
// Combine orders fragments by Order, checks that every fragment shares frame
// rate, frame size, sample rate, channel count and codecs, and joins them
// with the concat demuxer without re-encoding.
package fragment
