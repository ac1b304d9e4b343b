// Package textutil normalizes the text reelcut writes into metadata files:
// hashtags folded to ASCII-safe tokens and human titles derived from file
// stems.
package textutil
