// Package language normalizes the language settings passed to transcription
// backends (2-letter codes) and to the metadata prompt (English names).
package language
