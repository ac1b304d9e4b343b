// Package gemini adapts Google's Generative AI client to the JSON completion
// contract used by metadata generation.
package gemini
