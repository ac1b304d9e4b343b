// Package llm talks to OpenRouter-compatible chat completion endpoints for
// the "openrouter" metadata provider.
//
// Replies are read from the message content, a streaming delta, the legacy
// text field or tool call arguments, whichever carries a payload. Requests
// that hit 408, 429, a 5xx status, a network timeout or an empty reply are
// retried with doubling delays, honoring Retry-After.
package llm
