// Package metadata turns a transcript into a title, description and hashtags
// through a language model and writes the result next to the edited video.
//
// Providers implement Completer (a JSON chat completion). The Generator owns
// the prompt and the reply parsing: JSON is requested, and the older
// three-line "title / description / hashtags" reply is accepted as a
// fallback. Replies that fit neither shape fail instead of producing an empty
// metadata file.
package metadata
