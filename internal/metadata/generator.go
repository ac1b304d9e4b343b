package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reelcut/internal/language"
)

// Completer is a chat model that answers with JSON.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const systemPrompt = `You write publishing metadata for short videos.
Respond with JSON only, using exactly this shape:
{"title": "...", "description": "...", "hashtags": ["#tag", "..."]}
The title is at most 80 characters. The description is two or three sentences.
Give between 3 and 8 hashtags.`

// maxTranscriptRunes bounds the prompt for long recordings.
const maxTranscriptRunes = 24000

// Generator produces Metadata from transcript text.
type Generator struct {
	completer Completer
	language  string
}

// NewGenerator binds a provider. lang, when set, is the language the model is
// asked to answer in, as a code ("es") or a name ("Spanish").
func NewGenerator(completer Completer, lang string) *Generator {
	return &Generator{completer: completer, language: strings.TrimSpace(lang)}
}

// Generate asks the model for metadata describing transcript. title, when
// non-empty, is passed as a hint (usually derived from the file name).
func (g *Generator) Generate(ctx context.Context, transcript, title string) (Metadata, error) {
	if g == nil || g.completer == nil {
		return Metadata{}, errors.New("metadata: no provider configured")
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return Metadata{}, errors.New("metadata: transcript is empty")
	}
	content, err := g.completer.CompleteJSON(ctx, g.systemPrompt(), userPrompt(transcript, title))
	if err != nil {
		return Metadata{}, fmt.Errorf("metadata: completion: %w", err)
	}
	return Parse(content)
}

func (g *Generator) systemPrompt() string {
	if g.language == "" {
		return systemPrompt
	}
	return systemPrompt + "\nWrite the title and description in " + language.DisplayName(g.language) + "."
}

func userPrompt(transcript, title string) string {
	if runes := []rune(transcript); len(runes) > maxTranscriptRunes {
		transcript = string(runes[:maxTranscriptRunes])
	}
	var b strings.Builder
	if title = strings.TrimSpace(title); title != "" {
		b.WriteString("Working title: ")
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	return b.String()
}
