package metadata

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"reelcut/internal/services/llm"
	"reelcut/internal/textutil"
)

// Metadata is the generated publishing information for one video.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
}

// ErrUnexpectedReply reports a model reply that is neither JSON metadata nor
// the three-line form.
var ErrUnexpectedReply = errors.New("unexpected metadata reply")

// Parse decodes a model reply.
func Parse(content string) (Metadata, error) {
	var m Metadata
	if err := llm.DecodeJSON(content, &m); err == nil {
		m = m.normalized()
		if m.Title != "" && m.Description != "" {
			return m, nil
		}
	}
	if m, ok := parseLines(content); ok {
		return m, nil
	}
	return Metadata{}, fmt.Errorf("%w: %s", ErrUnexpectedReply, snippet(content))
}

func parseLines(content string) (Metadata, bool) {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) != 3 {
		return Metadata{}, false
	}
	m := Metadata{
		Title:       stripLabel(lines[0]),
		Description: stripLabel(lines[1]),
		Hashtags:    []string{stripLabel(lines[2])},
	}.normalized()
	return m, m.Title != "" && m.Description != ""
}

func stripLabel(line string) string {
	if idx := strings.Index(line, ":"); idx > 0 && idx < 16 && !strings.Contains(line[:idx], " ") {
		return strings.TrimSpace(line[idx+1:])
	}
	return line
}

func (m Metadata) normalized() Metadata {
	return Metadata{
		Title:       strings.Trim(strings.TrimSpace(m.Title), `"`),
		Description: strings.TrimSpace(m.Description),
		Hashtags:    textutil.Hashtags(m.Hashtags),
	}
}

// Format renders the metadata file body.
func Format(m Metadata) string {
	var b strings.Builder
	b.WriteString("Title:\n")
	b.WriteString(m.Title)
	b.WriteString("\n\nDescription:\n")
	b.WriteString(m.Description)
	b.WriteString("\n\nHashtags:\n")
	b.WriteString(strings.Join(m.Hashtags, " "))
	b.WriteString("\n")
	return b.String()
}

// Write stores m at path.
func Write(path string, m Metadata) error {
	if err := os.WriteFile(path, []byte(Format(m)), 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	runes := []rune(clean)
	if len(runes) > 120 {
		return string(runes[:120]) + "..."
	}
	return clean
}
