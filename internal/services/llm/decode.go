package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeJSON decodes the first JSON value in a model reply into target.
// Markdown code fences and prose before the value are skipped.
func DecodeJSON(content string, target any) error {
	body := strings.TrimSpace(unfence(content))
	if body == "" {
		return errors.New("empty payload")
	}
	start := strings.IndexAny(body, "{[")
	if start < 0 {
		return fmt.Errorf("no json value in reply: %s", snippet(body))
	}
	dec := json.NewDecoder(strings.NewReader(body[start:]))
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("%w (payload snippet: %s)", err, snippet(body))
	}
	return nil
}

// unfence returns the body of a ``` or ```json block, or content unchanged.
func unfence(content string) string {
	content = strings.TrimSpace(content)
	rest, ok := strings.CutPrefix(content, "```")
	if !ok {
		return content
	}
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "{[") {
		rest = rest[nl+1:]
	}
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

// snippet collapses whitespace and truncates s for error messages.
func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "<empty>"
	}
	if r := []rune(s); len(r) > 160 {
		return string(r[:160]) + "..."
	}
	return s
}
