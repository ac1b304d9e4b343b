package main

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"reelcut/internal/deps"
	"reelcut/internal/preflight"
	"reelcut/internal/stage"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct {
	label  string
	colors text.Colors
}{
	statusInfo:  {"INFO", text.Colors{text.FgBlue}},
	statusOK:    {"OK", text.Colors{text.FgGreen}},
	statusWarn:  {"WARN", text.Colors{text.FgYellow}},
	statusError: {"ERROR", text.Colors{text.FgRed}},
}

// renderStatusLine formats "  label:   [KIND] message" with labels padded
// to a common width.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	line := fmt.Sprintf("  %-28s [%s]", label+":", style.label)
	if message != "" {
		line += " " + message
	}
	if colorize {
		return text.Escape(line, style.colors.EscapeSeq())
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(heading))
	if colorize {
		seq := statusStyles[statusInfo].colors.EscapeSeq()
		return []string{text.Escape(heading, seq), text.Escape(rule, seq)}
	}
	return []string{heading, rule}
}

// shouldColorize decides color per writer. The lines above escape directly
// so go-pretty's process-wide color switch does not apply.
func shouldColorize(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// dependencyLines reports each binary and ends with a summary of the
// required ones that are missing. Optional binaries only warn.
func dependencyLines(statuses []deps.Status, colorize bool) []string {
	var lines, missing []string
	for _, dep := range statuses {
		switch {
		case dep.Available && dep.Command != "":
			lines = append(lines, renderStatusLine(dep.Name, statusOK, "Ready (command: "+dep.Command+")", colorize))
		case dep.Available:
			lines = append(lines, renderStatusLine(dep.Name, statusOK, "Ready", colorize))
		case dep.Optional:
			lines = append(lines, renderStatusLine(dep.Name, statusWarn, detailOr(dep.Detail), colorize))
		default:
			lines = append(lines, renderStatusLine(dep.Name, statusError, detailOr(dep.Detail), colorize))
			missing = append(missing, dep.Name)
		}
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusError, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func detailOr(detail string) string {
	return cmp.Or(strings.TrimSpace(detail), "not available")
}

// preflightLines treats an unconfigured optional service as a warning.
func preflightLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		kind := statusError
		if r.Passed {
			kind = statusOK
		} else if r.Detail == preflight.NotConfigured {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}

func healthLines(healths []stage.Health, colorize bool) []string {
	lines := make([]string, 0, len(healths))
	for _, h := range healths {
		if h.Ready {
			lines = append(lines, renderStatusLine(h.Name, statusOK, "Ready", colorize))
		} else {
			lines = append(lines, renderStatusLine(h.Name, statusError, h.Detail, colorize))
		}
	}
	return lines
}
