package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// Runner executes an external media tool.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) error
}

// ExecRunner runs commands on the host and reports the tail of stderr on failure.
type ExecRunner struct{}

// Run launches binary with args and waits for it to exit.
func (ExecRunner) Run(ctx context.Context, binary string, args []string) error {
	cmd := commandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%s: %w: %s", binary, err, stderrTail(stderr.String(), 5))
	}
	return nil
}

func stderrTail(output string, lines int) string {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return "no output"
	}
	parts := strings.Split(trimmed, "\n")
	if len(parts) > lines {
		parts = parts[len(parts)-lines:]
	}
	return strings.Join(parts, " | ")
}
