package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Requirement is an external binary reelcut shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is a Requirement after lookup. Command holds the resolved path when
// the binary was found.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Check resolves req. A command containing a path separator is used as
// given. Otherwise a binary of the same name next to anchor (normally the
// reelcut executable) wins over PATH, so a bundled ffmpeg build is preferred
// to the system one. An empty anchor only searches PATH.
func Check(req Requirement, anchor string) Status {
	command := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     command,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	switch {
	case command == "":
		status.Detail = "command not configured"
	case strings.ContainsRune(command, filepath.Separator):
		if executable(command) {
			status.Available = true
		} else {
			status.Detail = fmt.Sprintf("binary %q not found or not executable", command)
		}
	default:
		if sidecar, ok := sidecarPath(anchor, command); ok && executable(sidecar) {
			status.Command, status.Available = sidecar, true
		} else if resolved, err := exec.LookPath(command); err == nil {
			status.Command, status.Available = resolved, true
		} else {
			status.Detail = fmt.Sprintf("binary %q not found", command)
		}
	}
	return status
}

// CheckBinaries resolves every requirement against PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, Check(req, ""))
	}
	return results
}

func sidecarPath(anchor, command string) (string, bool) {
	if strings.TrimSpace(anchor) == "" {
		return "", false
	}
	if runtime.GOOS == "windows" && !strings.HasSuffix(command, ".exe") {
		command += ".exe"
	}
	return filepath.Join(filepath.Dir(anchor), command), true
}

func executable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return runtime.GOOS == "windows" || info.Mode().Perm()&0o111 != 0
}
