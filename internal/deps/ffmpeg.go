package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Resolve looks command up on PATH and reports it under name. The resolved
// absolute path replaces the command on success.
func Resolve(name, command, description string, optional bool) Status {
	status := lookup(Requirement{
		Name:        name,
		Command:     command,
		Description: description,
		Optional:    optional,
	})
	if status.Available {
		if resolved, err := exec.LookPath(status.Command); err == nil {
			status.Command = resolved
		}
	}
	return status
}

// ProbeVersion runs the binary with args (usually -version) and records the
// first output line as the detail. Binaries that are unavailable are
// returned unchanged.
func ProbeVersion(ctx context.Context, status Status, args ...string) Status {
	if !status.Available {
		return status
	}
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(probeCtx, status.Command, args...).CombinedOutput()
	if err != nil {
		status.Available = false
		status.Detail = fmt.Sprintf("version probe failed: %v", err)
		return status
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		status.Detail = strings.TrimSpace(scanner.Text())
	}
	return status
}
