package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary the analysis pipelines shell out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// Optional requirements only matter for a backend the config does not select.
	Optional bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Blocking reports whether a missing binary prevents the configured pipelines from running.
func (s Status) Blocking() bool {
	return !s.Available && !s.Optional
}

// CheckBinaries looks every requirement up on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, lookup(req))
	}
	return results
}

// Missing returns the blocking statuses, preserving order.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if s.Blocking() {
			out = append(out, s)
		}
	}
	return out
}

func lookup(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	switch {
	case status.Command == "":
		status.Detail = "command not configured"
	default:
		if _, err := exec.LookPath(status.Command); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		} else {
			status.Available = true
		}
	}
	return status
}
