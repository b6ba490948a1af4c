package api

import (
	"encoding/json"
	"time"

	"github.com/dataforgoodfr/bechdelai/internal/bechdel"
	"github.com/dataforgoodfr/bechdelai/internal/deps"
	"github.com/dataforgoodfr/bechdelai/internal/preflight"
	"github.com/dataforgoodfr/bechdelai/internal/store"
	"github.com/dataforgoodfr/bechdelai/internal/services/tmdb"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// HealthResponse reports readiness of the server and its dependencies.
type HealthResponse struct {
	Status       string             `json:"status"`
	Time         string             `json:"time"`
	Checks       []preflight.Result `json:"checks"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// SearchResponse lists TMDB matches.
type SearchResponse struct {
	Query   string            `json:"query"`
	Results []tmdb.Suggestion `json:"results"`
}

// Run is the transport form of a stored run.
type Run struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Subject   string          `json:"subject"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

// RunListResponse wraps a run listing.
type RunListResponse struct {
	Runs []Run `json:"runs"`
}

// AnalyzeResponse is returned by the subtitle analysis endpoint.
type AnalyzeResponse struct {
	RunID  string          `json:"runId,omitempty"`
	Report *bechdel.Report `json:"report"`
}

// FromRun converts a stored run. Invalid result JSON is dropped rather than
// breaking the listing.
func FromRun(r store.Run) Run {
	out := Run{
		ID:        r.ID,
		Kind:      r.Kind,
		Subject:   r.Subject,
		Status:    string(r.Status),
		Error:     r.Error,
		CreatedAt: formatTime(r.CreatedAt),
		UpdatedAt: formatTime(r.UpdatedAt),
	}
	if r.ResultJSON != "" && json.Valid([]byte(r.ResultJSON)) {
		out.Result = json.RawMessage(r.ResultJSON)
	}
	return out
}

// FromDependencies converts preflight binary statuses.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
