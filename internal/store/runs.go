package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of an analysis run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	// RunReview marks runs that stopped on input the operator must fix.
	RunReview RunStatus = "review"
)

// Run records one invocation of an analysis pipeline.
type Run struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Subject    string    `json:"subject"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	ResultJSON string    `json:"result_json,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

const runColumns = "id, kind, subject, status, error, result_json, created_at, updated_at"

// CreateRun inserts a pending run and returns it with a fresh UUID.
func (s *Store) CreateRun(ctx context.Context, kind, subject string) (*Run, error) {
	now := s.now().UTC()
	run := &Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		Subject:   subject,
		Status:    RunPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.exec(ctx,
		"INSERT INTO runs (id, kind, subject, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		run.ID, run.Kind, run.Subject, string(run.Status), formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// UpdateRun persists the status, error and result of a run.
func (s *Store) UpdateRun(ctx context.Context, run *Run) error {
	run.UpdatedAt = s.now().UTC()
	res, err := s.exec(ctx,
		"UPDATE runs SET status = ?, error = ?, result_json = ?, updated_at = ? WHERE id = ?",
		string(run.Status), nullableString(run.Error), nullableString(run.ResultJSON), formatTime(run.UpdatedAt), run.ID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// GetRun fetches a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// ListRuns returns the most recent runs, optionally filtered by kind.
func (s *Store) ListRuns(ctx context.Context, kind string, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT " + runColumns + " FROM runs"
	args := []any{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run        Run
		status     string
		errMsg     sql.NullString
		result     sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&run.ID, &run.Kind, &run.Subject, &status, &errMsg, &result, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.Error = errMsg.String
	run.ResultJSON = result.String
	run.CreatedAt = parseTime(createdRaw)
	run.UpdatedAt = parseTime(updatedRaw)
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
