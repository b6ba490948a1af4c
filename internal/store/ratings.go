package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Rating mirrors one bechdeltest.com entry. Rating ranges from 0 (fewer than
// two named women) to 3 (passes the test).
type Rating struct {
	IMDbID    string `json:"imdb_id"`
	BechdelID int    `json:"bechdel_id"`
	Title     string `json:"title"`
	Year      int    `json:"year"`
	Rating    int    `json:"rating"`
}

// ErrRatingNotFound is returned when no mirrored rating matches.
var ErrRatingNotFound = errors.New("rating not found")

// ImportRatings upserts ratings in a single transaction and returns the number written.
func (s *Store) ImportRatings(ctx context.Context, ratings []Rating) (int, error) {
	ctx = ensureContext(ctx)
	var written int
	err := retryOnBusy(ctx, func() error {
		written = 0
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO ratings (imdb_id, bechdel_id, title, year, rating, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(imdb_id) DO UPDATE SET
				bechdel_id = excluded.bechdel_id,
				title = excluded.title,
				year = excluded.year,
				rating = excluded.rating,
				updated_at = excluded.updated_at`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := formatTime(s.now())
		for _, r := range ratings {
			id := NormalizeIMDbID(r.IMDbID)
			if id == "" || r.Rating < 0 || r.Rating > 3 {
				continue
			}
			if _, err := stmt.ExecContext(ctx, id, r.BechdelID, r.Title, nullableInt(r.Year), r.Rating, now); err != nil {
				return err
			}
			written++
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("import ratings: %w", err)
	}
	return written, nil
}

// RatingByIMDbID returns the mirrored rating for an IMDb identifier ("tt0111161" or "0111161").
func (s *Store) RatingByIMDbID(ctx context.Context, imdbID string) (*Rating, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT imdb_id, bechdel_id, title, year, rating FROM ratings WHERE imdb_id = ?",
		NormalizeIMDbID(imdbID))
	r, err := scanRating(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRatingNotFound
	}
	return r, err
}

// SearchRatings returns ratings whose title contains query, newest first.
func (s *Store) SearchRatings(ctx context.Context, query string, limit int) ([]Rating, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT imdb_id, bechdel_id, title, year, rating FROM ratings
		 WHERE title LIKE ? COLLATE NOCASE ORDER BY year DESC, title LIMIT ?`,
		"%"+strings.TrimSpace(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search ratings: %w", err)
	}
	defer rows.Close()
	var out []Rating
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// RatingHistogram counts mirrored ratings by score.
func (s *Store) RatingHistogram(ctx context.Context) (map[int]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT rating, COUNT(1) FROM ratings GROUP BY rating")
	if err != nil {
		return nil, fmt.Errorf("rating histogram: %w", err)
	}
	defer rows.Close()
	out := make(map[int]int, 4)
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, err
		}
		out[rating] = count
	}
	return out, rows.Err()
}

// NormalizeIMDbID returns the canonical "tt" prefixed identifier.
func NormalizeIMDbID(id string) string {
	id = strings.TrimSpace(strings.ToLower(id))
	id = strings.TrimPrefix(id, "tt")
	if id == "" {
		return ""
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return ""
		}
	}
	for len(id) < 7 {
		id = "0" + id
	}
	return "tt" + id
}

func scanRating(scanner interface{ Scan(dest ...any) error }) (*Rating, error) {
	var (
		r    Rating
		year sql.NullInt64
	)
	if err := scanner.Scan(&r.IMDbID, &r.BechdelID, &r.Title, &year, &r.Rating); err != nil {
		return nil, err
	}
	r.Year = int(year.Int64)
	return &r, nil
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
