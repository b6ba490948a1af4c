package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// credentialParams are query parameters whose values never reach the
// http_cache url column.
var credentialParams = map[string]bool{
	"apikey":       true,
	"api_key":      true,
	"key":          true,
	"token":        true,
	"access_token": true,
}

// RedactURL replaces credential query values in rawURL with "REDACTED".
// Unparseable input is returned unchanged.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return rawURL
	}
	query := u.Query()
	changed := false
	for name := range query {
		if credentialParams[strings.ToLower(name)] {
			query.Set(name, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return rawURL
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// CachedResponse is a stored HTTP response body.
type CachedResponse struct {
	URL         string
	Status      int
	ContentType string
	Body        []byte
	FetchedAt   time.Time
}

// CacheKey derives the primary key for a request URL.
func CacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// CacheGet returns the cached response for url when it is younger than ttl.
// A ttl of zero accepts any age. The boolean is false on a miss.
func (s *Store) CacheGet(ctx context.Context, url string, ttl time.Duration) (*CachedResponse, bool, error) {
	ctx = ensureContext(ctx)
	var (
		resp        CachedResponse
		contentType sql.NullString
		fetchedRaw  string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT url, status, content_type, body, fetched_at FROM http_cache WHERE cache_key = ?",
		CacheKey(url),
	).Scan(&resp.URL, &resp.Status, &contentType, &resp.Body, &fetchedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	resp.ContentType = contentType.String
	resp.FetchedAt = parseTime(fetchedRaw)
	if ttl > 0 && s.now().Sub(resp.FetchedAt) > ttl {
		return nil, false, nil
	}
	return &resp, true, nil
}

// CachePut stores or replaces the cached response for resp.URL. The key
// hashes the full URL while the stored url has its credentials redacted.
func (s *Store) CachePut(ctx context.Context, resp CachedResponse) error {
	if resp.FetchedAt.IsZero() {
		resp.FetchedAt = s.now()
	}
	_, err := s.exec(ctx, `INSERT INTO http_cache (cache_key, url, status, content_type, body, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			status = excluded.status,
			content_type = excluded.content_type,
			body = excluded.body,
			fetched_at = excluded.fetched_at`,
		CacheKey(resp.URL), RedactURL(resp.URL), resp.Status, resp.ContentType, resp.Body, formatTime(resp.FetchedAt),
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// CachePrune deletes entries older than maxAge and returns how many were removed.
func (s *Store) CachePrune(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := formatTime(s.now().Add(-maxAge))
	res, err := s.exec(ctx, "DELETE FROM http_cache WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
