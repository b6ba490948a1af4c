package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dataforgoodfr/bechdelai/internal/config"
	"github.com/dataforgoodfr/bechdelai/internal/logging"
	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/store"
)

var (
	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("url must start with http:// or https://")
	// ErrStatus is returned when the server answers with a non-200 status.
	ErrStatus = errors.New("unexpected http status")
	// ErrNotJSON is returned by GetJSON when the response is not JSON.
	ErrNotJSON = errors.New("response is not json")
)

const maxBodyBytes = 32 << 20

// Cache stores raw responses between runs. *store.Store implements it.
type Cache interface {
	CacheGet(ctx context.Context, url string, ttl time.Duration) (*store.CachedResponse, bool, error)
	CachePut(ctx context.Context, resp store.CachedResponse) error
}

// Response is a fully read HTTP response.
type Response struct {
	URL         string
	Status      int
	ContentType string
	Body        []byte
	FromCache   bool
}

// Options configures a Fetcher.
type Options struct {
	UserAgent         string
	AcceptLanguage    string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	MaxAttempts       int
	CacheTTL          time.Duration
	Cache             Cache
	Logger            *slog.Logger
}

// OptionsFromConfig maps the scraper section onto fetcher options.
func OptionsFromConfig(cfg *config.Config, cache Cache, logger *slog.Logger) Options {
	opts := Options{
		UserAgent:         cfg.Scraper.UserAgent,
		AcceptLanguage:    cfg.Scraper.AcceptLanguage,
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		Burst:             cfg.Scraper.Burst,
		Timeout:           time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second,
		MaxAttempts:       cfg.Scraper.MaxAttempts,
		Logger:            logger,
	}
	if cfg.HTTPCacheEnabled() && cache != nil {
		opts.Cache = cache
		opts.CacheTTL = time.Duration(cfg.Scraper.CacheTTLHours) * time.Hour
	}
	return opts
}

// Option customizes a Fetcher after construction.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithSleeper overrides the backoff sleep (used by tests).
func WithSleeper(fn func(context.Context, time.Duration) error) Option {
	return func(f *Fetcher) {
		if fn != nil {
			f.sleep = fn
		}
	}
}

// Fetcher performs polite GET requests: browser-like headers, a per-host
// rate limit, retries on transient failures and an optional response cache.
type Fetcher struct {
	opts   Options
	client *http.Client
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewFetcher constructs a Fetcher.
func NewFetcher(opts Options, extra ...Option) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	f := &Fetcher{
		opts:     opts,
		client:   &http.Client{Timeout: opts.Timeout},
		logger:   logging.NewComponentLogger(opts.Logger, "scrape"),
		sleep:    SleepWithContext,
		limiters: make(map[string]*rate.Limiter),
	}
	for _, opt := range extra {
		opt(f)
	}
	return f
}

// Header returns the default request headers for rawURL. Host, Referer and
// Origin are derived from the URL so sites see a same-origin navigation.
func (f *Fetcher) Header(rawURL string) (http.Header, error) {
	u, err := validateURL(rawURL)
	if err != nil {
		return nil, err
	}
	origin := u.Scheme + "://" + u.Host
	h := http.Header{}
	if f.opts.UserAgent != "" {
		h.Set("User-Agent", f.opts.UserAgent)
	}
	if f.opts.AcceptLanguage != "" {
		h.Set("Accept-Language", f.opts.AcceptLanguage)
	}
	h.Set("Host", u.Host)
	h.Set("Referer", origin)
	h.Set("Origin", origin)
	return h, nil
}

// Get fetches rawURL and returns the body of a 200 response.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Response, error) {
	return f.Do(ctx, rawURL, nil)
}

// Do fetches rawURL with additional headers.
func (f *Fetcher) Do(ctx context.Context, rawURL string, extra http.Header) (*Response, error) {
	u, err := validateURL(rawURL)
	if err != nil {
		return nil, err
	}

	if f.opts.Cache != nil {
		cached, ok, err := f.opts.Cache.CacheGet(ctx, rawURL, f.opts.CacheTTL)
		if err != nil {
			logging.WarnWithContext(f.logger, "response cache read failed; fetching live", "scrape_cache_read_failed",
				logging.String("url", rawURL), logging.Error(err),
				logging.String(logging.FieldImpact, "request goes to the network"))
		} else if ok {
			return &Response{URL: cached.URL, Status: cached.Status, ContentType: cached.ContentType, Body: cached.Body, FromCache: true}, nil
		}
	}

	header, _ := f.Header(rawURL)
	for key, values := range extra {
		header[key] = values
	}

	backoff := 500 * time.Millisecond
	var lastErr error
	for attempt := 1; attempt <= f.opts.MaxAttempts; attempt++ {
		if err := f.wait(ctx, u.Host); err != nil {
			return nil, err
		}
		resp, retryAfter, err := f.once(ctx, rawURL, header)
		if err == nil {
			if f.opts.Cache != nil {
				if cacheErr := f.opts.Cache.CachePut(ctx, store.CachedResponse{
					URL: rawURL, Status: resp.Status, ContentType: resp.ContentType, Body: resp.Body,
				}); cacheErr != nil {
					logging.WarnWithContext(f.logger, "response cache write failed", "scrape_cache_write_failed",
						logging.String("url", rawURL), logging.Error(cacheErr),
						logging.String(logging.FieldImpact, "next run fetches this page again"))
				}
			}
			return resp, nil
		}
		lastErr = err
		if attempt == f.opts.MaxAttempts || !IsRetriable(err) {
			break
		}
		delay := backoff
		if retryAfter > delay {
			delay = retryAfter
		}
		f.logger.Debug("retrying request",
			logging.String("url", rawURL),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
		if backoff *= 2; backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return nil, lastErr
}

func (f *Fetcher) once(ctx context.Context, rawURL string, header http.Header) (*Response, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	for key, values := range header {
		if strings.EqualFold(key, "Host") {
			req.Host = values[0]
			continue
		}
		req.Header[key] = values
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrTransient, "scrape", "get", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, services.Wrap(services.ErrTransient, "scrape", "read body", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		marker := services.ErrExternalTool
		switch {
		case resp.StatusCode == http.StatusNotFound:
			marker = services.ErrNotFound
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			marker = services.ErrTransient
		}
		statusErr := fmt.Errorf("%w: %s returned %d (latency=%v)", ErrStatus, rawURL, resp.StatusCode, time.Since(start))
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), services.Wrap(marker, "scrape", "get", "", statusErr)
	}
	return &Response{
		URL:         rawURL,
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, 0, nil
}

// GetJSON fetches rawURL, requires a JSON content type and decodes into dst.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, dst any) error {
	resp, err := f.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if !IsJSON(resp.ContentType) {
		return fmt.Errorf("%w: %s has content type %q", ErrNotJSON, rawURL, resp.ContentType)
	}
	if err := json.Unmarshal(resp.Body, dst); err != nil {
		return services.Wrap(services.ErrValidation, "scrape", "decode json", rawURL, err)
	}
	return nil
}

// IsJSON reports whether a Content-Type header names a JSON media type.
func IsJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func (f *Fetcher) wait(ctx context.Context, host string) error {
	if f.opts.RequestsPerSecond <= 0 {
		return nil
	}
	f.mu.Lock()
	limiter, ok := f.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(f.opts.RequestsPerSecond), f.opts.Burst)
		f.limiters[host] = limiter
	}
	f.mu.Unlock()
	return limiter.Wait(ctx)
}

func validateURL(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return u, nil
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
