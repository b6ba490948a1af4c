package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dataforgoodfr/bechdelai/internal/audio"
	"github.com/dataforgoodfr/bechdelai/internal/bechdel"
	"github.com/dataforgoodfr/bechdelai/internal/config"
	"github.com/dataforgoodfr/bechdelai/internal/logging"
	"github.com/dataforgoodfr/bechdelai/internal/movie"
	"github.com/dataforgoodfr/bechdelai/internal/notifications"
	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/omdb"
	"github.com/dataforgoodfr/bechdelai/internal/services/scrape"
	"github.com/dataforgoodfr/bechdelai/internal/services/tmdb"
	"github.com/dataforgoodfr/bechdelai/internal/services/wikipedia"
	"github.com/dataforgoodfr/bechdelai/internal/store"
	"github.com/dataforgoodfr/bechdelai/internal/subtitles"
)

// Run kinds recorded in the store.
const (
	KindSubtitles = "subtitles"
	KindAudio     = "audio"
	KindVision    = "vision"
	KindQuestions = "questions"
)

// Service is the application layer shared by the CLI and the HTTP server.
type Service struct {
	cfg     *config.Config
	store   *store.Store
	fetcher *scrape.Fetcher
	tmdb    tmdb.Searcher
	plots   movie.PlotFinder
	posters movie.PosterFinder
	notify  notifications.Service
	logger  *slog.Logger
	now     func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithSearcher replaces the TMDB client.
func WithSearcher(s tmdb.Searcher) ServiceOption {
	return func(svc *Service) { svc.tmdb = s }
}

// WithPlotFinder replaces the Wikipedia client. A nil finder disables plots.
func WithPlotFinder(p movie.PlotFinder) ServiceOption {
	return func(svc *Service) { svc.plots = p }
}

// WithPosterFinder replaces the OMDb client. A nil finder disables posters.
func WithPosterFinder(p movie.PosterFinder) ServiceOption {
	return func(svc *Service) { svc.posters = p }
}

// WithNotifier replaces the ntfy notifier.
func WithNotifier(n notifications.Service) ServiceOption {
	return func(svc *Service) { svc.notify = n }
}

// NewService wires the service clients from configuration. The store backs
// both the HTTP cache and run history and may be nil for read-only use.
func NewService(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "api", "init", "config required", nil)
	}
	var cache scrape.Cache
	if st != nil {
		cache = st
	}
	svc := &Service{
		cfg:     cfg,
		store:   st,
		fetcher: scrape.NewFetcher(scrape.OptionsFromConfig(cfg, cache, logger)),
		notify:  notifications.NewService(cfg),
		logger:  logging.NewComponentLogger(logger, "service"),
		now:     time.Now,
	}
	if cfg.TMDB.APIKey != "" {
		client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
		if err != nil {
			return nil, err
		}
		svc.tmdb = client
	}
	svc.plots = wikipedia.New(svc.fetcher, "")
	if cfg.OMDB.APIKey != "" {
		client, err := omdb.New(svc.fetcher, cfg.OMDB.APIKey, cfg.OMDB.BaseURL)
		if err != nil {
			return nil, err
		}
		svc.posters = client
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config { return s.cfg }

// Fetcher returns the shared polite HTTP fetcher.
func (s *Service) Fetcher() *scrape.Fetcher { return s.fetcher }

// Store returns the backing store, which may be nil.
func (s *Service) Store() *store.Store { return s.store }

// TMDB returns the TMDB client, or a configuration error without an API key.
func (s *Service) TMDB() (tmdb.Searcher, error) { return s.searcher() }

func (s *Service) searcher() (tmdb.Searcher, error) {
	if s.tmdb == nil {
		if err := s.cfg.RequireTMDB(); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "api", "tmdb", "", err)
		}
		return nil, services.Wrap(services.ErrConfiguration, "api", "tmdb", "client unavailable", nil)
	}
	return s.tmdb, nil
}

func (s *Service) wikiLanguage() string {
	lang, _, _ := strings.Cut(s.cfg.TMDB.Language, "-")
	if lang = strings.ToLower(strings.TrimSpace(lang)); lang == "" {
		return "en"
	}
	return lang
}

// Profiler returns a movie profiler over the configured sources.
func (s *Service) Profiler() (*movie.Profiler, error) {
	searcher, err := s.searcher()
	if err != nil {
		return nil, err
	}
	p := &movie.Profiler{
		TMDB:     searcher,
		Plots:    s.plots,
		Posters:  s.posters,
		WikiLang: s.wikiLanguage(),
		Logger:   s.logger,
	}
	if s.store != nil {
		p.Ratings = s.store
	}
	return p, nil
}

// Search lists TMDB matches for query.
func (s *Service) Search(ctx context.Context, query string) ([]tmdb.Suggestion, error) {
	searcher, err := s.searcher()
	if err != nil {
		return nil, err
	}
	resp, err := searcher.SearchMovie(ctx, query)
	if err != nil {
		return nil, err
	}
	return tmdb.Suggestions(resp.Results), nil
}

// Profile assembles the profile of a TMDB movie id.
func (s *Service) Profile(ctx context.Context, id int64) (*movie.Profile, error) {
	p, err := s.Profiler()
	if err != nil {
		return nil, err
	}
	return p.ProfileByID(ctx, id)
}

// ProfileByTitle assembles the profile of the best TMDB match.
func (s *Service) ProfileByTitle(ctx context.Context, title string, year int) (*movie.Profile, error) {
	p, err := s.Profiler()
	if err != nil {
		return nil, err
	}
	return p.Profile(ctx, title, year)
}

// Rating returns the mirrored bechdeltest.com rating of an IMDb id.
func (s *Service) Rating(ctx context.Context, imdbID string) (*store.Rating, error) {
	if s.store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "api", "rating", "store unavailable", nil)
	}
	if store.NormalizeIMDbID(imdbID) == "" {
		return nil, services.Wrap(services.ErrValidation, "api", "rating", "invalid imdb id "+strconv.Quote(imdbID), nil)
	}
	rating, err := s.store.RatingByIMDbID(ctx, imdbID)
	if errors.Is(err, store.ErrRatingNotFound) {
		return nil, services.Wrap(services.ErrNotFound, "api", "rating", imdbID, err)
	}
	return rating, err
}

// AnalyzeRequest is the input of a subtitle analysis.
type AnalyzeRequest struct {
	SRT []byte
	// TMDBID selects the cast used to gender character names. Zero skips
	// cast matching.
	TMDBID int64
	// Subject labels the run; defaults to the TMDB id or "upload".
	Subject string
	// Segments optionally aligns cues with gendered speech.
	Segments []audio.Segment
}

// AnalyzeSubtitles parses an SRT payload and runs the subtitle analysis,
// recording it as a run when a store is available.
func (s *Service) AnalyzeSubtitles(ctx context.Context, req AnalyzeRequest) (*store.Run, *bechdel.Report, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "upload"
		if req.TMDBID > 0 {
			subject = "tmdb:" + strconv.FormatInt(req.TMDBID, 10)
		}
	}
	var report *bechdel.Report
	run, err := s.Track(ctx, KindSubtitles, subject, func(ctx context.Context) (any, error) {
		cues, err := subtitles.Parse(req.SRT)
		if err != nil {
			return nil, err
		}
		in := bechdel.Input{
			Cues:           cues,
			Segments:       req.Segments,
			BlockGap:       time.Duration(s.cfg.Subtitles.BlockGapSeconds * float64(time.Second)),
			GroupThreshold: s.cfg.Subtitles.JaroWinklerThreshold,
			Logger:         s.logger,
		}
		if req.TMDBID > 0 {
			searcher, err := s.searcher()
			if err != nil {
				return nil, err
			}
			profiler := &movie.Profiler{TMDB: searcher, Logger: s.logger}
			profile, err := profiler.ProfileByID(ctx, req.TMDBID)
			if err != nil {
				return nil, err
			}
			in.Cast = profile.CastMembers()
		}
		report, err = bechdel.Analyze(ctx, in)
		return report, err
	})
	return run, report, err
}

// Track records fn as a run of kind. The run moves to running, then to
// completed with the JSON result, or to the status FailureStatus derives
// from the error. Without a store fn simply runs.
func (s *Service) Track(ctx context.Context, kind, subject string, fn func(context.Context) (any, error)) (*store.Run, error) {
	if s.store == nil {
		_, err := fn(ctx)
		return nil, err
	}
	run, err := s.store.CreateRun(ctx, kind, subject)
	if err != nil {
		return nil, err
	}
	ctx = services.WithRunID(ctx, run.ID)
	logger := logging.WithContext(ctx, s.logger)

	run.Status = store.RunRunning
	if err := s.store.UpdateRun(ctx, run); err != nil {
		return run, err
	}
	started := s.now()
	result, runErr := fn(ctx)
	if runErr != nil {
		run.Status = services.FailureStatus(runErr)
		run.Error = runErr.Error()
		logging.WarnWithContext(logger, "run failed", "run_failed",
			logging.String("kind", kind),
			logging.String("subject", subject),
			logging.String("status", string(run.Status)),
			logging.Error(runErr),
			logging.String(logging.FieldImpact, "no result was recorded"),
			logging.String(logging.FieldErrorHint, "inspect the run error and retry"))
	} else {
		run.Status = store.RunCompleted
		if result != nil {
			payload, err := json.Marshal(result)
			if err != nil {
				return run, err
			}
			run.ResultJSON = string(payload)
		}
		logger.Info("run completed",
			logging.String("kind", kind),
			logging.String("subject", subject),
			logging.Duration("elapsed", s.now().Sub(started)))
	}
	if err := s.store.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
		return run, errors.Join(runErr, err)
	}
	s.announce(context.WithoutCancel(ctx), logger, run, s.now().Sub(started))
	return run, runErr
}

func (s *Service) announce(ctx context.Context, logger *slog.Logger, run *store.Run, elapsed time.Duration) {
	if s.notify == nil {
		return
	}
	err := s.notify.RunFinished(ctx, notifications.Run{
		ID:      run.ID,
		Kind:    run.Kind,
		Subject: run.Subject,
		Status:  string(run.Status),
		Error:   run.Error,
		Elapsed: elapsed,
	})
	if err != nil {
		logging.WarnWithContext(logger, "run notification failed", "notification_failed",
			logging.String("run_id", run.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "the run result is stored but was not announced"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"))
	}
}

// Runs lists recent runs, optionally of one kind.
func (s *Service) Runs(ctx context.Context, kind string, limit int) ([]store.Run, error) {
	if s.store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "api", "runs", "store unavailable", nil)
	}
	return s.store.ListRuns(ctx, kind, limit)
}

// Run fetches one run by id.
func (s *Service) Run(ctx context.Context, id string) (*store.Run, error) {
	if s.store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "api", "run", "store unavailable", nil)
	}
	run, err := s.store.GetRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		return nil, services.Wrap(services.ErrNotFound, "api", "run", id, err)
	}
	return run, err
}
