package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dataforgoodfr/bechdelai/internal/logging"
	"github.com/dataforgoodfr/bechdelai/internal/services"
)

// maxUploadBytes bounds SRT uploads.
const maxUploadBytes = 8 << 20

// Server exposes the Service over HTTP.
type Server struct {
	bind   string
	svc    *Service
	logger *slog.Logger
	echo   *echo.Echo

	listener net.Listener
}

// NewServer builds the Echo router for svc.
func NewServer(svc *Service, bind string, logger *slog.Logger) *Server {
	s := &Server{
		bind:   strings.TrimSpace(bind),
		svc:    svc,
		logger: logging.NewComponentLogger(logger, "api"),
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 5 * time.Minute
	e.Server.IdleTimeout = 60 * time.Second

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(services.WithRequestID(req.Context(), id)))
		},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger := logging.WithContext(c.Request().Context(), s.logger)
			attrs := logging.Args(
				logging.String("method", v.Method),
				logging.String("path", v.URIPath),
				logging.Int("status", v.Status),
				logging.Duration("latency", v.Latency),
			)
			if v.Error != nil {
				logger.Warn("request failed", append(attrs, logging.Error(v.Error))...)
				return nil
			}
			logger.Debug("request served", attrs...)
			return nil
		},
	}))
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", maxUploadBytes>>20)))

	g := e.Group("/api")
	g.GET("/health", s.handleHealth)
	g.GET("/movies/search", s.handleSearch)
	g.GET("/movies/:id/profile", s.handleProfile)
	g.GET("/ratings/:imdb", s.handleRating)
	g.POST("/subtitles/analyze", s.handleAnalyze)
	g.GET("/runs", s.handleRuns)
	g.GET("/runs/:id", s.handleRun)

	s.echo = e
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on the bind address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return services.Wrap(services.ErrConfiguration, "api", "start", "paths.api_bind is empty", nil)
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.echo.Listener = listener

	go func() {
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting up to five seconds for requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.echo.Shutdown(shutdownCtx)
}

// handleError renders every error as JSON. Service errors are mapped to a
// status by their marker.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, kind := statusFor(err)
	msg := err.Error()
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		msg = fmt.Sprint(httpErr.Message)
		kind = ""
	}
	if status >= http.StatusInternalServerError {
		logging.WithContext(c.Request().Context(), s.logger).Error("request error",
			logging.String("path", c.Path()),
			logging.Error(err))
	}
	body := ErrorResponse{
		Error:     msg,
		Kind:      kind,
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusServiceUnavailable, "configuration"
	case errors.Is(err, services.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, services.ErrExternalTool), errors.Is(err, services.ErrTransient):
		return http.StatusBadGateway, "upstream"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
