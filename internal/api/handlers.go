package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dataforgoodfr/bechdelai/internal/services"
)

func (s *Server) handleHealth(c echo.Context) error {
	deep, _ := strconv.ParseBool(c.QueryParam("deep"))
	resp := s.svc.Health(c.Request().Context(), deep)
	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}

func (s *Server) handleSearch(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return services.Wrap(services.ErrValidation, "api", "search", "query parameter q is required", nil)
	}
	results, err := s.svc.Search(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SearchResponse{Query: query, Results: results})
}

func (s *Server) handleProfile(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return services.Wrap(services.ErrValidation, "api", "profile", "invalid tmdb id", nil)
	}
	profile, err := s.svc.Profile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (s *Server) handleRating(c echo.Context) error {
	rating, err := s.svc.Rating(c.Request().Context(), c.Param("imdb"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rating)
}

// handleAnalyze accepts the SRT either as the raw body or as a multipart
// "file" field. tmdb_id selects the cast.
func (s *Server) handleAnalyze(c echo.Context) error {
	req := AnalyzeRequest{Subject: c.QueryParam("subject")}
	if raw := c.QueryParam("tmdb_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return services.Wrap(services.ErrValidation, "api", "analyze", "invalid tmdb_id", nil)
		}
		req.TMDBID = id
	}
	data, err := readUpload(c)
	if err != nil {
		return err
	}
	req.SRT = data

	run, report, err := s.svc.AnalyzeSubtitles(c.Request().Context(), req)
	if err != nil {
		return err
	}
	resp := AnalyzeResponse{Report: report}
	if run != nil {
		resp.RunID = run.ID
	}
	return c.JSON(http.StatusOK, resp)
}

func readUpload(c echo.Context) ([]byte, error) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		header, err := c.FormFile("file")
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "api", "analyze", "multipart field file is required", err)
		}
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxUploadBytes))
	}
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxUploadBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "api", "analyze", "read body", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, services.Wrap(services.ErrValidation, "api", "analyze", "empty subtitle body", nil)
	}
	return data, nil
}

func (s *Server) handleRuns(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return services.Wrap(services.ErrValidation, "api", "runs", "invalid limit", nil)
		}
		limit = n
	}
	runs, err := s.svc.Runs(c.Request().Context(), c.QueryParam("kind"), limit)
	if err != nil {
		return err
	}
	out := RunListResponse{Runs: make([]Run, 0, len(runs))}
	for _, r := range runs {
		out.Runs = append(out.Runs, FromRun(r))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleRun(c echo.Context) error {
	run, err := s.svc.Run(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, FromRun(*run))
}
