package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataforgoodfr/bechdelai/internal/api"
	"github.com/dataforgoodfr/bechdelai/internal/notifications"
	"github.com/dataforgoodfr/bechdelai/internal/services/tmdb"
	"github.com/dataforgoodfr/bechdelai/internal/store"
	"github.com/dataforgoodfr/bechdelai/internal/testsupport"
)

const srt = `1
00:00:01,000 --> 00:00:02,000
Thelma, are you ready?

2
00:00:02,500 --> 00:00:04,000
Louise, I packed the car.
`

type fakeSearcher struct{}

func (fakeSearcher) SearchMovie(_ context.Context, q string) (*tmdb.SearchResponse, error) {
	return &tmdb.SearchResponse{Results: []tmdb.Movie{{ID: 1541, Title: q, ReleaseDate: "1991-05-24"}}}, nil
}

func (fakeSearcher) MovieDetails(_ context.Context, id int64) (*tmdb.Movie, error) {
	return &tmdb.Movie{ID: id, Title: "Thelma & Louise", ReleaseDate: "1991-05-24", IMDbID: "tt0103074"}, nil
}

func (fakeSearcher) MovieCredits(context.Context, int64) (*tmdb.Credits, error) {
	return &tmdb.Credits{Cast: []tmdb.CastMember{
		{ID: 1, Name: "Susan Sarandon", Character: "Louise Sawyer", Gender: 1},
		{ID: 2, Name: "Geena Davis", Character: "Thelma Dickinson", Gender: 1},
	}}, nil
}

func (fakeSearcher) PersonDetails(_ context.Context, id int64) (*tmdb.Person, error) {
	return &tmdb.Person{ID: id, Birthday: "1950-01-01"}, nil
}

type fixture struct {
	server *api.Server
	store  *store.Store
}

func newFixture(t *testing.T, opts ...api.ServiceOption) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	require.NoError(t, cfg.EnsureDirectories())
	st := testsupport.MustOpenStore(t, cfg)
	opts = append([]api.ServiceOption{
		api.WithSearcher(fakeSearcher{}),
		api.WithPlotFinder(nil),
		api.WithPosterFinder(nil),
	}, opts...)
	svc, err := api.NewService(cfg, st, nil, opts...)
	require.NoError(t, err)
	return fixture{server: api.NewServer(svc, cfg.Paths.APIBind, nil), store: st}
}

func (f fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/x-subrip")
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthSetsRequestID(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/health", "")
	assert.Contains(t, []int{http.StatusOK, http.StatusServiceUnavailable}, rec.Code)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	health := decode[api.HealthResponse](t, rec)
	assert.NotEmpty(t, health.Checks)
	assert.Len(t, health.Dependencies, 4)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/movies/search?q=Thelma", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.SearchResponse](t, rec)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, int64(1541), resp.Results[0].ID)
	assert.Equal(t, "1991", resp.Results[0].Year)

	rec = f.do(t, http.MethodGet, "/api/movies/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decode[api.ErrorResponse](t, rec)
	assert.Equal(t, "validation", errResp.Kind)
	assert.NotEmpty(t, errResp.RequestID)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, importRating(f.store))

	rec := f.do(t, http.MethodGet, "/api/movies/1541/profile", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var profile struct {
		Title  string `json:"title"`
		Cast   []any  `json:"cast"`
		Rating struct {
			Rating int `json:"rating"`
		} `json:"bechdel_rating"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "Thelma & Louise", profile.Title)
	assert.Len(t, profile.Cast, 2)
	assert.Equal(t, 3, profile.Rating.Rating)

	rec = f.do(t, http.MethodGet, "/api/movies/abc/profile", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func importRating(st *store.Store) error {
	_, err := st.ImportRatings(context.Background(), []store.Rating{
		{IMDbID: "tt0103074", BechdelID: 1, Title: "Thelma & Louise", Year: 1991, Rating: 3},
	})
	return err
}

func TestRatings(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, importRating(f.store))

	rec := f.do(t, http.MethodGet, "/api/ratings/tt0103074", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rating := decode[store.Rating](t, rec)
	assert.Equal(t, 3, rating.Rating)

	rec = f.do(t, http.MethodGet, "/api/ratings/tt9999999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[api.ErrorResponse](t, rec).Kind)

	rec = f.do(t, http.MethodGet, "/api/ratings/nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeRecordsRun(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/subtitles/analyze?tmdb_id=1541", srt)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		RunID  string `json:"runId"`
		Report struct {
			Characters []struct {
				Name   string `json:"name"`
				Gender string `json:"gender"`
			} `json:"characters"`
			Score struct {
				Value int `json:"value"`
			} `json:"score"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.RunID)
	require.Len(t, resp.Report.Characters, 2)
	assert.Equal(t, "woman", resp.Report.Characters[0].Gender)
	assert.Equal(t, 3, resp.Report.Score.Value)

	rec = f.do(t, http.MethodGet, "/api/runs?kind=subtitles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[api.RunListResponse](t, rec)
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, "completed", runs.Runs[0].Status)
	assert.Equal(t, "tmdb:1541", runs.Runs[0].Subject)
	assert.NotEmpty(t, runs.Runs[0].Result)

	rec = f.do(t, http.MethodGet, "/api/runs/"+resp.RunID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, resp.RunID, decode[api.Run](t, rec).ID)
}

func TestAnalyzeFailuresGoToReview(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/subtitles/analyze", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/subtitles/analyze", "this is not an srt file")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	runs, err := f.store.ListRuns(context.Background(), api.KindSubtitles, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunReview, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)

	rec = f.do(t, http.MethodGet, "/api/runs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/runs?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type recordingNotifier struct {
	runs []notifications.Run
}

func (r *recordingNotifier) RunFinished(_ context.Context, run notifications.Run) error {
	r.runs = append(r.runs, run)
	return nil
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

func TestFinishedRunsAreAnnounced(t *testing.T) {
	notifier := &recordingNotifier{}
	f := newFixture(t, api.WithNotifier(notifier))

	rec := f.do(t, http.MethodPost, "/api/subtitles/analyze", srt)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = f.do(t, http.MethodPost, "/api/subtitles/analyze", "this is not an srt file")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	require.Len(t, notifier.runs, 2)
	assert.Equal(t, "completed", notifier.runs[0].Status)
	assert.False(t, notifier.runs[0].Failed())
	assert.Equal(t, api.KindSubtitles, notifier.runs[1].Kind)
	assert.Equal(t, "review", notifier.runs[1].Status)
	assert.NotEmpty(t, notifier.runs[1].Error)
}

func TestUnknownRouteIsJSON(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decode[api.ErrorResponse](t, rec).Error)
}

func TestMissingTMDBKeyIsUnavailable(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTMDBKey(""))
	svc, err := api.NewService(cfg, nil, nil)
	require.NoError(t, err)
	server := api.NewServer(svc, "", nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movies/search?q=x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "configuration", decode[api.ErrorResponse](t, rec).Kind)
}

func TestServerStartAndStop(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.server.Start(ctx))
	defer f.server.Stop()

	resp, err := http.Get("http://" + f.server.Addr() + "/api/ratings/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
