package bechdeltest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/bechdeltest"
	"github.com/dataforgoodfr/bechdelai/internal/services/scrape"
	"github.com/dataforgoodfr/bechdelai/internal/testsupport"
)

func newClient(t *testing.T, handler http.HandlerFunc) *bechdeltest.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return bechdeltest.New(scrape.NewFetcher(scrape.Options{MaxAttempts: 1}), server.URL)
}

func TestAllMoviesDecodesMixedTypes(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getAllMovies" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"imdbid":"0103074","id":"12","rating":"3","title":"Thelma &amp; Louise","year":"1991"},
			{"imdbid":"0076759","id":40,"rating":1,"title":"Star Wars","year":1977}]`))
	})

	movies, err := client.AllMovies(context.Background())
	if err != nil {
		t.Fatalf("AllMovies: %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("expected 2 movies, got %d", len(movies))
	}
	if movies[0].Title != "Thelma & Louise" || movies[0].Rating != 3 || movies[0].Year != 1991 || movies[0].ID != 12 {
		t.Fatalf("unexpected first movie %+v", movies[0])
	}
	if movies[1].Rating != 1 {
		t.Fatalf("unexpected second movie %+v", movies[1])
	}
}

func TestMovieByIMDbID(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("imdbid") == "0103074" {
			_, _ = w.Write([]byte(`{"imdbid":"0103074","id":"12","rating":"3","title":"Thelma","year":"1991"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"404"}`))
	})
	ctx := context.Background()

	movie, err := client.MovieByIMDbID(ctx, "tt0103074")
	if err != nil || movie.Rating != 3 {
		t.Fatalf("unexpected movie %+v err=%v", movie, err)
	}
	if _, err := client.MovieByIMDbID(ctx, "tt9999999"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := client.MovieByIMDbID(ctx, "abc"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMirrorImportsIntoStore(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"imdbid":"0103074","id":12,"rating":3,"title":"Thelma","year":1991}]`))
	})
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	n, err := client.Mirror(context.Background(), st)
	if err != nil {
		t.Fatalf("Mirror: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
	rating, err := st.RatingByIMDbID(context.Background(), "tt0103074")
	if err != nil || rating.Rating != 3 {
		t.Fatalf("unexpected rating %+v err=%v", rating, err)
	}
}
