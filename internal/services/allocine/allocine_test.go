package allocine_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dataforgoodfr/bechdelai/internal/services/allocine"
	"github.com/dataforgoodfr/bechdelai/internal/services/scrape"
	"github.com/dataforgoodfr/bechdelai/internal/services/tmdb"
)

func TestListURL(t *testing.T) {
	client := allocine.New(nil, "")
	tests := []struct {
		name   string
		filter allocine.Filter
		page   int
		want   string
	}{
		{"default", allocine.Filter{}, 1, "https://www.allocine.fr/films/?page=1"},
		{"sorted genre", allocine.Filter{Sort: "press_note", Genre: "genre-13025"}, 2, "https://www.allocine.fr/films/presse/genre-13025/?page=2"},
		{"year implies decade", allocine.Filter{Country: "pays-5001/", Decade: 1980, Year: 1995}, 1, "https://www.allocine.fr/films/pays-5001/decennie-1990/annee-1995/?page=1"},
		{"decade", allocine.Filter{Sort: "alphabetic", Decade: 1970}, 3, "https://www.allocine.fr/films/alphabetique/decennie-1970/?page=3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.ListURL(tt.filter, tt.page)
			if err != nil {
				t.Fatalf("ListURL: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
	if _, err := client.ListURL(allocine.Filter{Sort: "random"}, 1); err == nil {
		t.Fatal("expected invalid sort to fail")
	}
}

func card(i int) string {
	return fmt.Sprintf(`<li class="mdl"><div class="card">
<img class="thumbnail-img" src="data:image/gif;base64,R0lGOD" data-src="https://img/%d.jpg">
<a class="meta-title-link" href="/film/fichefilm_gen_cfilm=%d.html">Film %d</a>
<div class="meta-body-info"><span class="date">12 mars 2021</span></div>
<div class="meta-body-item meta-body-direction">
De
<a>Céline Sciamma</a>, <a>Other</a></div></div></li>`, i, i, i)
}

func TestMoviesPagesUntilShortPage(t *testing.T) {
	var pages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		count := allocine.PageSize
		if page == "2" {
			count = 4
		}
		var b strings.Builder
		b.WriteString("<html><body><ul>")
		for i := 0; i < count; i++ {
			b.WriteString(card(i))
		}
		b.WriteString("</ul></body></html>")
		_, _ = w.Write([]byte(b.String()))
	}))
	t.Cleanup(server.Close)

	client := allocine.New(scrape.NewFetcher(scrape.Options{MaxAttempts: 1}), server.URL)
	movies, err := client.Movies(context.Background(), allocine.Filter{}, 40)
	if err != nil {
		t.Fatalf("Movies: %v", err)
	}
	if len(movies) != allocine.PageSize+4 {
		t.Fatalf("expected %d movies, got %d", allocine.PageSize+4, len(movies))
	}
	if len(pages) != 2 {
		t.Fatalf("expected paging to stop after short page, fetched %v", pages)
	}
	m := movies[0]
	if m.Title != "Film 0" || m.Year != 2021 || m.Poster != "https://img/0.jpg" {
		t.Fatalf("unexpected movie %+v", m)
	}
	if m.Director != "Céline Sciamma, Other" || m.FirstDirector() != "Céline Sciamma" {
		t.Fatalf("unexpected director %q", m.Director)
	}
	if !strings.HasSuffix(m.URL, "/film/fichefilm_gen_cfilm=0.html") {
		t.Fatalf("unexpected url %q", m.URL)
	}

	limited, err := client.Movies(context.Background(), allocine.Filter{}, 3)
	if err != nil || len(limited) != 3 {
		t.Fatalf("expected 3 movies, got %d err=%v", len(limited), err)
	}
}

func TestParseFilters(t *testing.T) {
	doc, err := scrape.ParseHTML([]byte(`<div id="filter-entity">
<ul class="filter-entity-word" data-name="Par genres"><li><a href="/films/genre-13025/" title="Action">Action</a></li></ul>
<ul class="filter-entity-word" data-name="Par années de production"><li><a href="/films/decennie-2010/" title="2010 - 2019">2010</a></li></ul>
</div>`))
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	groups := allocine.ParseFilters(doc)
	if got := groups[allocine.GroupGenres]; len(got) != 1 || got[0].Slug != "genre-13025" || got[0].Name != "Action" {
		t.Fatalf("unexpected genres %+v", got)
	}
	years := groups[allocine.GroupYears]
	if len(years) != 10 || years[5].Slug != "decennie-2010/annee-2015" || years[5].Name != "2015" {
		t.Fatalf("unexpected years %+v", years)
	}
}

type fakeTMDB struct {
	tmdb.Searcher
	results []tmdb.Movie
	credits map[int64]*tmdb.Credits
}

func (f fakeTMDB) SearchMovie(context.Context, string) (*tmdb.SearchResponse, error) {
	return &tmdb.SearchResponse{Results: f.results}, nil
}

func (f fakeTMDB) MovieCredits(_ context.Context, id int64) (*tmdb.Credits, error) {
	if c, ok := f.credits[id]; ok {
		return c, nil
	}
	return &tmdb.Credits{}, nil
}

func TestMatchTMDB(t *testing.T) {
	fake := fakeTMDB{
		results: []tmdb.Movie{
			{ID: 1, ReleaseDate: "2001-01-01"},
			{ID: 2, ReleaseDate: "2018-01-01"},
		},
		credits: map[int64]*tmdb.Credits{
			2: {Crew: []tmdb.CrewMember{{Name: "Céline Sciamma", Job: "Director"}}},
		},
	}
	ctx := context.Background()

	m, err := allocine.MatchTMDB(ctx, fake, allocine.Movie{Title: "x", Year: 2001})
	if err != nil || m.ID != 1 {
		t.Fatalf("expected year match, got %+v err=%v", m, err)
	}
	m, err = allocine.MatchTMDB(ctx, fake, allocine.Movie{Title: "x", Year: 2019, Director: "Céline Sciamma, Other"})
	if err != nil || m.ID != 2 {
		t.Fatalf("expected director match, got %+v err=%v", m, err)
	}
	if _, err := allocine.MatchTMDB(ctx, fake, allocine.Movie{Title: "x", Year: 1950}); err == nil {
		t.Fatal("expected no match")
	}
}
