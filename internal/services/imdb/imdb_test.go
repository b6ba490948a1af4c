package imdb_test

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dataforgoodfr/bechdelai/internal/services/imdb"
	"github.com/dataforgoodfr/bechdelai/internal/services/scrape"
)

const findPage = `<html><body><table>
<tr class="findResult odd"><td class="primary_photo"><a href="/title/tt0103074/?ref_=fn_tt_tt_1"><img></a></td>
<td class="result_text"><a href="/title/tt0103074/?ref_=fn_tt_tt_1">Thelma &amp; Louise</a> (1991)</td></tr>
<tr class="findResult even"><td><a href="/name/nm0000123/">Not a title</a></td></tr>
</table></body></html>`

const creditsPage = `<html><body><table class="cast_list">
<tr><td colspan="4">Cast</td></tr>
<tr class="odd"><td class="primary_photo"><a href="/name/nm0000149/?ref_=ttfc_fc_cl_i1"><img></a></td>
<td><a href="/name/nm0000149/?ref_=ttfc_fc_cl_t1"> Geena Davis </a></td><td class="ellipsis">...</td>
<td class="character"><a href="/title/tt0103074/characters/nm0000149"> Thelma </a></td></tr>
<tr class="even"><td><a href="/name/nm0000215/"><img></a></td><td><a href="/name/nm0000215/">Susan Sarandon</a></td>
<td class="character"><a href="/title/tt0103074/characters/nm0000215">Louise</a></td></tr>
<tr><td><a href="/name/nm1/">only one link</a></td></tr>
</table></body></html>`

const titlePage = `<html><body><h1>Thelma &amp; Louise</h1>
<ul data-testid="hero-title-block__metadata"><li><a>1991</a></li><li>R</li><li>2h 10m</li></ul></body></html>`

func newClient(t *testing.T) *imdb.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/find":
			if r.URL.Query().Get("q") != "thelma" || r.URL.Query().Get("s") != "tt" {
				t.Errorf("unexpected query %q", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(findPage))
		case "/title/tt0103074/fullcredits":
			_, _ = w.Write([]byte(creditsPage))
		case "/title/tt0103074/":
			_, _ = w.Write([]byte(titlePage))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return imdb.New(scrape.NewFetcher(scrape.Options{MaxAttempts: 1}), server.URL)
}

func TestSearchDetailsAndCast(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()

	results, err := client.Search(ctx, "thelma")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one title result, got %+v", results)
	}
	if results[0].ID != "tt0103074" || results[0].Title != "Thelma & Louise (1991)" {
		t.Fatalf("unexpected result %+v", results[0])
	}

	cast, err := client.Cast(ctx, results[0].CreditsURL)
	if err != nil {
		t.Fatalf("Cast: %v", err)
	}
	if len(cast) != 2 {
		t.Fatalf("expected 2 cast rows, got %+v", cast)
	}
	if cast[0].NConst != 149 || cast[0].Character != "Thelma" || cast[0].Name != "Geena Davis" {
		t.Fatalf("unexpected first cast entry %+v", cast[0])
	}

	details, err := client.Details(ctx, results[0].CreditsURL[:len(results[0].CreditsURL)-len("fullcredits")])
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if details.Title != "Thelma & Louise" || len(details.Metadata) != 3 || details.Metadata[2] != "2h 10m" {
		t.Fatalf("unexpected details %+v", details)
	}
}

func writeGzip(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestDatasetEnrichCast(t *testing.T) {
	dir := t.TempDir()
	writeGzip(t, filepath.Join(dir, imdb.NamesFile), "nconst\tprimaryName\tbirthYear\tdeathYear\tprimaryProfession\tknownForTitles\n"+
		"nm0000149\tGeena Davis\t1956\t\\N\tactress,producer\ttt0103074\n"+
		"nm0000631\tRidley Scott\t1937\t\\N\tproducer,director\ttt0103074\n"+
		"nm0000999\tSomeone Else\t1900\t1980\tactor\ttt0000001\n")
	writeGzip(t, filepath.Join(dir, imdb.TitlesFile), "tconst\ttitleType\tprimaryTitle\toriginalTitle\tisAdult\tstartYear\tendYear\truntimeMinutes\tgenres\n"+
		"tt0103074\tmovie\tThelma & Louise\tThelma & Louise\t0\t1991\t\\N\t130\tAdventure,Crime,Drama\n"+
		"tt0000001\tshort\tCarmencita\tCarmencita\t0\t1894\t\\N\t1\tDocumentary\n")
	writeGzip(t, filepath.Join(dir, imdb.PrincipalsFile), "tconst\tordering\tnconst\tcategory\tjob\tcharacters\n"+
		"tt0103074\t1\tnm0000149\tactress\t\\N\t[\"Thelma\"]\n"+
		"tt0103074\t5\tnm0000631\tdirector\t\\N\t\\N\n"+
		"tt0000001\t1\tnm0000999\tactor\t\\N\t\\N\n")

	ds, err := imdb.LoadDataset(dir, 103074)
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	if len(ds.Titles) != 1 || ds.Titles[103074].RuntimeMinutes != 130 {
		t.Fatalf("unexpected titles %+v", ds.Titles)
	}
	if _, ok := ds.Names[999]; ok {
		t.Fatal("names of other titles should be filtered out")
	}

	people := ds.EnrichCast([]imdb.CastEntry{{NConst: 149, Character: "Thelma"}, {NConst: 42, Name: "Unknown", Character: "Cop"}})
	if people[0].NConst != "nm0000149" || people[0].Gender != "F" || people[0].URL != "https://www.imdb.com/name/nm0000149/" || people[0].Ordering != 1 {
		t.Fatalf("unexpected first person %+v", people[0])
	}
	if people[1].Gender != "?" || people[1].Name != "Unknown" || people[1].Ordering != 2 {
		t.Fatalf("unexpected second person %+v", people[1])
	}

	director, ok := ds.Principal(103074, "director")
	if !ok || director.Name != "Ridley Scott" || director.Gender != "?" {
		t.Fatalf("unexpected director %+v", director)
	}
}

func TestGenderFromProfessions(t *testing.T) {
	tests := map[string]struct {
		in   []string
		want string
	}{
		"actress": {[]string{"actress", "writer"}, "F"},
		"actor":   {[]string{"producer", "actor"}, "M"},
		"other":   {[]string{"director"}, "?"},
		"empty":   {nil, "?"},
	}
	for name, tt := range tests {
		if got := imdb.GenderFromProfessions(tt.in); got != tt.want {
			t.Errorf("%s: got %q want %q", name, got, tt.want)
		}
	}
}
