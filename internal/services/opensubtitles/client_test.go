package opensubtitles_test

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dataforgoodfr/bechdelai/internal/services/opensubtitles"
	"github.com/dataforgoodfr/bechdelai/internal/services/scrape"
)

func zipArchive(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestFetchPipeline(t *testing.T) {
	latin1 := []byte("1\n00:00:01,000 --> 00:00:02,000\nCaf\xe9\n")
	archive := zipArchive(t, map[string][]byte{
		"movie.fre.srt": latin1,
		"readme.nfo":    []byte("ignore me"),
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/en/search2/sublanguageid-fre/moviename-Am%C3%A9lie", "/en/search2/sublanguageid-fre/moviename-Amélie":
			_, _ = w.Write([]byte(`<table><tr><td><a class="bnone" href="/en/search/sublanguageid-fre/idmovie-1">Amélie
(2001)</a></td></tr></table>`))
		case "/en/search/sublanguageid-fre/idmovie-1":
			_, _ = w.Write([]byte(`<a href="/en/subtitleserve/sub/42">Download</a>`))
		case "/en/subtitleserve/sub/42":
			w.Header().Set("Content-Type", "application/zip")
			_, _ = w.Write(archive)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	client := opensubtitles.New(scrape.NewFetcher(scrape.Options{MaxAttempts: 1}), server.URL)
	ctx := context.Background()

	results, err := client.Search(ctx, "fr", "Amélie")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Amélie (2001)" {
		t.Fatalf("unexpected results %+v", results)
	}

	dir := t.TempDir()
	paths, err := client.Fetch(ctx, "fr", "Amélie", 0, dir)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "movie.fre.srt" {
		t.Fatalf("unexpected paths %v", paths)
	}
	data, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Contains(data, []byte("Café")) {
		t.Fatalf("expected latin-1 to be decoded, got %q", data)
	}

	if _, err := client.Fetch(ctx, "fr", "Amélie", 3, dir); err == nil {
		t.Fatal("expected out of range index to fail")
	}
}

func TestLanguageCode(t *testing.T) {
	tests := map[string]string{"": "fre", "fr": "fre", "en": "eng", "de": "ger", "spa": "spa", "??": "fre"}
	for in, want := range tests {
		if got := opensubtitles.LanguageCode(in); got != want {
			t.Errorf("LanguageCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToUTF8KeepsValidUTF8(t *testing.T) {
	in := []byte("déjà vu")
	out, err := opensubtitles.ToUTF8(in)
	if err != nil || string(out) != "déjà vu" {
		t.Fatalf("unexpected output %q err=%v", out, err)
	}
}

func TestExtractSRTRequiresSRTMember(t *testing.T) {
	archive := zipArchive(t, map[string][]byte{"notes.txt": []byte("x")})
	if _, err := opensubtitles.ExtractSRT(archive, t.TempDir()); err == nil {
		t.Fatal("expected error for archive without subtitles")
	}
}
