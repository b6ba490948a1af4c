package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dataforgoodfr/bechdelai/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckTMDB_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/configuration" || r.URL.Query().Get("api_key") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckTMDB(context.Background(), srv.URL, "good-key")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckTMDB_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	result := CheckTMDB(context.Background(), srv.URL, "bad-key")
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if !strings.Contains(result.Detail, "auth failed") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckTMDB_MissingKey(t *testing.T) {
	result := CheckTMDB(context.Background(), "http://localhost", "")
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckHTTPService_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	result := CheckHTTPService(context.Background(), "svc", base+"/?api_key=secret")
	if result.Passed {
		t.Fatal("expected failure for closed server")
	}
	if strings.Contains(result.Detail, "secret") {
		t.Fatalf("expected api key to be redacted, got %q", result.Detail)
	}
}

func TestCheckDeepFaceFromConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Vision.DeepFaceURL = srv.URL + "/"
	if result := CheckDeepFaceFromConfig(context.Background(), &cfg); !result.Passed {
		t.Fatalf("expected DeepFace pass, got %s", result.Detail)
	}
	cfg.Vision.DeepFaceURL = ""
	if result := CheckDeepFaceFromConfig(context.Background(), &cfg); !result.Passed || result.Detail != "Not configured" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckStorageFromConfig(t *testing.T) {
	cfg := config.Default()
	if result := CheckStorageFromConfig(&cfg); !result.Passed || result.Detail != "Disabled" {
		t.Fatalf("unexpected result %+v", result)
	}
	cfg.Storage.Enabled = true
	if result := CheckStorageFromConfig(&cfg); result.Passed {
		t.Fatal("expected failure without bucket")
	}
	cfg.Storage.Bucket = "reports"
	cfg.Storage.Prefix = "bechdel"
	if result := CheckStorageFromConfig(&cfg); !result.Passed || result.Detail != "s3://reports/bechdel" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.CacheDir = t.TempDir()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.TMDB.APIKey = ""
	cfg.LLM.APIKey = ""

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 directory results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestRunAll_IncludesTMDBWhenConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.CacheDir = t.TempDir()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.TMDB.APIKey = "test"
	cfg.TMDB.BaseURL = srv.URL
	cfg.LLM.APIKey = ""

	found := false
	for _, r := range RunAll(context.Background(), &cfg) {
		if r.Name == "TMDB" {
			found = true
			if !r.Passed {
				t.Errorf("TMDB check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected TMDB check in results")
	}
}

func TestCheckSystemDeps_MarksOptional(t *testing.T) {
	t.Setenv("PATH", "")
	cfg := config.Default()
	cfg.Audio.Segmenter = "pitch"
	cfg.Audio.Transcriber = "whisperx"

	statuses := CheckSystemDeps(context.Background(), &cfg)
	if len(statuses) != 4 {
		t.Fatalf("expected 4 statuses, got %d", len(statuses))
	}
	byName := map[string]bool{}
	for _, s := range statuses {
		if s.Available {
			t.Fatalf("expected %s to be unavailable with empty PATH", s.Name)
		}
		byName[s.Name] = s.Optional
	}
	if !byName["INA speech segmenter"] || byName["uvx"] {
		t.Fatalf("unexpected optional flags %v", byName)
	}
}
