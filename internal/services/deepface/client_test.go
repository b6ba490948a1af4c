package deepface_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/deepface"
)

func TestAnalyzeFilePostsBase64Frame(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if !strings.HasPrefix(req["img"].(string), "data:") || !strings.Contains(req["img"].(string), ";base64,") {
			t.Errorf("image should be a data url, got %.40v", req["img"])
		}
		if req["detector_backend"] != "opencv" {
			t.Errorf("unexpected detector %v", req["detector_backend"])
		}
		_, _ = w.Write([]byte(`{"results":[{"dominant_gender":"Woman","gender":{"Woman":97.1,"Man":2.9},"region":{"x":1,"y":2,"w":30,"h":40}},{"dominant_gender":"Man"}]}`))
	}))
	t.Cleanup(server.Close)

	frame := filepath.Join(t.TempDir(), "frame1.jpg")
	if err := os.WriteFile(frame, []byte{0xff, 0xd8, 0xff, 0xe0}, 0o644); err != nil {
		t.Fatal(err)
	}
	faces, err := deepface.New(server.URL+"/", "opencv").AnalyzeFile(context.Background(), frame)
	if err != nil {
		t.Fatalf("AnalyzeFile: %v", err)
	}
	if len(faces) != 2 || faces[0].DominantGender != "Woman" || faces[0].Region.W != 30 {
		t.Fatalf("unexpected faces %+v", faces)
	}
}

func TestAnalyzeLegacyListAndErrors(t *testing.T) {
	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`[{"dominant_gender":"Man"}]`))
	}))
	t.Cleanup(server.Close)
	client := deepface.New(server.URL, "")

	faces, err := client.Analyze(context.Background(), []byte("img"))
	if err != nil || len(faces) != 1 {
		t.Fatalf("legacy list should decode, got %+v err=%v", faces, err)
	}
	status = http.StatusInternalServerError
	if _, err := client.Analyze(context.Background(), []byte("img")); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
