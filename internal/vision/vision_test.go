package vision_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/deepface"
	"github.com/dataforgoodfr/bechdelai/internal/testsupport"
	"github.com/dataforgoodfr/bechdelai/internal/vision"
)

func TestExtractFramesRunsFFmpegAndListsFrames(t *testing.T) {
	dir := t.TempDir()
	var args []string
	ex := vision.NewExtractor("")
	ex.WithCommandRunner(func(_ context.Context, _ string, a ...string) ([]byte, error) {
		args = a
		for _, name := range []string{"frame10.jpg", "frame2.jpg", "frame1.jpg", "notes.txt"} {
			testsupport.WriteText(t, filepath.Join(dir, name), "jpg")
		}
		return nil, nil
	})
	frames, err := ex.ExtractFrames(context.Background(), "movie.mp4", dir, 0.5, 600)
	if err != nil {
		t.Fatalf("ExtractFrames: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-vf fps=0.5") || !strings.Contains(joined, "-t 600") {
		t.Fatalf("unexpected ffmpeg args %q", joined)
	}
	if len(frames) != 3 || frames[0].ID != 1 || frames[2].ID != 10 {
		t.Fatalf("unexpected frames %+v", frames)
	}
	if frames[1].Timestamp != 2*time.Second || frames[2].Timestamp != 18*time.Second {
		t.Fatalf("unexpected timestamps %+v", frames)
	}
	if _, err := ex.ExtractFrames(context.Background(), "movie.mp4", dir, 0, 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBechdelizerWithDeepFace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		_, _ = body.ReadFrom(r.Body)
		switch {
		case strings.Contains(body.String(), "dHdv"): // base64 of "two"
			_, _ = w.Write([]byte(`{"results":[{"dominant_gender":"Woman","region":{"w":10,"h":10}},{"dominant_gender":"Woman"},{"dominant_gender":"Man"}]}`))
		default:
			_, _ = w.Write([]byte(`{"results":[{"dominant_gender":"Man"}]}`))
		}
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	testsupport.WriteText(t, filepath.Join(dir, "frame1.jpg"), "one")
	testsupport.WriteText(t, filepath.Join(dir, "frame2.jpg"), "two")
	frames, err := vision.ListFrames(dir, 1)
	if err != nil {
		t.Fatalf("ListFrames: %v", err)
	}

	b := &vision.Bechdelizer{Analyzer: vision.DeepFaceAnalyzer{Client: deepface.New(server.URL, "retinaface")}}
	results, err := b.Run(context.Background(), frames)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 || results[0].Women != 0 || results[1].Women != 2 || results[1].Men != 1 {
		t.Fatalf("unexpected results %+v", results)
	}
	multi := vision.WithMultipleWomen(results)
	if len(multi) != 1 || multi[0].Frame.ID != 2 {
		t.Fatalf("unexpected multi-women frames %+v", multi)
	}

	var buf bytes.Buffer
	if err := vision.WriteCSV(&buf, results); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "timestamp,file_location,prediction,nb_woman_detected,nb_man_detected,women_area,men_area,ratio_area" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	// Text frames have no readable size, so areas stay empty.
	if lines[2] != "1,"+filepath.Join(dir, "frame2.jpg")+",Woman|Woman|Man,2,1,0.0000,0.0000,0.0000" {
		t.Fatalf("unexpected row %q", lines[2])
	}
}

func TestTimeline(t *testing.T) {
	rows := []vision.LabelledFrame{
		{FrameID: 3, Label: "woman"},
		{FrameID: 0, Label: "woman"},
		{FrameID: 1, Label: "woman"},
		{FrameID: 2, Label: "man"},
		{FrameID: 4, Label: "woman"},
	}
	spans := vision.Timeline(rows, 2*time.Second)
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %+v", spans)
	}
	first := spans[0]
	if first.Label != "woman" || first.FirstFrame != 0 || first.EndFrame != 2 || first.Start != 0 || first.End != 4*time.Second {
		t.Fatalf("unexpected first span %+v", first)
	}
	if spans[1].Label != "man" || spans[1].Duration != 2*time.Second {
		t.Fatalf("unexpected second span %+v", spans[1])
	}
	if spans[2].Sequence != 1 || spans[2].FirstFrame != 3 || spans[2].EndFrame != 5 || spans[2].Duration != 4*time.Second {
		t.Fatalf("unexpected third span %+v", spans[2])
	}

	women := vision.WomenTimeline([]vision.FrameResult{
		{Frame: vision.Frame{ID: 1}, Women: 2},
		{Frame: vision.Frame{ID: 2}, Women: 3},
		{Frame: vision.Frame{ID: 3}, Women: 0},
	}, time.Second)
	if len(women) != 2 || women[0].Label != "multiple women" || women[0].Duration != 2*time.Second {
		t.Fatalf("unexpected women timeline %+v", women)
	}
}

func TestWomenTimelineAlignsWithFrameTimestamps(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame1.jpg", "frame2.jpg", "frame3.jpg"} {
		testsupport.WriteText(t, filepath.Join(dir, name), "jpg")
	}
	frames, err := vision.ListFrames(dir, 1)
	if err != nil {
		t.Fatalf("ListFrames: %v", err)
	}
	results := []vision.FrameResult{
		{Frame: frames[0], Women: 2},
		{Frame: frames[1], Women: 2},
		{Frame: frames[2], Women: 1},
	}
	spans := vision.WomenTimeline(results, time.Second)
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %+v", spans)
	}
	if spans[0].Start != results[0].Frame.Timestamp || spans[0].End != 2*time.Second {
		t.Fatalf("multiple women span %+v does not start at frame timestamp %s", spans[0], results[0].Frame.Timestamp)
	}
	if spans[1].Label != "one woman" || spans[1].Start != results[2].Frame.Timestamp || spans[1].End != 3*time.Second {
		t.Fatalf("unexpected one woman span %+v", spans[1])
	}
}

type stubAnalyzer []vision.Face

func (s stubAnalyzer) Faces(context.Context, string) ([]vision.Face, error) { return s, nil }

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	testsupport.WriteText(t, path, buf.String())
}

func TestAnalyzeMeasuresFaceAreas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poster.png")
	writePNG(t, path, 100, 50)

	analyzer := stubAnalyzer{
		{Gender: "Woman", W: 10, H: 10},
		{Gender: "Woman", W: 20, H: 5},
		{Gender: "Man", W: 50, H: 20},
	}
	r, err := vision.Analyze(context.Background(), analyzer, vision.Frame{Path: path})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if r.Women != 2 || r.Men != 1 || r.Area.Width != 100 || r.Area.Height != 50 {
		t.Fatalf("unexpected result %+v", r)
	}
	if r.Area.WomenArea != 0.04 || r.Area.MenArea != 0.2 || math.Abs(r.Area.RatioArea-0.2) > 1e-9 {
		t.Fatalf("unexpected areas %+v", r.Area)
	}

	only := vision.MeasureFaces([]vision.Face{{Gender: "Woman", W: 10, H: 10}}, 100, 100)
	if only.WomenArea != 0.01 || only.RatioArea != 0 {
		t.Fatalf("expected zero ratio without men, got %+v", only)
	}

	notImage := filepath.Join(t.TempDir(), "frame.jpg")
	testsupport.WriteText(t, notImage, "not an image")
	if _, err := vision.Analyze(context.Background(), analyzer, vision.Frame{Path: notImage}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unreadable image, got %v", err)
	}
}
