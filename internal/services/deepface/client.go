package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dataforgoodfr/bechdelai/internal/services"
)

// DefaultURL is where `deepface api` listens by default.
const DefaultURL = "http://127.0.0.1:5005"

// Region is a detected face bounding box in pixels.
type Region struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Face is the gender analysis of one detected face.
type Face struct {
	DominantGender string             `json:"dominant_gender"`
	Gender         map[string]float64 `json:"gender"`
	Region         Region             `json:"region"`
	Confidence     float64            `json:"face_confidence"`
}

// Client calls the DeepFace REST API.
type Client struct {
	baseURL    string
	detector   string
	httpClient *http.Client
}

// New returns a client for the service at baseURL using the given detector
// backend (retinaface, opencv, mtcnn...).
func New(baseURL, detector string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL:    baseURL,
		detector:   strings.TrimSpace(detector),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type analyzeRequest struct {
	Image            string   `json:"img"`
	Actions          []string `json:"actions"`
	DetectorBackend  string   `json:"detector_backend,omitempty"`
	EnforceDetection bool     `json:"enforce_detection"`
}

// AnalyzeFile sends the image at path for gender analysis.
func (c *Client) AnalyzeFile(ctx context.Context, path string) ([]Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "vision", "deepface", "read frame", err)
	}
	return c.Analyze(ctx, data)
}

// Analyze sends an encoded image. A frame with no face yields an empty slice.
func (c *Client) Analyze(ctx context.Context, image []byte) ([]Face, error) {
	body, err := json.Marshal(analyzeRequest{
		Image:           "data:" + http.DetectContentType(image) + ";base64," + base64.StdEncoding.EncodeToString(image),
		Actions:         []string{"gender"},
		DetectorBackend: c.detector,
	})
	if err != nil {
		return nil, fmt.Errorf("deepface: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("deepface: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "vision", "deepface", "service unreachable", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "vision", "deepface", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		marker := services.ErrExternalTool
		if resp.StatusCode >= http.StatusInternalServerError {
			marker = services.ErrTransient
		}
		return nil, services.Wrap(marker, "vision", "deepface",
			fmt.Sprintf("returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data))), nil)
	}
	return decodeFaces(data)
}

// decodeFaces accepts the current {"results": [...]} payload as well as the
// bare list returned by older releases.
func decodeFaces(data []byte) ([]Face, error) {
	trimmed := bytes.TrimSpace(data)
	var faces []Face
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &faces); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "vision", "deepface", "decode response", err)
		}
		return faces, nil
	}
	var payload struct {
		Results []Face `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "vision", "deepface", "decode response", err)
	}
	return payload.Results, nil
}
