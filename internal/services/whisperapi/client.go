package whisperapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dataforgoodfr/bechdelai/internal/language"
	"github.com/dataforgoodfr/bechdelai/internal/services"
)

// DefaultBaseURL is the OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// DefaultModel is the hosted Whisper model.
const DefaultModel = openai.Whisper1

const transcriptionsPath = "/audio/transcriptions"

// Client uploads audio clips to an OpenAI-compatible transcription API.
type Client struct {
	api   *openai.Client
	model string
}

// Option customizes the client configuration.
type Option func(*openai.ClientConfig)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *openai.ClientConfig) {
		if client != nil {
			c.HTTPClient = client
		}
	}
}

// New returns a transcription client. url may be the API root or the full
// transcriptions endpoint; empty url and model select the OpenAI defaults.
func New(apiKey, url, model string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "whisper api", "api key required", nil)
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = BaseURL(url)
	cfg.HTTPClient = &http.Client{Timeout: 2 * time.Minute}
	for _, opt := range opts {
		opt(&cfg)
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return &Client{api: openai.NewClientWithConfig(cfg), model: model}, nil
}

// BaseURL trims a configured transcription URL down to the API root the
// client appends endpoint paths to.
func BaseURL(url string) string {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if url == "" {
		return DefaultBaseURL
	}
	return strings.TrimSuffix(url, transcriptionsPath)
}

// Transcribe uploads the WAV file at path and returns the recognised text.
// lang accepts any code known to the language package.
func (c *Client) Transcribe(ctx context.Context, path, lang string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", services.Wrap(services.ErrValidation, "transcribe", "whisper api", "open audio", err)
	}

	start := time.Now()
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: path,
		Language: language.ToISO2(lang),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", classify(err, time.Since(start))
	}
	return strings.TrimSpace(resp.Text), nil
}

func classify(err error, elapsed time.Duration) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == 0:
		return services.Wrap(services.ErrTransient, "transcribe", "whisper api", "request failed", err)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "transcribe", "whisper api", "credentials rejected", err)
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, "transcribe", "whisper api",
			fmt.Sprintf("returned %d (latency=%v)", status, elapsed.Round(time.Millisecond)), err)
	default:
		return services.Wrap(services.ErrValidation, "transcribe", "whisper api",
			fmt.Sprintf("returned %d", status), err)
	}
}
