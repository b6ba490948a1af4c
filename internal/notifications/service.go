package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dataforgoodfr/bechdelai/internal/config"
)

const userAgent = "bechdelai/0.1.0"

// Run describes a finished analysis run.
type Run struct {
	ID      string
	Kind    string
	Subject string
	Status  string
	Error   string
	Elapsed time.Duration
}

// Failed reports whether the run ended in any status other than completed.
func (r Run) Failed() bool {
	return r.Status != "completed"
}

// Service is the notification surface used by the run tracker.
type Service interface {
	RunFinished(ctx context.Context, run Run) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a noop when no topic is set.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		onSuccess: cfg.Notifications.OnSuccess,
		client:    &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	onSuccess bool
	client    *http.Client
}

func (n *ntfyService) RunFinished(ctx context.Context, run Run) error {
	if !run.Failed() && !n.onSuccess {
		return nil
	}
	subject := strings.TrimSpace(run.Subject)
	if subject == "" {
		subject = "unnamed input"
	}

	if run.Failed() {
		var b strings.Builder
		fmt.Fprintf(&b, "%s analysis of %s ended in %s", run.Kind, subject, run.Status)
		if run.Error != "" {
			fmt.Fprintf(&b, "\n%s", run.Error)
		}
		fmt.Fprintf(&b, "\nRun %s", run.ID)
		return n.send(ctx, payload{
			title:    "BechdelAI - Run Failed",
			message:  b.String(),
			tags:     []string{"bechdelai", run.Kind, "failed"},
			priority: "high",
		})
	}

	return n.send(ctx, payload{
		title:   "BechdelAI - Run Complete",
		message: fmt.Sprintf("%s analysis of %s finished in %s\nRun %s", run.Kind, subject, run.Elapsed.Round(time.Second), run.ID),
		tags:    []string{"bechdelai", run.Kind, "completed"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "BechdelAI - Test",
		message:  "Notification system test",
		tags:     []string{"bechdelai", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) RunFinished(context.Context, Run) error { return nil }
func (noopService) TestNotification(context.Context) error { return nil }
