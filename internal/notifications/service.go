package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lensflow/internal/config"
)

const userAgent = "Lensflow/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyIngestCompleted(ctx context.Context, added, excluded int) error
	NotifyAnimationCompleted(ctx context.Context, title string) error
	NotifyAnimationFailed(ctx context.Context, title string, cause error) error
	NotifyError(ctx context.Context, err error, detail string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		ingest:    cfg.Notifications.Ingest,
		animation: cfg.Notifications.Animation,
		errors:    cfg.Notifications.Errors,
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
	client    *http.Client
	ingest    bool
	animation bool
	errors    bool
}

func (n *ntfyService) NotifyIngestCompleted(ctx context.Context, added, excluded int) error {
	if !n.ingest {
		return nil
	}
	message := fmt.Sprintf("Added %d photo(s) to the collection", added)
	if excluded > 0 {
		message += fmt.Sprintf(" (%d file(s) excluded)", excluded)
	}
	return n.send(ctx, payload{
		title:   "Lensflow - Photos Added",
		message: message,
		tags:    []string{"lensflow", "ingest", "completed"},
	})
}

func (n *ntfyService) NotifyAnimationCompleted(ctx context.Context, title string) error {
	if !n.animation {
		return nil
	}
	return n.send(ctx, payload{
		title:   "Lensflow - Animation Ready",
		message: fmt.Sprintf("Animation ready: %s", strings.TrimSpace(title)),
		tags:    []string{"lensflow", "animate", "completed"},
	})
}

func (n *ntfyService) NotifyAnimationFailed(ctx context.Context, title string, cause error) error {
	if !n.animation {
		return nil
	}
	message := fmt.Sprintf("Animation failed: %s", strings.TrimSpace(title))
	if cause != nil {
		message += fmt.Sprintf(" (%v)", cause)
	}
	return n.send(ctx, payload{
		title:    "Lensflow - Animation Failed",
		message:  message,
		tags:     []string{"lensflow", "animate", "failed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, detail string) error {
	if !n.errors {
		return nil
	}
	message := fmt.Sprintf("Error: %v", err)
	if detail = strings.TrimSpace(detail); detail != "" {
		message = fmt.Sprintf("%s: %v", detail, err)
	}
	return n.send(ctx, payload{
		title:    "Lensflow - Error",
		message:  message,
		tags:     []string{"lensflow", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:   "Lensflow - Test",
		message: "Test notification from lensflow",
		tags:    []string{"lensflow", "test"},
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

func (noopService) NotifyIngestCompleted(context.Context, int, int) error      { return nil }
func (noopService) NotifyAnimationCompleted(context.Context, string) error     { return nil }
func (noopService) NotifyAnimationFailed(context.Context, string, error) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }

// Noop returns a Service that drops every notification; used in tests.
func Noop() Service {
	return noopService{}
}
