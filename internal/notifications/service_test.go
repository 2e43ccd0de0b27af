package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lensflow/internal/testsupport"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, *[]captured) {
	t.Helper()

	var got []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &got
}

func TestNewServiceReturnsNoopWithoutTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	svc := NewService(cfg)
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("expected noop service when topic is empty, got %T", svc)
	}
	if err := svc.NotifyError(context.Background(), errors.New("boom"), "ingest"); err != nil {
		t.Fatalf("noop notify returned error: %v", err)
	}
}

func TestNotifyIngestCompleted(t *testing.T) {
	server, got := newCaptureServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))

	svc := NewService(cfg)
	if err := svc.NotifyIngestCompleted(context.Background(), 3, 1); err != nil {
		t.Fatalf("NotifyIngestCompleted failed: %v", err)
	}

	if len(*got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(*got))
	}
	msg := (*got)[0]
	if msg.title != "Lensflow - Photos Added" {
		t.Errorf("unexpected title %q", msg.title)
	}
	if !strings.Contains(msg.body, "Added 3 photo(s)") || !strings.Contains(msg.body, "1 file(s) excluded") {
		t.Errorf("unexpected body %q", msg.body)
	}
	if msg.tags != "lensflow,ingest,completed" {
		t.Errorf("unexpected tags %q", msg.tags)
	}
}

func TestNotifyAnimationFailedSetsHighPriority(t *testing.T) {
	server, got := newCaptureServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))

	svc := NewService(cfg)
	err := svc.NotifyAnimationFailed(context.Background(), "Golden Hour", errors.New("generation failed"))
	if err != nil {
		t.Fatalf("NotifyAnimationFailed failed: %v", err)
	}

	msg := (*got)[0]
	if msg.priority != "high" {
		t.Errorf("expected high priority, got %q", msg.priority)
	}
	if !strings.Contains(msg.body, "Golden Hour") || !strings.Contains(msg.body, "generation failed") {
		t.Errorf("unexpected body %q", msg.body)
	}
}

func TestDisabledEventsAreSkipped(t *testing.T) {
	server, got := newCaptureServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
	cfg.Notifications.Ingest = false
	cfg.Notifications.Animation = false
	cfg.Notifications.Errors = false

	svc := NewService(cfg)
	ctx := context.Background()
	if err := svc.NotifyIngestCompleted(ctx, 1, 0); err != nil {
		t.Fatalf("NotifyIngestCompleted failed: %v", err)
	}
	if err := svc.NotifyAnimationCompleted(ctx, "Golden Hour"); err != nil {
		t.Fatalf("NotifyAnimationCompleted failed: %v", err)
	}
	if err := svc.NotifyError(ctx, errors.New("boom"), ""); err != nil {
		t.Fatalf("NotifyError failed: %v", err)
	}

	if len(*got) != 0 {
		t.Fatalf("expected suppressed notifications, got %d", len(*got))
	}
}

func TestTestNotificationIgnoresToggles(t *testing.T) {
	server, got := newCaptureServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
	cfg.Notifications.Ingest = false
	cfg.Notifications.Animation = false
	cfg.Notifications.Errors = false

	svc := NewService(cfg)
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if len(*got) != 1 {
		t.Fatalf("expected test notification to send, got %d", len(*got))
	}
}

func TestSendReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "topic rejected", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)
	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))

	svc := NewService(cfg)
	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error from rejecting server")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("expected status in error, got %v", err)
	}
}
