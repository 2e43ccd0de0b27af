package daemon

import (
	"context"
	"net/http"
	"testing"

	"lensflow/internal/logging"
	"lensflow/internal/photo"
	"lensflow/internal/pipeline"
	"lensflow/internal/services/gemini"
	"lensflow/internal/testsupport"
)

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(context.Context, []byte, string) gemini.Analysis {
	return gemini.Analysis{Category: "other", Title: "Untitled Image", Tags: []string{"photo"}}
}

type stubGenerator struct{}

func (stubGenerator) Animate(context.Context, []byte, string, string) (string, error) {
	return "data:video/mp4;base64,AAAA", nil
}

func newDaemon(t *testing.T) *Daemon {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := photo.NewStore()
	orch := pipeline.NewOrchestrator(store, stubAnalyzer{}, stubGenerator{})
	d, err := New(cfg, store, orch, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newDaemon(t)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(d.Stop)

	addr := d.Addr()
	if addr == "" {
		t.Fatal("expected API address after start")
	}
	resp, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("healthz request failed: %v", err)
	}
	resp.Body.Close()

	status := d.Status()
	if !status.Running || status.LockFilePath == "" {
		t.Errorf("unexpected status: %+v", status)
	}

	d.Stop()
	if d.Status().Running {
		t.Error("expected stopped status")
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	first := newDaemon(t)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	t.Cleanup(first.Stop)

	second, err := New(first.cfg, photo.NewStore(),
		pipeline.NewOrchestrator(photo.NewStore(), stubAnalyzer{}, stubGenerator{}), logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second instance to be refused")
	}
}

func TestDaemonDoubleStart(t *testing.T) {
	d := newDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(d.Stop)

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected error starting an already running daemon")
	}
}
