package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"lensflow/internal/photo"
	"lensflow/internal/services"
	"lensflow/internal/services/credentials"
	"lensflow/internal/services/gemini"
	"lensflow/internal/testsupport"
)

type fakeAnalyzer struct {
	mu      sync.Mutex
	calls   int
	analyze func(call int, content []byte, mimeType string) gemini.Analysis
}

func (f *fakeAnalyzer) Analyze(_ context.Context, content []byte, mimeType string) gemini.Analysis {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	if f.analyze != nil {
		return f.analyze(call, content, mimeType)
	}
	return gemini.Analysis{
		Category: "nature",
		Title:    "Quiet Morning",
		Tags:     []string{"calm", "light"},
	}
}

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	ref     string
	err     error
}

func (f *fakeGenerator) Animate(ctx context.Context, _ []byte, _, _ string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.ref, f.err
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func payloadFixture(name string) photo.Payload {
	return photo.Payload{
		Name:     name,
		Content:  []byte("image-bytes-" + name),
		MimeType: "image/jpeg",
	}
}

func TestIngestBatchAppendsInOrder(t *testing.T) {
	store := photo.NewStore()
	analyzer := &fakeAnalyzer{
		analyze: func(call int, _ []byte, _ string) gemini.Analysis {
			return gemini.Analysis{
				Category:    "travel",
				Title:       "Stop " + strings.Repeat("I", call),
				GuessedDate: "2024-03",
				Tags:        []string{"trip"},
			}
		},
	}
	orch := NewOrchestrator(store, analyzer, &fakeGenerator{})

	result := orch.IngestBatch(context.Background(), []photo.Payload{
		payloadFixture("a.jpg"),
		payloadFixture("b.jpg"),
		payloadFixture("c.jpg"),
	})

	if len(result.Added) != 3 || result.Excluded != 0 {
		t.Fatalf("unexpected result: added=%d excluded=%d", len(result.Added), result.Excluded)
	}
	snapshot := store.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 stored photos, got %d", len(snapshot))
	}
	for i, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if snapshot[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, snapshot[i].Name)
		}
		if snapshot[i].ID == "" {
			t.Errorf("photo %s missing id", name)
		}
		if snapshot[i].Category != "travel" {
			t.Errorf("photo %s missing analysis metadata", name)
		}
	}
}

func TestIngestBatchFailedAnalysisStillStoresPhoto(t *testing.T) {
	store := photo.NewStore()
	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	analyzer := &fakeAnalyzer{
		analyze: func(call int, _ []byte, _ string) gemini.Analysis {
			if call == 2 {
				return gemini.FallbackAnalysis(now)
			}
			return gemini.Analysis{Category: "people", Title: "Portrait", GuessedDate: "2023-11", Tags: []string{"face"}}
		},
	}
	orch := NewOrchestrator(store, analyzer, &fakeGenerator{}, WithNow(func() time.Time { return now }))

	result := orch.IngestBatch(context.Background(), []photo.Payload{
		payloadFixture("ok.jpg"),
		payloadFixture("broken.jpg"),
	})

	if len(result.Added) != 2 {
		t.Fatalf("expected both photos stored, got %d", len(result.Added))
	}
	fallback := result.Added[1]
	if fallback.Category != "other" || fallback.Description != "Untitled Image" {
		t.Errorf("unexpected fallback metadata: %+v", fallback)
	}
	if len(fallback.Tags) != 1 || fallback.Tags[0] != "photo" {
		t.Errorf("unexpected fallback tags: %v", fallback.Tags)
	}
	if fallback.Timestamp.Format("2006-01") != "2025-06" {
		t.Errorf("expected fallback date from clock, got %v", fallback.Timestamp)
	}
}

func TestResolveTimestamp(t *testing.T) {
	ingested := time.Date(2025, time.February, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		guessed string
		want    string
		parsed  bool
	}{
		{"2024-03", "2024-03", true},
		{"2022-12-25", "2022-12", true},
		{"sometime last summer", "2025-02", false},
		{"", "2025-02", false},
	}
	for _, tc := range tests {
		got, parsed := resolveTimestamp(tc.guessed, ingested)
		if parsed != tc.parsed {
			t.Errorf("resolveTimestamp(%q): parsed=%v, want %v", tc.guessed, parsed, tc.parsed)
		}
		if got.Format("2006-01") != tc.want {
			t.Errorf("resolveTimestamp(%q) = %v, want month %s", tc.guessed, got, tc.want)
		}
	}
}

func TestIngestFilesExcludesUnreadable(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(good, testsupport.PNG(t, 4, 4), 0o644); err != nil {
		t.Fatal(err)
	}
	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := photo.NewStore()
	orch := NewOrchestrator(store, &fakeAnalyzer{}, &fakeGenerator{})

	result := orch.IngestFiles(context.Background(), []string{
		good,
		text,
		filepath.Join(dir, "missing.jpg"),
	})

	if len(result.Added) != 1 {
		t.Fatalf("expected 1 added, got %d", len(result.Added))
	}
	if result.Excluded != 2 {
		t.Fatalf("expected 2 excluded, got %d", result.Excluded)
	}
	if result.Added[0].MimeType != "image/png" {
		t.Errorf("unexpected mime type %s", result.Added[0].MimeType)
	}
}

func TestAnimateLifecycle(t *testing.T) {
	store := photo.NewStore()
	generator := &fakeGenerator{
		release: make(chan struct{}),
		ref:     "data:video/mp4;base64,AAAA",
	}
	orch := NewOrchestrator(store, &fakeAnalyzer{}, generator)

	added := orch.IngestBatch(context.Background(), []photo.Payload{payloadFixture("sea.jpg")}).Added
	id := added[0].ID

	if err := orch.Animate(context.Background(), id); err != nil {
		t.Fatalf("Animate failed: %v", err)
	}

	p, _ := store.Get(id)
	if !p.AnimationInFlight {
		t.Error("expected AnimationInFlight while job runs")
	}
	if p.VideoRef != "" {
		t.Error("VideoRef must stay empty until the job completes")
	}

	close(generator.release)
	orch.Wait()

	p, _ = store.Get(id)
	if p.AnimationInFlight {
		t.Error("expected AnimationInFlight cleared after completion")
	}
	if p.VideoRef != generator.ref {
		t.Errorf("expected VideoRef %q, got %q", generator.ref, p.VideoRef)
	}
}

func TestAnimateFailureClearsFlagWithoutVideo(t *testing.T) {
	store := photo.NewStore()
	generator := &fakeGenerator{err: errors.New("generation failed")}
	orch := NewOrchestrator(store, &fakeAnalyzer{}, generator)

	added := orch.IngestBatch(context.Background(), []photo.Payload{payloadFixture("sea.jpg")}).Added
	id := added[0].ID

	if err := orch.Animate(context.Background(), id); err != nil {
		t.Fatalf("Animate failed: %v", err)
	}
	orch.Wait()

	p, _ := store.Get(id)
	if p.AnimationInFlight {
		t.Error("expected AnimationInFlight cleared after failure")
	}
	if p.VideoRef != "" {
		t.Errorf("expected no VideoRef after failure, got %q", p.VideoRef)
	}
	// The photo is eligible for another attempt.
	generator.err = nil
	generator.ref = "data:video/mp4;base64,BBBB"
	if err := orch.Animate(context.Background(), id); err != nil {
		t.Fatalf("retry after failure refused: %v", err)
	}
	orch.Wait()
	p, _ = store.Get(id)
	if p.VideoRef != generator.ref {
		t.Errorf("retry did not store VideoRef, got %q", p.VideoRef)
	}
}

func TestAnimateSingleFlight(t *testing.T) {
	store := photo.NewStore()
	generator := &fakeGenerator{
		release: make(chan struct{}),
		ref:     "data:video/mp4;base64,AAAA",
	}
	orch := NewOrchestrator(store, &fakeAnalyzer{}, generator)

	added := orch.IngestBatch(context.Background(), []photo.Payload{payloadFixture("sea.jpg")}).Added
	id := added[0].ID

	if err := orch.Animate(context.Background(), id); err != nil {
		t.Fatalf("first Animate failed: %v", err)
	}
	err := orch.Animate(context.Background(), id)
	if !errors.Is(err, ErrAnimationInFlight) {
		t.Fatalf("expected ErrAnimationInFlight, got %v", err)
	}

	close(generator.release)
	orch.Wait()

	err = orch.Animate(context.Background(), id)
	if !errors.Is(err, ErrAlreadyAnimated) {
		t.Fatalf("expected ErrAlreadyAnimated after success, got %v", err)
	}
	if generator.callCount() != 1 {
		t.Fatalf("expected exactly one generator call, got %d", generator.callCount())
	}
}

func TestAnimateUnknownPhoto(t *testing.T) {
	orch := NewOrchestrator(photo.NewStore(), &fakeAnalyzer{}, &fakeGenerator{})

	err := orch.Animate(context.Background(), "no-such-id")
	if !errors.Is(err, ErrUnknownPhoto) {
		t.Fatalf("expected ErrUnknownPhoto, got %v", err)
	}
}

func TestAnimateInterleavedCompletions(t *testing.T) {
	store := photo.NewStore()
	first := make(chan struct{})
	second := make(chan struct{})

	gen := generatorFunc(func(ctx context.Context, content []byte, _, _ string) (string, error) {
		name := string(content)
		ch := first
		if strings.Contains(name, "b.jpg") {
			ch = second
		}
		select {
		case <-ch:
			return "data:video/mp4;base64," + name, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	orch := NewOrchestrator(store, &fakeAnalyzer{}, gen)

	added := orch.IngestBatch(context.Background(), []photo.Payload{
		payloadFixture("a.jpg"),
		payloadFixture("b.jpg"),
	}).Added

	for _, p := range added {
		if err := orch.Animate(context.Background(), p.ID); err != nil {
			t.Fatalf("Animate %s failed: %v", p.Name, err)
		}
	}

	// Finish the second job before the first.
	close(second)
	close(first)
	orch.Wait()

	for _, p := range added {
		got, _ := store.Get(p.ID)
		want := "data:video/mp4;base64,image-bytes-" + p.Name
		if got.VideoRef != want {
			t.Errorf("photo %s: VideoRef %q, want %q", p.Name, got.VideoRef, want)
		}
		if got.AnimationInFlight {
			t.Errorf("photo %s: flag still set", p.Name)
		}
	}
}

type generatorFunc func(ctx context.Context, content []byte, mimeType, description string) (string, error)

func (f generatorFunc) Animate(ctx context.Context, content []byte, mimeType, description string) (string, error) {
	return f(ctx, content, mimeType, description)
}

func TestAnimateUnauthorizedTriggersReselection(t *testing.T) {
	store := photo.NewStore()
	generator := &fakeGenerator{
		err: services.Wrap(services.ErrUnauthorized, "veo", "poll", "requested entity was not found", nil),
	}
	keys := credentials.NewStore("stale-key")
	selector := credentials.StaticSelector{Key: "fresh-key"}
	orch := NewOrchestrator(store, &fakeAnalyzer{}, generator,
		WithCredentials(keys, selector))

	added := orch.IngestBatch(context.Background(), []photo.Payload{payloadFixture("sea.jpg")}).Added
	if err := orch.Animate(context.Background(), added[0].ID); err != nil {
		t.Fatalf("Animate failed: %v", err)
	}
	orch.Wait()

	if keys.Key() != "fresh-key" {
		t.Errorf("expected re-selected key, got %q", keys.Key())
	}
	p, _ := store.Get(added[0].ID)
	if p.AnimationInFlight || p.VideoRef != "" {
		t.Errorf("unexpected photo state after unauthorized failure: %+v", p)
	}
}

func TestEnsureCredential(t *testing.T) {
	orch := NewOrchestrator(photo.NewStore(), &fakeAnalyzer{}, &fakeGenerator{},
		WithCredentials(credentials.NewStore(""), credentials.StaticSelector{Key: "picked"}))

	if err := orch.EnsureCredential(context.Background()); err != nil {
		t.Fatalf("EnsureCredential failed: %v", err)
	}

	keys := credentials.NewStore("already-set")
	orch = NewOrchestrator(photo.NewStore(), &fakeAnalyzer{}, &fakeGenerator{},
		WithCredentials(keys, credentials.StaticSelector{Key: "ignored"}))
	if err := orch.EnsureCredential(context.Background()); err != nil {
		t.Fatalf("EnsureCredential with existing key failed: %v", err)
	}
	if keys.Key() != "already-set" {
		t.Errorf("existing key was replaced: %q", keys.Key())
	}
}

func TestEnsureCredentialNoSelector(t *testing.T) {
	orch := NewOrchestrator(photo.NewStore(), &fakeAnalyzer{}, &fakeGenerator{},
		WithCredentials(credentials.NewStore(""), nil))

	err := orch.EnsureCredential(context.Background())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
