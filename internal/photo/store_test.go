package photo_test

import (
	"sync"
	"testing"
	"time"

	"lensflow/internal/photo"
)

func newPhoto(id, category string) photo.Photo {
	return photo.Photo{
		ID:          id,
		Name:        id + ".jpg",
		MimeType:    "image/jpeg",
		Timestamp:   time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC),
		Category:    category,
		Description: "test photo",
		Tags:        []string{"test"},
	}
}

func TestAppendPreservesInsertionOrder(t *testing.T) {
	store := photo.NewStore()
	store.Append(newPhoto("a", "nature"))
	store.Append(newPhoto("b", "urban"), newPhoto("c", "food"))

	snapshot := store.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 photos, got %d", len(snapshot))
	}
	for i, want := range []string{"a", "b", "c"} {
		if snapshot[i].ID != want {
			t.Fatalf("photo %d: expected id %q, got %q", i, want, snapshot[i].ID)
		}
	}
}

func TestSnapshotIsImmutableUnderMutation(t *testing.T) {
	store := photo.NewStore()
	store.Append(newPhoto("a", "nature"))

	before := store.Snapshot()
	inFlight := true
	if !store.UpdateByID("a", photo.Patch{AnimationInFlight: &inFlight}) {
		t.Fatal("expected update to apply")
	}

	if before[0].AnimationInFlight {
		t.Fatal("existing snapshot mutated by UpdateByID")
	}
	after := store.Snapshot()
	if !after[0].AnimationInFlight {
		t.Fatal("new snapshot missing the update")
	}
}

func TestUpdateByIDMergesPatch(t *testing.T) {
	store := photo.NewStore()
	store.Append(newPhoto("a", "nature"))

	ref := "data:video/mp4;base64,AAAA"
	cleared := false
	store.UpdateByID("a", photo.Patch{VideoRef: &ref, AnimationInFlight: &cleared})

	got, ok := store.Get("a")
	if !ok {
		t.Fatal("photo missing after update")
	}
	if got.VideoRef != ref {
		t.Fatalf("expected video ref %q, got %q", ref, got.VideoRef)
	}
	if got.AnimationInFlight {
		t.Fatal("expected animation flag cleared")
	}
	if got.Category != "nature" || got.Description != "test photo" {
		t.Fatal("update clobbered immutable fields")
	}
}

func TestUpdateByIDMissingRecordIsNoop(t *testing.T) {
	store := photo.NewStore()
	store.Append(newPhoto("a", "nature"))

	inFlight := true
	if store.UpdateByID("missing", photo.Patch{AnimationInFlight: &inFlight}) {
		t.Fatal("expected no-op for unknown id")
	}
	if store.Len() != 1 {
		t.Fatalf("collection size changed: %d", store.Len())
	}
}

func TestSubscribeReceivesLatestSnapshot(t *testing.T) {
	store := photo.NewStore()
	ch, cancel := store.Subscribe()
	defer cancel()

	store.Append(newPhoto("a", "nature"))
	store.Append(newPhoto("b", "urban"))

	var latest []photo.Photo
	timeout := time.After(time.Second)
	for len(latest) < 2 {
		select {
		case snapshot := <-ch:
			latest = snapshot
		case <-timeout:
			t.Fatal("timed out waiting for snapshot publication")
		}
	}
	if len(latest) != 2 {
		t.Fatalf("expected latest snapshot with 2 photos, got %d", len(latest))
	}
}

func TestCancelStopsPublication(t *testing.T) {
	store := photo.NewStore()
	ch, cancel := store.Subscribe()
	cancel()

	if _, open := <-ch; open {
		t.Fatal("expected channel closed after cancel")
	}
	// A publish after cancel must not panic.
	store.Append(newPhoto("a", "nature"))
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	store := photo.NewStore()
	store.Append(newPhoto("a", "nature"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			inFlight := true
			for j := 0; j < 100; j++ {
				store.UpdateByID("a", photo.Patch{AnimationInFlight: &inFlight})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				for _, p := range store.Snapshot() {
					_ = p.ID
				}
			}
		}()
	}
	wg.Wait()
}
