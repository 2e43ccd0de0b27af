package credentials_test

import (
	"context"
	"sync"
	"testing"

	"lensflow/internal/services/credentials"
)

func TestStoreRoundTrip(t *testing.T) {
	store := credentials.NewStore("  initial  ")
	if !store.Has() || store.Key() != "initial" {
		t.Fatalf("expected trimmed seed key, got %q", store.Key())
	}
	store.Set("replacement")
	if store.Key() != "replacement" {
		t.Fatalf("expected replacement, got %q", store.Key())
	}
	store.Set("")
	if store.Has() {
		t.Fatal("expected empty store after clearing")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := credentials.NewStore("a")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.Set("b")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = store.Key()
			}
		}()
	}
	wg.Wait()
}

func TestStaticSelector(t *testing.T) {
	key, err := credentials.StaticSelector{Key: " key "}.Prompt(context.Background())
	if err != nil {
		t.Fatalf("Prompt returned error: %v", err)
	}
	if key != "key" {
		t.Fatalf("expected trimmed key, got %q", key)
	}
	if _, err := (credentials.StaticSelector{}).Prompt(context.Background()); err == nil {
		t.Fatal("expected error when no credential is available")
	}
}
