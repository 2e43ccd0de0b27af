package ingest_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lensflow/internal/ingest"
	"lensflow/internal/testsupport"
)

func TestFromBytesDetectsPNG(t *testing.T) {
	payload, err := ingest.FromBytes("shot.png", testsupport.PNG(t, 4, 4))
	if err != nil {
		t.Fatalf("FromBytes returned error: %v", err)
	}
	if payload.MimeType != "image/png" {
		t.Fatalf("expected image/png, got %q", payload.MimeType)
	}
	if payload.Name != "shot.png" {
		t.Fatalf("unexpected name %q", payload.Name)
	}
	if !strings.HasPrefix(payload.DisplayRef, "data:image/jpeg;base64,") {
		t.Fatalf("expected thumbnail data URL, got prefix %q", payload.DisplayRef[:32])
	}
}

func TestFromBytesRejectsNonImage(t *testing.T) {
	_, err := ingest.FromBytes("notes.txt", []byte("just some text content here"))
	if !errors.Is(err, ingest.ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
}

func TestFromBytesRejectsEmpty(t *testing.T) {
	if _, err := ingest.FromBytes("empty.png", nil); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestFromBytesFallsBackToExtension(t *testing.T) {
	// Content the sniffer cannot classify; the .png extension decides.
	blob := make([]byte, 64)
	for i := range blob {
		blob[i] = byte(i%7) + 1
	}
	payload, err := ingest.FromBytes("mystery.png", blob)
	if err != nil {
		t.Fatalf("FromBytes returned error: %v", err)
	}
	if payload.MimeType != "image/png" {
		t.Fatalf("expected extension fallback to image/png, got %q", payload.MimeType)
	}
	// Undecodable bytes still get a renderable reference to the original.
	if !strings.HasPrefix(payload.DisplayRef, "data:image/png;base64,") {
		t.Fatalf("expected original-bytes data URL, got prefix %q", payload.DisplayRef[:28])
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(path, testsupport.PNG(t, 2, 2), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	payload, err := ingest.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	if payload.Name != "photo.png" {
		t.Fatalf("expected base name, got %q", payload.Name)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ingest.ReadFile(filepath.Join(t.TempDir(), "absent.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestIsImagePermissive(t *testing.T) {
	cases := map[string]bool{
		"image/png":       true,
		"image/jpeg":      true,
		"IMAGE/WEBP":      true,
		"image/x-unknown": true,
		"video/mp4":       false,
		"text/plain":      false,
		"":                false,
	}
	for mimeType, want := range cases {
		if got := ingest.IsImage(mimeType); got != want {
			t.Errorf("IsImage(%q) = %v, want %v", mimeType, got, want)
		}
	}
}
