package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	// Register WebP decoding for thumbnail generation.
	_ "golang.org/x/image/webp"

	"lensflow/internal/photo"
)

// Thumbnails back the displayable reference; the original bytes stay in the
// record for analysis and animation.
const (
	thumbnailMaxWidth  = 512
	thumbnailMaxHeight = 512
)

// ErrNotImage is returned when a file does not carry an image MIME type.
var ErrNotImage = errors.New("not an image")

// IsImage reports whether the MIME type passes the permissive image filter.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/")
}

// ReadFile turns one file on disk into an encoded payload. Non-image files
// are rejected with ErrNotImage.
func ReadFile(path string) (photo.Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return photo.Payload{}, fmt.Errorf("read %s: %w", path, err)
	}
	return FromBytes(filepath.Base(path), data)
}

// FromBytes builds a payload from in-memory file content, detecting the MIME
// type and deriving a renderable thumbnail reference.
func FromBytes(name string, data []byte) (photo.Payload, error) {
	if len(data) == 0 {
		return photo.Payload{}, fmt.Errorf("%s: empty file", name)
	}
	mimeType := detectMimeType(name, data)
	if !IsImage(mimeType) {
		return photo.Payload{}, fmt.Errorf("%s (%s): %w", name, mimeType, ErrNotImage)
	}
	return photo.Payload{
		Name:       name,
		Content:    data,
		MimeType:   mimeType,
		DisplayRef: displayRef(mimeType, data),
	}, nil
}

// detectMimeType sniffs content first and falls back to the file extension,
// since sniffing cannot distinguish every image container.
func detectMimeType(name string, data []byte) string {
	sniffed := http.DetectContentType(data)
	if sniffed != "application/octet-stream" {
		return sniffed
	}
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return sniffed
}

// displayRef produces a data URL for the presentation layer. Decodable images
// are downscaled to a JPEG thumbnail; anything the decoder cannot handle
// falls back to the original bytes.
func displayRef(mimeType string, data []byte) string {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return photo.DataURL(mimeType, data)
	}
	thumb := imaging.Fit(img, thumbnailMaxWidth, thumbnailMaxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return photo.DataURL(mimeType, data)
	}
	return photo.DataURL("image/jpeg", buf.Bytes())
}
