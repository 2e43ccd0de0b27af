package photo

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Known category values the vision analyzer is instructed to choose from.
// The collection is permissive: a category outside this set is stored as given.
const (
	CategoryNature = "nature"
	CategoryUrban  = "urban"
	CategoryPeople = "people"
	CategoryFood   = "food"
	CategoryTravel = "travel"
	CategoryOther  = "other"
)

// KnownCategories lists the analyzer's category vocabulary in display order.
var KnownCategories = []string{
	CategoryNature,
	CategoryUrban,
	CategoryPeople,
	CategoryFood,
	CategoryTravel,
	CategoryOther,
}

// Payload carries the encoded bytes of one ingested image plus its MIME type
// and a renderable reference derived from the bytes.
type Payload struct {
	Name       string
	Content    []byte
	MimeType   string
	DisplayRef string
}

// Photo is a single record in the collection. Everything except VideoRef and
// AnimationInFlight is immutable once the record is stored.
type Photo struct {
	ID                string
	Name              string
	Content           []byte
	MimeType          string
	DisplayRef        string
	Timestamp         time.Time
	Category          string
	Description       string
	Tags              []string
	VideoRef          string
	AnimationInFlight bool
}

// Patch describes the mutable subset of a Photo. Nil fields leave the current
// value untouched.
type Patch struct {
	VideoRef          *string
	AnimationInFlight *bool
}

// NewID returns a collision-resistant identifier for a new photo.
func NewID() string {
	return uuid.NewString()
}

// DataURL encodes content as a data URL the presentation layer can render
// without access to the raw bytes.
func DataURL(mimeType string, content []byte) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mimeType) + base64.StdEncoding.EncodedLen(len(content)))
	b.WriteString("data:")
	b.WriteString(mimeType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(content))
	return b.String()
}
