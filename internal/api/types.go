package api

import (
	"time"

	"lensflow/internal/photo"
	"lensflow/internal/views"
)

// PhotoView is the JSON representation of a stored photo. The raw content
// bytes are never serialized; DisplayRef and VideoRef carry renderable
// references instead.
type PhotoView struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	MimeType          string    `json:"mime_type"`
	DisplayRef        string    `json:"display_ref"`
	Timestamp         time.Time `json:"timestamp"`
	Category          string    `json:"category"`
	Description       string    `json:"description"`
	Tags              []string  `json:"tags"`
	VideoRef          string    `json:"video_ref,omitempty"`
	AnimationInFlight bool      `json:"animation_in_flight"`
}

// FromPhoto converts a stored photo into its API view.
func FromPhoto(p photo.Photo) PhotoView {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return PhotoView{
		ID:                p.ID,
		Name:              p.Name,
		MimeType:          p.MimeType,
		DisplayRef:        p.DisplayRef,
		Timestamp:         p.Timestamp,
		Category:          p.Category,
		Description:       p.Description,
		Tags:              tags,
		VideoRef:          p.VideoRef,
		AnimationInFlight: p.AnimationInFlight,
	}
}

// FromPhotos converts a snapshot slice.
func FromPhotos(photos []photo.Photo) []PhotoView {
	out := make([]PhotoView, len(photos))
	for i, p := range photos {
		out[i] = FromPhoto(p)
	}
	return out
}

// PhotoListResponse is the gallery view payload.
type PhotoListResponse struct {
	Photos []PhotoView `json:"photos"`
}

// TimelineGroup is one month bucket of the timeline view.
type TimelineGroup struct {
	Label  string      `json:"label"`
	Year   int         `json:"year"`
	Month  int         `json:"month"`
	Photos []PhotoView `json:"photos"`
}

// TimelineResponse is the month-grouped view payload.
type TimelineResponse struct {
	Groups []TimelineGroup `json:"groups"`
}

// FromGroups converts view engine groups into their API form.
func FromGroups(groups []views.Group) []TimelineGroup {
	out := make([]TimelineGroup, len(groups))
	for i, g := range groups {
		out[i] = TimelineGroup{
			Label:  g.Label,
			Year:   g.Year,
			Month:  int(g.Month),
			Photos: FromPhotos(g.Photos),
		}
	}
	return out
}

// PhotoResponse wraps a single photo.
type PhotoResponse struct {
	Photo PhotoView `json:"photo"`
}

// IngestResponse summarizes an upload batch.
type IngestResponse struct {
	Added    []PhotoView `json:"added"`
	Excluded int         `json:"excluded"`
}

// AnimateResponse acknowledges an accepted animation job.
type AnimateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// StatusResponse reports daemon state.
type StatusResponse struct {
	Running            bool   `json:"running"`
	PID                int    `json:"pid"`
	Photos             int    `json:"photos"`
	AnimationsInFlight int    `json:"animations_in_flight"`
	LockFilePath       string `json:"lock_file_path,omitempty"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
