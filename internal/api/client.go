package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrAPIUnavailable indicates no daemon is reachable at the configured bind.
var ErrAPIUnavailable = errors.New("lensflow API unavailable")

// Client talks to a running daemon's HTTP API. CLI commands other than
// `serve` go through it.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient builds a client for the daemon bound at bind. Returns nil when
// bind is empty.
func NewClient(bind string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base: base,
		// Analysis is awaited during upload, so requests can be slow.
		http: &http.Client{},
	}, nil
}

// Status fetches the daemon status.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var out StatusResponse
	err := c.get(ctx, "/api/status", nil, &out)
	return out, err
}

// ListPhotos fetches the filtered gallery view.
func (c *Client) ListPhotos(ctx context.Context, category, query string) ([]PhotoView, error) {
	values := url.Values{}
	if strings.TrimSpace(category) != "" {
		values.Set("category", category)
	}
	if strings.TrimSpace(query) != "" {
		values.Set("q", query)
	}
	var out PhotoListResponse
	if err := c.get(ctx, "/api/photos", values, &out); err != nil {
		return nil, err
	}
	return out.Photos, nil
}

// Timeline fetches the month-grouped view.
func (c *Client) Timeline(ctx context.Context, category, query string) ([]TimelineGroup, error) {
	values := url.Values{"view": []string{"timeline"}}
	if strings.TrimSpace(category) != "" {
		values.Set("category", category)
	}
	if strings.TrimSpace(query) != "" {
		values.Set("q", query)
	}
	var out TimelineResponse
	if err := c.get(ctx, "/api/photos", values, &out); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

// GetPhoto fetches one photo by id.
func (c *Client) GetPhoto(ctx context.Context, id string) (PhotoView, error) {
	var out PhotoResponse
	err := c.get(ctx, "/api/photos/"+url.PathEscape(id), nil, &out)
	return out.Photo, err
}

// Upload sends the named files as one multipart batch.
func (c *Client) Upload(ctx context.Context, paths []string) (IngestResponse, error) {
	var empty IngestResponse
	if c == nil {
		return empty, ErrAPIUnavailable
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, path := range paths {
		if err := attachFile(writer, path); err != nil {
			return empty, fmt.Errorf("attach %s: %w", path, err)
		}
	}
	if err := writer.Close(); err != nil {
		return empty, err
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: "/api/photos"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), body)
	if err != nil {
		return empty, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var out IngestResponse
	if err := c.do(req, &out); err != nil {
		return empty, err
	}
	return out, nil
}

// Animate asks the daemon to start an animation job.
func (c *Client) Animate(ctx context.Context, id string) (AnimateResponse, error) {
	var out AnimateResponse
	if c == nil {
		return out, ErrAPIUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: "/api/photos/" + url.PathEscape(id) + "/animate"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), nil)
	if err != nil {
		return out, err
	}
	err = c.do(req, &out)
	return out, err
}

func attachFile(writer *multipart.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	part, err := writer.CreateFormFile("photos", filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

func (c *Client) get(ctx context.Context, path string, values url.Values, target any) error {
	if c == nil {
		return ErrAPIUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, target)
}

func (c *Client) do(req *http.Request, target any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPIUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon returned %d", resp.StatusCode)
	}
	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}
