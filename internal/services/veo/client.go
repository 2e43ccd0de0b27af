package veo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lensflow/internal/photo"
	"lensflow/internal/services"
)

const (
	defaultHTTPTimeout     = 60 * time.Second
	defaultPollInterval    = 10 * time.Second
	defaultMaxPollAttempts = 90
	defaultVideoMimeType   = "video/mp4"
)

// unauthorizedSignature is the error text the Gemini API returns when the
// caller's credential is not entitled to the video model.
const unauthorizedSignature = "Requested entity was not found"

// Config captures the runtime settings required to run animation jobs.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	TimeoutSeconds  int
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Client drives the Veo long-running video generation API: submit a job,
// poll it to completion, download the result.
type Client struct {
	cfg        Config
	httpClient *http.Client
	keySource  func() string
	sleeper    func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithKeySource overrides where the API key is read from on each request.
func WithKeySource(source func() string) Option {
	return func(c *Client) {
		if source != nil {
			c.keySource = source
		}
	}
}

// WithSleeper overrides how poll waits are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a video generator client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:          strings.TrimSpace(cfg.APIKey),
			BaseURL:         strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:           strings.TrimSpace(cfg.Model),
			TimeoutSeconds:  cfg.TimeoutSeconds,
			PollInterval:    cfg.PollInterval,
			MaxPollAttempts: cfg.MaxPollAttempts,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	if client.cfg.PollInterval <= 0 {
		client.cfg.PollInterval = defaultPollInterval
	}
	if client.cfg.MaxPollAttempts <= 0 {
		client.cfg.MaxPollAttempts = defaultMaxPollAttempts
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.keySource == nil {
		key := client.cfg.APIKey
		client.keySource = func() string { return key }
	}
	return client
}

// Animate submits a generation job for the image with a cinematic-motion
// prompt derived from description, polls until the job completes, downloads
// the result, and returns a renderable data-URL reference to the video.
func (c *Client) Animate(ctx context.Context, content []byte, mimeType, description string) (string, error) {
	if len(content) == 0 {
		return "", services.Wrap(services.ErrValidation, "veo", "animate", "image content required", nil)
	}
	if strings.TrimSpace(c.keySource()) == "" {
		return "", services.Wrap(services.ErrUnauthorized, "veo", "animate", "api key required", nil)
	}

	opName, err := c.submit(ctx, content, mimeType, description)
	if err != nil {
		return "", err
	}

	op, err := c.pollUntilDone(ctx, opName)
	if err != nil {
		return "", err
	}

	uri := op.downloadURI()
	if uri == "" {
		return "", services.Wrap(services.ErrMalformed, "veo", "poll", "completed job has no video locator", nil)
	}

	videoBytes, videoMime, err := c.download(ctx, uri)
	if err != nil {
		return "", err
	}
	return photo.DataURL(videoMime, videoBytes), nil
}

func (c *Client) submit(ctx context.Context, content []byte, mimeType, description string) (string, error) {
	payload := predictRequest{
		Instances: []predictInstance{{
			Prompt: fmt.Sprintf("Cinematic motion: %s. Slow pan or subtle movement. High quality.", strings.TrimSpace(description)),
			Image: &predictImage{
				BytesBase64Encoded: base64.StdEncoding.EncodeToString(content),
				MimeType:           mimeType,
			},
		}},
		Parameters: predictParameters{
			SampleCount: 1,
			Resolution:  "720p",
			AspectRatio: "16:9",
		},
	}
	endpoint := fmt.Sprintf("%s/models/%s:predictLongRunning", c.cfg.BaseURL, c.cfg.Model)

	var submitted operation
	if err := c.doJSON(ctx, http.MethodPost, endpoint, payload, &submitted, "submit"); err != nil {
		return "", err
	}
	if submitted.Name == "" {
		return "", services.Wrap(services.ErrMalformed, "veo", "submit", "missing operation name", nil)
	}
	return submitted.Name, nil
}

func (c *Client) pollUntilDone(ctx context.Context, opName string) (*operation, error) {
	endpoint := c.cfg.BaseURL + "/" + strings.TrimLeft(opName, "/")
	for attempt := 1; attempt <= c.cfg.MaxPollAttempts; attempt++ {
		if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
			return nil, err
		}
		var op operation
		if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &op, "poll"); err != nil {
			return nil, err
		}
		if op.Error != nil {
			marker := services.ErrTransient
			if strings.Contains(op.Error.Message, unauthorizedSignature) {
				marker = services.ErrUnauthorized
			}
			return nil, services.Wrap(marker, "veo", "poll", op.Error.Message, nil)
		}
		if op.Done {
			return &op, nil
		}
	}
	return nil, services.Wrap(services.ErrTransient, "veo", "poll",
		fmt.Sprintf("job did not complete after %d polls", c.cfg.MaxPollAttempts), nil)
}

func (c *Client) download(ctx context.Context, uri string) ([]byte, string, error) {
	// The download locator requires the API key as a query parameter.
	separator := "?"
	if strings.Contains(uri, "?") {
		separator = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri+separator+"key="+c.keySource(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("veo download: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", services.Wrap(services.ErrTransient, "veo", "download", "http error", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, "", c.statusError("download", resp.StatusCode, resp.Body)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", services.Wrap(services.ErrTransient, "veo", "download", "read body", err)
	}
	mimeType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if mimeType == "" {
		mimeType = defaultVideoMimeType
	}
	return data, mimeType, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload, target any, op string) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("veo %s: encode body: %w", op, err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("veo %s: new request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-goog-api-key", c.keySource())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "veo", op, "http error", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return c.statusError(op, resp.StatusCode, resp.Body)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return services.Wrap(services.ErrMalformed, "veo", op, "decode response", err)
	}
	return nil
}

func (c *Client) statusError(op string, statusCode int, body io.Reader) error {
	snippet, _ := io.ReadAll(io.LimitReader(body, 2048))
	trimmed := strings.TrimSpace(string(snippet))
	marker := services.ErrTransient
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden ||
		strings.Contains(trimmed, unauthorizedSignature) {
		marker = services.ErrUnauthorized
	}
	return services.Wrap(marker, "veo", op, fmt.Sprintf("http %d: %s", statusCode, trimmed), nil)
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string        `json:"prompt"`
	Image  *predictImage `json:"image,omitempty"`
}

type predictImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type predictParameters struct {
	SampleCount int    `json:"sampleCount"`
	Resolution  string `json:"resolution"`
	AspectRatio string `json:"aspectRatio"`
}

type operation struct {
	Name     string      `json:"name"`
	Done     bool        `json:"done"`
	Error    *opError    `json:"error"`
	Response *opResponse `json:"response"`
}

type opError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type opResponse struct {
	GenerateVideoResponse *videoResponse `json:"generateVideoResponse"`
	// Some API versions place the videos directly on the response.
	GeneratedVideos []generatedVideo `json:"generatedVideos"`
}

type videoResponse struct {
	GeneratedSamples []generatedVideo `json:"generatedSamples"`
	GeneratedVideos  []generatedVideo `json:"generatedVideos"`
}

type generatedVideo struct {
	Video struct {
		URI string `json:"uri"`
	} `json:"video"`
}

// downloadURI extracts the first usable video locator, tolerating the schema
// variants different API versions produce.
func (o *operation) downloadURI() string {
	if o == nil || o.Response == nil {
		return ""
	}
	candidates := o.Response.GeneratedVideos
	if inner := o.Response.GenerateVideoResponse; inner != nil {
		candidates = append(candidates, inner.GeneratedSamples...)
		candidates = append(candidates, inner.GeneratedVideos...)
	}
	for _, candidate := range candidates {
		if uri := strings.TrimSpace(candidate.Video.URI); uri != "" {
			return uri
		}
	}
	return ""
}
