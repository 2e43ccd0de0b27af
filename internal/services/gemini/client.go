package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lensflow/internal/logging"
	"lensflow/internal/services"
)

const defaultHTTPTimeout = 60 * time.Second

// Config captures the runtime settings required to talk to the vision model.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client wraps the Gemini generateContent API for structured image analysis.
type Client struct {
	cfg        Config
	httpClient *http.Client
	keySource  func() string
	logger     *slog.Logger
	now        func() time.Time
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

// WithKeySource overrides where the API key is read from on each request,
// so a re-selected credential takes effect without rebuilding the client.
func WithKeySource(source func() string) Option {
	return func(c *Client) {
		if source != nil {
			c.keySource = source
		}
	}
}

// WithLogger attaches a logger for fallback diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithNow overrides the clock used for fallback date estimates (tests).
func WithNow(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient constructs a vision analyzer client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
		now:        time.Now,
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

// Analysis is the structured result of analyzing one image.
type Analysis struct {
	Category    string
	Title       string
	GuessedDate string
	Tags        []string
	Fallback    bool
}

// FallbackAnalysis returns the deterministic values used when analysis fails.
// The guessed date is the current year-month at the time of the failure.
func FallbackAnalysis(now time.Time) Analysis {
	return Analysis{
		Category:    "other",
		Title:       "Untitled Image",
		GuessedDate: now.Format("2006-01"),
		Tags:        []string{"photo"},
		Fallback:    true,
	}
}

// Analyze sends one image for structured analysis. Transport and parse
// failures never propagate: the deterministic fallback is returned instead,
// because an analysis failure must not block ingest.
func (c *Client) Analyze(ctx context.Context, content []byte, mimeType string) Analysis {
	analysis, err := c.analyzeOnce(ctx, content, mimeType)
	if err != nil {
		logger := logging.WithContext(ctx, c.logger)
		if errors.Is(err, services.ErrUnauthorized) {
			logger.Warn("vision analysis unauthorized, using fallback metadata", slog.String("error", err.Error()))
		} else {
			logger.Warn("vision analysis failed, using fallback metadata", slog.String("error", err.Error()))
		}
		return FallbackAnalysis(c.now())
	}
	return analysis
}

func (c *Client) analyzeOnce(ctx context.Context, content []byte, mimeType string) (Analysis, error) {
	var empty Analysis
	if len(content) == 0 {
		return empty, services.Wrap(services.ErrValidation, "gemini", "analyze", "image content required", nil)
	}
	key := strings.TrimSpace(c.keySource())
	if key == "" {
		return empty, services.Wrap(services.ErrUnauthorized, "gemini", "analyze", "api key required", nil)
	}

	payload := generateContentRequest{
		Contents: []requestContent{{
			Parts: []requestPart{
				{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(content)}},
				{Text: visionPrompt},
			},
		}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   analysisSchema,
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return empty, fmt.Errorf("gemini request: encode body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return empty, fmt.Errorf("gemini request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, services.Wrap(services.ErrTransient, "gemini", "analyze", "http error", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, services.Wrap(services.ErrTransient, "gemini", "analyze", "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		marker := services.ErrTransient
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			marker = services.ErrUnauthorized
		}
		return empty, services.Wrap(marker, "gemini", "analyze",
			fmt.Sprintf("http %d: %s", resp.StatusCode, summarizePayloadSnippet(string(body))), nil)
	}

	var completion generateContentResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return empty, services.Wrap(services.ErrMalformed, "gemini", "analyze", "decode response", err)
	}
	text := completion.firstText()
	if text == "" {
		return empty, services.Wrap(services.ErrMalformed, "gemini", "analyze", "empty candidates", nil)
	}

	var parsed analysisPayload
	if err := DecodeModelJSON(text, &parsed); err != nil {
		return empty, services.Wrap(services.ErrMalformed, "gemini", "analyze", "parse payload", err)
	}
	return parsed.normalize()
}

type analysisPayload struct {
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	GuessedDate string   `json:"guessedDate"`
	Tags        []string `json:"tags"`
}

// normalize lower-cases the category and guarantees tags are present. The
// category is permissive: values outside the known set are kept as given.
func (p analysisPayload) normalize() (Analysis, error) {
	category := strings.ToLower(strings.TrimSpace(p.Category))
	title := strings.TrimSpace(p.Title)
	if category == "" || title == "" {
		return Analysis{}, errors.New("category and title are required")
	}
	tags := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return Analysis{
		Category:    category,
		Title:       title,
		GuessedDate: strings.TrimSpace(p.GuessedDate),
		Tags:        tags,
	}, nil
}

type generateContentRequest struct {
	Contents         []requestContent  `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (r generateContentResponse) firstText() string {
	for _, candidate := range r.Candidates {
		for _, part := range candidate.Content.Parts {
			if trimmed := strings.TrimSpace(part.Text); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
