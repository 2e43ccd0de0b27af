package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"lensflow/internal/ingest"
	"lensflow/internal/logging"
	"lensflow/internal/metrics"
	"lensflow/internal/notifications"
	"lensflow/internal/photo"
	"lensflow/internal/services"
	"lensflow/internal/services/credentials"
	"lensflow/internal/services/gemini"
)

// Analyzer produces structured metadata for one image. Implementations must
// not fail: when analysis cannot complete they return fallback metadata.
type Analyzer interface {
	Analyze(ctx context.Context, content []byte, mimeType string) gemini.Analysis
}

// Generator turns a stored photo into a playable video reference. It blocks
// until the long-running job settles.
type Generator interface {
	Animate(ctx context.Context, content []byte, mimeType, description string) (string, error)
}

// Orchestrator drives the enrichment pipeline: ingest, awaited analysis,
// store insertion, and asynchronous single-flight animation jobs.
type Orchestrator struct {
	store     *photo.Store
	analyzer  Analyzer
	generator Generator
	keys      *credentials.Store
	selector  credentials.Selector
	notifier  notifications.Service
	logger    *slog.Logger
	now       func() time.Time

	mu sync.Mutex
	wg sync.WaitGroup
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithCredentials wires the shared key store and the selector used for
// reactive re-selection after an unauthorized animation.
func WithCredentials(keys *credentials.Store, selector credentials.Selector) Option {
	return func(o *Orchestrator) {
		o.keys = keys
		o.selector = selector
	}
}

// WithNotifier overrides the notification service.
func WithNotifier(notifier notifications.Service) Option {
	return func(o *Orchestrator) {
		if notifier != nil {
			o.notifier = notifier
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithNow overrides the wall clock, used by tests that pin timestamps.
func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator builds an orchestrator over the given store and clients.
func NewOrchestrator(store *photo.Store, analyzer Analyzer, generator Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		analyzer:  analyzer,
		generator: generator,
		notifier:  notifications.Noop(),
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// IngestResult summarizes one ingest batch.
type IngestResult struct {
	Added    []photo.Photo
	Excluded int
}

// IngestFiles reads the named files and ingests the readable images. A file
// that cannot be read or is not an image is excluded; the batch never fails
// as a whole.
func (o *Orchestrator) IngestFiles(ctx context.Context, paths []string) IngestResult {
	payloads := make([]photo.Payload, 0, len(paths))
	excluded := 0
	for _, path := range paths {
		payload, err := ingest.ReadFile(path)
		if err != nil {
			excluded++
			metrics.IngestRejectedTotal.Inc()
			o.logger.Warn("excluding file from ingest",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		payloads = append(payloads, payload)
	}

	result := o.IngestBatch(ctx, payloads)
	result.Excluded += excluded
	return result
}

// IngestBatch analyzes each payload and appends the finished photo to the
// store one at a time, in submitted order. Analysis is awaited before
// insertion so a visible photo always carries its metadata.
func (o *Orchestrator) IngestBatch(ctx context.Context, payloads []photo.Payload) IngestResult {
	var result IngestResult
	for _, payload := range payloads {
		p := o.ingestOne(ctx, payload)
		o.store.Append(p)
		metrics.PhotosIngestedTotal.Inc()
		result.Added = append(result.Added, p)
	}

	if len(result.Added) > 0 || result.Excluded > 0 {
		if err := o.notifier.NotifyIngestCompleted(ctx, len(result.Added), result.Excluded); err != nil {
			o.logger.Warn("ingest notification failed", slog.String("error", err.Error()))
		}
	}
	return result
}

func (o *Orchestrator) ingestOne(ctx context.Context, payload photo.Payload) photo.Photo {
	id := photo.NewID()
	ctx = services.WithPhotoID(ctx, id)
	ctx = services.WithStage(ctx, "analyze")
	logger := logging.WithContext(ctx, o.logger)

	ingestedAt := o.now()
	start := ingestedAt
	analysis := o.analyzer.Analyze(ctx, payload.Content, payload.MimeType)
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if analysis.Fallback {
		metrics.AnalysisFallbacksTotal.Inc()
	}

	timestamp, parsed := resolveTimestamp(analysis.GuessedDate, ingestedAt)
	if !parsed && analysis.GuessedDate != "" {
		logger.Warn("unparseable guessed date, using ingest time",
			slog.String("guessed_date", analysis.GuessedDate))
	}

	logger.Info("photo ingested",
		slog.String("name", payload.Name),
		slog.String("category", analysis.Category),
		slog.Bool("fallback", analysis.Fallback))

	return photo.Photo{
		ID:          id,
		Name:        payload.Name,
		Content:     payload.Content,
		MimeType:    payload.MimeType,
		DisplayRef:  payload.DisplayRef,
		Timestamp:   timestamp,
		Category:    analysis.Category,
		Description: analysis.Title,
		Tags:        analysis.Tags,
	}
}

// resolveTimestamp parses the analyzer's year-month estimate. Anything it
// cannot parse falls back to the ingest wall clock.
func resolveTimestamp(guessed string, ingestedAt time.Time) (time.Time, bool) {
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if ts, err := time.Parse(layout, guessed); err == nil {
			return ts, true
		}
	}
	return ingestedAt, false
}

// Animate starts the asynchronous animation job for the photo. Each photo
// admits at most one job at a time and at most one video ever; a refused
// start reports why.
func (o *Orchestrator) Animate(ctx context.Context, id string) error {
	o.mu.Lock()
	p, ok := o.store.Get(id)
	if !ok {
		o.mu.Unlock()
		return services.Wrap(ErrUnknownPhoto, "pipeline", "animate", "photo not found", nil)
	}
	if p.VideoRef != "" {
		o.mu.Unlock()
		return services.Wrap(ErrAlreadyAnimated, "pipeline", "animate", "photo already has a video", nil)
	}
	if p.AnimationInFlight {
		o.mu.Unlock()
		return services.Wrap(ErrAnimationInFlight, "pipeline", "animate", "animation already running", nil)
	}
	inFlight := true
	o.store.UpdateByID(id, photo.Patch{AnimationInFlight: &inFlight})
	o.mu.Unlock()

	metrics.AnimationsInFlight.Inc()
	o.wg.Add(1)
	go o.runAnimation(context.WithoutCancel(ctx), p)
	return nil
}

func (o *Orchestrator) runAnimation(ctx context.Context, p photo.Photo) {
	defer o.wg.Done()
	defer metrics.AnimationsInFlight.Dec()

	ctx = services.WithPhotoID(ctx, p.ID)
	ctx = services.WithStage(ctx, "animate")
	logger := logging.WithContext(ctx, o.logger)

	start := o.now()
	videoRef, err := o.generator.Animate(ctx, p.Content, p.MimeType, p.Description)
	metrics.AnimationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		o.finishFailed(ctx, logger, p, err)
		return
	}

	cleared := false
	o.store.UpdateByID(p.ID, photo.Patch{VideoRef: &videoRef, AnimationInFlight: &cleared})
	metrics.AnimationsTotal.WithLabelValues("success").Inc()
	logger.Info("animation completed", slog.String("title", p.Description))
	if nerr := o.notifier.NotifyAnimationCompleted(ctx, p.Description); nerr != nil {
		logger.Warn("animation notification failed", slog.String("error", nerr.Error()))
	}
}

func (o *Orchestrator) finishFailed(ctx context.Context, logger *slog.Logger, p photo.Photo, cause error) {
	result := "failure"
	if errors.Is(cause, services.ErrUnauthorized) {
		result = "unauthorized"
		o.reselectCredential(ctx, logger)
	}
	metrics.AnimationsTotal.WithLabelValues(result).Inc()

	cleared := false
	o.store.UpdateByID(p.ID, photo.Patch{AnimationInFlight: &cleared})
	logger.Error("animation failed",
		slog.String("title", p.Description),
		slog.String("error", cause.Error()))
	if nerr := o.notifier.NotifyAnimationFailed(ctx, p.Description, cause); nerr != nil {
		logger.Warn("animation notification failed", slog.String("error", nerr.Error()))
	}
}

// reselectCredential runs the credential selection flow after an unauthorized
// response. The refreshed key lands in the shared store, so the clients pick
// it up on their next request without being rebuilt.
func (o *Orchestrator) reselectCredential(ctx context.Context, logger *slog.Logger) {
	if o.keys == nil || o.selector == nil {
		return
	}
	key, err := o.selector.Prompt(ctx)
	if err != nil {
		logger.Warn("credential re-selection failed", slog.String("error", err.Error()))
		return
	}
	if key != "" {
		o.keys.Set(key)
		logger.Info("credential updated after unauthorized response")
	}
}

// EnsureCredential runs credential selection when the shared store has no
// key yet. Used at daemon start.
func (o *Orchestrator) EnsureCredential(ctx context.Context) error {
	if o.keys == nil || o.keys.Has() {
		return nil
	}
	if o.selector == nil {
		return services.Wrap(services.ErrValidation, "pipeline", "credentials", "no API key configured and no selector available", nil)
	}
	key, err := o.selector.Prompt(ctx)
	if err != nil {
		return services.Wrap(services.ErrValidation, "pipeline", "credentials", "credential selection failed", err)
	}
	if key == "" {
		return services.Wrap(services.ErrValidation, "pipeline", "credentials", "empty API key selected", nil)
	}
	o.keys.Set(key)
	return nil
}

// Wait blocks until every outstanding animation job has finished. Tests use
// it to observe job completion deterministically.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}
