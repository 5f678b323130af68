// Package handler runs the document translation pipeline for one storage notification.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pricofy/doc-translation-worker/internal/config"
	"github.com/pricofy/doc-translation-worker/internal/document"
	"github.com/pricofy/doc-translation-worker/internal/domain"
	"github.com/pricofy/doc-translation-worker/internal/event"
	"github.com/pricofy/doc-translation-worker/internal/metrics"
	"github.com/pricofy/doc-translation-worker/internal/outputkey"
	"github.com/pricofy/doc-translation-worker/internal/storage"
	"github.com/pricofy/doc-translation-worker/internal/translator"
)

// Handler translates the document announced by a notification and writes
// the result to the output bucket. It holds no per-invocation state and is
// safe for concurrent use.
type Handler struct {
	cfg        *config.Config
	fetcher    storage.Fetcher
	writer     storage.Writer
	translator translator.Translator
	metricsOut io.Writer
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetricsOutput sets where EMF metrics are written (default stdout).
func WithMetricsOutput(w io.Writer) Option {
	return func(h *Handler) {
		h.metricsOut = w
	}
}

// New creates a Handler.
func New(cfg *config.Config, fetcher storage.Fetcher, writer storage.Writer, tr translator.Translator, opts ...Option) *Handler {
	h := &Handler{
		cfg:        cfg,
		fetcher:    fetcher,
		writer:     writer,
		translator: tr,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// run collects what one invocation did, for the response, logs and metrics.
type run struct {
	trigger      domain.Trigger
	outputBucket string
	outputKey    string

	total      int
	dropped    int
	translated int
	failed     int
}

// Handle processes one notification envelope. Every failure is converted
// into the returned Response; Handle never returns an error.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) domain.Response {
	start := time.Now()
	logger := log.With().Str("invocationId", invocationID(ctx)).Logger()
	ctx = logger.WithContext(ctx)

	r := &run{}
	err := h.process(ctx, raw, r)
	resp := BuildResponse(err, r.successMessage())
	h.record(r, err, time.Since(start))

	if err != nil {
		kind := domain.KindOf(err)
		logger.Error().
			Err(err).
			Str("bucket", r.trigger.Bucket).
			Str("key", r.trigger.Key).
			Str("stage", kind.Stage()).
			Str("kind", string(kind)).
			Int("statusCode", resp.StatusCode).
			Msg("Translation failed")
		return resp
	}

	logger.Info().
		Str("bucket", r.trigger.Bucket).
		Str("key", r.trigger.Key).
		Str("outputBucket", r.outputBucket).
		Str("outputKey", r.outputKey).
		Int("items", r.total).
		Int("translated", r.translated).
		Int("dropped", r.dropped).
		Int("failed", r.failed).
		Dur("elapsed", time.Since(start)).
		Msg("Translation completed")
	return resp
}

func (h *Handler) process(ctx context.Context, raw json.RawMessage, r *run) error {
	trigger, err := event.Decode(raw)
	if err != nil {
		return domain.NewError(domain.KindInvalidEvent, err)
	}
	r.trigger = trigger

	logger := zerolog.Ctx(ctx).With().Str("bucket", trigger.Bucket).Str("key", trigger.Key).Logger()
	ctx = logger.WithContext(ctx)
	if trigger.RecordCount > 1 {
		logger.Warn().Int("records", trigger.RecordCount).Msg("Envelope has multiple records, processing only the first")
	}

	// Checked before fetching so a misconfigured worker never reads the source.
	outputBucket, err := h.cfg.ResolveOutputBucket()
	if err != nil {
		return domain.NewError(domain.KindConfiguration, err)
	}

	data, err := h.fetcher.Fetch(ctx, trigger.Bucket, trigger.Key)
	if err != nil {
		return domain.NewError(domain.KindFetch, err)
	}

	doc, err := document.Normalize(data)
	if err != nil {
		return domain.NewError(domain.KindParse, err)
	}
	r.total = doc.Total
	r.dropped = len(doc.Dropped)
	for _, i := range doc.Dropped {
		logger.Warn().Int("index", i).Msg("Skipping item without text")
	}

	results, failed, err := h.translateAll(ctx, doc.Items)
	if err != nil {
		return domain.NewError(domain.KindTranslation, err)
	}
	r.failed = failed

	out := domain.NewResponseDocument(trigger.Key, len(results))
	for _, res := range results {
		out.Add(res)
	}
	r.translated = len(out.Translations)

	body, err := document.Encode(out)
	if err != nil {
		return domain.NewError(domain.KindInternal, fmt.Errorf("encode output: %w", err))
	}

	outputKey := outputkey.Derive(trigger.Key)
	if err := h.writer.Write(ctx, outputBucket, outputKey, body, document.ContentType); err != nil {
		return domain.NewError(domain.KindWrite, err)
	}
	r.outputBucket = outputBucket
	r.outputKey = outputKey
	return nil
}

func (r *run) successMessage() string {
	msg := fmt.Sprintf("Translation completed: %d item(s) written to s3://%s/%s", r.translated, r.outputBucket, r.outputKey)
	if r.failed > 0 {
		msg += fmt.Sprintf("; %d item(s) failed", r.failed)
	}
	return msg
}

func (h *Handler) record(r *run, err error, elapsed time.Duration) {
	outcome := "Success"
	if err != nil {
		outcome = string(domain.KindOf(err))
	}

	rec := metrics.New(h.cfg.MetricsNamespace, h.metricsOut).
		Dimension("Outcome", outcome).
		Count("ItemsTotal", r.total).
		Count("ItemsTranslated", r.translated).
		Count("ItemsDropped", r.dropped).
		Count("ItemsFailed", r.failed).
		Metric("LatencyMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Property("bucket", r.trigger.Bucket).
		Property("key", r.trigger.Key)
	if flushErr := rec.Flush(); flushErr != nil {
		log.Warn().Err(flushErr).Msg("Failed to emit metrics")
	}
}

func invocationID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}
