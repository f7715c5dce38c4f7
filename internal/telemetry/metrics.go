package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter    metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	UploadsTotal      metric.Int64Counter
	ChunksProcessed   metric.Int64Counter
	EmbeddingDuration metric.Float64Histogram
	UpsertDuration    metric.Float64Histogram
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("edu-assistant-platform")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	uploadsTotal, err := meter.Int64Counter(
		"ingest.uploads.total",
		metric.WithDescription("Total document uploads by outcome"),
	)
	if err != nil {
		return nil, err
	}

	chunksProcessed, err := meter.Int64Counter(
		"ingest.chunks.processed",
		metric.WithDescription("Total chunks embedded and indexed"),
	)
	if err != nil {
		return nil, err
	}

	embeddingDuration, err := meter.Float64Histogram(
		"ingest.embedding.duration",
		metric.WithDescription("Per-chunk embedding call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	upsertDuration, err := meter.Float64Histogram(
		"ingest.upsert.duration",
		metric.WithDescription("Batch upsert duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:    requestCounter,
		RequestDuration:   requestDuration,
		UploadsTotal:      uploadsTotal,
		ChunksProcessed:   chunksProcessed,
		EmbeddingDuration: embeddingDuration,
		UpsertDuration:    upsertDuration,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordUpload records the outcome of one upload request
func (m *Metrics) RecordUpload(outcome string, chunks int) {
	attrs := []attribute.KeyValue{
		attribute.String("ingest.outcome", outcome),
	}

	m.UploadsTotal.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	if chunks > 0 {
		m.ChunksProcessed.Add(context.Background(), int64(chunks), metric.WithAttributes(attrs...))
	}
}

// RecordEmbedding records one embedding call duration
func (m *Metrics) RecordEmbedding(duration float64, success bool) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.EmbeddingDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordUpsert records one batch upsert duration
func (m *Metrics) RecordUpsert(duration float64, success bool) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.UpsertDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}
