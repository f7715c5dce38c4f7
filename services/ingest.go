package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"edu-assistant-platform/internal/ai"
	"edu-assistant-platform/internal/lock"
	"edu-assistant-platform/internal/logger"
	"edu-assistant-platform/internal/telemetry"
	"edu-assistant-platform/internal/vectorstore"

	"github.com/google/uuid"
)

// EmbeddingError attributes an embedding failure to the chunk that caused
// it. The remaining chunks of the request are never attempted.
type EmbeddingError struct {
	ChunkIndex int
	Cause      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed for chunk %d: %v", e.ChunkIndex, e.Cause)
}

func (e *EmbeddingError) Unwrap() error { return e.Cause }

// IngestResult summarizes one successfully indexed document.
type IngestResult struct {
	Collection string
	Chunks     int
	TextLength int
	VectorSize int
}

// Pipeline runs the four ingestion stages in order: extract, chunk, embed,
// index. Strictly sequential and synchronous; any failure aborts the
// request with no partial index.
type Pipeline struct {
	extractor    *Extractor
	embedder     ai.Embedder
	store        vectorstore.Store
	locks        lock.KeyedLocker
	metrics      *telemetry.Metrics
	maxChunkSize int
}

func NewPipeline(embedder ai.Embedder, store vectorstore.Store, locks lock.KeyedLocker, metrics *telemetry.Metrics, maxChunkSize int) *Pipeline {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	return &Pipeline{
		extractor:    NewExtractor(),
		embedder:     embedder,
		store:        store,
		locks:        locks,
		metrics:      metrics,
		maxChunkSize: maxChunkSize,
	}
}

// CollectionNameFor derives the destination collection from the uploaded
// filename: lowercased, extension stripped.
func CollectionNameFor(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.ToLower(base)
}

// Ingest processes one uploaded document end to end.
func (p *Pipeline) Ingest(ctx context.Context, data []byte, mediaType, filename string) (*IngestResult, error) {
	text, err := p.extractor.Extract(data, mediaType, filename)
	if err != nil {
		return nil, err
	}

	chunks := SplitText(text, p.maxChunkSize)
	logger.Debug("Document chunked",
		"filename", filename, "text_length", len(text), "chunks", len(chunks))

	// Embed strictly in order, one chunk at a time. Chunk order is
	// preserved end to end: chunks[i] produces points[i].
	points := make([]vectorstore.Point, 0, len(chunks))
	for i, chunk := range chunks {
		start := time.Now()
		vec, err := p.embedder.Embed(ctx, chunk)
		if p.metrics != nil {
			p.metrics.RecordEmbedding(time.Since(start).Seconds(), err == nil)
		}
		if err != nil {
			return nil, &EmbeddingError{ChunkIndex: i, Cause: err}
		}
		if len(points) > 0 && len(vec) != len(points[0].Vector) {
			return nil, &EmbeddingError{ChunkIndex: i, Cause: fmt.Errorf(
				"vector size changed mid-request: got %d, expected %d", len(vec), len(points[0].Vector))}
		}
		points = append(points, vectorstore.Point{
			ID:      uuid.NewString(),
			Vector:  vec,
			Payload: map[string]string{"text": chunk},
		})
	}

	vectorSize := ai.DefaultVectorSize
	if len(points) > 0 {
		vectorSize = len(points[0].Vector)
	}

	collection := CollectionNameFor(filename)

	// Hold the per-collection lock across ensure+upsert so concurrent
	// uploads normalizing to the same name cannot race collection creation.
	release, err := p.locks.Acquire(ctx, collection)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := p.store.EnsureCollection(ctx, collection, uint64(vectorSize)); err != nil {
		return nil, err
	}

	start := time.Now()
	err = p.store.Upsert(ctx, collection, points)
	if p.metrics != nil {
		p.metrics.RecordUpsert(time.Since(start).Seconds(), err == nil)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Document indexed",
		"filename", filename, "collection", collection,
		"chunks", len(points), "vector_size", vectorSize)

	return &IngestResult{
		Collection: collection,
		Chunks:     len(points),
		TextLength: len(text),
		VectorSize: vectorSize,
	}, nil
}
