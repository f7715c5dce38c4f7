package ai

import (
	"context"
	"errors"
	"fmt"
	"math"

	"edu-assistant-platform/internal/config"
)

// DefaultVectorSize is a bookkeeping fallback for the degenerate case where
// no chunk produced a vector. It must never be used to validate real vectors.
const DefaultVectorSize = 768

var (
	// ErrUnrecognizedResponse indicates the provider returned a payload that
	// matches none of the known embedding response shapes.
	ErrUnrecognizedResponse = errors.New("unrecognized embedding response shape")

	// ErrInvalidVector indicates the provider returned an empty vector or one
	// containing non-finite elements.
	ErrInvalidVector = errors.New("invalid embedding vector")
)

// Embedder maps a text to a numeric vector. Implementations are selected once
// at startup; a single request always uses one consistent implementation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NewEmbedder builds the configured provider adapter and wraps it with the
// circuit breaker and rate limiter.
func NewEmbedder(ctx context.Context, cfg *config.Config) (Embedder, error) {
	var base Embedder

	switch cfg.EmbeddingsProvider {
	case "gemini", "":
		sdk, err := NewGeminiEmbedder(ctx, cfg)
		if err != nil {
			return nil, err
		}
		base = sdk
	case "gemini-rest":
		base = NewGeminiRESTEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}

	return NewResilientEmbedder(base, cfg.EmbedRequestsPerMin), nil
}

// validateVector rejects empty vectors and any non-finite element. Runs at
// the adapter boundary so an unchecked shape never propagates past it.
func validateVector(vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: empty vector", ErrInvalidVector)
	}
	for i, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite element at index %d", ErrInvalidVector, i)
		}
	}
	return nil
}
