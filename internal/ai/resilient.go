package ai

import (
	"context"
	"time"

	"edu-assistant-platform/internal/logger"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ResilientEmbedder wraps an Embedder with a circuit breaker and a
// requests-per-minute limiter, bounding peak load on the provider.
type ResilientEmbedder struct {
	inner       Embedder
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

func NewResilientEmbedder(inner Embedder, requestsPerMin int) *ResilientEmbedder {
	if requestsPerMin <= 0 {
		requestsPerMin = 60
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "EmbeddingAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})

	burst := requestsPerMin / 10
	if burst < 1 {
		burst = 1
	}
	// RPM limit with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(float64(requestsPerMin)*0.9/60.0), burst)

	return &ResilientEmbedder{
		inner:       inner,
		breaker:     breaker,
		rateLimiter: rateLimiter,
	}
}

func (r *ResilientEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.inner.Embed(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return result.([]float32), nil
}
