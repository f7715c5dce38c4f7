package vectorstore

import (
	"context"
	"fmt"
)

// Point is a single vector with its source text payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]string
}

// Store is the vector database boundary. Adapters are selected once at
// startup; see NewStore.
type Store interface {
	// EnsureCollection guarantees a collection of the given name and
	// dimensionality exists, with cosine distance. An existing collection
	// with a different dimensionality yields a *DimensionMismatchError;
	// collections are never resized or migrated.
	EnsureCollection(ctx context.Context, name string, vectorSize uint64) error

	// Upsert writes all points in a single wait-for-completion batch. The
	// batch is all-or-nothing from the caller's perspective.
	Upsert(ctx context.Context, collection string, points []Point) error

	ListCollections(ctx context.Context) ([]string, error)
	DeleteCollection(ctx context.Context, name string) error
	Close() error
}

// DimensionMismatchError reports an existing collection whose configured
// dimensionality conflicts with the current batch.
type DimensionMismatchError struct {
	Collection string
	Expected   uint64 // configured on the existing collection
	Actual     uint64 // produced by the current embedding model
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf(
		"collection %q is configured for %d-dimensional vectors but the current embedding model produces %d dimensions; delete the collection or upload under a different name",
		e.Collection, e.Expected, e.Actual)
}

// CreateCollectionError wraps a collection creation failure that is not an
// already-exists condition.
type CreateCollectionError struct {
	Collection string
	Cause      error
}

func (e *CreateCollectionError) Error() string {
	return fmt.Sprintf("failed to create collection %q: %v", e.Collection, e.Cause)
}

func (e *CreateCollectionError) Unwrap() error { return e.Cause }

// UpsertError wraps a failed batch write. No partial point set is considered
// committed even if the store internally applied some points.
type UpsertError struct {
	Collection string
	Cause      error
}

func (e *UpsertError) Error() string {
	return fmt.Sprintf("failed to upsert points into collection %q: %v", e.Collection, e.Cause)
}

func (e *UpsertError) Unwrap() error { return e.Cause }
