// Package vectorstore implements C2, the Vector Store Adapter: named
// collections of (id → embedding) with upsert, membership probe, and kNN
// search, per spec.md §4.2.
package vectorstore

import "context"

// Point is a single kNN search result.
type Point struct {
	ID    int32
	Score float32
}

// Store is the interface both the Qdrant-backed and Postgres/pgvector-backed
// implementations satisfy, so C8/C9 depend on the interface rather than a
// concrete backend (spec.md §9 — process-wide services injected, not
// hardcoded singletons).
type Store interface {
	// EnsureCollections creates any of names not already present, with
	// dimension dim and the given distance metric ("cosine", "euclid", "dot").
	EnsureCollections(ctx context.Context, names []string, dim int, metric string) error
	// FindMissing batch-probes existence, returning ids not present.
	FindMissing(ctx context.Context, collection string, ids []int32) ([]int32, error)
	// Upsert is blocking: a subsequent FindMissing observes the write.
	Upsert(ctx context.Context, collection string, id int32, vector []float32) error
	// Search returns the top k points by descending score.
	Search(ctx context.Context, collection string, vector []float32, k int) ([]Point, error)
	Close() error
}
