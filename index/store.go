// Package index defines the vector+attribute index contract from spec.md
// §4.E/§6: document put/get/delete by key, index create, and the hybrid
// query shape (optional filter-expr intersected with optional KNN). One
// Store serves both the drug index (drugs_idx) and the semantic-cache
// index (a distinct collection/namespace), matching spec.md §6's "Document
// keys follow drug:{ndc}; the drug index is named drugs_idx; the
// semantic-cache index is named distinctly."
package index

import (
	"context"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/index/filter"
)

// Point is a single stored item: a key, its attribute payload, and its
// dense vector.
type Point struct {
	Key       string
	Metadata  map[string]any
	Embedding []float32
}

// ScoredPoint is a Point returned from a query, carrying its similarity
// score (1 - cosine distance, or 0 for a pure filter query with no KNN
// component).
type ScoredPoint struct {
	Point
	Score float64
}

// QueryRequest is the abstract "FIND ... WHERE ... NEAREST k BY embedding"
// shape from spec.md §4.E. Either Filter or Vector (or both) may be unset:
// a pure filter query, a pure KNN query, or a hybrid of the two.
type QueryRequest struct {
	Filter *filter.Expr
	Vector []float32
	TopK   int
}

// Store is the narrow capability surface {put, get, query, delete} that
// every index provider (index/qdrant) implements, matching the teacher's
// vectorstore.Store interface (ai/vectorstore/store.go) narrowed to this
// domain's needs — no document batching/writer abstraction, since the
// online query path never writes drug documents (spec.md §3: "documents
// are written by the external loader, never by the query path").
type Store interface {
	// EnsureCollection creates collection if it does not already exist,
	// configured for dim-dimensional vectors. Idempotent.
	EnsureCollection(ctx context.Context, collection string, dim int) error

	// Put upserts a single point (full overwrite under its key, per spec.md
	// §3 document lifecycle).
	Put(ctx context.Context, collection string, point *Point) error

	// Get fetches a single point by key, returning (nil, nil) if no point
	// exists under that key. Callers (detail.Lookup) translate an absent
	// point into errs.NotFound at the domain boundary.
	Get(ctx context.Context, collection string, key string) (*Point, error)

	// Delete removes a single point by key.
	Delete(ctx context.Context, collection string, key string) error

	// Query runs the hybrid query described by req against collection.
	Query(ctx context.Context, collection string, req *QueryRequest) ([]*ScoredPoint, error)
}
