// Package cache implements component C from spec.md §4.C: approximate
// memoization for the planner's LLM calls, keyed by embedding similarity
// over a query text. The cache never blocks the user path — a lookup
// failure is treated as a miss, matching spec.md §4.H's "Cache failure ⇒
// treat as miss; never block the user path."
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/embedding"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/index"
)

// storedAtField is the payload key carrying the entry's write timestamp,
// used to enforce the TTL at lookup time (spec.md §4.C: "Eviction:
// TTL-based; no LRU required").
const storedAtField = "stored_at"

// outputField is the payload key carrying the serialized planner result.
// Cache deliberately stores opaque JSON rather than a planner.Result value:
// the planner package depends on this package (spec.md §4.D step 1/4), so
// a concrete dependency the other way would be a cycle.
const outputField = "stored_output"

// Cache is the narrow capability surface {lookup, store} from spec.md §4.C.
type Cache interface {
	// Lookup embeds queryText and performs KNN=1 against the cache
	// collection. It reports a hit iff cosine distance <= threshold and the
	// entry's age is within ttl. A miss (including any upstream error) is
	// reported as (nil, false) — the caller degrades to a normal planner
	// call.
	Lookup(ctx context.Context, queryText string) (json.RawMessage, bool)

	// Store writes a new entry for queryText with the current time as
	// stored_at.
	Store(ctx context.Context, queryText string, output json.RawMessage) error
}

// SemanticCache is the Qdrant-backed Cache used in production, matching the
// "distinct index namespace" requirement of spec.md §4.C via a dedicated
// collection name.
type SemanticCache struct {
	embedder   *embedding.Client
	store      index.Store
	collection string
	threshold  float64 // Δ, max acceptable cosine distance
	ttl        time.Duration
	now        func() time.Time
}

// New builds a SemanticCache over collection, accepting hits within
// threshold cosine distance and ttl age.
func New(embedder *embedding.Client, store index.Store, collection string, threshold float64, ttl time.Duration) *SemanticCache {
	return &SemanticCache{
		embedder:   embedder,
		store:      store,
		collection: collection,
		threshold:  threshold,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (c *SemanticCache) Lookup(ctx context.Context, queryText string) (json.RawMessage, bool) {
	vec, _, err := c.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, false
	}

	results, err := c.store.Query(ctx, c.collection, &index.QueryRequest{
		Vector: vec,
		TopK:   1,
	})
	if err != nil || len(results) == 0 {
		return nil, false
	}

	best := results[0]
	distance := 1 - best.Score
	if distance > c.threshold {
		return nil, false
	}

	storedAtRaw, _ := best.Metadata[storedAtField].(string)
	storedAt, err := time.Parse(time.RFC3339Nano, storedAtRaw)
	if err != nil || c.now().Sub(storedAt) > c.ttl {
		return nil, false
	}

	outputRaw, ok := best.Metadata[outputField].(string)
	if !ok || outputRaw == "" {
		return nil, false
	}
	return json.RawMessage(outputRaw), true
}

func (c *SemanticCache) Store(ctx context.Context, queryText string, output json.RawMessage) error {
	vec, _, err := c.embedder.Embed(ctx, queryText)
	if err != nil {
		return err
	}

	point := &index.Point{
		Key: "cache:" + uuid.NewString(),
		Metadata: map[string]any{
			outputField:   string(output),
			storedAtField: c.now().Format(time.RFC3339Nano),
		},
		Embedding: vec,
	}
	return c.store.Put(ctx, c.collection, point)
}
