package qdrant

import (
	"context"
	"fmt"

	nativeQdrant "github.com/qdrant/go-client/qdrant"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/index"
)

// textIndexedFields are the drug document fields the lexical pass
// (retrieval.textMatchFields) runs MatchText against. Qdrant's MatchText
// condition requires a text field index on each field it targets; without
// one the lexical pass silently returns nothing, which would break §4.F
// step 4's exact-match guarantee and §8 property 8's LLM-down degradation.
var textIndexedFields = []string{"drug_name", "brand_name", "generic_name"}

// Store is the Qdrant-backed index.Store.
type Store struct {
	client *nativeQdrant.Client
}

// NewStore wraps an already-connected Qdrant client.
func NewStore(client *nativeQdrant.Client) *Store {
	return &Store{client: client}
}

// EnsureCollection creates collection if it does not already exist, per
// index.Store's idempotent-create contract.
func (s *Store) EnsureCollection(ctx context.Context, collection string, dim int) error {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection %s: %w", collection, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &nativeQdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: nativeQdrant.NewVectorsConfig(&nativeQdrant.VectorParams{
			Size:     uint64(dim),
			Distance: nativeQdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %s: %w", collection, err)
	}

	for _, field := range textIndexedFields {
		if err := s.createTextFieldIndex(ctx, collection, field); err != nil {
			return err
		}
	}
	return nil
}

// createTextFieldIndex configures a word-tokenized, lowercased full-text
// index on field, the index MatchText (toCondition's KindTextMatch case)
// needs to run against it.
func (s *Store) createTextFieldIndex(ctx context.Context, collection, field string) error {
	lowercase := true
	minTokenLen := uint64(2)
	_, err := s.client.CreateFieldIndex(ctx, &nativeQdrant.CreateFieldIndexCollection{
		CollectionName: collection,
		FieldName:      field,
		FieldType:      nativeQdrant.FieldType_FieldTypeText.Enum(),
		FieldIndexParams: &nativeQdrant.PayloadIndexParams{
			IndexParams: &nativeQdrant.PayloadIndexParams_TextIndexParams{
				TextIndexParams: &nativeQdrant.TextIndexParams{
					Tokenizer:   nativeQdrant.TokenizerType_Word,
					Lowercase:   &lowercase,
					MinTokenLen: &minTokenLen,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create text index on %s.%s: %w", collection, field, err)
	}
	return nil
}

// Put upserts a single point, keyed by a deterministic ID derived from
// point.Key (index.Store: "full overwrite under its key").
func (s *Store) Put(ctx context.Context, collection string, point *index.Point) error {
	payload, err := payloadFromMetadata(point.Metadata)
	if err != nil {
		return err
	}
	payload["__key__"] = mustValue(point.Key)

	_, err = s.client.Upsert(ctx, &nativeQdrant.UpsertPoints{
		CollectionName: collection,
		Points: []*nativeQdrant.PointStruct{
			{
				Id:      nativeQdrant.NewID(pointID(point.Key)),
				Vectors: nativeQdrant.NewVectors(point.Embedding...),
				Payload: payload,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to upsert point %s into %s: %w", point.Key, collection, err)
	}
	return nil
}

// Get fetches a single point by key, returning (nil, nil) if absent.
func (s *Store) Get(ctx context.Context, collection string, key string) (*index.Point, error) {
	points, err := s.client.Get(ctx, &nativeQdrant.GetPoints{
		CollectionName: collection,
		Ids:            []*nativeQdrant.PointId{nativeQdrant.NewID(pointID(key))},
		WithPayload:    nativeQdrant.NewWithPayload(true),
		WithVectors:    nativeQdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to get point %s from %s: %w", key, collection, err)
	}
	if len(points) == 0 {
		return nil, nil
	}
	return pointFromRetrieved(points[0]), nil
}

// Delete removes a single point by key.
func (s *Store) Delete(ctx context.Context, collection string, key string) error {
	_, err := s.client.Delete(ctx, &nativeQdrant.DeletePoints{
		CollectionName: collection,
		Points: &nativeQdrant.PointsSelector{
			PointsSelectorOneOf: &nativeQdrant.PointsSelector_Points{
				Points: &nativeQdrant.PointsIdsList{
					Ids: []*nativeQdrant.PointId{nativeQdrant.NewID(pointID(key))},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to delete point %s from %s: %w", key, collection, err)
	}
	return nil
}

// Query runs the hybrid filter+KNN query described by req.
func (s *Store) Query(ctx context.Context, collection string, req *index.QueryRequest) ([]*index.ScoredPoint, error) {
	nativeFilter, err := toFilter(req.Filter)
	if err != nil {
		return nil, err
	}

	limit := uint64(req.TopK)
	if limit == 0 {
		limit = 20
	}

	query := &nativeQdrant.QueryPoints{
		CollectionName: collection,
		Filter:         nativeFilter,
		Limit:          &limit,
		WithPayload:    nativeQdrant.NewWithPayload(true),
		WithVectors:    nativeQdrant.NewWithVectors(true),
	}
	if req.Vector != nil {
		query.Query = nativeQdrant.NewQuery(req.Vector...)
	}

	scored, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to query %s: %w", collection, err)
	}

	out := make([]*index.ScoredPoint, 0, len(scored))
	for _, p := range scored {
		out = append(out, scoredPointFromNative(p))
	}
	return out, nil
}

func mustValue(s string) *nativeQdrant.Value {
	v, _ := nativeQdrant.NewValue(s)
	return v
}

func pointFromRetrieved(p *nativeQdrant.RetrievedPoint) *index.Point {
	meta := metadataFromPayload(p.Payload)
	key, _ := meta["__key__"].(string)
	delete(meta, "__key__")
	return &index.Point{
		Key:       key,
		Metadata:  meta,
		Embedding: vectorFromOutput(p.GetVectors()),
	}
}

func scoredPointFromNative(p *nativeQdrant.ScoredPoint) *index.ScoredPoint {
	meta := metadataFromPayload(p.Payload)
	key, _ := meta["__key__"].(string)
	delete(meta, "__key__")
	return &index.ScoredPoint{
		Point: index.Point{
			Key:       key,
			Metadata:  meta,
			Embedding: vectorFromOutput(p.GetVectors()),
		},
		Score: float64(p.GetScore()),
	}
}

func vectorFromOutput(vectors *nativeQdrant.VectorsOutput) []float32 {
	if vectors == nil {
		return nil
	}
	vec := vectors.GetVector()
	if vec == nil {
		return nil
	}
	if dense, ok := vec.Vector.(*nativeQdrant.VectorOutput_Dense); ok && dense.Dense != nil {
		return dense.Dense.Data
	}
	return nil
}
