package retrieval_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/document"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/embedding"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/errs"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/index"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/index/filter"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/planner"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/retrieval"
)

type fakeEmbedModel struct {
	dim int
	err error
}

func (f *fakeEmbedModel) Dimensions() int { return f.dim }
func (f *fakeEmbedModel) Call(_ context.Context, _ *embedding.Request) (*embedding.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.Result{Vector: make([]float32, f.dim)}, nil
}

func drugPoint(ndc, name, brand string) *index.Point {
	return &index.Point{
		Key: "drug:" + ndc,
		Metadata: (&document.Drug{
			NDC: ndc, DrugName: name, BrandName: brand, IsGeneric: brand == "",
			DrugClass: "ROSUVASTATIN CALCIUM", DosageForm: "TABLET",
		}).Metadata(),
	}
}

type fakeStore struct {
	vectorResult  []*index.ScoredPoint
	lexicalResult []*index.ScoredPoint
	err           error
}

func (s *fakeStore) EnsureCollection(context.Context, string, int) error { return nil }
func (s *fakeStore) Put(context.Context, string, *index.Point) error     { return nil }
func (s *fakeStore) Get(context.Context, string, string) (*index.Point, error) {
	return nil, nil
}
func (s *fakeStore) Delete(context.Context, string, string) error { return nil }

func (s *fakeStore) Query(_ context.Context, _ string, req *index.QueryRequest) ([]*index.ScoredPoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	if req.Vector != nil {
		return s.vectorResult, nil
	}
	return s.lexicalResult, nil
}

func TestRunFusesVectorAndLexicalHits(t *testing.T) {
	store := &fakeStore{
		vectorResult: []*index.ScoredPoint{
			{Point: *drugPoint("00310075139", "CRESTOR 10 MG TABLET", "CRESTOR"), Score: 0.7},
		},
		lexicalResult: []*index.ScoredPoint{
			{Point: *drugPoint("00310075139", "CRESTOR 10 MG TABLET", "CRESTOR"), Score: 0},
		},
	}
	engine := retrieval.New(embedding.NewClient(&fakeEmbedModel{dim: 4}, nil), store, "drugs_idx", 40, 0.15)

	candidates, metrics, err := engine.Run(context.Background(), &planner.Result{ExpandedText: "crestor"}, "crestor", 20)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.True(t, candidates[0].Lexical)
	assert.Equal(t, 1.0, candidates[0].Score) // exact name match forces 1.0
	assert.Equal(t, 1, metrics.VectorHits)
}

func TestRunDegradesToLexicalOnlyWhenEmbeddingFails(t *testing.T) {
	store := &fakeStore{
		lexicalResult: []*index.ScoredPoint{
			{Point: *drugPoint("00310075139", "CRESTOR 10 MG TABLET", "CRESTOR"), Score: 0},
		},
	}
	engine := retrieval.New(embedding.NewClient(&fakeEmbedModel{dim: 4, err: errs.New(errs.UpstreamUnavailable, "fake", nil)}, nil), store, "drugs_idx", 40, 0.15)

	candidates, metrics, err := engine.Run(context.Background(), &planner.Result{ExpandedText: "crestor"}, "crestor", 20)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.True(t, metrics.EmbeddingDegraded)
}

// capturingStore records the filter passed to the vector-pass Query call,
// so buildFilter's pipe-separated multi-value handling can be inspected.
type capturingStore struct {
	fakeStore
	lastVectorFilter *filter.Expr
}

func (s *capturingStore) Query(ctx context.Context, collection string, req *index.QueryRequest) ([]*index.ScoredPoint, error) {
	if req.Vector != nil {
		s.lastVectorFilter = req.Filter
	}
	return s.fakeStore.Query(ctx, collection, req)
}

func TestRunSplitsPipeSeparatedDosageFormIntoOrClause(t *testing.T) {
	store := &capturingStore{}
	engine := retrieval.New(embedding.NewClient(&fakeEmbedModel{dim: 4}, nil), store, "drugs_idx", 40, 0.15)

	plan := &planner.Result{ExpandedText: "crestor", Filters: planner.Filters{DosageForm: "TABLET|CAPSULE"}}
	_, _, err := engine.Run(context.Background(), plan, "crestor", 20)
	require.NoError(t, err)

	require.NotNil(t, store.lastVectorFilter)
	orExpr := store.lastVectorFilter
	assert.Equal(t, filter.KindOr, orExpr.Kind)
	require.Len(t, orExpr.Children, 2)
	assert.Equal(t, "TABLET", orExpr.Children[0].Value)
	assert.Equal(t, "CAPSULE", orExpr.Children[1].Value)
}

func TestRunFailsWhenIndexUnavailable(t *testing.T) {
	store := &fakeStore{err: errs.New(errs.ServiceUnavailable, "fake", nil)}
	engine := retrieval.New(embedding.NewClient(&fakeEmbedModel{dim: 4}, nil), store, "drugs_idx", 40, 0.15)

	_, _, err := engine.Run(context.Background(), &planner.Result{ExpandedText: "crestor"}, "crestor", 20)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ServiceUnavailable))
}
