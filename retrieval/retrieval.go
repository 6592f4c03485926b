// Package retrieval implements component F from spec.md §4.F: it runs the
// planner's output against the index (E), fusing an exact-text lexical
// pass with a dense-vector KNN pass so exact matches are never dominated by
// vector noise.
package retrieval

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/document"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/embedding"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/errs"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/index"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/index/filter"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/planner"
)

var textMatchFields = []string{"drug_name", "brand_name", "generic_name"}

// Candidate is a single fused, scored NDC hit, ready for grouping.
type Candidate struct {
	Doc     *document.Drug
	Score   float64
	Lexical bool
}

// Metrics is the retrieval stage's contribution to the response envelope.
type Metrics struct {
	LatencyMS        int64
	EmbeddingLatency int64
	VectorHits       int
	LexicalHits      int
	EmbeddingDegraded bool
}

// Engine runs the algorithm from spec.md §4.F.
type Engine struct {
	embedder   *embedding.Client
	store      index.Store
	collection string
	defaultK   int
	boost      float64 // β, the lexical-hit score boost
}

// New builds an Engine over embedder and the drug collection in store.
func New(embedder *embedding.Client, store index.Store, collection string, defaultK int, boost float64) *Engine {
	return &Engine{embedder: embedder, store: store, collection: collection, defaultK: defaultK, boost: boost}
}

// Run executes the hybrid-plus-lexical fan-out and returns the fused
// candidate list (spec.md §4.F / §5: "the two retrieval passes ... run
// concurrently and join").
func (e *Engine) Run(ctx context.Context, plan *planner.Result, rawQuery string, maxResults int) ([]Candidate, Metrics, error) {
	start := time.Now()

	k := e.defaultK
	if want := 2 * maxResults; want > k {
		k = want
	}

	prefilter := buildFilter(plan)

	var vectorPoints []*index.ScoredPoint
	var lexicalPoints []*index.ScoredPoint
	metrics := Metrics{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		vec, embedMetrics, err := e.embedder.Embed(gctx, plan.ExpandedText)
		if err != nil {
			// Embedding failure ⇒ degrade to lexical-only retrieval
			// (spec.md §4.H); never fail the whole request for this.
			metrics.EmbeddingDegraded = true
			return nil
		}
		metrics.EmbeddingLatency = embedMetrics.LatencyMS

		points, err := e.store.Query(gctx, e.collection, &index.QueryRequest{
			Filter: prefilter,
			Vector: vec,
			TopK:   k,
		})
		if err != nil {
			return errs.New(errs.ServiceUnavailable, "retrieval.vectorPass", err)
		}
		vectorPoints = points
		return nil
	})

	g.Go(func() error {
		lexicalFilter := withTextMatch(prefilter, rawQuery)
		points, err := e.store.Query(gctx, e.collection, &index.QueryRequest{
			Filter: lexicalFilter,
			TopK:   maxResults,
		})
		if err != nil {
			return errs.New(errs.ServiceUnavailable, "retrieval.lexicalPass", err)
		}
		lexicalPoints = points
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, Metrics{}, err
	}

	metrics.VectorHits = len(vectorPoints)
	metrics.LexicalHits = len(lexicalPoints)
	metrics.LatencyMS = time.Since(start).Milliseconds()

	candidates := fuse(vectorPoints, lexicalPoints, rawQuery, e.boost)
	return candidates, metrics, nil
}

// buildFilter translates the planner's filters into a filter.Expr (spec.md
// §4.F step 1). Tag values are ANDed unless explicitly multi-valued
// (pipe-separated), in which case they're ORed via filter.Builder.In before
// being ANDed into the rest; empty filters yield no prefilter.
func buildFilter(plan *planner.Result) *filter.Expr {
	b := filter.New()
	b.Eq("drug_class", plan.Filters.DrugClass)
	b.Eq("therapeutic_class", plan.Filters.TherapeuticClass)
	b.In("dosage_form", pipeValues(plan.Filters.DosageForm))
	b.Eq("dea_schedule", plan.Filters.DEASchedule)
	if plan.Filters.IsGeneric != nil {
		b.Eq("is_generic", *plan.Filters.IsGeneric)
	}
	return b.Build()
}

// pipeValues splits a possibly pipe-separated tag value into the []any
// shape filter.Builder.In expects; an empty or single-valued string yields
// a slice In degrades back to Eq for.
func pipeValues(raw string) []any {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	values := make([]any, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			values = append(values, p)
		}
	}
	return values
}

// withTextMatch adds a text-match clause against the raw user tokens to an
// existing prefilter (spec.md §4.F step 4's lexical pass).
func withTextMatch(base *filter.Expr, rawQuery string) *filter.Expr {
	textExpr := filter.New().TextMatch(textMatchFields, rawQuery).Build()
	if base == nil {
		return textExpr
	}
	if textExpr == nil {
		return base
	}
	return &filter.Expr{Kind: filter.KindAnd, Children: []*filter.Expr{base, textExpr}}
}

// fuse implements spec.md §4.F steps 5/6: documents present in both passes
// keep the better (lower) vector distance and are flagged lexical; a
// unified score is computed, with a lexical boost and an exact-name-match
// override to 1.0.
func fuse(vectorPoints, lexicalPoints []*index.ScoredPoint, rawQuery string, boost float64) []Candidate {
	byNDC := map[string]*Candidate{}
	order := []string{}

	get := func(p *index.ScoredPoint) *Candidate {
		doc := document.FromMetadata(p.Metadata, p.Embedding)
		c, ok := byNDC[doc.NDC]
		if !ok {
			c = &Candidate{Doc: doc}
			byNDC[doc.NDC] = c
			order = append(order, doc.NDC)
		}
		return c
	}

	for _, p := range vectorPoints {
		c := get(p)
		if c.Score == 0 || p.Score > c.Score {
			c.Score = p.Score
		}
	}
	for _, p := range lexicalPoints {
		c := get(p)
		c.Lexical = true
		if p.Score > c.Score {
			c.Score = p.Score
		}
	}

	normalizedQuery := strings.ToLower(strings.Join(strings.Fields(rawQuery), " "))

	candidates := make([]Candidate, 0, len(order))
	for _, ndc := range order {
		c := byNDC[ndc]
		if c.Lexical {
			c.Score += boost
			if c.Score > 1.0 {
				c.Score = 1.0
			}
		}
		name := strings.ToLower(strings.Join(strings.Fields(c.Doc.DrugName), " "))
		brand := strings.ToLower(strings.Join(strings.Fields(c.Doc.BrandName), " "))
		if name == normalizedQuery || (brand != "" && brand == normalizedQuery) {
			c.Score = 1.0
		}
		candidates = append(candidates, *c)
	}
	return candidates
}
