// Package search wires components A-H into the single entry point a client
// calls (spec.md §2's control-flow diagram, made concrete). Service.Search
// runs the full query pipeline: planner (D, consulting cache C and chat B)
// → retrieval (F, using embedding A and index E) → grouping (G). Detail
// and Alternatives bypass D/F and go straight to H.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/config"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/detail"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/document"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/errs"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/grouping"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/obslog"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/planner"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/retrieval"
)

// Query carries the logical search request from spec.md §6.
type Query struct {
	Text       string
	MaxResults int
}

// QueryEcho is the query-understanding detail echoed back in Response
// (spec.md §6: "query: {original, expanded, corrections}").
type QueryEcho struct {
	Original    string
	Expanded    string
	Corrections []string
}

// Metrics is the per-stage envelope returned with every successful
// response. On failure Search returns a nil Response and only the error, so
// no metrics are reported for a failed request.
type Metrics struct {
	LLMLatencyMS       int64
	EmbeddingLatencyMS int64
	IndexLatencyMS     int64
	TotalMS            int64
	InputTokens        int64
	OutputTokens       int64
	FromCache          bool
	Confidence         float64
	CostEstimateUSD    float64
}

// Response is the logical search response from spec.md §6.
type Response struct {
	Results []grouping.Family
	Query   QueryEcho
	Metrics Metrics
}

// CostRates prices the metrics envelope's cost estimate (spec.md §7: "a
// cost estimate derived from token counts and configured price constants").
type CostRates struct {
	InputPerMillionUSD  float64
	OutputPerMillionUSD float64
}

// Service is the orchestrator entry point used by cmd/drugsearchd.
type Service struct {
	planner   *planner.Planner
	retrieval *retrieval.Engine
	detail    *detail.Lookup
	deadlines config.Deadlines
	results   config.Retrieval
	cost      CostRates
	log       zerolog.Logger
}

// New builds a Service over its already-constructed stage components.
// results supplies the §6 retrieval.default_results/retrieval.max_results_cap
// configuration knobs enforced by Search.
func New(p *planner.Planner, r *retrieval.Engine, d *detail.Lookup, deadlines config.Deadlines, results config.Retrieval, cost CostRates, log zerolog.Logger) *Service {
	return &Service{planner: p, retrieval: r, detail: d, deadlines: deadlines, results: results, cost: cost, log: log}
}

// Search runs the full pipeline from spec.md §2/§4.
func (s *Service) Search(ctx context.Context, q Query) (*Response, error) {
	start := time.Now()

	defaultResults := s.results.DefaultResults
	if defaultResults <= 0 {
		defaultResults = 20
	}
	resultsCap := s.results.MaxResultsCap
	if resultsCap <= 0 {
		resultsCap = 100
	}

	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = defaultResults
	}
	if maxResults > resultsCap {
		return nil, errs.New(errs.InvalidInput, "search.Search", errTooManyResults(maxResults, resultsCap))
	}

	ctx, cancel := context.WithTimeout(ctx, s.deadlines.Total)
	defer cancel()

	plan, planMetrics, err := s.runPlanner(ctx, q.Text)
	if err != nil {
		return nil, err
	}

	candidates, retrievalMetrics, err := s.runRetrieval(ctx, plan, q.Text, maxResults)
	if err != nil {
		return nil, err
	}

	families := grouping.Group(toGroupingCandidates(candidates), q.Text, maxResults)

	metrics := Metrics{
		LLMLatencyMS:       planMetrics.LatencyMS,
		EmbeddingLatencyMS: retrievalMetrics.EmbeddingLatency,
		IndexLatencyMS:     retrievalMetrics.LatencyMS,
		TotalMS:            time.Since(start).Milliseconds(),
		InputTokens:        planMetrics.InputTokens,
		OutputTokens:       planMetrics.OutputTokens,
		FromCache:          planMetrics.FromCache,
		Confidence:         plan.Confidence,
		CostEstimateUSD:    s.estimateCost(planMetrics.InputTokens, planMetrics.OutputTokens),
	}

	return &Response{
		Results: families,
		Query: QueryEcho{
			Original:    q.Text,
			Expanded:    plan.ExpandedText,
			Corrections: plan.Corrections,
		},
		Metrics: metrics,
	}, nil
}

func (s *Service) runPlanner(ctx context.Context, text string) (*planner.Result, planner.Metrics, error) {
	pctx, cancel := context.WithTimeout(ctx, s.deadlines.Planner)
	defer cancel()

	plan, metrics, err := s.planner.Plan(pctx, text)
	obslog.StageOutcome(s.log, "planner", time.Duration(metrics.LatencyMS)*time.Millisecond, err, "")
	if err != nil && errs.Is(err, errs.InvalidInput) {
		return nil, planner.Metrics{}, err
	}
	if err != nil {
		// Planner degrades internally to a null plan; any other error here
		// is unexpected and should not have escaped Plan.
		return nil, planner.Metrics{}, errs.New(errs.Internal, "search.runPlanner", err)
	}
	return plan, metrics, nil
}

func (s *Service) runRetrieval(ctx context.Context, plan *planner.Result, rawQuery string, maxResults int) ([]retrieval.Candidate, retrieval.Metrics, error) {
	ictx, cancel := context.WithTimeout(ctx, s.deadlines.Index)
	defer cancel()

	candidates, metrics, err := s.retrieval.Run(ictx, plan, rawQuery, maxResults)
	obslog.StageOutcome(s.log, "retrieval", time.Duration(metrics.LatencyMS)*time.Millisecond, err, "")
	if err != nil {
		return nil, retrieval.Metrics{}, err
	}
	return candidates, metrics, nil
}

func toGroupingCandidates(in []retrieval.Candidate) []grouping.Candidate {
	out := make([]grouping.Candidate, len(in))
	for i, c := range in {
		out[i] = grouping.Candidate{Doc: c.Doc, Score: c.Score, Lexical: c.Lexical}
	}
	return out
}

func (s *Service) estimateCost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1_000_000*s.cost.InputPerMillionUSD +
		float64(outputTokens)/1_000_000*s.cost.OutputPerMillionUSD
}

// GetDetail bypasses D/F and fetches directly from the index (H).
func (s *Service) GetDetail(ctx context.Context, ndc string) (*document.Drug, error) {
	ctx, cancel := context.WithTimeout(ctx, s.deadlines.Index)
	defer cancel()
	return s.detail.GetDetail(ctx, ndc)
}

// GetAlternatives bypasses D/F and fetches directly from the index (H).
func (s *Service) GetAlternatives(ctx context.Context, ndc string) (*detail.Alternatives, error) {
	ctx, cancel := context.WithTimeout(ctx, s.deadlines.Index)
	defer cancel()
	return s.detail.GetAlternatives(ctx, ndc)
}

func errTooManyResults(n, cap int) error {
	return &tooManyResultsError{n: n, cap: cap}
}

type tooManyResultsError struct{ n, cap int }

func (e *tooManyResultsError) Error() string {
	return fmt.Sprintf("max_results %d exceeds the configured cap of %d", e.n, e.cap)
}
