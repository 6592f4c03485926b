// Command drugsearchd is a minimal CLI over the search pipeline: it wires
// components A-H from a loaded config and runs a single query, printing the
// JSON response envelope. There is no HTTP server here (a REST/gRPC framing
// layer is explicitly out of scope); a long-running service would put this
// same Service behind whichever transport the deployment needs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/cache"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/chat"
	chatopenai "github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/chat/providers/openai"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/config"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/detail"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/embedding"
	embedopenai "github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/embedding/providers/openai"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/index/qdrant"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/obslog"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/planner"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/ratelimit"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/retrieval"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/search"
)

func main() {
	query := flag.String("query", "", "free-text drug search query")
	maxResults := flag.Int("max-results", 20, "maximum number of result families")
	ndc := flag.String("ndc", "", "fetch a single drug's detail/alternatives instead of searching")
	pretty := flag.Bool("pretty-log", false, "use a human-readable console log instead of JSON")
	flag.Parse()

	log := obslog.New("drugsearchd", *pretty)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	svc, err := buildService(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build search service")
	}

	ctx := context.Background()

	var out any
	switch {
	case *ndc != "":
		out, err = runDetail(ctx, svc, *ndc)
	case *query != "":
		out, err = svc.Search(ctx, search.Query{Text: *query, MaxResults: *maxResults})
	default:
		fmt.Fprintln(os.Stderr, "usage: drugsearchd -query \"crestor\" | -ndc 00310075139")
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Msg("request failed")
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("failed to encode response")
	}
}

type detailResponse struct {
	Detail       any `json:"detail"`
	Alternatives any `json:"alternatives"`
}

func runDetail(ctx context.Context, svc *search.Service, ndc string) (*detailResponse, error) {
	d, err := svc.GetDetail(ctx, ndc)
	if err != nil {
		return nil, err
	}
	alts, err := svc.GetAlternatives(ctx, ndc)
	if err != nil {
		return nil, err
	}
	return &detailResponse{Detail: d, Alternatives: alts}, nil
}

// buildService wires components A-H from cfg, matching the constructor
// order laid out in spec.md §4: embedding/chat providers first, then the
// cache, planner, retrieval, and detail stages over a shared index store.
func buildService(cfg *config.Config, log zerolog.Logger) (*search.Service, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")

	embedModel := embedopenai.New(apiKey, cfg.Embedding.ModelID, cfg.Embedding.Dim)
	embedder := embedding.NewClient(embedModel, ratelimit.New("embedding", cfg.RateLimit.EmbeddingRPS))

	chatModel := chatopenai.New(apiKey, cfg.LLM.ModelID)
	chatClient := chat.NewClient(chatModel, ratelimit.New("llm", cfg.RateLimit.LLMRPS))

	qdrantClient, err := qdrant.NewClient(cfg.Index)
	if err != nil {
		return nil, err
	}
	store := qdrant.NewStore(qdrantClient)

	semanticCache := cache.New(embedder, store, cfg.Index.CacheIndex, cfg.Cache.SimilarityThreshold, cfg.Cache.TTL)
	p := planner.New(chatClient, semanticCache)
	r := retrieval.New(embedder, store, cfg.Index.DrugIndex, cfg.Retrieval.DefaultK, cfg.Retrieval.LexicalBoost)
	d := detail.New(store, cfg.Index.DrugIndex)

	cost := search.CostRates{InputPerMillionUSD: 0.15, OutputPerMillionUSD: 0.60}
	return search.New(p, r, d, cfg.Deadlines, cfg.Retrieval, cost, log), nil
}
