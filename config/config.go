// Package config loads the explicit Config value threaded through every
// component constructor in this module. Apart from API-key secrets
// (cmd/drugsearchd reads OPENAI_API_KEY, index/qdrant reads the variable
// named by IndexConnection.APIKeyEnvVar), nothing in the rest of the tree
// reads os.Getenv directly — the teacher's implicit package-level model
// singletons are replaced here by a value built once at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Embedding holds the embedding-model configuration surface.
type Embedding struct {
	ModelID string
	Dim     int
}

// LLM holds the chat-model configuration surface.
type LLM struct {
	ModelID     string
	MaxTokens   int64
	Temperature float64
}

// Cache holds the semantic-cache policy.
type Cache struct {
	SimilarityThreshold float64 // Δ, cosine distance accept threshold
	TTL                 time.Duration
}

// Retrieval holds retrieval-engine tunables.
type Retrieval struct {
	DefaultK       int
	MaxResultsCap  int
	LexicalBoost   float64
	DefaultResults int
}

// IndexConnection holds the vector+attribute index connection parameters.
type IndexConnection struct {
	Host          string
	Port          int
	APIKeyEnvVar  string
	DrugIndex     string
	CacheIndex    string
	UseTLS        bool
}

// Deadlines holds the per-stage suspension budgets from spec.md §5.
type Deadlines struct {
	Planner  time.Duration
	Embedding time.Duration
	Index    time.Duration
	Total    time.Duration
}

// RateLimit holds provider RPS ceilings (spec.md §5).
type RateLimit struct {
	EmbeddingRPS float64
	LLMRPS       float64
}

// Config is the single explicit configuration value passed to every
// component constructor.
type Config struct {
	Embedding Embedding
	LLM       LLM
	Cache     Cache
	Retrieval Retrieval
	Index     IndexConnection
	Deadlines Deadlines
	RateLimit RateLimit
}

// Load reads a .env file if present (ignored if missing) and then builds a
// Config from the environment, applying the defaults from spec.md §6/§7.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Embedding: Embedding{
			ModelID: getenv("EMBEDDING_MODEL_ID", "text-embedding-3-large"),
			Dim:     getenvInt("EMBEDDING_DIM", 1024),
		},
		LLM: LLM{
			ModelID:     getenv("LLM_MODEL_ID", "gpt-4o-mini"),
			MaxTokens:   int64(getenvInt("LLM_MAX_TOKENS", 800)),
			Temperature: getenvFloat("LLM_TEMPERATURE", 0.0),
		},
		Cache: Cache{
			SimilarityThreshold: getenvFloat("CACHE_SIMILARITY_THRESHOLD", 0.05),
			TTL:                 time.Duration(getenvInt("CACHE_TTL_SECONDS", 7*24*3600)) * time.Second,
		},
		Retrieval: Retrieval{
			DefaultK:       getenvInt("RETRIEVAL_DEFAULT_K", 40),
			MaxResultsCap:  getenvInt("RETRIEVAL_MAX_RESULTS_CAP", 100),
			LexicalBoost:   getenvFloat("RETRIEVAL_LEXICAL_BOOST", 0.15),
			DefaultResults: getenvInt("RETRIEVAL_DEFAULT_RESULTS", 20),
		},
		Index: IndexConnection{
			Host:         getenv("INDEX_HOST", "localhost"),
			Port:         getenvInt("INDEX_PORT", 6334),
			APIKeyEnvVar: getenv("INDEX_API_KEY_ENV_VAR", "INDEX_API_KEY"),
			DrugIndex:    getenv("INDEX_DRUG_COLLECTION", "drugs_idx"),
			CacheIndex:   getenv("INDEX_CACHE_COLLECTION", "drug_search_cache"),
			UseTLS:       getenvBool("INDEX_USE_TLS", false),
		},
		Deadlines: Deadlines{
			Planner:   time.Duration(getenvInt("DEADLINE_PLANNER_MS", 3000)) * time.Millisecond,
			Embedding: time.Duration(getenvInt("DEADLINE_EMBEDDING_MS", 1000)) * time.Millisecond,
			Index:     time.Duration(getenvInt("DEADLINE_INDEX_MS", 2000)) * time.Millisecond,
			Total:     time.Duration(getenvInt("DEADLINE_TOTAL_MS", 6000)) * time.Millisecond,
		},
		RateLimit: RateLimit{
			EmbeddingRPS: getenvFloat("EMBEDDING_RPS", 50),
			LLMRPS:       getenvFloat("LLM_RPS", 20),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks invariants that must hold for the rest of the tree to
// construct safely.
func (c *Config) Validate() error {
	if c.Embedding.Dim <= 0 {
		return fmt.Errorf("embedding.dim must be positive, got %d", c.Embedding.Dim)
	}
	if c.Cache.SimilarityThreshold < 0 || c.Cache.SimilarityThreshold > 1 {
		return fmt.Errorf("cache.similarity_threshold must be in [0,1], got %f", c.Cache.SimilarityThreshold)
	}
	if c.Retrieval.MaxResultsCap <= 0 {
		return fmt.Errorf("retrieval.max_results_cap must be positive, got %d", c.Retrieval.MaxResultsCap)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
