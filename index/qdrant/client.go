// Package qdrant is the concrete index.Store backed by Qdrant, grounded on
// the vectorstore provider pattern (collection lifecycle, point struct
// construction, payload value conversion, AST-to-native filter translation)
// but narrowed to this domain's {put, get, query, delete} surface instead of
// the teacher's full document-batching VectorStore.
package qdrant

import (
	"context"
	"fmt"
	"os"

	"github.com/qdrant/go-client/qdrant"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/config"
)

// NewClient builds a Qdrant gRPC client from the connection settings in cfg.
func NewClient(cfg config.IndexConnection) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: apiKey(cfg),
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}
	return client, nil
}

func apiKey(cfg config.IndexConnection) string {
	if cfg.APIKeyEnvVar == "" {
		return ""
	}
	return os.Getenv(cfg.APIKeyEnvVar)
}

// Close is a thin wrapper kept alongside NewClient so callers don't import
// the qdrant package directly just to shut the connection down.
func Close(ctx context.Context, client *qdrant.Client) error {
	_ = ctx
	return client.Close()
}
