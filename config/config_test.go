package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/config"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 1024, cfg.Embedding.Dim)
	assert.Equal(t, 0.05, cfg.Cache.SimilarityThreshold)
	assert.Equal(t, "drugs_idx", cfg.Index.DrugIndex)
	assert.Equal(t, "drug_search_cache", cfg.Index.CacheIndex)
	assert.NotEqual(t, cfg.Index.DrugIndex, cfg.Index.CacheIndex)
}

func TestValidateRejectsBadDimensions(t *testing.T) {
	cfg := &config.Config{}
	err := cfg.Validate()
	assert.Error(t, err)
}
