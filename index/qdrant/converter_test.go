package qdrant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/index/filter"
)

func TestToFilterNilExprYieldsNilFilter(t *testing.T) {
	f, err := toFilter(nil)
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestToFilterBuildsMustConditionsForAnd(t *testing.T) {
	expr := filter.New().Eq("drug_class", "ROSUVASTATIN CALCIUM").Eq("is_generic", true).Build()

	f, err := toFilter(expr)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Len(t, f.Must, 2)
}

func TestToFilterBuildsNotEqAsMustNot(t *testing.T) {
	expr := filter.New().NotEq("ndc", "00310075139").Build()

	f, err := toFilter(expr)
	require.NoError(t, err)
	require.Len(t, f.Must, 1)
	nested := f.Must[0].GetFilter()
	require.NotNil(t, nested)
	assert.Len(t, nested.MustNot, 1)
}

func TestToFilterRejectsUnsupportedMatchValueType(t *testing.T) {
	expr := &filter.Expr{Kind: filter.KindEq, Field: "x", Value: []int{1}}

	_, err := toFilter(expr)
	assert.Error(t, err)
}

func TestPayloadMetadataRoundTrip(t *testing.T) {
	meta := map[string]any{
		"drug_name":  "CRESTOR 10 MG TABLET",
		"gcn_seqno":  int64(12345),
		"is_generic": false,
	}

	payload, err := payloadFromMetadata(meta)
	require.NoError(t, err)

	out := metadataFromPayload(payload)
	assert.Equal(t, "CRESTOR 10 MG TABLET", out["drug_name"])
	assert.Equal(t, int64(12345), out["gcn_seqno"])
	assert.Equal(t, false, out["is_generic"])
}

func TestPointIDIsDeterministic(t *testing.T) {
	a := pointID("drug:00310075139")
	b := pointID("drug:00310075139")
	c := pointID("drug:00999000001")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
