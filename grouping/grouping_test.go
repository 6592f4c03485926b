package grouping_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/document"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/grouping"
)

func crestor(ndc, strength string) *document.Drug {
	return &document.Drug{
		NDC:              ndc,
		DrugName:         "CRESTOR " + strength + " TABLET",
		BrandName:        "CRESTOR",
		GenericName:      "rosuvastatin calcium",
		TherapeuticClass: "HMG-COA REDUCTASE INHIBITORS",
		GCNSeqno:         12345,
		DosageForm:       "TABLET",
		Strength:         strength,
		IsGeneric:        false,
	}
}

func rosuvastatin(ndc, strength string) *document.Drug {
	return &document.Drug{
		NDC:              ndc,
		DrugName:         "ROSUVASTATIN CALCIUM " + strength + " TABLET",
		GenericName:      "rosuvastatin calcium",
		DrugClass:        "ROSUVASTATIN CALCIUM",
		TherapeuticClass: "HMG-COA REDUCTASE INHIBITORS",
		GCNSeqno:         12345,
		DosageForm:       "TABLET",
		Strength:         strength,
		IsGeneric:        true,
	}
}

func TestSearchCrestorRanksBrandExactThenGenericEquivalent(t *testing.T) {
	candidates := []grouping.Candidate{
		{Doc: crestor("00310075110", "5 MG"), Score: 0.7, Lexical: true},
		{Doc: crestor("00310075139", "10 MG"), Score: 0.8, Lexical: true},
		{Doc: rosuvastatin("00999000001", "10 MG"), Score: 0.6},
	}

	families := grouping.Group(candidates, "crestor", 20)
	require.Len(t, families, 2)

	assert.Equal(t, "CRESTOR", families[0].DisplayName)
	assert.Equal(t, grouping.Exact, families[0].MatchType)
	assert.Equal(t, 1.0, families[0].BestScore)
	require.Len(t, families[0].Variants, 2)

	assert.Equal(t, "ROSUVASTATIN CALCIUM", families[1].DisplayName)
	assert.Equal(t, grouping.TherapeuticEquivalent, families[1].MatchType)
	assert.Contains(t, families[1].MatchReason, "CRESTOR")
}

func TestSearchRosuvastatinRanksGenericExactThenBrandEquivalent(t *testing.T) {
	candidates := []grouping.Candidate{
		{Doc: rosuvastatin("00999000001", "10 MG"), Score: 0.9, Lexical: true},
		{Doc: crestor("00310075139", "10 MG"), Score: 0.5},
	}

	families := grouping.Group(candidates, "rosuvastatin", 20)
	require.Len(t, families, 2)
	assert.Equal(t, grouping.Exact, families[0].MatchType)
	assert.Equal(t, "ROSUVASTATIN CALCIUM", families[0].DisplayName)
	assert.Equal(t, 1.0, families[0].BestScore)
	assert.Equal(t, grouping.TherapeuticEquivalent, families[1].MatchType)
}

func TestGroupingIsDeterministicAcrossRuns(t *testing.T) {
	candidates := []grouping.Candidate{
		{Doc: crestor("00310075139", "10 MG"), Score: 0.8, Lexical: true},
		{Doc: crestor("00310075110", "5 MG"), Score: 0.75, Lexical: true},
		{Doc: rosuvastatin("00999000001", "10 MG"), Score: 0.6},
	}

	first := grouping.Group(candidates, "crestor", 20)
	second := grouping.Group(candidates, "crestor", 20)
	assert.Equal(t, first, second)
}

func TestSameBrandNameAlwaysGroupsTogetherRegardlessOfStrength(t *testing.T) {
	a := crestor("00310075139", "10 MG")
	b := crestor("00310075110", "5 MG")
	assert.Equal(t, grouping.GroupKey(a), grouping.GroupKey(b))
}

func TestSameDrugClassAlwaysGroupsTogetherRegardlessOfGCN(t *testing.T) {
	a := rosuvastatin("00999000001", "10 MG")
	b := rosuvastatin("00999000002", "20 MG")
	b.GCNSeqno = 99999
	assert.Equal(t, grouping.GroupKey(a), grouping.GroupKey(b))
}

func TestAlternativeFamiliesOrderedByBestScoreDescending(t *testing.T) {
	atorvastatin := &document.Drug{
		NDC: "00001", DrugName: "ATORVASTATIN 10 MG TABLET", GenericName: "atorvastatin calcium",
		DrugClass: "ATORVASTATIN CALCIUM", TherapeuticClass: "HMG-COA REDUCTASE INHIBITORS",
		DosageForm: "TABLET", Strength: "10 MG", IsGeneric: true, GCNSeqno: 1,
	}
	simvastatin := &document.Drug{
		NDC: "00002", DrugName: "SIMVASTATIN 20 MG TABLET", GenericName: "simvastatin",
		DrugClass: "SIMVASTATIN", TherapeuticClass: "HMG-COA REDUCTASE INHIBITORS",
		DosageForm: "TABLET", Strength: "20 MG", IsGeneric: true, GCNSeqno: 2,
	}

	families := grouping.Group([]grouping.Candidate{
		{Doc: simvastatin, Score: 0.4},
		{Doc: atorvastatin, Score: 0.8},
	}, "statin for cholesterol", 20)

	require.Len(t, families, 2)
	assert.Equal(t, grouping.Alternative, families[0].MatchType)
	assert.Equal(t, grouping.Alternative, families[1].MatchType)
	assert.Equal(t, "ATORVASTATIN CALCIUM", families[0].DisplayName)
	assert.True(t, families[0].BestScore >= families[1].BestScore)
}
