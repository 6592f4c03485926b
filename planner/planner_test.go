package planner_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/chat"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/planner"
)

type fakeChatModel struct {
	content string
	calls   int
	err     error
}

func (f *fakeChatModel) ModelID() string { return "fake" }

func (f *fakeChatModel) Call(_ context.Context, _ *chat.Request) (*chat.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &chat.Result{Content: f.content}, nil
}

type fakeCache struct {
	entries map[string]json.RawMessage
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string]json.RawMessage{}} }

func (c *fakeCache) Lookup(_ context.Context, queryText string) (json.RawMessage, bool) {
	v, ok := c.entries[queryText]
	return v, ok
}

func (c *fakeCache) Store(_ context.Context, queryText string, output json.RawMessage) error {
	c.entries[queryText] = output
	return nil
}

func TestPlanRejectsEmptyQuery(t *testing.T) {
	p := planner.New(chat.NewClient(&fakeChatModel{}, nil), nil)
	_, _, err := p.Plan(context.Background(), "   ")
	assert.Error(t, err)
}

func TestPlanParsesWellFormedLLMResponse(t *testing.T) {
	model := &fakeChatModel{content: `{"expanded_text":"rosuvastatin calcium","filters":{"therapeutic_class":"HMG-COA REDUCTASE INHIBITORS"},"corrections":[],"confidence":0.9}`}
	p := planner.New(chat.NewClient(model, nil), newFakeCache())

	result, _, err := p.Plan(context.Background(), "crestor")
	require.NoError(t, err)
	assert.Equal(t, "rosuvastatin calcium", result.ExpandedText)
	assert.Equal(t, "HMG-COA REDUCTASE INHIBITORS", result.Filters.TherapeuticClass)
	assert.False(t, result.FromCache)
}

func TestPlanFallsBackToNullPlanOnParseFailure(t *testing.T) {
	model := &fakeChatModel{content: "not json"}
	p := planner.New(chat.NewClient(model, nil), newFakeCache())

	result, _, err := p.Plan(context.Background(), "crestor")
	require.NoError(t, err)
	assert.Equal(t, "crestor", result.ExpandedText)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestPlanFallsBackToNullPlanOnLLMFailure(t *testing.T) {
	model := &fakeChatModel{err: assert.AnError}
	p := planner.New(chat.NewClient(model, nil), newFakeCache())

	result, _, err := p.Plan(context.Background(), "crestor")
	require.NoError(t, err)
	assert.Equal(t, "crestor", result.ExpandedText)
}

func TestPlanDropsFilterValuesOutsideVocabulary(t *testing.T) {
	model := &fakeChatModel{content: `{"expanded_text":"x","filters":{"dosage_form":"GUMMY","dea_schedule":"9"},"corrections":[],"confidence":0.5}`}
	p := planner.New(chat.NewClient(model, nil), newFakeCache())

	result, _, err := p.Plan(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "", result.Filters.DosageForm)
	assert.Equal(t, "", result.Filters.DEASchedule)
}

func TestPlanKeepsValidSegmentsOfPipeSeparatedDosageForm(t *testing.T) {
	model := &fakeChatModel{content: `{"expanded_text":"x","filters":{"dosage_form":"tablet|gummy|capsule"},"corrections":[],"confidence":0.5}`}
	p := planner.New(chat.NewClient(model, nil), newFakeCache())

	result, _, err := p.Plan(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "TABLET|CAPSULE", result.Filters.DosageForm)
}

func TestPlanUsesCacheAndCallsLLMAtMostOnce(t *testing.T) {
	model := &fakeChatModel{content: `{"expanded_text":"rosuvastatin","filters":{},"corrections":[],"confidence":0.9}`}
	c := newFakeCache()
	p := planner.New(chat.NewClient(model, nil), c)

	first, _, err := p.Plan(context.Background(), "crestor")
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, _, err := p.Plan(context.Background(), "crestor")
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.ExpandedText, second.ExpandedText)
	assert.Equal(t, 1, model.calls)
}
