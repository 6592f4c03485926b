package chat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/chat"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/errs"
)

type fakeModel struct {
	id        string
	throttled int
	calls     int
	lastReq   *chat.Request
}

func (f *fakeModel) ModelID() string { return f.id }

func (f *fakeModel) Call(_ context.Context, req *chat.Request) (*chat.Result, error) {
	f.calls++
	f.lastReq = req
	if f.calls <= f.throttled {
		return nil, errs.New(errs.Throttled, "fake", nil)
	}
	return &chat.Result{Content: "ok"}, nil
}

func TestConverseRejectsNoMessages(t *testing.T) {
	client := chat.NewClient(&fakeModel{id: "m"}, nil)
	_, err := client.Converse(context.Background(), nil, "", 0, 0)
	assert.True(t, errs.Is(err, errs.InvalidInput))
}

func TestConversePrependsSystemMessage(t *testing.T) {
	model := &fakeModel{id: "m"}
	client := chat.NewClient(model, nil)

	_, err := client.Converse(context.Background(), []chat.Message{{Role: chat.RoleUser, Content: "crestor"}}, "be terse", 100, 0)
	require.NoError(t, err)
	require.Len(t, model.lastReq.Messages, 2)
	assert.Equal(t, chat.RoleSystem, model.lastReq.Messages[0].Role)
}

func TestConverseRetriesThrottledUpToThreeTimes(t *testing.T) {
	model := &fakeModel{id: "m", throttled: 3}
	client := chat.NewClient(model, nil)

	result, err := client.Converse(context.Background(), []chat.Message{{Role: chat.RoleUser, Content: "q"}}, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Content)
	assert.Equal(t, 4, model.calls)
}

func TestConverseSurfacesThrottledAfterExhaustingRetries(t *testing.T) {
	model := &fakeModel{id: "m", throttled: 10}
	client := chat.NewClient(model, nil)

	_, err := client.Converse(context.Background(), []chat.Message{{Role: chat.RoleUser, Content: "q"}}, "", 0, 0)
	assert.True(t, errs.Is(err, errs.Throttled))
}
