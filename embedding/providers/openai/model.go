// Package openai provides the concrete embedding.Model backed by the
// OpenAI embeddings API, grounded on the teacher's
// ai/extensions/models/openai/embedding_model.go.
package openai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/embedding"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/errs"
)

var _ embedding.Model = (*Model)(nil)

// Model wraps an *openai.Client configured for the embeddings endpoint.
type Model struct {
	client     *openai.Client
	modelID    string
	dimensions int
}

// New builds a Model. apiKey is the raw API key value, already resolved by
// the caller (cmd/drugsearchd reads it from OPENAI_API_KEY) — secret
// resolution is the caller's concern.
func New(apiKey, modelID string, dimensions int, opts ...option.RequestOption) *Model {
	options := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(options...)
	return &Model{
		client:     &client,
		modelID:    modelID,
		dimensions: dimensions,
	}
}

func (m *Model) Dimensions() int {
	return m.dimensions
}

func (m *Model) Call(ctx context.Context, req *embedding.Request) (*embedding.Result, error) {
	start := time.Now()

	params := openai.EmbeddingNewParams{
		Model: m.modelID,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{req.Text},
		},
		Dimensions: openai.Int(int64(m.dimensions)),
	}

	resp, err := m.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, classifyError("embedding.openai.Call", err)
	}
	if len(resp.Data) == 0 {
		return nil, errs.New(errs.UpstreamUnavailable, "embedding.openai.Call", errors.New("empty embedding response"))
	}

	vector := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float32(v)
	}

	return &embedding.Result{
		Vector: vector,
		Metrics: embedding.Metrics{
			LatencyMS: time.Since(start).Milliseconds(),
		},
	}, nil
}

// classifyError maps an OpenAI SDK error onto the errs.Kind taxonomy
// (spec.md §4.A/§7): transport/5xx failures are UpstreamUnavailable,
// 429 is Throttled, other 4xx is InvalidInput.
func classifyError(op string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return errs.New(errs.Throttled, op, err)
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			return errs.New(errs.InvalidInput, op, err)
		default:
			return errs.New(errs.UpstreamUnavailable, op, err)
		}
	}
	return errs.New(errs.UpstreamUnavailable, op, err)
}
