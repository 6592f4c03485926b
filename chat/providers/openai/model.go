// Package openai provides the concrete chat.Model backed by the OpenAI
// chat-completions API, grounded on the teacher's
// ai/extensions/models/openai/chat_model.go.
package openai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/chat"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/errs"
)

var _ chat.Model = (*Model)(nil)

// Model wraps an *openai.Client configured for chat completions. It prefers
// the provider's prompt-caching support by reusing a single long-lived
// client (spec.md §4.B: "prefer a provider API that supports
// prompt-result caching") rather than constructing a fresh client per call.
type Model struct {
	client  *openai.Client
	modelID string
}

func New(apiKey, modelID string, opts ...option.RequestOption) *Model {
	options := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(options...)
	return &Model{client: &client, modelID: modelID}
}

func (m *Model) ModelID() string {
	return m.modelID
}

func (m *Model) Call(ctx context.Context, req *chat.Request) (*chat.Result, error) {
	start := time.Now()

	params := openai.ChatCompletionNewParams{
		Model:       m.modelID,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyError("chat.openai.Call", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errs.New(errs.UpstreamUnavailable, "chat.openai.Call", errors.New("empty chat completion response"))
	}

	modelLatency := time.Since(start).Milliseconds()

	return &chat.Result{
		Content: resp.Choices[0].Message.Content,
		Usage: chat.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
		Metrics: chat.Metrics{
			ModelLatencyMS: modelLatency,
		},
	}, nil
}

func toOpenAIMessages(messages []chat.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// classifyError mirrors embedding/providers/openai's classification: 429 is
// Throttled, other 4xx is InvalidInput, everything else (network, 5xx) is
// UpstreamUnavailable (spec.md §4.B/§7).
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
