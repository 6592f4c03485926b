package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/aicore"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/errs"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/ratelimit"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/retry"
)

// maxThrottleRetries bounds the LLM client's jittered throttle backoff
// (spec.md §4.B: "Throttled ... retry with jittered backoff, ≤3").
const maxThrottleRetries = 3

// Client is the high-level entry point for component B.
type Client struct {
	handler aicore.Handler[*Request, *Result]
	modelID string
}

// NewClient builds a Client over model, applying the provider RPS limiter
// and the bounded throttle-retry policy.
func NewClient(model Model, limiter *ratelimit.Limiter) *Client {
	endpoint := aicore.Handler[*Request, *Result](modelHandler{model: model})

	retryMiddleware := func(h aicore.Handler[*Request, *Result]) aicore.Handler[*Request, *Result] {
		return aicore.HandlerFunc[*Request, *Result](func(ctx context.Context, req *Request) (*Result, error) {
			var result *Result
			err := retry.Policy(ctx, maxThrottleRetries, retry.ThrottleRetryable, func(ctx context.Context) error {
				r, callErr := h.Call(ctx, req)
				if callErr != nil {
					return callErr
				}
				result = r
				return nil
			})
			if err != nil {
				return nil, err
			}
			return result, nil
		})
	}

	rateLimitMiddleware := func(h aicore.Handler[*Request, *Result]) aicore.Handler[*Request, *Result] {
		return aicore.HandlerFunc[*Request, *Result](func(ctx context.Context, req *Request) (*Result, error) {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return nil, err
				}
			}
			return h.Call(ctx, req)
		})
	}

	return &Client{
		handler: aicore.Chain(endpoint, rateLimitMiddleware, retryMiddleware),
		modelID: model.ModelID(),
	}
}

// ModelID returns the configured model identity.
func (c *Client) ModelID() string {
	return c.modelID
}

// Converse runs the single supported conversation call shape from spec.md
// §4.B.
func (c *Client) Converse(ctx context.Context, messages []Message, system string, maxTokens int64, temperature float64) (*Result, error) {
	if len(messages) == 0 {
		return nil, errs.New(errs.InvalidInput, "chat.Converse", fmt.Errorf("at least one message is required"))
	}

	req := &Request{
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
	if system != "" {
		req.Messages = append([]Message{{Role: RoleSystem, Content: system}}, messages...)
	}

	start := time.Now()
	result, err := c.handler.Call(ctx, req)
	if err != nil {
		return nil, err
	}
	result.Metrics.TotalLatencyMS = time.Since(start).Milliseconds()
	return result, nil
}
