package embedding

import (
	"context"
	"fmt"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/aicore"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/errs"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/ratelimit"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/retry"
)

// maxTransportRetries bounds the embedding client's transport backoff
// (spec.md §4.A: "retries transport-level failures ... max 2 retries").
const maxTransportRetries = 2

// Client is the high-level entry point for component A. It wraps a Model
// with the retry and rate-limit middleware required by spec.md §4.A/§5.
type Client struct {
	handler aicore.Handler[*Request, *Result]
	dim     int
}

// NewClient builds a Client over model, applying the provider RPS limiter
// and the bounded transport-retry policy.
func NewClient(model Model, limiter *ratelimit.Limiter) *Client {
	endpoint := aicore.Handler[*Request, *Result](modelHandler{model: model})

	retryMiddleware := func(h aicore.Handler[*Request, *Result]) aicore.Handler[*Request, *Result] {
		return aicore.HandlerFunc[*Request, *Result](func(ctx context.Context, req *Request) (*Result, error) {
			var result *Result
			err := retry.Policy(ctx, maxTransportRetries, retry.TransportRetryable, func(ctx context.Context) error {
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
		dim:     model.Dimensions(),
	}
}

// Dimensions returns the configured embedding dimension D.
func (c *Client) Dimensions() int {
	return c.dim
}

// Embed runs the embed(text) operation from spec.md §4.A.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, Metrics, error) {
	if text == "" {
		return nil, Metrics{}, errs.New(errs.InvalidInput, "embedding.Embed", fmt.Errorf("text must not be empty"))
	}

	result, err := c.handler.Call(ctx, NewRequest(text))
	if err != nil {
		return nil, Metrics{}, err
	}
	return result.Vector, result.Metrics, nil
}
