// Package aicore provides the generic call-handler and middleware shapes
// shared by the embedding and chat clients. Both clients are suspension
// boundaries (spec.md §5): a Handler is a single blocking call to a
// provider, and a Middleware wraps a Handler to add retry, rate limiting,
// or logging without touching the provider call itself.
package aicore

import "context"

// Handler executes a single request against a provider and returns its
// complete response.
type Handler[Req any, Resp any] interface {
	Call(ctx context.Context, req Req) (Resp, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc[Req any, Resp any] func(ctx context.Context, req Req) (Resp, error)

func (f HandlerFunc[Req, Resp]) Call(ctx context.Context, req Req) (Resp, error) {
	return f(ctx, req)
}

// Middleware wraps a Handler with cross-cutting behavior (retry, rate
// limiting, logging) without changing the request/response shape.
type Middleware[Req any, Resp any] func(Handler[Req, Resp]) Handler[Req, Resp]

// Chain applies middlewares to endpoint in registration order: the first
// middleware given is the outermost wrapper, so it runs first on every call
// and the last one given runs closest to the endpoint.
func Chain[Req any, Resp any](endpoint Handler[Req, Resp], middlewares ...Middleware[Req, Resp]) Handler[Req, Resp] {
	h := endpoint
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
