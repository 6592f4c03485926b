// Package chat implements component B from spec.md §4.B: a single, stable
// "conversation" call shape over an LLM, pluggable behind a provider-agnostic
// Model interface.
package chat

import (
	"context"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/aicore"
)

// Role identifies who authored a Message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one turn in the conversation sent to the LLM.
type Message struct {
	Role    Role
	Content string
}

// Request is the single supported call shape: messages plus optional
// generation controls (spec.md §4.B).
type Request struct {
	Messages    []Message
	MaxTokens   int64
	Temperature float64
}

// Usage carries the token counts returned by the provider.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Metrics is the per-call latency envelope (spec.md §4.B).
type Metrics struct {
	ModelLatencyMS int64
	TotalLatencyMS int64
}

// Result is the LLM's raw text content plus usage and metrics.
type Result struct {
	Content string
	Usage   Usage
	Metrics Metrics
}

// Model is the narrow provider capability wrapped by Client.
type Model interface {
	aicore.Handler[*Request, *Result]
	// ModelID returns the configured model identity (spec.md §4.B: "select
	// model identity from centralized configuration").
	ModelID() string
}

type modelHandler struct {
	model Model
}

func (h modelHandler) Call(ctx context.Context, req *Request) (*Result, error) {
	return h.model.Call(ctx, req)
}
