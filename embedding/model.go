// Package embedding implements component A from spec.md §4.A: a narrow
// capability surface {embed} that turns text into a fixed-dimension dense
// vector, pluggable behind a provider-agnostic Model interface.
package embedding

import (
	"context"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/aicore"
)

const maxInputChars = 8192

// Request is a single text-to-embed input, truncated to the model's input
// cap by NewRequest.
type Request struct {
	Text string
}

// NewRequest builds a Request from raw text, truncating to the model input
// cap (spec.md §4.A: "truncated to model input cap").
func NewRequest(text string) *Request {
	if len(text) > maxInputChars {
		text = text[:maxInputChars]
	}
	return &Request{Text: text}
}

// Metrics is the per-call latency envelope returned alongside every
// embedding result.
type Metrics struct {
	LatencyMS int64
}

// Result is a single embedding vector plus call metrics.
type Result struct {
	Vector  []float32
	Metrics Metrics
}

// Model is the narrow provider capability: Call turns a Request into a
// Result. Concrete providers (embedding/providers/openai) implement this
// directly against a vendor SDK; Client wraps a Model with retry and rate
// limiting.
type Model interface {
	aicore.Handler[*Request, *Result]
	Dimensions() int
}

// modelHandler adapts a Model to aicore.Handler so middleware can wrap it
// without depending on the Dimensions() method.
type modelHandler struct {
	model Model
}

func (h modelHandler) Call(ctx context.Context, req *Request) (*Result, error) {
	return h.model.Call(ctx, req)
}
