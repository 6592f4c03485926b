// Package errs defines the request-boundary error taxonomy shared by every
// component in the search pipeline (planner, embedding, index, retrieval).
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the purposes of retry policy and the
// user-visible response code at the request boundary.
type Kind string

const (
	// InvalidInput marks a malformed request: empty query, bad NDC, out of
	// range max_results.
	InvalidInput Kind = "invalid_input"
	// NotFound marks a lookup against an unknown key (e.g. unknown NDC).
	NotFound Kind = "not_found"
	// Throttled marks upstream quota exhaustion after retries.
	Throttled Kind = "throttled"
	// UpstreamUnavailable marks a provider network/parsing failure after retries.
	UpstreamUnavailable Kind = "upstream_unavailable"
	// ServiceUnavailable marks the index store being unreachable.
	ServiceUnavailable Kind = "service_unavailable"
	// Internal marks an unexpected invariant violation.
	Internal Kind = "internal"
)

// Error is a typed error carrying a Kind and an underlying cause.
type Error struct {
	Kind Kind
	Op   string
	err  error
}

func (e *Error) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

// New builds an *Error for op, wrapping cause. cause may be nil.
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, err: cause}
}

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, defaulting to Internal when a non-nil err
// is not a classified *Error. A nil err yields the empty Kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if err == nil {
		return ""
	}
	return Internal
}
