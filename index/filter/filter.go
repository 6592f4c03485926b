// Package filter builds the attribute-filter half of the hybrid query from
// spec.md §4.E: exact-tag match, numeric range, and full-text match,
// composed with AND/OR. Expr is intentionally opaque outside this package —
// concrete index providers (index/qdrant) translate it into their native
// filter representation, mirroring the teacher's filter/ast +
// provider-specific converter split (ai/vectorstore/filter,
// ai/providers/vectorstores/qdrant/converter.go), simplified to the
// handful of node kinds this domain's filters actually need.
package filter

// Kind enumerates the filter-expression node types.
type Kind string

const (
	KindAnd       Kind = "and"
	KindOr        Kind = "or"
	KindEq        Kind = "eq"
	KindNotEq     Kind = "not_eq"
	KindRange     Kind = "range"
	KindTextMatch Kind = "text_match"
)

// Expr is a node in a filter expression tree.
type Expr struct {
	Kind Kind

	// Eq / NotEq
	Field string
	Value any

	// Range
	Min, Max any

	// TextMatch: tokenized full-text match of Value against any of Fields.
	Fields []string

	// And / Or
	Children []*Expr
}

// Builder provides a fluent, AND-by-default API for composing filter
// expressions, matching the deferred-build style of
// ai/vectorstore/filter/builder.go.
type Builder struct {
	expr *Expr
}

// New creates an empty Builder. Build() on an empty Builder returns nil,
// meaning "no prefilter" (spec.md §4.F: "Empty filters ⇒ no prefilter").
func New() *Builder {
	return &Builder{}
}

func (b *Builder) and(expr *Expr) *Builder {
	if expr == nil {
		return b
	}
	if b.expr == nil {
		b.expr = expr
		return b
	}
	b.expr = &Expr{Kind: KindAnd, Children: []*Expr{b.expr, expr}}
	return b
}

// Eq adds field == value, ANDed with anything already in the builder.
// Empty values are ignored, matching the planner's "unknown/unset filters
// are simply absent" contract.
func (b *Builder) Eq(field string, value any) *Builder {
	if isZero(value) {
		return b
	}
	return b.and(&Expr{Kind: KindEq, Field: field, Value: value})
}

// In adds field IN (values...) — the "explicit multi-valued (pipe-separated)"
// case from spec.md §4.F, ORed internally then ANDed into the overall
// expression.
func (b *Builder) In(field string, values []any) *Builder {
	if len(values) == 0 {
		return b
	}
	if len(values) == 1 {
		return b.Eq(field, values[0])
	}
	children := make([]*Expr, 0, len(values))
	for _, v := range values {
		children = append(children, &Expr{Kind: KindEq, Field: field, Value: v})
	}
	return b.and(&Expr{Kind: KindOr, Children: children})
}

// NotEq adds field != value, ANDed with the rest.
func (b *Builder) NotEq(field string, value any) *Builder {
	if isZero(value) {
		return b
	}
	return b.and(&Expr{Kind: KindNotEq, Field: field, Value: value})
}

// Range adds min <= field <= max. Either bound may be nil for an open range.
func (b *Builder) Range(field string, min, max any) *Builder {
	if min == nil && max == nil {
		return b
	}
	return b.and(&Expr{Kind: KindRange, Field: field, Min: min, Max: max})
}

// TextMatch adds a word-tokenized full-text match of text against any of
// fields (spec.md §4.E's full-text match clause; see DESIGN.md for why the
// spec's "phonetic tolerance" is not implemented by the index provider).
func (b *Builder) TextMatch(fields []string, text string) *Builder {
	if text == "" || len(fields) == 0 {
		return b
	}
	return b.and(&Expr{Kind: KindTextMatch, Fields: fields, Value: text})
}

// Build returns the composed expression, or nil if nothing was added.
func (b *Builder) Build() *Expr {
	return b.expr
}

func isZero(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return false // explicit false is a meaningful filter value
	case int64:
		return t == 0
	case int:
		return t == 0
	default:
		return false
	}
}
