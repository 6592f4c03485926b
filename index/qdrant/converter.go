package qdrant

import (
	"fmt"

	nativeQdrant "github.com/qdrant/go-client/qdrant"
	"github.com/spf13/cast"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/index/filter"
)

// toFilter translates a filter.Expr into Qdrant's native Filter, mirroring
// the teacher's AST-to-native Converter (converter.go) but over filter.Expr's
// flat Kind enum instead of a full expression-tree visitor.
func toFilter(expr *filter.Expr) (*nativeQdrant.Filter, error) {
	if expr == nil {
		return nil, nil
	}
	switch expr.Kind {
	case filter.KindAnd:
		must := make([]*nativeQdrant.Condition, 0, len(expr.Children))
		for _, c := range expr.Children {
			cond, err := toCondition(c)
			if err != nil {
				return nil, err
			}
			must = append(must, cond)
		}
		return &nativeQdrant.Filter{Must: must}, nil
	case filter.KindOr:
		should := make([]*nativeQdrant.Condition, 0, len(expr.Children))
		for _, c := range expr.Children {
			cond, err := toCondition(c)
			if err != nil {
				return nil, err
			}
			should = append(should, cond)
		}
		return &nativeQdrant.Filter{Should: should}, nil
	default:
		cond, err := toCondition(expr)
		if err != nil {
			return nil, err
		}
		return &nativeQdrant.Filter{Must: []*nativeQdrant.Condition{cond}}, nil
	}
}

// toCondition converts a single filter.Expr node into a Qdrant Condition,
// recursing into nested filters for And/Or/TextMatch-over-multiple-fields.
func toCondition(expr *filter.Expr) (*nativeQdrant.Condition, error) {
	switch expr.Kind {
	case filter.KindAnd, filter.KindOr:
		nested, err := toFilter(expr)
		if err != nil {
			return nil, err
		}
		return nativeQdrant.NewFilterAsCondition(nested), nil

	case filter.KindEq:
		return matchCondition(expr.Field, expr.Value)

	case filter.KindNotEq:
		cond, err := matchCondition(expr.Field, expr.Value)
		if err != nil {
			return nil, err
		}
		return nativeQdrant.NewFilterAsCondition(&nativeQdrant.Filter{
			MustNot: []*nativeQdrant.Condition{cond},
		}), nil

	case filter.KindRange:
		r := &nativeQdrant.Range{}
		if expr.Min != nil {
			v := cast.ToFloat64(expr.Min)
			r.Gte = &v
		}
		if expr.Max != nil {
			v := cast.ToFloat64(expr.Max)
			r.Lte = &v
		}
		return nativeQdrant.NewRange(expr.Field, r), nil

	case filter.KindTextMatch:
		// MatchText requires a word-tokenized text field index on each field
		// (EnsureCollection creates one for drug_name/brand_name/generic_name).
		// Qdrant has no phonetic tokenizer, so this is a tokenized substring
		// match, not the phonetic match spec.md §4.E describes — see
		// DESIGN.md.
		text, _ := expr.Value.(string)
		conds := make([]*nativeQdrant.Condition, 0, len(expr.Fields))
		for _, field := range expr.Fields {
			conds = append(conds, nativeQdrant.NewMatchText(field, text))
		}
		if len(conds) == 1 {
			return conds[0], nil
		}
		return nativeQdrant.NewFilterAsCondition(&nativeQdrant.Filter{Should: conds}), nil

	default:
		return nil, fmt.Errorf("qdrant: unsupported filter kind %q", expr.Kind)
	}
}

func matchCondition(field string, value any) (*nativeQdrant.Condition, error) {
	switch v := value.(type) {
	case string:
		return nativeQdrant.NewMatchKeyword(field, v), nil
	case bool:
		return nativeQdrant.NewMatchBool(field, v), nil
	case int64:
		return nativeQdrant.NewMatchInt(field, v), nil
	case int:
		return nativeQdrant.NewMatchInt(field, int64(v)), nil
	case float64:
		return nativeQdrant.NewMatchInt(field, cast.ToInt64(v)), nil
	default:
		return nil, fmt.Errorf("qdrant: unsupported match value type %T for field %q", value, field)
	}
}
