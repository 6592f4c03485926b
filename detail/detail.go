// Package detail implements component H from spec.md §4.H: single-NDC
// detail fetch and same-therapeutic-class alternatives lookup. Both
// operations bypass the planner and retrieval stages and go directly to
// the index.
package detail

import (
	"context"
	"fmt"
	"sort"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/document"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/errs"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/grouping"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/index"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/index/filter"
)

// maxAlternativesPerList bounds the result list of each of the two
// alternatives queries (spec.md §4.H: "Limit each list"). GenericOptions and
// BrandOptions each collect entries from both queries, so either may hold up
// to twice this many.
const maxAlternativesPerList = 20

// Alternatives is the response shape from spec.md §6's alternatives
// endpoint. Entries are per-NDC (spec.md §8 property 9 checks each entry's
// is_generic flag and NDC identity directly), reusing grouping.Variant's
// shape rather than folding results into full Family groups, since folding
// would hide the per-NDC identity the property test inspects.
type Alternatives struct {
	GenericOptions []grouping.Variant
	BrandOptions   []grouping.Variant
	TotalCount     int
}

// Lookup implements component H over a single index.Store/collection.
type Lookup struct {
	store      index.Store
	collection string
}

// New builds a Lookup over the drug collection in store.
func New(store index.Store, collection string) *Lookup {
	return &Lookup{store: store, collection: collection}
}

// GetDetail fetches the document for ndc (spec.md §4.H).
func (l *Lookup) GetDetail(ctx context.Context, ndc string) (*document.Drug, error) {
	if ndc == "" {
		return nil, errs.New(errs.InvalidInput, "detail.GetDetail", fmt.Errorf("ndc must not be empty"))
	}

	point, err := l.store.Get(ctx, l.collection, "drug:"+ndc)
	if err != nil {
		return nil, err
	}
	if point == nil {
		return nil, errs.New(errs.NotFound, "detail.GetDetail", fmt.Errorf("no drug for ndc %s", ndc))
	}
	return document.FromMetadata(point.Metadata, point.Embedding), nil
}

// GetAlternatives implements spec.md §4.H's two-query algorithm: NDCs
// sharing the input's gcn_seqno are therapeutic-equivalent; NDCs sharing
// only its therapeutic_class are alternatives. Both sets are split into
// generic/brand entry lists (spec.md §8 property 9).
func (l *Lookup) GetAlternatives(ctx context.Context, ndc string) (*Alternatives, error) {
	self, err := l.GetDetail(ctx, ndc)
	if err != nil {
		return nil, err
	}

	alts := &Alternatives{}

	if self.GCNSeqno > 0 {
		gcnFilter := filter.New().
			Eq("gcn_seqno", self.GCNSeqno).
			NotEq("ndc", self.NDC).
			Build()
		entries, err := l.queryEntries(ctx, gcnFilter)
		if err != nil {
			return nil, err
		}
		addEntries(alts, entries)
	}

	if self.TherapeuticClass != "" {
		// NotEq("ndc", ...) guards self exclusion directly: NotEq("gcn_seqno",
		// 0) is dropped by filter.Builder for a gcn-less input (spec.md §8
		// property 9 — "no entry equals X" — must still hold for those rows).
		classFilter := filter.New().
			Eq("therapeutic_class", self.TherapeuticClass).
			NotEq("gcn_seqno", self.GCNSeqno).
			NotEq("ndc", self.NDC).
			Build()
		entries, err := l.queryEntries(ctx, classFilter)
		if err != nil {
			return nil, err
		}
		addEntries(alts, entries)
	}

	alts.TotalCount = len(alts.GenericOptions) + len(alts.BrandOptions)
	return alts, nil
}

func (l *Lookup) queryEntries(ctx context.Context, f *filter.Expr) ([]grouping.Variant, error) {
	points, err := l.store.Query(ctx, l.collection, &index.QueryRequest{Filter: f, TopK: maxAlternativesPerList})
	if err != nil {
		return nil, errs.New(errs.ServiceUnavailable, "detail.GetAlternatives", err)
	}

	entries := make([]grouping.Variant, 0, len(points))
	for _, p := range points {
		d := document.FromMetadata(p.Metadata, p.Embedding)
		entries = append(entries, grouping.Variant{
			NDC:          d.NDC,
			Label:        d.DrugName,
			Strength:     d.Strength,
			Manufacturer: d.ManufacturerName,
			DosageForm:   d.DosageForm,
			IsGeneric:    d.IsGeneric,
			DEASchedule:  d.DEASchedule,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].NDC < entries[j].NDC })
	if len(entries) > maxAlternativesPerList {
		entries = entries[:maxAlternativesPerList]
	}
	return entries, nil
}

func addEntries(alts *Alternatives, entries []grouping.Variant) {
	for _, e := range entries {
		if e.IsGeneric {
			alts.GenericOptions = append(alts.GenericOptions, e)
		} else {
			alts.BrandOptions = append(alts.BrandOptions, e)
		}
	}
}
