// Package grouping implements component G from spec.md §4.G: it folds
// per-NDC candidates into brand/generic families and labels each family
// Exact, Therapeutic_Equivalent, or Alternative.
package grouping

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/document"
)

// MatchType is one of the three family labels from spec.md §3.
type MatchType string

const (
	Exact                 MatchType = "Exact"
	TherapeuticEquivalent MatchType = "Therapeutic_Equivalent"
	Alternative           MatchType = "Alternative"
)

// Candidate is a single scored NDC hit, the input unit to Group. It mirrors
// retrieval.Candidate's shape without importing the retrieval package, so
// grouping stays usable standalone (the detail/alternatives path reuses
// Variant without ever running the retrieval engine).
type Candidate struct {
	Doc     *document.Drug
	Score   float64
	Lexical bool
}

// Variant is one NDC within a Family (spec.md §3).
type Variant struct {
	NDC          string
	Label        string
	Strength     string
	Manufacturer string
	DosageForm   string
	IsGeneric    bool
	Score        float64
	DEASchedule  document.DeaSchedule
}

// Family is the grouping output shape from spec.md §3.
type Family struct {
	GroupKey      string
	DisplayName   string
	MatchType     MatchType
	MatchReason   string
	Representative Variant
	Variants      []Variant
	BestScore     float64

	gcnSeqnos        map[int64]bool
	therapeuticClass string
}

// GroupKey computes the grouping key for a single candidate (spec.md §4.G):
// brand:{BRAND_NAME} for non-generic branded rows, generic:{DRUG_CLASS} for
// generics, falling back to generic:{GENERIC_NAME} or the bare NDC.
func GroupKey(d *document.Drug) string {
	if !d.IsGeneric && d.BrandName != "" {
		return "brand:" + strings.ToUpper(d.BrandName)
	}
	if d.DrugClass != "" {
		return "generic:" + strings.ToUpper(d.DrugClass)
	}
	if d.GenericName != "" {
		return "generic:" + strings.ToUpper(d.GenericName)
	}
	return d.NDC
}

// Group folds candidates into families and orders them per spec.md §4.G:
// Exact first, then Therapeutic_Equivalent, then Alternative; within each
// bucket by BestScore descending. rawQuery is the original user text, used
// for exact-match and match-reason detection; maxResults truncates the
// final family list (spec.md §4.F step 3 / §8 property 5).
func Group(candidates []Candidate, rawQuery string, maxResults int) []Family {
	groups := map[string]*Family{}
	order := []string{}

	normalizedQuery := normalize(rawQuery)

	for _, c := range candidates {
		key := GroupKey(c.Doc)
		f, ok := groups[key]
		if !ok {
			f = &Family{
				GroupKey:         key,
				gcnSeqnos:        map[int64]bool{},
				therapeuticClass: c.Doc.TherapeuticClass,
			}
			groups[key] = f
			order = append(order, key)
		}

		score := c.Score
		if normalize(c.Doc.DrugName) == normalizedQuery || (c.Doc.BrandName != "" && normalize(c.Doc.BrandName) == normalizedQuery) {
			score = 1.0
		}

		f.Variants = append(f.Variants, Variant{
			NDC:          c.Doc.NDC,
			Label:        c.Doc.DrugName,
			Strength:     c.Doc.Strength,
			Manufacturer: c.Doc.ManufacturerName,
			DosageForm:   c.Doc.DosageForm,
			IsGeneric:    c.Doc.IsGeneric,
			Score:        score,
			DEASchedule:  c.Doc.DEASchedule,
		})
		if c.Doc.GCNSeqno > 0 {
			f.gcnSeqnos[c.Doc.GCNSeqno] = true
		}
		if c.Lexical {
			f.MatchReason = "lexical"
		}
		if strings.Contains(normalize(c.Doc.DrugName), normalizedQuery) || strings.Contains(normalize(c.Doc.BrandName), normalizedQuery) {
			f.MatchReason = "name_contains"
		}
	}

	families := make([]*Family, 0, len(order))
	for _, key := range order {
		families = append(families, groups[key])
	}

	// DisplayName: brand name for brand groups, cleaned class/generic name
	// otherwise (spec.md §4.G).
	for i, key := range order {
		f := families[i]
		sortVariants(f.Variants)
		f.Representative = f.Variants[0]
		f.BestScore = f.Variants[0].Score
		if strings.HasPrefix(key, "brand:") {
			f.DisplayName = strings.TrimPrefix(key, "brand:")
		} else {
			f.DisplayName = strings.TrimPrefix(key, "generic:")
		}
	}

	classify(families, rawQuery)

	sort.SliceStable(families, func(i, j int) bool {
		bi, bj := bucket(families[i].MatchType), bucket(families[j].MatchType)
		if bi != bj {
			return bi < bj
		}
		return families[i].BestScore > families[j].BestScore
	})

	if maxResults > 0 && len(families) > maxResults {
		families = families[:maxResults]
	}

	out := make([]Family, len(families))
	for i, f := range families {
		out[i] = *f
	}
	return out
}

// classify assigns MatchType and MatchReason to every family (spec.md
// §4.G). Exact families are decided first (name containment or a lexical
// hit); Therapeutic_Equivalent families are those sharing a GCN with an
// Exact family; everything else is Alternative.
func classify(families []*Family, rawQuery string) {
	normalizedQuery := normalize(rawQuery)

	exactGCNs := map[int64]bool{}
	var exactDisplay string

	for _, f := range families {
		isExact := f.MatchReason == "lexical" ||
			strings.Contains(normalize(f.Representative.Label), normalizedQuery) ||
			(f.Representative.Label != "" && normalize(f.DisplayName) == normalizedQuery)
		if isExact {
			f.MatchType = Exact
			f.MatchReason = fmt.Sprintf("Name contains '%s'", rawQuery)
			// spec.md §8 property 5: every Exact family carries best_score=1.0,
			// not just the whitespace-collapsed-equality case §4.F step 6
			// forces at fusion time — containment-Exact (classified here, after
			// fusion) must be reconciled to the same score.
			f.BestScore = 1.0
			for gcn := range f.gcnSeqnos {
				exactGCNs[gcn] = true
			}
			if exactDisplay == "" {
				exactDisplay = f.DisplayName
			}
		}
	}

	for _, f := range families {
		if f.MatchType == Exact {
			continue
		}
		sharesGCN := false
		for gcn := range f.gcnSeqnos {
			if exactGCNs[gcn] {
				sharesGCN = true
				break
			}
		}
		if sharesGCN {
			f.MatchType = TherapeuticEquivalent
			f.MatchReason = fmt.Sprintf("Same therapeutic class as %s", exactDisplay)
			continue
		}
		f.MatchType = Alternative
		if f.therapeuticClass != "" {
			f.MatchReason = fmt.Sprintf("Same therapeutic class (%s)", f.therapeuticClass)
		} else {
			f.MatchReason = fmt.Sprintf("Semantic match to '%s'", rawQuery)
		}
	}
}

func bucket(m MatchType) int {
	switch m {
	case Exact:
		return 0
	case TherapeuticEquivalent:
		return 1
	default:
		return 2
	}
}

// sortVariants orders variants within a family by (descending score,
// ascending strength numeric, ascending ndc) — spec.md §4.G.
func sortVariants(variants []Variant) {
	sort.SliceStable(variants, func(i, j int) bool {
		if variants[i].Score != variants[j].Score {
			return variants[i].Score > variants[j].Score
		}
		si, sj := strengthNumeric(variants[i].Strength), strengthNumeric(variants[j].Strength)
		if si != sj {
			return si < sj
		}
		return variants[i].NDC < variants[j].NDC
	})
}

// strengthNumeric extracts the leading numeric portion of a free-text
// strength like "10 MG", for ordering purposes. Non-numeric strengths sort
// last.
func strengthNumeric(strength string) float64 {
	fields := strings.Fields(strength)
	if len(fields) == 0 {
		return 1 << 30
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 1 << 30
	}
	return v
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
