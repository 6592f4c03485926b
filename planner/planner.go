// Package planner implements component D from spec.md §4.D: it rewrites a
// raw user query into a normalized search intent using the LLM client (B)
// behind the semantic cache (C). A parse failure never fails the search —
// it falls back to the null plan described in spec.md §4.D step 3.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/cache"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/chat"
	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/errs"
)

const (
	minQueryLen = 1
	maxQueryLen = 256
)

// dosageFormVocab and deaScheduleVocab are the enumerated tag vocabularies
// from spec.md §3. The planner "MUST NOT invent filter values outside the
// enumerated tag vocabularies" (spec.md §4.D): any filter value the LLM
// emits outside these sets is dropped rather than passed through.
var dosageFormVocab = map[string]bool{
	"TABLET": true, "CAPSULE": true, "INJECTION": true, "SOLUTION": true,
	"SUSPENSION": true, "CREAM": true, "OINTMENT": true, "PATCH": true,
	"INHALER": true, "SUPPOSITORY": true, "POWDER": true, "SPRAY": true,
}

var deaScheduleVocab = map[string]bool{
	"": true, "1": true, "2": true, "3": true, "4": true, "5": true,
}

// Filters mirrors the planner-result filter shape from spec.md §3.
type Filters struct {
	DrugClass        string `json:"drug_class,omitempty"`
	TherapeuticClass string `json:"therapeutic_class,omitempty"`
	Indication       string `json:"indication,omitempty"`
	DosageForm       string `json:"dosage_form,omitempty"`
	IsGeneric        *bool  `json:"is_generic,omitempty"`
	DEASchedule      string `json:"dea_schedule,omitempty"`
}

// Result is the planner output shape from spec.md §3.
type Result struct {
	ExpandedText string   `json:"expanded_text"`
	Filters      Filters  `json:"filters"`
	Corrections  []string `json:"corrections"`
	Confidence   float64  `json:"confidence"`
	FromCache    bool     `json:"-"`
}

// Metrics is the per-call envelope contributed by the planner stage.
type Metrics struct {
	LatencyMS    int64
	InputTokens  int64
	OutputTokens int64
	FromCache    bool
}

// Planner runs the query-understanding stage (spec.md §4.D).
type Planner struct {
	llm   *chat.Client
	cache cache.Cache
}

// New builds a Planner over llm and cache.
func New(llm *chat.Client, c cache.Cache) *Planner {
	return &Planner{llm: llm, cache: c}
}

// Plan runs the four-step algorithm from spec.md §4.D.
func (p *Planner) Plan(ctx context.Context, rawQuery string) (*Result, Metrics, error) {
	query := strings.TrimSpace(rawQuery)
	if len(query) < minQueryLen || len(query) > maxQueryLen {
		return nil, Metrics{}, errs.New(errs.InvalidInput, "planner.Plan",
			fmt.Errorf("query length must be in [%d,%d], got %d", minQueryLen, maxQueryLen, len(query)))
	}

	if p.cache != nil {
		if stored, hit := p.cache.Lookup(ctx, query); hit {
			var result Result
			if err := json.Unmarshal(stored, &result); err == nil {
				result.FromCache = true
				sanitizeFilters(&result.Filters)
				return &result, Metrics{FromCache: true}, nil
			}
			// A corrupt cache entry degrades to a miss, not an error.
		}
	}

	start := time.Now()
	chatResult, err := p.llm.Converse(ctx, []chat.Message{{Role: chat.RoleUser, Content: query}}, systemPrompt, 800, 0)
	if err != nil {
		// Planner failure ⇒ fall back to null plan (spec.md §4.H).
		return nullPlan(query), Metrics{LatencyMS: time.Since(start).Milliseconds()}, nil
	}

	metrics := Metrics{
		LatencyMS:    time.Since(start).Milliseconds(),
		InputTokens:  chatResult.Usage.InputTokens,
		OutputTokens: chatResult.Usage.OutputTokens,
	}

	result, ok := parseResult(chatResult.Content)
	if !ok {
		return nullPlan(query), metrics, nil
	}
	sanitizeFilters(&result.Filters)

	if p.cache != nil {
		if payload, err := json.Marshal(result); err == nil {
			_ = p.cache.Store(ctx, query, payload)
		}
	}

	return result, metrics, nil
}

// nullPlan builds the fallback result from spec.md §4.D step 3.
func nullPlan(rawQuery string) *Result {
	return &Result{ExpandedText: rawQuery, Confidence: 0.0}
}

// parseResult parses the LLM's raw content as a Result. The LLM is
// instructed (systemPrompt) to emit exactly one JSON object.
func parseResult(content string) (*Result, bool) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var result Result
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, false
	}
	if result.ExpandedText == "" {
		return nil, false
	}
	return &result, true
}

// sanitizeFilters drops any filter value outside the enumerated vocabularies
// (spec.md §4.D policy choices). dosage_form may be pipe-separated and
// multi-valued (spec.md §4.F step 1: "explicitly multi-valued
// (pipe-separated)"); each segment is validated independently and invalid
// segments are dropped rather than failing the whole filter.
func sanitizeFilters(f *Filters) {
	f.DosageForm = sanitizeVocabList(f.DosageForm, dosageFormVocab)
	if !deaScheduleVocab[f.DEASchedule] {
		f.DEASchedule = ""
	}
}

// sanitizeVocabList validates a possibly pipe-separated list of values
// against vocab, uppercasing survivors and dropping anything unrecognized.
func sanitizeVocabList(raw string, vocab map[string]bool) string {
	if raw == "" {
		return ""
	}
	segments := strings.Split(raw, "|")
	kept := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.ToUpper(strings.TrimSpace(seg))
		if vocab[seg] {
			kept = append(kept, seg)
		}
	}
	return strings.Join(kept, "|")
}

// systemPrompt instructs the LLM to expand abbreviations/brand-generic
// names, classify dosage form/route, infer therapeutic class from
// indication phrases, correct misspellings, and emit strictly-typed JSON
// (spec.md §4.D step 2).
const systemPrompt = `You are a clinical drug-search query planner. Given a
clinician's free-text drug search query, respond with exactly one JSON
object and nothing else, matching this shape:

{
  "expanded_text": string,
  "filters": {
    "drug_class": string (optional),
    "therapeutic_class": string (optional),
    "indication": string (optional),
    "dosage_form": string (optional, one of TABLET/CAPSULE/INJECTION/SOLUTION/SUSPENSION/CREAM/OINTMENT/PATCH/INHALER/SUPPOSITORY/POWDER/SPRAY),
    "is_generic": boolean (optional),
    "dea_schedule": string (optional, one of "","1","2","3","4","5")
  },
  "corrections": [string],
  "confidence": number between 0 and 1
}

Expand abbreviations and brand/generic synonyms into expanded_text. Infer
therapeutic_class from indication phrases (e.g. "cholesterol" implies an
antihyperlipidemic class). Correct likely misspellings and list each
correction as "misspelling -> correction" in corrections. Never invent
filter values outside the enumerated vocabularies above; omit the field
instead.`
