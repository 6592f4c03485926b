// Package document defines the drug document schema that backs the indexed
// store (spec.md §3). Documents are written only by the external loader;
// every type here is read-only from the online query path's perspective.
package document

import (
	"fmt"
	"strings"
)

// DeaSchedule is one of the enumerated DEA schedule tags.
type DeaSchedule string

const (
	DeaScheduleNone DeaSchedule = ""
	DeaSchedule1    DeaSchedule = "1"
	DeaSchedule2    DeaSchedule = "2"
	DeaSchedule3    DeaSchedule = "3"
	DeaSchedule4    DeaSchedule = "4"
	DeaSchedule5    DeaSchedule = "5"
)

func (d DeaSchedule) valid() bool {
	switch d {
	case DeaScheduleNone, DeaSchedule1, DeaSchedule2, DeaSchedule3, DeaSchedule4, DeaSchedule5:
		return true
	default:
		return false
	}
}

// Drug is the one-per-NDC document described in spec.md §3. Key() returns
// the store key drug:{ndc} under which the document is persisted.
type Drug struct {
	NDC               string
	DrugName          string
	BrandName         string
	GenericName       string
	DrugClass         string
	TherapeuticClass  string
	GCNSeqno          int64
	DosageForm        string
	Strength          string
	Route             string
	ManufacturerName  string
	IsGeneric         bool
	IsActive          bool
	DEASchedule       DeaSchedule
	Embedding         []float32
}

// Key returns the indexed-store key for this document.
func (d *Drug) Key() string {
	return "drug:" + d.NDC
}

// Validate enforces the invariants from spec.md §3. dim is the configured
// embedding dimension D; pass 0 to skip the embedding-length check (used
// when validating a document prior to embedding generation).
func (d *Drug) Validate(dim int) error {
	if d.NDC == "" || len(d.NDC) != 11 {
		return fmt.Errorf("document: ndc must be an 11-digit identifier, got %q", d.NDC)
	}
	if dim > 0 && len(d.Embedding) != dim {
		return fmt.Errorf("document: embedding must have exactly %d dimensions, got %d", dim, len(d.Embedding))
	}
	// Invariant (iv): drug_class present for every generic row — the only
	// generic grouping key.
	if d.IsGeneric && d.DrugClass == "" {
		return fmt.Errorf("document: drug_class is required for generic ndc %s", d.NDC)
	}
	// Invariant (v): brand_name present for every is_generic=false row.
	if !d.IsGeneric && d.BrandName == "" {
		return fmt.Errorf("document: brand_name is required for branded ndc %s", d.NDC)
	}
	if !d.DEASchedule.valid() {
		return fmt.Errorf("document: invalid dea_schedule %q for ndc %s", d.DEASchedule, d.NDC)
	}
	return nil
}

// IsGenericFromInnovatorFlag implements the single sanctioned derivation of
// is_generic from the upstream INNOV flag (spec.md §9 open question):
// INNOV == "0" means generic. No other heuristic may feed this field.
func IsGenericFromInnovatorFlag(innov string) bool {
	return strings.TrimSpace(innov) == "0"
}

// Metadata returns the tag/attribute fields as a plain map, the shape used
// by the index's payload and by the filter builder. The embedding is
// excluded: it is handled as the index's vector field, not a payload
// attribute. NDC is included (besides being the key suffix) so filters can
// match on it and FromMetadata can recover it.
func (d *Drug) Metadata() map[string]any {
	return map[string]any{
		"drug_name":         d.DrugName,
		"brand_name":        d.BrandName,
		"generic_name":      d.GenericName,
		"drug_class":        d.DrugClass,
		"therapeutic_class": d.TherapeuticClass,
		"gcn_seqno":         d.GCNSeqno,
		"dosage_form":       d.DosageForm,
		"strength":          d.Strength,
		"route":             d.Route,
		"manufacturer_name": d.ManufacturerName,
		"is_generic":        d.IsGeneric,
		"is_active":         d.IsActive,
		"dea_schedule":      string(d.DEASchedule),
		"ndc":               d.NDC,
	}
}

// FromMetadata reconstructs a Drug from a payload map plus the retrieved
// embedding — the inverse of Metadata, used when decoding stored or
// query-returned points.
func FromMetadata(meta map[string]any, embedding []float32) *Drug {
	d := &Drug{Embedding: embedding}
	d.NDC, _ = meta["ndc"].(string)
	d.DrugName, _ = meta["drug_name"].(string)
	d.BrandName, _ = meta["brand_name"].(string)
	d.GenericName, _ = meta["generic_name"].(string)
	d.DrugClass, _ = meta["drug_class"].(string)
	d.TherapeuticClass, _ = meta["therapeutic_class"].(string)
	d.DosageForm, _ = meta["dosage_form"].(string)
	d.Strength, _ = meta["strength"].(string)
	d.Route, _ = meta["route"].(string)
	d.ManufacturerName, _ = meta["manufacturer_name"].(string)
	d.IsGeneric, _ = meta["is_generic"].(bool)
	d.IsActive, _ = meta["is_active"].(bool)
	dea, _ := meta["dea_schedule"].(string)
	d.DEASchedule = DeaSchedule(dea)
	switch v := meta["gcn_seqno"].(type) {
	case int64:
		d.GCNSeqno = v
	case float64:
		d.GCNSeqno = int64(v)
	case int:
		d.GCNSeqno = int64(v)
	}
	return d
}
