package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/document"
)

func validDrug() *document.Drug {
	return &document.Drug{
		NDC:              "00310075139",
		DrugName:         "CRESTOR 10 MG TABLET",
		BrandName:        "CRESTOR",
		GenericName:      "rosuvastatin calcium",
		TherapeuticClass: "HMG-COA REDUCTASE INHIBITORS",
		GCNSeqno:         12345,
		DosageForm:       "TABLET",
		Strength:         "10 MG",
		IsGeneric:        false,
		IsActive:         true,
		Embedding:        make([]float32, 1024),
	}
}

func TestKeyFormat(t *testing.T) {
	d := validDrug()
	assert.Equal(t, "drug:00310075139", d.Key())
}

func TestValidateRequiresElevenDigitNDC(t *testing.T) {
	d := validDrug()
	d.NDC = "123"
	assert.Error(t, d.Validate(1024))
}

func TestValidateRequiresExactEmbeddingDimension(t *testing.T) {
	d := validDrug()
	d.Embedding = make([]float32, 512)
	assert.Error(t, d.Validate(1024))
}

func TestValidateRequiresBrandNameForBrandedRows(t *testing.T) {
	d := validDrug()
	d.BrandName = ""
	assert.Error(t, d.Validate(1024))
}

func TestValidateRequiresDrugClassForGenericRows(t *testing.T) {
	d := validDrug()
	d.IsGeneric = true
	d.BrandName = ""
	d.DrugClass = ""
	assert.Error(t, d.Validate(1024))

	d.DrugClass = "ROSUVASTATIN CALCIUM"
	assert.NoError(t, d.Validate(1024))
}

// TestIsGenericMirrorsInnovatorFlag is the property test named in spec.md §8
// property 2 and SPEC_FULL.md §7: is_generic must derive from exactly the
// upstream INNOV flag, INNOV=='0' meaning generic.
func TestIsGenericMirrorsInnovatorFlag(t *testing.T) {
	assert.True(t, document.IsGenericFromInnovatorFlag("0"))
	assert.False(t, document.IsGenericFromInnovatorFlag("1"))
	assert.False(t, document.IsGenericFromInnovatorFlag(""))
	assert.True(t, document.IsGenericFromInnovatorFlag(" 0 "))
}

func TestMetadataRoundTrip(t *testing.T) {
	d := validDrug()
	meta := d.Metadata()
	roundTripped := document.FromMetadata(meta, d.Embedding)

	assert.Equal(t, d.NDC, roundTripped.NDC)
	assert.Equal(t, d.DrugName, roundTripped.DrugName)
	assert.Equal(t, d.BrandName, roundTripped.BrandName)
	assert.Equal(t, d.IsGeneric, roundTripped.IsGeneric)
	assert.Equal(t, d.GCNSeqno, roundTripped.GCNSeqno)
}
