package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_JSONShape(t *testing.T) {
	t.Parallel()

	f := NewField("PO123",
		DocumentRef{Type: DocEDI850, ID: "po.edi", Digest: "abc"},
		"BEG03", "parse_edi_850")

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "PO123", decoded["value"])
	assert.Equal(t, "BEG03", decoded["source_field"])
	assert.Equal(t, "parse_edi_850", decoded["extracted_at_step"])

	src, ok := decoded["source_document"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "edi_850", src["type"])
	assert.Equal(t, "po.edi", src["id"])
}

func TestAbsentField(t *testing.T) {
	t.Parallel()

	f := Absent[string]()
	assert.True(t, f.IsAbsent())
	assert.Empty(t, f.Value)

	present := NewField("x", DocumentRef{Type: DocERP}, "col", "step")
	assert.False(t, present.IsAbsent())
}

func TestEqualValue_IgnoresProvenance(t *testing.T) {
	t.Parallel()

	a := NewField(10, DocumentRef{Type: DocEDI850, ID: "po.edi"}, "PO102", "x")
	b := NewField(10, DocumentRef{Type: DocEDI856, ID: "asn.edi"}, "SN102", "y")
	c := NewField(8, DocumentRef{Type: DocEDI856, ID: "asn.edi"}, "SN102", "y")

	assert.True(t, EqualValue(a, b))
	assert.False(t, EqualValue(a, c))
}

func TestSpan_SeqSerializesAsStartedAt(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Span{SpanID: "span-1", Op: "build_com", Seq: 1, Status: SpanOK})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(1), decoded["started_at"])
	assert.Equal(t, "build_com", decoded["operation_name"])
	_, hasWallClock := decoded["timestamp"]
	assert.False(t, hasWallClock)
}

func TestSeverityRank(t *testing.T) {
	t.Parallel()

	assert.Less(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Greater(t, Severity("BOGUS").Rank(), SeverityLow.Rank())
}

func TestIntermediateRecord_SetAndWarn(t *testing.T) {
	t.Parallel()

	rec := &IntermediateRecord{
		DocType: DocERP,
		DocID:   "erp.csv#2",
		Ref:     DocumentRef{Type: DocERP, ID: "erp.csv#2"},
	}
	rec.Set(KeyCustomer, "Acme", "customer", "parse_erp_csv")
	rec.Warn("unmapped_column", "Region", `unmapped column "Region"`)

	assert.Equal(t, "Acme", rec.Fields[KeyCustomer].Value)
	assert.Equal(t, rec.Ref, rec.Fields[KeyCustomer].Source)
	require.Len(t, rec.Warnings, 1)
	assert.Equal(t, "unmapped_column", rec.Warnings[0].Code)
	assert.Equal(t, rec.Ref, rec.Warnings[0].Source)
}
