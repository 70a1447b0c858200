package model

// DocumentType identifies the kind of source document a value came from.
type DocumentType string

const (
	DocEDI850     DocumentType = "edi_850"
	DocEDI856     DocumentType = "edi_856"
	DocERP        DocumentType = "erp"
	DocCarrier    DocumentType = "carrier"
	SourceAbsent  DocumentType = "absent"  // sentinel for fields no source provided
	SourceDerived DocumentType = "derived" // values computed by the pipeline itself
)

// DocumentRef identifies one concrete source document. Digest is the
// SHA-256 of the raw document bytes, so provenance always ties back to
// exact input content, not just a file name.
type DocumentRef struct {
	Type   DocumentType `json:"type"`
	ID     string       `json:"id"`
	Digest string       `json:"digest,omitempty"`
}

// AbsentRef is the sentinel source attached to fields that no input
// document supplied. Keeping the field present with this marker (instead
// of omitting it) keeps the canonical order shape complete.
func AbsentRef() DocumentRef {
	return DocumentRef{Type: SourceAbsent}
}

// DerivedRef marks values computed by a pipeline step rather than
// extracted from a document.
func DerivedRef(step string) DocumentRef {
	return DocumentRef{Type: SourceDerived, ID: step}
}

// Field wraps a value with its provenance: which document it came from,
// the segment/column path inside that document, and the pipeline step
// that extracted it. Fields are immutable once created.
type Field[T any] struct {
	Value       T           `json:"value"`
	Source      DocumentRef `json:"source_document"`
	SourceField string      `json:"source_field"`
	Step        string      `json:"extracted_at_step,omitempty"`
}

// NewField wraps value with its origin.
func NewField[T any](value T, src DocumentRef, sourceField, step string) Field[T] {
	return Field[T]{Value: value, Source: src, SourceField: sourceField, Step: step}
}

// Absent returns a Field carrying the zero value and the absent sentinel
// source.
func Absent[T any]() Field[T] {
	return Field[T]{Source: AbsentRef()}
}

// IsAbsent reports whether no source supplied this field.
func (f Field[T]) IsAbsent() bool {
	return f.Source.Type == SourceAbsent
}

// EqualValue compares two fields by value alone, ignoring provenance.
func EqualValue[T comparable](a, b Field[T]) bool {
	return a.Value == b.Value
}

// EvidenceRef points at one provenanced field of a canonical order.
// Incidents carry these instead of bare values so every finding can be
// audited back to a source document.
type EvidenceRef struct {
	FieldKey    string       `json:"field_key"`
	Value       string       `json:"value"`
	SourceType  DocumentType `json:"source_type"`
	SourceID    string       `json:"source_id,omitempty"`
	SourceField string       `json:"source_field,omitempty"`
}

// Evidence builds an EvidenceRef from a string field of a canonical order.
func Evidence(key string, f Field[string]) EvidenceRef {
	return EvidenceRef{
		FieldKey:    key,
		Value:       f.Value,
		SourceType:  f.Source.Type,
		SourceID:    f.Source.ID,
		SourceField: f.SourceField,
	}
}

// Warning records a recoverable anomaly observed while parsing or
// merging: an unmapped EDI segment, a discarded conflicting value, a
// malformed cell. Warnings are ordered and carried on the record they
// were observed on.
type Warning struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Source  DocumentRef `json:"source_document"`
	Path    string      `json:"path,omitempty"`
}
