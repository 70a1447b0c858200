package model

import "time"

// Canonical field keys shared by parsers, the builder's precedence
// table, and RCA evidence references.
const (
	KeyOrderID          = "order_id"
	KeyCustomer         = "customer"
	KeyExpectedShipDate = "expected_ship_date"
	KeyExpectedDelivery = "expected_delivery"
	KeyActualDelivery   = "actual_delivery"
	KeyCarrierETA       = "carrier_eta"
	KeyPaymentTerms     = "payment_terms"
	KeyInvoiceDate      = "invoice_date"
	KeyCarrierName      = "carrier_name"
)

// IntermediateRecord is the typed output of one parsed document: a flat
// mapping of canonical field names to provenanced raw values. Values
// stay as extracted text here; the builder converts them when it
// assembles the canonical order. Records are consumed once by the
// builder and then discarded.
type IntermediateRecord struct {
	DocType  DocumentType             `json:"document_type"`
	DocID    string                   `json:"document_id"`
	Ref      DocumentRef              `json:"document_ref"`
	Fields   map[string]Field[string] `json:"fields"`
	Lines    []RawLineItem            `json:"line_items,omitempty"`
	Warnings []Warning                `json:"parse_warnings,omitempty"`
}

// RawLineItem is one order or shipment line as extracted from a source
// document, before merging.
type RawLineItem struct {
	SKU       Field[string] `json:"sku"`
	Quantity  Field[string] `json:"quantity"`
	UnitPrice Field[string] `json:"unit_price"`
}

// Warn appends a parse warning attributed to this record's document.
func (r *IntermediateRecord) Warn(code, path, message string) {
	r.Warnings = append(r.Warnings, Warning{
		Code:    code,
		Message: message,
		Source:  r.Ref,
		Path:    path,
	})
}

// Set stores a field value wrapped with this record's provenance.
func (r *IntermediateRecord) Set(key, value, sourceField, step string) {
	if r.Fields == nil {
		r.Fields = make(map[string]Field[string])
	}
	r.Fields[key] = NewField(value, r.Ref, sourceField, step)
}

// LineItem is one merged order line of a canonical order. Each
// sub-field carries its own provenance.
type LineItem struct {
	SKU       Field[string] `json:"sku"`
	Quantity  Field[int]    `json:"quantity"`
	UnitPrice Field[string] `json:"unit_price"`
}

// ShippedItem is one line of an advance shipping notice, kept alongside
// the ordered lines so shipment-versus-order rules can compare them.
type ShippedItem struct {
	SKU      Field[string] `json:"sku"`
	Quantity Field[int]    `json:"quantity"`
}

// CanonicalOrder is the unified, source-agnostic view of one order.
// Every leaf field is provenanced; fields no source supplied carry the
// absent sentinel rather than being omitted. Orders are immutable after
// construction.
type CanonicalOrder struct {
	OrderID          Field[string]    `json:"order_id"`
	Customer         Field[string]    `json:"customer"`
	ExpectedShipDate Field[time.Time] `json:"expected_ship_date"`
	ExpectedDelivery Field[time.Time] `json:"expected_delivery"`
	ActualDelivery   Field[time.Time] `json:"actual_delivery"`
	CarrierETA       Field[time.Time] `json:"carrier_eta"`
	LineItems        []LineItem       `json:"line_items"`
	ShippedItems     []ShippedItem    `json:"shipped_items,omitempty"`
	PaymentTerms     Field[string]    `json:"payment_terms"`
	InvoiceDate      Field[time.Time] `json:"invoice_date"`
	Warnings         []Warning        `json:"warnings,omitempty"`
}
