package model

import "time"

// Basis names the source whose timestamp served as the expected side of
// an ETA delta.
type Basis string

const (
	BasisEDI850  Basis = "EDI850"
	BasisEDI856  Basis = "EDI856"
	BasisERP     Basis = "ERP"
	BasisCarrier Basis = "CARRIER"
)

// ETADelta is the reconciled difference between when an order was
// expected and when it actually arrived. Positive DeltaHours means
// late. Deltas are derived per run and embedded in the RCA report, not
// persisted on their own.
type ETADelta struct {
	OrderID    string    `json:"order_id"`
	Expected   time.Time `json:"expected"`
	Actual     time.Time `json:"actual"`
	DeltaHours float64   `json:"delta_hours"`
	Basis      Basis     `json:"basis"`
}
