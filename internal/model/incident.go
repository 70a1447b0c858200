package model

// IncidentKind classifies a finding produced by the RCA engine.
type IncidentKind string

const (
	IncidentETASlip      IncidentKind = "ETA_SLIP"
	IncidentWrongProduct IncidentKind = "WRONG_PRODUCT"
	IncidentPaymentDelay IncidentKind = "PAYMENT_DELAY"
)

// Severity ranks how bad a finding is.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// severityRank orders severities for the deterministic incident sort.
var severityRank = map[Severity]int{
	SeverityHigh:   0,
	SeverityMedium: 1,
	SeverityLow:    2,
}

// Rank returns the sort position of s, highest severity first.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Incident is one ranked finding explaining a delivery exception. The
// evidence list references provenanced order fields so every finding is
// auditable back to source documents.
type Incident struct {
	Kind        IncidentKind  `json:"kind"`
	Severity    Severity      `json:"severity"`
	OrderID     string        `json:"order_id"`
	Rule        int           `json:"rule"`
	Evidence    []EvidenceRef `json:"evidence"`
	Explanation string        `json:"explanation"`
}
