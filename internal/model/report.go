package model

// Report is the RCA output for one order: the reconciled ETA delta (if
// one could be computed) and the ordered incident findings. Incident
// ordering is deterministic: severity descending, then rule number,
// then order id.
type Report struct {
	OrderID        string     `json:"order_id"`
	ETADelta       *ETADelta  `json:"eta_delta,omitempty"`
	ReconcileError string     `json:"reconcile_error,omitempty"`
	Incidents      []Incident `json:"incidents"`
}
