package model

import "time"

// RunStatus represents the current state of an analysis run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusParsing  RunStatus = "parsing"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// OrderResult holds the artifact digests produced for one order within
// a run. The digests are the stable, content-addressed identity of the
// outputs; two runs over identical inputs produce identical digests.
type OrderResult struct {
	OrderID      string `json:"order_id"`
	OrderDigest  string `json:"order_digest,omitempty"`
	ReportDigest string `json:"report_digest,omitempty"`
	SpanDigest   string `json:"span_digest,omitempty"`
	Incidents    int    `json:"incidents"`
	Error        string `json:"error,omitempty"`
}

// Run represents one batch invocation of the pipeline over a set of
// input documents. Run identity (ID, timestamps) is bookkeeping only
// and never enters canonical, digested bytes.
type Run struct {
	ID        string        `json:"id"`
	Status    RunStatus     `json:"status"`
	Orders    []OrderResult `json:"orders,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
