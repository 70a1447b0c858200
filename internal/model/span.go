package model

// SpanStatus is the terminal state of one recorded pipeline stage.
type SpanStatus string

const (
	SpanOK    SpanStatus = "OK"
	SpanError SpanStatus = "ERROR"
)

// Span records one pipeline stage invocation: digests of its
// canonicalized input and output, its position in the run, and how it
// ended. Spans are append-only; the ordered sequence for a run is the
// execution trace. Seq comes from a per-run logical clock so traces
// are byte-identical across repeated runs over the same inputs.
type Span struct {
	SpanID       string     `json:"span_id"`
	Op           string     `json:"operation_name"`
	InputDigest  string     `json:"input_digest"`
	OutputDigest string     `json:"output_digest,omitempty"`
	Seq          int64      `json:"started_at"`
	Status       SpanStatus `json:"status"`
	ErrorDetail  string     `json:"error_detail,omitempty"`
}
