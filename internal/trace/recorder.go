// Package trace records one span per pipeline stage invocation:
// digests of the stage's canonicalized input and output, its logical
// start position, and how it ended. The ordered span sequence for a
// run is the execution trace that makes the run auditable and
// reproducible.
package trace

import (
	"fmt"
	"sync"

	"github.com/sells-group/orderops/internal/canonical"
	"github.com/sells-group/orderops/internal/model"
)

// Recorder accumulates an append-only span sequence. Safe for
// concurrent use, though each pipeline invocation normally owns its
// own recorder.
type Recorder struct {
	clock *Clock

	mu    sync.Mutex
	spans []model.Span
}

// NewRecorder returns an empty recorder with a fresh logical clock.
func NewRecorder() *Recorder {
	return &Recorder{clock: NewClock()}
}

// Record wraps one pipeline stage: it digests the canonicalized input,
// runs fn, digests the output, and appends a span. On failure the span
// is still recorded with status ERROR and the error kind, and the
// error propagates to the caller untouched.
func Record[In, Out any](r *Recorder, op string, input In, fn func(In) (Out, error)) (Out, error) {
	inputDigest, _, digestErr := canonical.Digest(input)
	if digestErr != nil {
		inputDigest = "" // a span with a blank digest is still better than no span
	}

	seq := r.clock.Next()
	span := model.Span{
		SpanID:      fmt.Sprintf("span-%d", seq),
		Op:          op,
		InputDigest: inputDigest,
		Seq:         seq,
		Status:      model.SpanOK,
	}

	output, err := fn(input)
	if err != nil {
		span.Status = model.SpanError
		span.ErrorDetail = errorKind(err)
	} else if outputDigest, _, oerr := canonical.Digest(output); oerr == nil {
		span.OutputDigest = outputDigest
	}

	r.append(span)
	return output, err
}

func (r *Recorder) append(span model.Span) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spans = append(r.spans, span)
}

// Spans returns a copy of the trace so far, in logical order.
func (r *Recorder) Spans() []model.Span {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Span, len(r.spans))
	copy(out, r.spans)
	return out
}

// Log returns the canonical span-log bytes for the trace, suitable for
// content-addressed storage.
func (r *Recorder) Log() ([]byte, error) {
	return canonical.Marshal(r.Spans())
}

// errorKind reduces an error to its outermost message. Spans record
// the kind of failure, never the wrapped internal chain.
func errorKind(err error) string {
	msg := err.Error()
	const max = 200
	if len(msg) > max {
		msg = msg[:max]
	}
	return msg
}
