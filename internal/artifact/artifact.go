// Package artifact is the content-addressed store every terminal
// pipeline output is written through. Content is keyed by the SHA-256
// digest of its exact bytes: identical content is stored once, and a
// digest mismatch on read is corruption, which the rest of the system
// treats as fatal.
package artifact

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/orderops/internal/model"
)

var (
	// ErrNotFound is returned by Get for a digest the store has never
	// seen. Callers must surface it, never treat it as empty content.
	ErrNotFound = eris.New("artifact: digest not found")

	// ErrCorrupted is returned when stored content no longer hashes to
	// its key. This breaks the determinism contract and is not
	// recoverable.
	ErrCorrupted = eris.New("artifact: stored content does not match digest")
)

// Store persists write-once, content-addressed artifacts. Put is
// idempotent and safe for concurrent callers writing identical
// content: the digest is the sole identity, so a second write of the
// same bytes is an existence check, not a re-write.
type Store interface {
	Put(ctx context.Context, content []byte, contentType string) (string, error)
	Get(ctx context.Context, digest string) ([]byte, string, error)
	Has(ctx context.Context, digest string) (bool, error)
	List(ctx context.Context) ([]Info, error)
	Close() error
}

// Info describes one stored artifact.
type Info struct {
	Digest      string `json:"digest"`
	ContentType string `json:"content_type"`
	Length      int64  `json:"length"`
}

// RunIndex records run and span bookkeeping alongside artifacts.
// Backends that cannot index runs (the plain filesystem store) simply
// don't implement it.
type RunIndex interface {
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)
	SaveSpans(ctx context.Context, runID, orderID string, spans []model.Span) error
	SpansByRun(ctx context.Context, runID string) ([]model.Span, error)
}
