package artifact

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/orderops/internal/canonical"
	"github.com/sells-group/orderops/internal/model"
)

// SQLiteStore implements Store plus the run index using
// modernc.org/sqlite. The digest primary key plus INSERT OR IGNORE
// gives idempotent, concurrency-safe Put for free.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path, configures WAL
// mode, and applies the schema.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "artifact: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "artifact: exec %s", pragma)
		}
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS artifacts (
	digest       TEXT PRIMARY KEY,
	content      BLOB NOT NULL,
	content_type TEXT NOT NULL,
	length       INTEGER NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'queued',
	orders     TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS spans (
	run_id        TEXT NOT NULL REFERENCES runs(id),
	order_id      TEXT NOT NULL,
	span_id       TEXT NOT NULL,
	op            TEXT NOT NULL,
	input_digest  TEXT NOT NULL,
	output_digest TEXT,
	seq           INTEGER NOT NULL,
	status        TEXT NOT NULL,
	error_detail  TEXT
);

CREATE INDEX IF NOT EXISTS idx_spans_run_id ON spans(run_id);
CREATE INDEX IF NOT EXISTS idx_spans_order_id ON spans(order_id);
`

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "artifact: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Put(ctx context.Context, content []byte, contentType string) (string, error) {
	digest := canonical.DigestBytes(content)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO artifacts (digest, content, content_type, length) VALUES (?, ?, ?, ?)`,
		digest, content, contentType, len(content),
	)
	if err != nil {
		return "", eris.Wrapf(err, "artifact: put %s", digest)
	}
	return digest, nil
}

func (s *SQLiteStore) Get(ctx context.Context, digest string) ([]byte, string, error) {
	var content []byte
	var contentType string
	err := s.db.QueryRowContext(ctx,
		`SELECT content, content_type FROM artifacts WHERE digest = ?`, digest,
	).Scan(&content, &contentType)
	if err == sql.ErrNoRows {
		return nil, "", eris.Wrapf(ErrNotFound, "artifact: %s", digest)
	}
	if err != nil {
		return nil, "", eris.Wrapf(err, "artifact: get %s", digest)
	}
	if canonical.DigestBytes(content) != digest {
		return nil, "", eris.Wrapf(ErrCorrupted, "artifact: %s", digest)
	}
	return content, contentType, nil
}

func (s *SQLiteStore) Has(ctx context.Context, digest string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM artifacts WHERE digest = ?`, digest,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "artifact: has %s", digest)
	}
	return true, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT digest, content_type, length FROM artifacts ORDER BY digest`)
	if err != nil {
		return nil, eris.Wrap(err, "artifact: list")
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.Digest, &info.ContentType, &info.Length); err != nil {
			return nil, eris.Wrap(err, "artifact: scan info")
		}
		infos = append(infos, info)
	}
	return infos, eris.Wrap(rows.Err(), "artifact: list rows")
}

// --- run index ---

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	orders, err := json.Marshal(run.Orders)
	if err != nil {
		return eris.Wrap(err, "artifact: marshal run orders")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, orders, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status,
		   orders = excluded.orders, updated_at = excluded.updated_at`,
		run.ID, string(run.Status), string(orders), run.CreatedAt, run.UpdatedAt,
	)
	return eris.Wrapf(err, "artifact: save run %s", run.ID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var run model.Run
	var status, orders string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, orders, created_at, updated_at FROM runs WHERE id = ?`, runID,
	).Scan(&run.ID, &status, &orders, &run.CreatedAt, &run.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "artifact: run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: get run %s", runID)
	}
	run.Status = model.RunStatus(status)
	if orders != "" {
		if err := json.Unmarshal([]byte(orders), &run.Orders); err != nil {
			return nil, eris.Wrapf(err, "artifact: unmarshal run %s orders", runID)
		}
	}
	return &run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, created_at, updated_at FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "artifact: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var run model.Run
		var status string
		if err := rows.Scan(&run.ID, &status, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "artifact: scan run")
		}
		run.Status = model.RunStatus(status)
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "artifact: list runs rows")
}

func (s *SQLiteStore) SaveSpans(ctx context.Context, runID, orderID string, spans []model.Span) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "artifact: begin save spans")
	}
	defer tx.Rollback()

	for _, span := range spans {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO spans (run_id, order_id, span_id, op, input_digest, output_digest, seq, status, error_detail)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, orderID, span.SpanID, span.Op, span.InputDigest,
			span.OutputDigest, span.Seq, string(span.Status), span.ErrorDetail,
		)
		if err != nil {
			return eris.Wrapf(err, "artifact: save span %s", span.SpanID)
		}
	}
	return eris.Wrap(tx.Commit(), "artifact: commit spans")
}

func (s *SQLiteStore) SpansByRun(ctx context.Context, runID string) ([]model.Span, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT span_id, op, input_digest, output_digest, seq, status, error_detail
		 FROM spans WHERE run_id = ? ORDER BY order_id, seq`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: spans for run %s", runID)
	}
	defer rows.Close()

	var spans []model.Span
	for rows.Next() {
		var span model.Span
		var status string
		var outputDigest, errorDetail sql.NullString
		if err := rows.Scan(&span.SpanID, &span.Op, &span.InputDigest,
			&outputDigest, &span.Seq, &status, &errorDetail); err != nil {
			return nil, eris.Wrap(err, "artifact: scan span")
		}
		span.OutputDigest = outputDigest.String
		span.ErrorDetail = errorDetail.String
		span.Status = model.SpanStatus(status)
		spans = append(spans, span)
	}
	return spans, eris.Wrap(rows.Err(), "artifact: span rows")
}

var _ Store = (*SQLiteStore)(nil)
var _ RunIndex = (*SQLiteStore)(nil)
