package artifact

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/orderops/internal/model"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteStore_PutGetRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newSQLiteStore(t)

	digest, err := st.Put(ctx, []byte(`{"a":1}`), "application/json")
	require.NoError(t, err)

	content, contentType, err := st.Get(ctx, digest)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(content))
	assert.Equal(t, "application/json", contentType)
}

func TestSQLiteStore_ConcurrentPutSameContent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newSQLiteStore(t)

	const workers = 16
	digests := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := st.Put(ctx, []byte("shared payload"), "text/plain")
			assert.NoError(t, err)
			digests[i] = d
		}(i)
	}
	wg.Wait()

	for _, d := range digests[1:] {
		assert.Equal(t, digests[0], d)
	}

	infos, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, digests[0], infos[0].Digest)
}

func TestSQLiteStore_PutIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newSQLiteStore(t)

	d1, err := st.Put(ctx, []byte("payload"), "text/plain")
	require.NoError(t, err)
	d2, err := st.Put(ctx, []byte("payload"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	infos, err := st.List(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newSQLiteStore(t)

	_, _, err := st.Get(ctx, "deadbeef")
	assert.True(t, eris.Is(err, ErrNotFound))

	ok, err := st.Has(ctx, "deadbeef")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newSQLiteStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	run := &model.Run{
		ID:        "run-1",
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
		Orders: []model.OrderResult{
			{OrderID: "PO1", OrderDigest: "abc", Incidents: 2},
		},
	}
	require.NoError(t, st.SaveRun(ctx, run))

	// Upsert on the same id updates in place.
	run.Status = model.RunStatusComplete
	require.NoError(t, st.SaveRun(ctx, run))

	got, err := st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.Len(t, got.Orders, 1)
	assert.Equal(t, "PO1", got.Orders[0].OrderID)
	assert.Equal(t, 2, got.Orders[0].Incidents)

	runs, err := st.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	_, err = st.GetRun(ctx, "no-such-run")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLiteStore_SpansOrderedBySeq(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newSQLiteStore(t)

	spans := []model.Span{
		{SpanID: "span-2", Op: "reconcile_eta", InputDigest: "in2", Seq: 2, Status: model.SpanOK},
		{SpanID: "span-1", Op: "build_com", InputDigest: "in1", OutputDigest: "out1", Seq: 1, Status: model.SpanOK},
		{SpanID: "span-3", Op: "analyze_rca", InputDigest: "in3", Seq: 3, Status: model.SpanError, ErrorDetail: "boom"},
	}
	require.NoError(t, st.SaveSpans(ctx, "run-1", "PO1", spans))

	got, err := st.SpansByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "build_com", got[0].Op)
	assert.Equal(t, "reconcile_eta", got[1].Op)
	assert.Equal(t, "analyze_rca", got[2].Op)
	assert.Equal(t, model.SpanError, got[2].Status)
	assert.Equal(t, "boom", got[2].ErrorDetail)
	assert.Equal(t, "out1", got[0].OutputDigest)
}
