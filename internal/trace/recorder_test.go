package trace

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/orderops/internal/canonical"
	"github.com/sells-group/orderops/internal/model"
)

func TestRecord_SuccessSpan(t *testing.T) {
	t.Parallel()

	rec := NewRecorder()
	out, err := Record(rec, "double", 21, func(n int) (int, error) {
		return n * 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, out)

	spans := rec.Spans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "span-1", span.SpanID)
	assert.Equal(t, "double", span.Op)
	assert.Equal(t, int64(1), span.Seq)
	assert.Equal(t, model.SpanOK, span.Status)

	wantIn, _, err := canonical.Digest(21)
	require.NoError(t, err)
	wantOut, _, err := canonical.Digest(42)
	require.NoError(t, err)
	assert.Equal(t, wantIn, span.InputDigest)
	assert.Equal(t, wantOut, span.OutputDigest)
}

func TestRecord_ErrorSpan(t *testing.T) {
	t.Parallel()

	rec := NewRecorder()
	boom := eris.New("stage exploded")
	_, err := Record(rec, "explode", "input", func(string) (string, error) {
		return "", boom
	})
	assert.True(t, eris.Is(err, boom))

	spans := rec.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, model.SpanError, spans[0].Status)
	assert.Equal(t, "stage exploded", spans[0].ErrorDetail)
	assert.Empty(t, spans[0].OutputDigest)
}

func TestRecord_SequenceIncrements(t *testing.T) {
	t.Parallel()

	rec := NewRecorder()
	for i := 0; i < 3; i++ {
		_, err := Record(rec, "step", i, func(n int) (int, error) { return n, nil })
		require.NoError(t, err)
	}

	spans := rec.Spans()
	require.Len(t, spans, 3)
	assert.Equal(t, int64(1), spans[0].Seq)
	assert.Equal(t, int64(2), spans[1].Seq)
	assert.Equal(t, int64(3), spans[2].Seq)
	assert.Equal(t, "span-3", spans[2].SpanID)
}

func TestLog_DeterministicAcrossRecorders(t *testing.T) {
	t.Parallel()

	runOnce := func() []byte {
		rec := NewRecorder()
		_, err := Record(rec, "build_com", "records", func(s string) (string, error) { return s + "!", nil })
		require.NoError(t, err)
		_, _ = Record(rec, "reconcile_eta", "order", func(string) (string, error) {
			return "", eris.New("no usable timestamps")
		})
		log, err := rec.Log()
		require.NoError(t, err)
		return log
	}

	first := runOnce()
	second := runOnce()
	assert.Equal(t, string(first), string(second))
	assert.Equal(t, canonical.DigestBytes(first), canonical.DigestBytes(second))
}

func TestSpans_ReturnsCopy(t *testing.T) {
	t.Parallel()

	rec := NewRecorder()
	_, err := Record(rec, "step", 1, func(n int) (int, error) { return n, nil })
	require.NoError(t, err)

	spans := rec.Spans()
	spans[0].Op = "mutated"
	assert.Equal(t, "step", rec.Spans()[0].Op)
}
