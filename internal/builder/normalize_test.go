package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOrderID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already normal", "PO123", "PO123"},
		{"lowercase", "po123", "PO123"},
		{"dashed and padded", "PO-00123", "PO123"},
		{"underscore and spaces", " po_0123 ", "PO123"},
		{"dots and slashes", "PO.123/A", "PO123A"},
		{"zero padding kept for mixed suffix", "PO-00A1", "PO00A1"},
		{"all zeros", "PO-000", "PO0"},
		{"pure number", "000042", "42"},
		{"no digits", "URGENT", "URGENT"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeOrderID(tt.raw))
		})
	}
}
