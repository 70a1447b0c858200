package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/orderops/internal/model"
)

func TestDefaultPrecedence(t *testing.T) {
	t.Parallel()

	table := DefaultPrecedence()
	assert.Equal(t, 1, table.Version)
	assert.Equal(t,
		[]model.DocumentType{model.DocCarrier, model.DocEDI856, model.DocERP},
		table.Sources(model.KeyActualDelivery))
	assert.Equal(t,
		[]model.DocumentType{model.DocERP, model.DocEDI850, model.DocEDI856},
		table.Sources(model.KeyCustomer))
	assert.Empty(t, table.Sources("no_such_field"))
}

func TestLoadPrecedence_OverridesWithoutErasingDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "precedence.yaml")
	content := "version: 2\nfields:\n  customer:\n    - edi_850\n    - erp\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadPrecedence(path)
	require.NoError(t, err)

	assert.Equal(t, 2, table.Version)
	assert.Equal(t,
		[]model.DocumentType{model.DocEDI850, model.DocERP},
		table.Sources(model.KeyCustomer))
	// Untouched chains keep their defaults.
	assert.Equal(t,
		[]model.DocumentType{model.DocCarrier, model.DocEDI856, model.DocERP},
		table.Sources(model.KeyActualDelivery))
}

func TestLoadPrecedence_RequiresVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "precedence.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fields:\n  customer: [erp]\n"), 0o644))

	_, err := LoadPrecedence(path)
	assert.Error(t, err)
}
