package tabular

import (
	"bytes"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/orderops/internal/model"
)

func workbookBytes(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Export")
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, value := range cells {
			row.AddCell().SetString(value)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseERPXLSX(t *testing.T) {
	t.Parallel()

	raw := workbookBytes(t, [][]string{
		{"PO_Number", "Customer_Name", "Terms", "Invoice_Date"},
		{"PO-00123", "Acme Retail Inc", "NET 30", "2025-07-01"},
		{"PO-00124", "Initech", "NET 45", "2025-07-02"},
	})

	records, err := ParseERPXLSX(raw, "export.xlsx", DefaultAliases())
	require.NoError(t, err)
	require.Len(t, records, 2)

	rec := records[0]
	assert.Equal(t, model.DocERP, rec.DocType)
	assert.Equal(t, "export.xlsx#2", rec.DocID)
	assert.Equal(t, "PO-00123", rec.Fields[model.KeyOrderID].Value)
	assert.Equal(t, "Acme Retail Inc", rec.Fields[model.KeyCustomer].Value)
	assert.Equal(t, "NET 30", rec.Fields[model.KeyPaymentTerms].Value)
	assert.Equal(t, "2025-07-01", rec.Fields[model.KeyInvoiceDate].Value)
	assert.NotEmpty(t, rec.Ref.Digest)
}

func TestParseERPXLSX_SkipsIDLessRows(t *testing.T) {
	t.Parallel()

	raw := workbookBytes(t, [][]string{
		{"order_id", "customer"},
		{"", "no id"},
		{"PO-1", "Acme"},
	})

	records, err := ParseERPXLSX(raw, "export.xlsx", DefaultAliases())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "export.xlsx#3", records[0].DocID)
}

func TestParseERPXLSX_NoOrderIDColumn(t *testing.T) {
	t.Parallel()

	raw := workbookBytes(t, [][]string{
		{"customer", "region"},
		{"Acme", "West"},
	})

	_, err := ParseERPXLSX(raw, "export.xlsx", DefaultAliases())
	assert.True(t, eris.Is(err, ErrParse))
}

func TestParseERPXLSX_NotAWorkbook(t *testing.T) {
	t.Parallel()

	_, err := ParseERPXLSX([]byte("definitely not a zip"), "export.xlsx", DefaultAliases())
	assert.True(t, eris.Is(err, ErrParse))
}
