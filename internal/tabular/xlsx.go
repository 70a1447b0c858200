package tabular

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/orderops/internal/canonical"
	"github.com/sells-group/orderops/internal/model"
)

const stepERPXLSX = "parse_erp_xlsx"

// ParseERPXLSX reads an ERP workbook extract. The first row of the
// first sheet is the header, mapped through the same alias table as the
// CSV path; each following row becomes one intermediate record.
func ParseERPXLSX(raw []byte, docID string, aliases *AliasTable) ([]*model.IntermediateRecord, error) {
	f, err := xlsx.OpenBinary(raw)
	if err != nil {
		return nil, eris.Wrapf(ErrParse, "tabular: %s is not a valid workbook", docID)
	}
	if len(f.Sheets) == 0 || len(f.Sheets[0].Rows) == 0 {
		return nil, eris.Wrapf(ErrParse, "tabular: %s has no rows", docID)
	}
	sheet := f.Sheets[0]

	header := rowToStrings(sheet.Rows[0])
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	columns, idColumn := resolveHeader(header, aliases)
	if idColumn < 0 {
		return nil, eris.Wrapf(ErrParse, "tabular: %s has no order id column", docID)
	}

	ref := model.DocumentRef{
		Type:   model.DocERP,
		ID:     docID,
		Digest: canonical.DigestBytes(raw),
	}

	var records []*model.IntermediateRecord
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if rec := rowRecord(cells, header, columns, idColumn, ref, model.DocERP, docID, stepERPXLSX, i+2); rec != nil {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return nil, eris.Wrapf(ErrParse, "tabular: %s has no usable rows", docID)
	}
	return records, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
