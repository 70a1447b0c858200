package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/orderops/internal/canonical"
	"github.com/sells-group/orderops/internal/model"
)

// ErrParse marks a tabular document the parser cannot use at all:
// no header row, or no column that resolves to an order id.
var ErrParse = eris.New("tabular: structurally invalid document")

const (
	stepERPCSV     = "parse_erp_csv"
	stepCarrierCSV = "parse_carrier_csv"
)

// ParseERPCSV reads an ERP extract and returns one intermediate record
// per row, keyed off whichever column the alias table resolves to
// order_id.
func ParseERPCSV(raw []byte, docID string, aliases *AliasTable) ([]*model.IntermediateRecord, error) {
	return parseCSV(raw, docID, model.DocERP, stepERPCSV, aliases)
}

// ParseCarrierCSV reads a carrier ETA feed, one record per row.
func ParseCarrierCSV(raw []byte, docID string, aliases *AliasTable) ([]*model.IntermediateRecord, error) {
	return parseCSV(raw, docID, model.DocCarrier, stepCarrierCSV, aliases)
}

func parseCSV(raw []byte, docID string, docType model.DocumentType, step string, aliases *AliasTable) ([]*model.IntermediateRecord, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1 // allow ragged rows
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(ErrParse, "tabular: %s has no header row", docID)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	columns, idColumn := resolveHeader(header, aliases)
	if idColumn < 0 {
		return nil, eris.Wrapf(ErrParse, "tabular: %s has no order id column", docID)
	}

	ref := model.DocumentRef{
		Type:   docType,
		ID:     docID,
		Digest: canonical.DigestBytes(raw),
	}

	var records []*model.IntermediateRecord
	rowNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			// A malformed row degrades to a warning on the surrounding
			// document, carried by the next record parsed.
			records = appendRowWarning(records, ref, rowNum, err)
			continue
		}
		if rec := rowRecord(row, header, columns, idColumn, ref, docType, docID, step, rowNum); rec != nil {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return nil, eris.Wrapf(ErrParse, "tabular: %s has no usable rows", docID)
	}
	return records, nil
}

// resolveHeader maps column positions to canonical keys and finds the
// order-id column.
func resolveHeader(header []string, aliases *AliasTable) (map[int]string, int) {
	columns := make(map[int]string)
	idColumn := -1
	for i, col := range header {
		key, ok := aliases.Resolve(col)
		if !ok {
			continue
		}
		columns[i] = key
		if key == model.KeyOrderID && idColumn < 0 {
			idColumn = i
		}
	}
	return columns, idColumn
}

func rowRecord(row, header []string, columns map[int]string, idColumn int,
	ref model.DocumentRef, docType model.DocumentType, docID, step string, rowNum int) *model.IntermediateRecord {

	if idColumn >= len(row) || strings.TrimSpace(row[idColumn]) == "" {
		return nil // blank or id-less row: nothing to attach it to
	}

	rec := &model.IntermediateRecord{
		DocType: docType,
		DocID:   fmt.Sprintf("%s#%d", docID, rowNum),
		Ref:     ref,
		Fields:  make(map[string]model.Field[string]),
	}
	for i, cell := range row {
		key, mapped := columns[i]
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if !mapped {
			name := fmt.Sprintf("col[%d]", i)
			if i < len(header) {
				name = header[i]
			}
			rec.Warn("unmapped_column", name,
				fmt.Sprintf("unmapped column %q", name))
			continue
		}
		rec.Fields[key] = model.NewField(cell, ref, header[i], step)
	}
	return rec
}

func appendRowWarning(records []*model.IntermediateRecord, ref model.DocumentRef, rowNum int, err error) []*model.IntermediateRecord {
	if len(records) == 0 {
		return records
	}
	records[len(records)-1].Warnings = append(records[len(records)-1].Warnings, model.Warning{
		Code:    "bad_row",
		Message: fmt.Sprintf("row %d unreadable: %v", rowNum, err),
		Source:  ref,
		Path:    fmt.Sprintf("row[%d]", rowNum),
	})
	return records
}
