package pipeline

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/orderops/internal/edi"
	"github.com/sells-group/orderops/internal/model"
	"github.com/sells-group/orderops/internal/tabular"
)

// Document is one raw input handed to the pipeline: EDI text, a CSV
// extract, or an XLSX workbook.
type Document struct {
	Name    string `json:"name"`
	Content []byte `json:"-"`

	// Digest of Content; filled by the pipeline so span inputs identify
	// documents without embedding their bytes.
	Digest string `json:"digest"`
}

// parseDocument routes a document to the right parser based on its
// extension and a content sniff, returning the intermediate records it
// yields. A document that cannot be parsed fails alone; the batch
// continues.
func (p *Pipeline) parseDocument(doc Document) ([]*model.IntermediateRecord, error) {
	switch strings.ToLower(filepath.Ext(doc.Name)) {
	case ".xlsx":
		return tabular.ParseERPXLSX(doc.Content, doc.Name, p.aliases)
	case ".csv":
		if sniffCarrierCSV(doc.Content, p.aliases) {
			return tabular.ParseCarrierCSV(doc.Content, doc.Name, p.aliases)
		}
		return tabular.ParseERPCSV(doc.Content, doc.Name, p.aliases)
	default:
		return parseEDI(doc)
	}
}

// parseEDI distinguishes an 850 from an 856 by transaction set header
// or leading content segments.
func parseEDI(doc Document) ([]*model.IntermediateRecord, error) {
	content := doc.Content
	switch {
	case bytes.Contains(content, []byte("ST*850")) || bytes.Contains(content, []byte("BEG*")):
		rec, err := edi.Parse850(content, doc.Name)
		if err != nil {
			return nil, err
		}
		return []*model.IntermediateRecord{rec}, nil
	case bytes.Contains(content, []byte("ST*856")) || bytes.Contains(content, []byte("BSN*")):
		rec, err := edi.Parse856(content, doc.Name)
		if err != nil {
			return nil, err
		}
		return []*model.IntermediateRecord{rec}, nil
	default:
		return nil, eris.Wrapf(edi.ErrParse, "pipeline: %s is not a recognized document type", doc.Name)
	}
}

// sniffCarrierCSV checks whether the header resolves a carrier ETA
// column, the signature that separates carrier feeds from ERP
// extracts.
func sniffCarrierCSV(content []byte, aliases *tabular.AliasTable) bool {
	line := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}
	for _, col := range strings.Split(string(line), ",") {
		if key, ok := aliases.Resolve(strings.Trim(col, "\" \r")); ok && key == model.KeyCarrierETA {
			return true
		}
	}
	return false
}
