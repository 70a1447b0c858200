package builder

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/orderops/internal/model"
)

// PrecedenceTable is the static, versioned source-precedence policy the
// builder applies per canonical field. It is loaded once per run and
// never inferred at runtime, so merge output is reproducible.
type PrecedenceTable struct {
	Version int                             `yaml:"version"`
	Fields  map[string][]model.DocumentType `yaml:"fields"`
}

// DefaultPrecedence is policy version 1: the carrier feed is
// authoritative for what actually happened in transit, the ERP for who
// the customer is and what was agreed commercially, and the EDI 856
// for the shipment's own expectations.
func DefaultPrecedence() *PrecedenceTable {
	return &PrecedenceTable{
		Version: 1,
		Fields: map[string][]model.DocumentType{
			model.KeyOrderID:          {model.DocEDI850, model.DocEDI856, model.DocERP, model.DocCarrier},
			model.KeyCustomer:         {model.DocERP, model.DocEDI850, model.DocEDI856},
			model.KeyExpectedShipDate: {model.DocERP, model.DocEDI850},
			model.KeyExpectedDelivery: {model.DocEDI856, model.DocERP, model.DocEDI850},
			model.KeyActualDelivery:   {model.DocCarrier, model.DocEDI856, model.DocERP},
			model.KeyCarrierETA:       {model.DocCarrier, model.DocEDI856},
			model.KeyPaymentTerms:     {model.DocERP, model.DocEDI850},
			model.KeyInvoiceDate:      {model.DocERP},
			model.KeyCarrierName:      {model.DocCarrier, model.DocEDI856},
		},
	}
}

// LoadPrecedence reads a precedence table from YAML. Fields missing
// from the file keep the default chains, so a policy file only has to
// state what it changes.
func LoadPrecedence(path string) (*PrecedenceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "builder: read precedence table %s", path)
	}
	var loaded PrecedenceTable
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, eris.Wrap(err, "builder: parse precedence table")
	}
	if loaded.Version == 0 {
		return nil, eris.New("builder: precedence table must declare a version")
	}

	table := DefaultPrecedence()
	table.Version = loaded.Version
	for key, sources := range loaded.Fields {
		table.Fields[key] = sources
	}
	return table, nil
}

// Sources returns the precedence chain for a field, empty when the
// policy has no opinion.
func (t *PrecedenceTable) Sources(fieldKey string) []model.DocumentType {
	return t.Fields[fieldKey]
}
