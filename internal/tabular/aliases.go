// Package tabular parses ERP and carrier extracts (CSV and XLSX) into
// intermediate records. Column headers are mapped to canonical field
// names through an alias table so upstream systems can keep their own
// naming; a row only fails to parse when its order identity is missing.
package tabular

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/orderops/internal/model"
)

// AliasTable maps canonical field keys to the column-name spellings
// that should resolve to them. Lookups are case-insensitive and ignore
// surrounding whitespace.
type AliasTable struct {
	Aliases map[string][]string `yaml:"aliases"`

	byColumn map[string]string
}

// DefaultAliases covers the column spellings seen across upstream ERP
// and carrier exports.
func DefaultAliases() *AliasTable {
	t := &AliasTable{Aliases: map[string][]string{
		model.KeyOrderID: {
			"order_id", "po_number", "po_num", "purchase_order", "order_number",
		},
		model.KeyCustomer: {
			"customer", "customer_name", "client", "client_name", "buyer",
		},
		model.KeyExpectedShipDate: {
			"expected_ship_date", "ship_date", "planned_ship_date",
		},
		model.KeyExpectedDelivery: {
			"expected_delivery_date", "expected_delivery", "promised_date",
		},
		model.KeyActualDelivery: {
			"actual_delivery_date", "actual_delivery", "delivered_at",
		},
		model.KeyCarrierETA: {
			"carrier_eta", "eta", "estimated_arrival", "arrival_time",
		},
		model.KeyPaymentTerms: {
			"payment_terms", "terms", "net_terms",
		},
		model.KeyInvoiceDate: {
			"invoice_date", "invoiced_at", "billing_date",
		},
		model.KeyCarrierName: {
			"carrier", "carrier_name", "scac",
		},
	}}
	t.index()
	return t
}

// LoadAliases reads an alias table from a YAML file and merges it over
// the defaults, so a config file only needs to list the exotic columns.
func LoadAliases(path string) (*AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: read alias table %s", path)
	}
	var loaded AliasTable
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, eris.Wrap(err, "tabular: parse alias table")
	}

	merged := DefaultAliases()
	for key, cols := range loaded.Aliases {
		merged.Aliases[key] = append(merged.Aliases[key], cols...)
	}
	merged.index()
	return merged, nil
}

func (t *AliasTable) index() {
	t.byColumn = make(map[string]string)
	for key, cols := range t.Aliases {
		for _, col := range cols {
			t.byColumn[normalizeColumn(col)] = key
		}
	}
}

// Resolve maps a raw column header to its canonical field key. The
// second return is false for columns the table does not know.
func (t *AliasTable) Resolve(column string) (string, bool) {
	key, ok := t.byColumn[normalizeColumn(column)]
	return key, ok
}

func normalizeColumn(col string) string {
	return strings.ToLower(strings.TrimSpace(col))
}
