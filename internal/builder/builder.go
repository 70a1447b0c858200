// Package builder merges intermediate records from all sources into
// one canonical order, resolving field-level conflicts through a
// static precedence policy and attaching provenance to every field.
package builder

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/orderops/internal/model"
)

// ErrMerge marks records whose order identities cannot be reconciled
// into a single order.
var ErrMerge = eris.New("builder: conflicting order identities")

const stepBuild = "build_com"

// Builder assembles canonical orders under one precedence policy.
type Builder struct {
	precedence *PrecedenceTable
}

// New returns a Builder using the given policy, or the default table
// when nil.
func New(precedence *PrecedenceTable) *Builder {
	if precedence == nil {
		precedence = DefaultPrecedence()
	}
	return &Builder{precedence: precedence}
}

// GroupByOrder splits records by normalized order identity, preserving
// input order within each group and the first-appearance order of the
// groups themselves. Records with no order id are returned separately
// so the caller can skip them with a warning instead of aborting the
// batch.
func GroupByOrder(records []*model.IntermediateRecord) (ids []string, groups map[string][]*model.IntermediateRecord, orphans []*model.IntermediateRecord) {
	groups = make(map[string][]*model.IntermediateRecord)
	for _, rec := range records {
		raw, ok := rec.Fields[model.KeyOrderID]
		if !ok || raw.Value == "" {
			orphans = append(orphans, rec)
			continue
		}
		id := NormalizeOrderID(raw.Value)
		if _, seen := groups[id]; !seen {
			ids = append(ids, id)
		}
		groups[id] = append(groups[id], rec)
	}
	return ids, groups, orphans
}

// Build merges one group of records into a canonical order. All
// records must share one normalized order identity; anything else is a
// MergeError scoped to this order.
func (b *Builder) Build(records []*model.IntermediateRecord) (*model.CanonicalOrder, error) {
	if len(records) == 0 {
		return nil, eris.Wrap(ErrMerge, "builder: no records to merge")
	}

	orderID, err := mergedOrderID(records)
	if err != nil {
		return nil, err
	}

	order := &model.CanonicalOrder{}

	// Carry forward every parse warning so the order's audit trail is
	// complete even for values that never made it into a field.
	for _, rec := range records {
		order.Warnings = append(order.Warnings, rec.Warnings...)
	}

	idField, _ := b.resolve(model.KeyOrderID, records, order)
	order.OrderID = model.Field[string]{
		Value:       orderID,
		Source:      idField.Source,
		SourceField: idField.SourceField,
		Step:        stepBuild,
	}

	order.Customer = b.stringField(model.KeyCustomer, records, order)
	order.PaymentTerms = b.stringField(model.KeyPaymentTerms, records, order)
	order.ExpectedShipDate = b.timeField(model.KeyExpectedShipDate, records, order)
	order.ExpectedDelivery = b.timeField(model.KeyExpectedDelivery, records, order)
	order.ActualDelivery = b.timeField(model.KeyActualDelivery, records, order)
	order.CarrierETA = b.timeField(model.KeyCarrierETA, records, order)
	order.InvoiceDate = b.timeField(model.KeyInvoiceDate, records, order)

	order.LineItems = mergeLineItems(records, order)
	order.ShippedItems = mergeShippedItems(records, order)

	return order, nil
}

// mergedOrderID checks that every record resolves to one normalized
// identity and returns it.
func mergedOrderID(records []*model.IntermediateRecord) (string, error) {
	var id string
	for _, rec := range records {
		raw, ok := rec.Fields[model.KeyOrderID]
		if !ok || raw.Value == "" {
			return "", eris.Wrapf(ErrMerge, "builder: record %s has no order id", rec.DocID)
		}
		norm := NormalizeOrderID(raw.Value)
		if id == "" {
			id = norm
			continue
		}
		if norm != id {
			return "", eris.Wrapf(ErrMerge, "builder: order ids %q and %q do not reconcile", id, norm)
		}
	}
	if id == "" {
		return "", eris.Wrap(ErrMerge, "builder: empty order id")
	}
	return id, nil
}

// resolve walks the precedence chain for a field. The first value from
// the highest-precedence source wins; within one source, earlier-parsed
// records win (stable input order). Every disagreeing losing value is
// kept inspectable as a warning carrying its own provenance.
func (b *Builder) resolve(key string, records []*model.IntermediateRecord, order *model.CanonicalOrder) (model.Field[string], bool) {
	var winner model.Field[string]
	found := false

	for _, source := range b.precedence.Sources(key) {
		for _, rec := range records {
			if rec.DocType != source {
				continue
			}
			candidate, ok := rec.Fields[key]
			if !ok || candidate.Value == "" {
				continue
			}
			if !found {
				winner = candidate
				found = true
				continue
			}
			if candidate.Value != winner.Value && key != model.KeyOrderID {
				order.Warnings = append(order.Warnings, model.Warning{
					Code: "conflicting_value",
					Message: fmt.Sprintf("field %s: discarded %q from %s %s (%s), kept %q from %s",
						key, candidate.Value, candidate.Source.Type, candidate.Source.ID,
						candidate.SourceField, winner.Value, winner.Source.Type),
					Source: candidate.Source,
					Path:   candidate.SourceField,
				})
			}
		}
	}
	return winner, found
}

func (b *Builder) stringField(key string, records []*model.IntermediateRecord, order *model.CanonicalOrder) model.Field[string] {
	if f, ok := b.resolve(key, records, order); ok {
		return f
	}
	return model.Absent[string]()
}

func (b *Builder) timeField(key string, records []*model.IntermediateRecord, order *model.CanonicalOrder) model.Field[time.Time] {
	raw, ok := b.resolve(key, records, order)
	if !ok {
		return model.Absent[time.Time]()
	}
	when, err := parseWhen(raw.Value)
	if err != nil {
		order.Warnings = append(order.Warnings, model.Warning{
			Code:    "bad_date",
			Message: fmt.Sprintf("field %s: %v", key, err),
			Source:  raw.Source,
			Path:    raw.SourceField,
		})
		return model.Absent[time.Time]()
	}
	return model.Field[time.Time]{
		Value:       when,
		Source:      raw.Source,
		SourceField: raw.SourceField,
		Step:        stepBuild,
	}
}

// mergeLineItems takes ordered lines from the purchase order, which is
// authoritative for what was bought.
func mergeLineItems(records []*model.IntermediateRecord, order *model.CanonicalOrder) []model.LineItem {
	var items []model.LineItem
	for _, rec := range records {
		if rec.DocType != model.DocEDI850 {
			continue
		}
		for _, raw := range rec.Lines {
			item := model.LineItem{
				SKU:       raw.SKU,
				UnitPrice: raw.UnitPrice,
				Quantity:  parseQuantity(raw.Quantity, order),
			}
			items = append(items, item)
		}
	}
	return items
}

// mergeShippedItems keeps the shipping notice's own line view for
// shipment-versus-order comparison.
func mergeShippedItems(records []*model.IntermediateRecord, order *model.CanonicalOrder) []model.ShippedItem {
	var items []model.ShippedItem
	for _, rec := range records {
		if rec.DocType != model.DocEDI856 {
			continue
		}
		for _, raw := range rec.Lines {
			items = append(items, model.ShippedItem{
				SKU:      raw.SKU,
				Quantity: parseQuantity(raw.Quantity, order),
			})
		}
	}
	return items
}

func parseQuantity(raw model.Field[string], order *model.CanonicalOrder) model.Field[int] {
	if raw.Value == "" {
		return model.Absent[int]()
	}
	n, err := strconv.Atoi(raw.Value)
	if err != nil {
		order.Warnings = append(order.Warnings, model.Warning{
			Code:    "bad_quantity",
			Message: fmt.Sprintf("quantity %q is not an integer", raw.Value),
			Source:  raw.Source,
			Path:    raw.SourceField,
		})
		return model.Absent[int]()
	}
	return model.Field[int]{
		Value:       n,
		Source:      raw.Source,
		SourceField: raw.SourceField,
		Step:        raw.Step,
	}
}
