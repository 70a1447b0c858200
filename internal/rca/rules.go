package rca

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/orderops/internal/model"
)

// A Rule inspects a canonical order (and, when available, its ETA
// delta) and emits at most one incident. Rules are pure: they never
// mutate their inputs, and their numbered order is part of the public
// contract.
type Rule struct {
	Num  int
	Kind model.IncidentKind
	Eval func(order *model.CanonicalOrder, delta *model.ETADelta, cfg Config) *model.Incident
}

// Rules is the fixed evaluation order. Every applicable rule fires;
// the engine never stops at the first match.
func Rules() []Rule {
	return []Rule{
		{Num: 1, Kind: model.IncidentETASlip, Eval: evalETASlip},
		{Num: 2, Kind: model.IncidentWrongProduct, Eval: evalWrongProduct},
		{Num: 3, Kind: model.IncidentPaymentDelay, Eval: evalPaymentDelay},
	}
}

// evalETASlip fires when the order arrived later than expected by more
// than the configured threshold, with severity scaled by magnitude.
func evalETASlip(order *model.CanonicalOrder, delta *model.ETADelta, cfg Config) *model.Incident {
	if delta == nil || delta.DeltaHours <= cfg.SlipThresholdHours {
		return nil
	}
	return &model.Incident{
		Kind:     model.IncidentETASlip,
		Severity: cfg.slipSeverity(delta.DeltaHours),
		OrderID:  order.OrderID.Value,
		Evidence: []model.EvidenceRef{
			timeEvidence(model.KeyActualDelivery, order.ActualDelivery),
			{
				FieldKey:   "eta_delta.expected",
				Value:      delta.Expected.Format("2006-01-02T15:04:05Z"),
				SourceType: model.SourceDerived,
				SourceID:   "reconcile",
			},
		},
		Explanation: fmt.Sprintf(
			"order %s arrived %.1f hours later than the %s expectation of %s",
			order.OrderID.Value, delta.DeltaHours, delta.Basis,
			delta.Expected.Format("2006-01-02T15:04"),
		),
	}
}

// evalWrongProduct fires when the shipping notice disagrees with the
// purchase order about what or how much was shipped.
func evalWrongProduct(order *model.CanonicalOrder, _ *model.ETADelta, _ Config) *model.Incident {
	if len(order.LineItems) == 0 || len(order.ShippedItems) == 0 {
		return nil
	}

	ordered := make(map[string]model.LineItem, len(order.LineItems))
	for _, item := range order.LineItems {
		ordered[item.SKU.Value] = item
	}

	var mismatches []string
	var evidence []model.EvidenceRef
	for _, shipped := range order.ShippedItems {
		want, ok := ordered[shipped.SKU.Value]
		if !ok {
			mismatches = append(mismatches,
				fmt.Sprintf("shipped SKU %s was never ordered", shipped.SKU.Value))
			evidence = append(evidence, model.Evidence("shipped_items.sku", shipped.SKU))
			continue
		}
		if !want.Quantity.IsAbsent() && !shipped.Quantity.IsAbsent() &&
			!model.EqualValue(want.Quantity, shipped.Quantity) {
			mismatches = append(mismatches,
				fmt.Sprintf("SKU %s: ordered %d, shipped %d",
					shipped.SKU.Value, want.Quantity.Value, shipped.Quantity.Value))
			evidence = append(evidence,
				intEvidence("line_items.quantity", want.Quantity),
				intEvidence("shipped_items.quantity", shipped.Quantity),
			)
		}
	}
	if len(mismatches) == 0 {
		return nil
	}
	return &model.Incident{
		Kind:        model.IncidentWrongProduct,
		Severity:    model.SeverityHigh,
		OrderID:     order.OrderID.Value,
		Evidence:    evidence,
		Explanation: "shipment disagrees with purchase order: " + strings.Join(mismatches, "; "),
	}
}

// evalPaymentDelay fires when ERP payment terms plus the invoice date
// imply the invoice was already overdue at delivery time.
func evalPaymentDelay(order *model.CanonicalOrder, _ *model.ETADelta, _ Config) *model.Incident {
	if order.PaymentTerms.IsAbsent() || order.InvoiceDate.IsAbsent() || order.ActualDelivery.IsAbsent() {
		return nil
	}
	netDays, ok := netTermDays(order.PaymentTerms.Value)
	if !ok {
		return nil
	}

	due := order.InvoiceDate.Value.AddDate(0, 0, netDays)
	if !order.ActualDelivery.Value.After(due) {
		return nil
	}
	overdueDays := order.ActualDelivery.Value.Sub(due).Hours() / 24

	return &model.Incident{
		Kind:     model.IncidentPaymentDelay,
		Severity: model.SeverityMedium,
		OrderID:  order.OrderID.Value,
		Evidence: []model.EvidenceRef{
			model.Evidence(model.KeyPaymentTerms, order.PaymentTerms),
			timeEvidence(model.KeyInvoiceDate, order.InvoiceDate),
			timeEvidence(model.KeyActualDelivery, order.ActualDelivery),
		},
		Explanation: fmt.Sprintf(
			"invoice under terms %s was %.0f days overdue by delivery",
			order.PaymentTerms.Value, overdueDays,
		),
	}
}

// netTermDays parses terms like "NET30" or "NET 30".
func netTermDays(terms string) (int, bool) {
	t := strings.ToUpper(strings.ReplaceAll(terms, " ", ""))
	if !strings.HasPrefix(t, "NET") {
		return 0, false
	}
	days, err := strconv.Atoi(t[3:])
	if err != nil || days < 0 {
		return 0, false
	}
	return days, true
}

func timeEvidence(key string, f model.Field[time.Time]) model.EvidenceRef {
	return model.EvidenceRef{
		FieldKey:    key,
		Value:       f.Value.Format("2006-01-02T15:04:05Z"),
		SourceType:  f.Source.Type,
		SourceID:    f.Source.ID,
		SourceField: f.SourceField,
	}
}

func intEvidence(key string, f model.Field[int]) model.EvidenceRef {
	return model.EvidenceRef{
		FieldKey:    key,
		Value:       strconv.Itoa(f.Value),
		SourceType:  f.Source.Type,
		SourceID:    f.Source.ID,
		SourceField: f.SourceField,
	}
}
