// Package reconcile computes the delivery-time delta between when an
// order was expected and when it actually arrived.
package reconcile

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/orderops/internal/model"
)

// ErrReconcile marks an order with no usable expected/actual timestamp
// pair. Fatal for this order's delta and its time-based rules only.
var ErrReconcile = eris.New("reconcile: no usable timestamps")

// Reconcile derives the ETA delta for a canonical order.
//
// The expected side comes from the merged expected_delivery field when
// one exists; its basis is the field's winning source. The EDI 856 is
// authoritative over the ERP by merge precedence, and a disagreement
// between them has already been recorded as a warning, not an error.
// When no source stated an expected delivery at all, the carrier's own
// ETA serves as the expectation, with basis CARRIER.
//
// Positive DeltaHours means the order arrived late.
func Reconcile(order *model.CanonicalOrder) (*model.ETADelta, error) {
	if order.ActualDelivery.IsAbsent() {
		return nil, eris.Wrapf(ErrReconcile, "reconcile: order %s has no actual delivery", order.OrderID.Value)
	}

	expected := order.ExpectedDelivery
	basis := basisFor(expected.Source.Type)
	if expected.IsAbsent() {
		expected = order.CarrierETA
		basis = model.BasisCarrier
	}
	if expected.IsAbsent() {
		return nil, eris.Wrapf(ErrReconcile, "reconcile: order %s has no expected delivery or carrier ETA", order.OrderID.Value)
	}

	delta := order.ActualDelivery.Value.Sub(expected.Value)
	deltaHours := roundHours(delta.Hours())

	zap.L().Debug("reconcile: computed delta",
		zap.String("order_id", order.OrderID.Value),
		zap.Float64("delta_hours", deltaHours),
		zap.String("basis", string(basis)),
	)

	return &model.ETADelta{
		OrderID:    order.OrderID.Value,
		Expected:   expected.Value,
		Actual:     order.ActualDelivery.Value,
		DeltaHours: deltaHours,
		Basis:      basis,
	}, nil
}

func basisFor(source model.DocumentType) model.Basis {
	switch source {
	case model.DocEDI850:
		return model.BasisEDI850
	case model.DocEDI856:
		return model.BasisEDI856
	case model.DocCarrier:
		return model.BasisCarrier
	default:
		return model.BasisERP
	}
}

// roundHours fixes the delta to millihour resolution so canonical
// serialization never depends on float dust.
func roundHours(h float64) float64 {
	return math.Round(h*1000) / 1000
}
