package builder

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/orderops/internal/model"
)

func record(docType model.DocumentType, docID string, fields map[string]string) *model.IntermediateRecord {
	rec := &model.IntermediateRecord{
		DocType: docType,
		DocID:   docID,
		Ref:     model.DocumentRef{Type: docType, ID: docID},
		Fields:  make(map[string]model.Field[string]),
	}
	for key, value := range fields {
		rec.Set(key, value, key, "test")
	}
	return rec
}

func TestGroupByOrder(t *testing.T) {
	t.Parallel()

	records := []*model.IntermediateRecord{
		record(model.DocEDI850, "a.edi", map[string]string{model.KeyOrderID: "PO-00123"}),
		record(model.DocERP, "erp.csv#2", map[string]string{model.KeyOrderID: "po123"}),
		record(model.DocEDI850, "b.edi", map[string]string{model.KeyOrderID: "PO-456"}),
		record(model.DocCarrier, "carrier.csv#2", map[string]string{model.KeyCarrierETA: "2025-08-05"}),
	}

	ids, groups, orphans := GroupByOrder(records)

	// Different spellings of the same id land in one group, in
	// first-appearance order.
	assert.Equal(t, []string{"PO123", "PO456"}, ids)
	assert.Len(t, groups["PO123"], 2)
	assert.Len(t, groups["PO456"], 1)
	require.Len(t, orphans, 1)
	assert.Equal(t, "carrier.csv#2", orphans[0].DocID)
}

func TestBuild_PrecedenceWinsAndConflictWarns(t *testing.T) {
	t.Parallel()

	records := []*model.IntermediateRecord{
		record(model.DocEDI850, "po.edi", map[string]string{
			model.KeyOrderID:  "PO-00123",
			model.KeyCustomer: "ACME RETAIL",
		}),
		record(model.DocEDI856, "asn.edi", map[string]string{
			model.KeyOrderID:          "PO123",
			model.KeyExpectedDelivery: "2025-08-05T10:00:00",
		}),
		record(model.DocERP, "erp.csv#2", map[string]string{
			model.KeyOrderID:          "po-123",
			model.KeyCustomer:         "Acme Retail Inc",
			model.KeyExpectedDelivery: "2025-08-04 18:00",
		}),
	}

	order, err := New(nil).Build(records)
	require.NoError(t, err)

	assert.Equal(t, "PO123", order.OrderID.Value)

	// ERP outranks the 850 for customer identity.
	assert.Equal(t, "Acme Retail Inc", order.Customer.Value)
	assert.Equal(t, model.DocERP, order.Customer.Source.Type)

	// The 856 outranks the ERP for expected delivery; the losing ERP
	// value survives as an inspectable warning.
	assert.Equal(t,
		time.Date(2025, 8, 5, 10, 0, 0, 0, time.UTC),
		order.ExpectedDelivery.Value)
	assert.Equal(t, model.DocEDI856, order.ExpectedDelivery.Source.Type)

	var conflicts []model.Warning
	for _, w := range order.Warnings {
		if w.Code == "conflicting_value" {
			conflicts = append(conflicts, w)
		}
	}
	require.NotEmpty(t, conflicts)
	found := false
	for _, w := range conflicts {
		if w.Source.Type == model.DocERP && w.Path == model.KeyExpectedDelivery {
			found = true
		}
	}
	assert.True(t, found, "losing expected_delivery should carry ERP provenance")
}

func TestBuild_EqualPrecedenceEarlierRecordWins(t *testing.T) {
	t.Parallel()

	first := record(model.DocERP, "erp.csv#2", map[string]string{
		model.KeyOrderID:  "PO9",
		model.KeyCustomer: "First Corp",
	})
	second := record(model.DocERP, "erp.csv#3", map[string]string{
		model.KeyOrderID:  "PO9",
		model.KeyCustomer: "Second Corp",
	})

	order, err := New(nil).Build([]*model.IntermediateRecord{first, second})
	require.NoError(t, err)
	assert.Equal(t, "First Corp", order.Customer.Value)
	assert.Equal(t, "erp.csv#2", order.Customer.Source.ID)
}

func TestBuild_ConflictingIdentitiesFail(t *testing.T) {
	t.Parallel()

	records := []*model.IntermediateRecord{
		record(model.DocEDI850, "a.edi", map[string]string{model.KeyOrderID: "PO1"}),
		record(model.DocEDI856, "b.edi", map[string]string{model.KeyOrderID: "PO2"}),
	}
	_, err := New(nil).Build(records)
	assert.True(t, eris.Is(err, ErrMerge))
}

func TestBuild_NoRecords(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Build(nil)
	assert.True(t, eris.Is(err, ErrMerge))
}

func TestBuild_AbsentFieldsKeepSentinel(t *testing.T) {
	t.Parallel()

	records := []*model.IntermediateRecord{
		record(model.DocEDI850, "a.edi", map[string]string{model.KeyOrderID: "PO1"}),
	}
	order, err := New(nil).Build(records)
	require.NoError(t, err)

	assert.True(t, order.Customer.IsAbsent())
	assert.True(t, order.ActualDelivery.IsAbsent())
	assert.Equal(t, model.SourceAbsent, order.CarrierETA.Source.Type)
}

func TestBuild_BadDateWarnsAndStaysAbsent(t *testing.T) {
	t.Parallel()

	records := []*model.IntermediateRecord{
		record(model.DocERP, "erp.csv#2", map[string]string{
			model.KeyOrderID:        "PO1",
			model.KeyActualDelivery: "next Tuesday",
		}),
	}
	order, err := New(nil).Build(records)
	require.NoError(t, err)

	assert.True(t, order.ActualDelivery.IsAbsent())
	require.Len(t, order.Warnings, 1)
	assert.Equal(t, "bad_date", order.Warnings[0].Code)
}

func TestBuild_LineItemsFromPurchaseOrder(t *testing.T) {
	t.Parallel()

	po := record(model.DocEDI850, "po.edi", map[string]string{model.KeyOrderID: "PO1"})
	po.Lines = []model.RawLineItem{
		{
			SKU:       model.NewField("WIDGET-9", po.Ref, "PO107", "test"),
			Quantity:  model.NewField("10", po.Ref, "PO102", "test"),
			UnitPrice: model.NewField("4.25", po.Ref, "PO104", "test"),
		},
	}
	asn := record(model.DocEDI856, "asn.edi", map[string]string{model.KeyOrderID: "PO1"})
	asn.Lines = []model.RawLineItem{
		{
			SKU:      model.NewField("WIDGET-9", asn.Ref, "LIN03", "test"),
			Quantity: model.NewField("8", asn.Ref, "SN102", "test"),
		},
	}

	order, err := New(nil).Build([]*model.IntermediateRecord{po, asn})
	require.NoError(t, err)

	require.Len(t, order.LineItems, 1)
	assert.Equal(t, "WIDGET-9", order.LineItems[0].SKU.Value)
	assert.Equal(t, 10, order.LineItems[0].Quantity.Value)
	assert.Equal(t, "4.25", order.LineItems[0].UnitPrice.Value)

	require.Len(t, order.ShippedItems, 1)
	assert.Equal(t, 8, order.ShippedItems[0].Quantity.Value)
}

func TestBuild_BadQuantityWarns(t *testing.T) {
	t.Parallel()

	po := record(model.DocEDI850, "po.edi", map[string]string{model.KeyOrderID: "PO1"})
	po.Lines = []model.RawLineItem{
		{
			SKU:      model.NewField("WIDGET-9", po.Ref, "PO107", "test"),
			Quantity: model.NewField("ten", po.Ref, "PO102", "test"),
		},
	}

	order, err := New(nil).Build([]*model.IntermediateRecord{po})
	require.NoError(t, err)

	require.Len(t, order.LineItems, 1)
	assert.True(t, order.LineItems[0].Quantity.IsAbsent())
	require.Len(t, order.Warnings, 1)
	assert.Equal(t, "bad_quantity", order.Warnings[0].Code)
}
