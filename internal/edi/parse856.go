package edi

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/orderops/internal/canonical"
	"github.com/sells-group/orderops/internal/model"
)

const step856 = "parse_edi_856"

// Parse856 converts a raw EDI 856 advance shipping notice into an
// intermediate record. The order identity comes from PRF01 (the
// referenced purchase order), falling back to the BSN02 shipment id
// when no PRF segment is present.
func Parse856(raw []byte, docID string) (*model.IntermediateRecord, error) {
	segments, _, err := Split(raw)
	if err != nil {
		return nil, err
	}

	rec := &model.IntermediateRecord{
		DocType: model.DocEDI856,
		DocID:   docID,
		Ref: model.DocumentRef{
			Type:   model.DocEDI856,
			ID:     docID,
			Digest: canonical.DigestBytes(raw),
		},
		Fields: make(map[string]model.Field[string]),
	}

	var pendingSKU *model.Field[string]
	for _, seg := range segments {
		switch seg.Tag {
		case "BSN":
			// Shipment id; only used for order identity when no PRF follows.
			if _, ok := rec.Fields[model.KeyOrderID]; !ok {
				if id := seg.Element(2); id != "" {
					rec.Set(model.KeyOrderID, id, "BSN02", step856)
				}
			}
		case "PRF":
			if po := seg.Element(1); po != "" {
				rec.Set(model.KeyOrderID, po, "PRF01", step856)
			}
		case "DTM":
			parse856DTM(rec, seg)
		case "TD5":
			if carrier := seg.Element(3); carrier != "" {
				rec.Set(model.KeyCarrierName, carrier, "TD503", step856)
			}
		case "LIN":
			sku := model.NewField(seg.Element(3), rec.Ref, "LIN03", step856)
			pendingSKU = &sku
		case "SN1":
			line := model.RawLineItem{
				Quantity: model.NewField(seg.Element(2), rec.Ref, "SN102", step856),
			}
			if pendingSKU != nil {
				line.SKU = *pendingSKU
				pendingSKU = nil
			} else {
				rec.Warn("missing_sku", segPath(seg), "SN1 quantity with no preceding LIN")
			}
			rec.Lines = append(rec.Lines, line)
		default:
			if !envelopeTags[seg.Tag] {
				rec.Warn("unmapped_segment", segPath(seg),
					fmt.Sprintf("unmapped segment %s", seg.Tag))
			}
		}
	}

	if _, ok := rec.Fields[model.KeyOrderID]; !ok {
		return nil, eris.Wrapf(ErrParse, "edi: 856 %s has no order id (PRF01/BSN02)", docID)
	}
	return rec, nil
}

func parse856DTM(rec *model.IntermediateRecord, seg Segment) {
	qualifier := seg.Element(1)
	var key string
	switch qualifier {
	case "011": // shipped / delivered per carrier confirmation
		key = model.KeyActualDelivery
	case "017": // estimated delivery
		key = model.KeyExpectedDelivery
	default:
		rec.Warn("unmapped_segment", segPath(seg),
			fmt.Sprintf("unmapped DTM qualifier %q", qualifier))
		return
	}
	value := dtmValue(seg.Element(2), seg.Element(3))
	if value == "" {
		rec.Warn("bad_date", segPath(seg),
			fmt.Sprintf("DTM*%s date %q is not CCYYMMDD", qualifier, seg.Element(2)))
		return
	}
	rec.Set(key, value, "DTM02", step856)
}
