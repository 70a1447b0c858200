package edi

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/orderops/internal/canonical"
	"github.com/sells-group/orderops/internal/model"
)

const step850 = "parse_edi_850"

// Parse850 converts a raw EDI 850 purchase order into an intermediate
// record. Every extracted value is wrapped with the document reference
// and the segment/element path it came from. Returns ErrParse only when
// no order identity can be recovered; anything else degrades to
// warnings on a partially populated record.
func Parse850(raw []byte, docID string) (*model.IntermediateRecord, error) {
	segments, _, err := Split(raw)
	if err != nil {
		return nil, err
	}

	rec := &model.IntermediateRecord{
		DocType: model.DocEDI850,
		DocID:   docID,
		Ref: model.DocumentRef{
			Type:   model.DocEDI850,
			ID:     docID,
			Digest: canonical.DigestBytes(raw),
		},
		Fields: make(map[string]model.Field[string]),
	}

	for _, seg := range segments {
		switch seg.Tag {
		case "BEG":
			// BEG03 is the purchase order number.
			if po := seg.Element(3); po != "" {
				rec.Set(model.KeyOrderID, po, "BEG03", step850)
			}
		case "DTM":
			parse850DTM(rec, seg)
		case "N1":
			parse850N1(rec, seg)
		case "PO1":
			parsePO1(rec, seg)
		case "ITD":
			// ITD07 holds the net payment days.
			if days := seg.Element(7); days != "" {
				rec.Set(model.KeyPaymentTerms, "NET"+days, "ITD07", step850)
			}
		default:
			if !envelopeTags[seg.Tag] {
				rec.Warn("unmapped_segment", segPath(seg),
					fmt.Sprintf("unmapped segment %s", seg.Tag))
			}
		}
	}

	if _, ok := rec.Fields[model.KeyOrderID]; !ok {
		return nil, eris.Wrapf(ErrParse, "edi: 850 %s has no order id (BEG03)", docID)
	}
	return rec, nil
}

func parse850DTM(rec *model.IntermediateRecord, seg Segment) {
	qualifier := seg.Element(1)
	var key string
	switch qualifier {
	case "037": // ship not before / scheduled ship
		key = model.KeyExpectedShipDate
	case "002": // requested delivery
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
	rec.Set(key, value, "DTM02", step850)
}

func parse850N1(rec *model.IntermediateRecord, seg Segment) {
	switch seg.Element(1) {
	case "BY": // buying party
		if name := seg.Element(2); name != "" {
			rec.Set(model.KeyCustomer, name, "N102", step850)
		}
	case "ST": // ship-to
		if name := seg.Element(2); name != "" {
			rec.Set("ship_to", name, "N102", step850)
		}
	default:
		rec.Warn("unmapped_segment", segPath(seg),
			fmt.Sprintf("unmapped N1 qualifier %q", seg.Element(1)))
	}
}

// parsePO1 extracts one order line. PO102 is quantity, PO104 unit
// price, and the product id is found in qualifier/value element pairs
// starting at PO106.
func parsePO1(rec *model.IntermediateRecord, seg Segment) {
	line := model.RawLineItem{
		Quantity:  model.NewField(seg.Element(2), rec.Ref, "PO102", step850),
		UnitPrice: model.NewField(seg.Element(4), rec.Ref, "PO104", step850),
	}
	for i := 6; i+1 < len(seg.Elements); i += 2 {
		qualifier := seg.Element(i)
		switch qualifier {
		case "VP", "UP", "IN", "SK", "BP":
			line.SKU = model.NewField(seg.Element(i+1), rec.Ref,
				fmt.Sprintf("PO1%02d", i+1), step850)
		}
		if line.SKU.Value != "" {
			break
		}
	}
	if line.SKU.Value == "" {
		rec.Warn("missing_sku", segPath(seg), "PO1 line has no product id qualifier")
		return
	}
	rec.Lines = append(rec.Lines, line)
}

func segPath(seg Segment) string {
	return fmt.Sprintf("%s[%d]", seg.Tag, seg.Index)
}
