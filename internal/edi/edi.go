// Package edi parses raw X12 EDI 850 (purchase order) and 856 (advance
// shipping notice) documents into intermediate records with field-level
// provenance. Unknown segments become parse warnings, never fatal
// errors, so unexpected content is visible downstream instead of
// silently dropped.
package edi

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ErrParse marks a structurally invalid document: nothing segment-like
// in it, or no recoverable order identity. Callers check with eris.Is.
var ErrParse = eris.New("edi: structurally invalid document")

// Delimiters are the three X12 separators. They are read from the ISA
// interchange header when one is present, otherwise the standard
// defaults apply.
type Delimiters struct {
	Element    byte
	SubElement byte
	Segment    byte
}

// DefaultDelimiters returns the conventional element, sub-element, and
// segment separators.
func DefaultDelimiters() Delimiters {
	return Delimiters{Element: '*', SubElement: '>', Segment: '~'}
}

// Segment is one EDI segment split into elements. Elements[0] is the
// segment tag.
type Segment struct {
	Tag      string
	Elements []string
	Index    int // position within the document, for provenance paths
}

// Element returns the n-th element (1-based, X12 convention) or "".
func (s Segment) Element(n int) string {
	if n < 1 || n >= len(s.Elements) {
		return ""
	}
	return s.Elements[n]
}

// detectDelimiters inspects an ISA header. The element separator is the
// byte after the "ISA" tag; the sub-element separator is element 16;
// the segment terminator is whatever follows it.
func detectDelimiters(raw string) Delimiters {
	d := DefaultDelimiters()
	if len(raw) < 4 || !strings.HasPrefix(raw, "ISA") {
		return d
	}
	d.Element = raw[3]

	// Walk to the 16th element separator; the next byte is ISA16 (the
	// sub-element separator) and the byte after that terminates the
	// segment.
	seps := 0
	for i := 3; i < len(raw); i++ {
		if raw[i] != d.Element {
			continue
		}
		seps++
		if seps == 16 {
			if i+1 < len(raw) {
				d.SubElement = raw[i+1]
			}
			if i+2 < len(raw) {
				d.Segment = raw[i+2]
			}
			break
		}
	}
	if d.Segment == '\r' || d.Segment == '\n' {
		d.Segment = '~'
	}
	return d
}

// Split breaks a raw EDI document into segments using delimiters from
// its interchange header. Line breaks around segment terminators are
// tolerated. Returns ErrParse when the input contains no segments.
func Split(raw []byte) ([]Segment, Delimiters, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, DefaultDelimiters(), eris.Wrap(ErrParse, "edi: empty input")
	}
	delims := detectDelimiters(text)

	var segments []Segment
	idx := 0
	for _, chunk := range strings.Split(text, string(delims.Segment)) {
		chunk = strings.Trim(chunk, "\r\n \t")
		if chunk == "" {
			continue
		}
		elements := strings.Split(chunk, string(delims.Element))
		segments = append(segments, Segment{
			Tag:      elements[0],
			Elements: elements,
			Index:    idx,
		})
		idx++
	}
	if len(segments) == 0 {
		return nil, delims, eris.Wrap(ErrParse, "edi: no segments found")
	}
	return segments, delims, nil
}

// envelopeTags are interchange and transaction-set framing segments.
// They carry no order content and are consumed without a warning.
var envelopeTags = map[string]bool{
	"ISA": true, "GS": true, "GE": true, "IEA": true,
	"ST": true, "SE": true, "CTT": true, "HL": true,
}
