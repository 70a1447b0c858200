package builder

import "strings"

// NormalizeOrderID makes order identity comparable across sources that
// disagree on case, surrounding whitespace, or zero padding in the
// numeric part (PO-00123 vs po123). The normalized form is also the
// canonical order id value, so identity stays stable across merges.
func NormalizeOrderID(raw string) string {
	id := strings.ToUpper(strings.TrimSpace(raw))
	id = strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ', '.', '/':
			return -1
		}
		return r
	}, id)

	// Strip zero padding between the alphabetic prefix and the number.
	split := 0
	for split < len(id) && (id[split] < '0' || id[split] > '9') {
		split++
	}
	prefix, digits := id[:split], id[split:]
	if len(digits) > 1 {
		trimmed := strings.TrimLeft(digits, "0")
		if trimmed == "" {
			trimmed = "0"
		}
		// Only treat as padding when the remainder is all digits;
		// mixed suffixes like 00A1 keep their zeros.
		if strings.IndexFunc(trimmed, func(r rune) bool { return r < '0' || r > '9' }) < 0 {
			digits = trimmed
		}
	}
	return prefix + digits
}
