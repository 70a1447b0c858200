package builder

import (
	"time"

	"github.com/rotisserie/eris"
)

// dateLayouts are the timestamp shapes the upstream systems emit, most
// specific first. All values are read as UTC; the core never deals in
// local zones.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
	"20060102",
}

// parseWhen parses a source timestamp string into a UTC time.
func parseWhen(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, eris.Errorf("builder: unparseable timestamp %q", value)
}
