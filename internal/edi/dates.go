package edi

import "time"

// dtmValue converts a DTM date element (CCYYMMDD) plus optional time
// element (HHMM or HHMMSS) into an ISO-8601 string. Intermediate
// records carry dates in this form so the builder only ever parses one
// shape. Returns "" when the elements are not a valid date; the caller
// records a warning.
func dtmValue(date, clock string) string {
	d, err := time.Parse("20060102", date)
	if err != nil {
		return ""
	}
	if clock == "" {
		return d.Format("2006-01-02")
	}
	layout := "1504"
	if len(clock) == 6 {
		layout = "150405"
	}
	t, err := time.Parse(layout, clock)
	if err != nil {
		return d.Format("2006-01-02")
	}
	return time.Date(d.Year(), d.Month(), d.Day(),
		t.Hour(), t.Minute(), t.Second(), 0, time.UTC,
	).Format("2006-01-02T15:04:05")
}
