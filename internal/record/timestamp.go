package record

import "time"

// acceptedLayouts are tried in order; the first that parses wins. The
// no-offset layout is tried last and is interpreted as UTC, per the
// source format's "UTC if no offset given" rule.
var acceptedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
}

// ParseTimestamp normalizes an ISO-8601 timestamp string to a
// nanosecond-precision time.Time. Sub-nanosecond fractional digits are
// truncated, not rounded, by Go's time.Parse itself.
func ParseTimestamp(raw string) (time.Time, error) {
	for i, layout := range acceptedLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if i == len(acceptedLayouts)-1 {
			t = t.UTC()
		}
		return t, nil
	}
	return time.Time{}, NewError(InvalidTimestamp, "unparseable timestamp: "+raw, nil)
}
