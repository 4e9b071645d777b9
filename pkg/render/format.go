package render

import (
	"time"

	"github.com/shopspring/decimal"
)

// Layouts used when a timestamp parses.
const (
	DateTimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"
)

// backendLayouts are the timestamp shapes the backend is known to send.
// Zone-less layouts are read in the viewer's location.
var backendLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	time.RFC1123,
	"2006-01-02",
}

// Money formats an amount with exactly two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Rupees formats an amount with the rupee sign.
func Rupees(d decimal.Decimal) string {
	return "₹" + Money(d)
}

// BadgeFor maps a status to its badge by exact match.
func BadgeFor(status string) Badge {
	switch Badge(status) {
	case BadgePending, BadgeActive, BadgeApproved, BadgeRejected, BadgeClosed, BadgeDisbursed:
		return Badge(status)
	default:
		return BadgeNeutral
	}
}

func (r *Renderer) parseTime(raw string) (time.Time, bool) {
	for _, layout := range backendLayouts {
		if t, err := time.ParseInLocation(layout, raw, r.loc); err == nil {
			return t.In(r.loc), true
		}
	}
	return time.Time{}, false
}

// DateTime renders a backend timestamp in the viewer's location.
// Unparseable input is returned unchanged.
func (r *Renderer) DateTime(raw string) string {
	t, ok := r.parseTime(raw)
	if !ok {
		return raw
	}
	return t.Format(DateTimeLayout)
}

// Date renders only the calendar date of a backend timestamp.
func (r *Renderer) Date(raw string) string {
	t, ok := r.parseTime(raw)
	if !ok {
		return raw
	}
	return t.Format(DateLayout)
}
