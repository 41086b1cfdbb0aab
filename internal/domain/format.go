package domain

import (
	"fmt"
	"time"
)

// InvalidTime is shown in place of a stop time that cannot be parsed.
const InvalidTime = "Invalid Time"

// stopTimeLayouts are the ISO-8601 variants seen in the feed, tried in order.
var stopTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15.04.05.000Z0700",
}

// FormatStopTime renders a raw feed timestamp as a short date and time in loc
// (UTC when loc is nil), e.g. "12/18/18, 9:00 AM". The stored value is never
// changed; this is presentation only.
func FormatStopTime(raw string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range stopTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.In(loc).Format("1/2/06, 3:04 PM")
		}
	}
	return InvalidTime
}

// FormatPrice renders a price in euros with two decimals, e.g. "25.50€".
func FormatPrice(price float64) string {
	return fmt.Sprintf("%.2f€", price)
}
