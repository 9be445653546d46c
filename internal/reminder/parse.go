package reminder

import (
	"errors"
	"strings"
	"time"
)

// ErrUnrecognizedDateTime is returned when the date or the time string
// matches none of the supported layouts.
var ErrUnrecognizedDateTime = errors.New("unrecognized date or time")

// Single-digit day, month, hour and minute are accepted.
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2006-1-2",
}

var timeLayouts = []string{
	"15:4",
	"15.4",
	"15:4:5",
}

// ParseDateTime combines a loosely formatted date and time into one wall-clock
// timestamp in loc. Layouts are tried in order and the first match wins.
func ParseDateTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	date, ok := firstMatch(strings.TrimSpace(dateStr), dateLayouts)
	if !ok {
		return time.Time{}, ErrUnrecognizedDateTime
	}
	clock, ok := firstMatch(strings.TrimSpace(timeStr), timeLayouts)
	if !ok {
		return time.Time{}, ErrUnrecognizedDateTime
	}

	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, loc), nil
}

func firstMatch(value string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
