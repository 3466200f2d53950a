package models

import (
	"math"
	"time"
)

// DateKind distinguishes whole-day dates from timestamps.
type DateKind string

const (
	// DateKindDate is a calendar date with no time component.
	DateKindDate DateKind = "date"
	// DateKindDateTime is a date with a time-of-day component.
	DateKindDateTime DateKind = "datetime"
)

// SerialEpoch is the day-zero instant of the serial date system. Day counts
// are relative to 1899-12-30, the compatibility epoch that preserves the
// historical 1900 leap-year numbering of legacy spreadsheet files.
var SerialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// DateValue is a tagged date result. Serial is the epoch-relative day count;
// a DateKindDateTime value carries the time of day as the fractional part.
type DateValue struct {
	// Kind is "date" or "datetime".
	Kind DateKind `json:"kind"`
	// Instant is the calendar instant, in UTC.
	Instant time.Time `json:"instant"`
	// Serial is the day count since SerialEpoch.
	Serial float64 `json:"serial"`
}

// NewDate builds a whole-day date value from t, discarding the time of day.
func NewDate(t time.Time) DateValue {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return DateValue{
		Kind:    DateKindDate,
		Instant: day,
		Serial:  SerialFromTime(day),
	}
}

// NewDateTime builds a timestamp value from t with second precision.
func NewDateTime(t time.Time) DateValue {
	at := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	return DateValue{
		Kind:    DateKindDateTime,
		Instant: at,
		Serial:  SerialFromTime(at),
	}
}

// DateFromSerial builds a date value from an epoch-relative day count.
// A fractional serial yields a datetime, a whole serial a plain date.
func DateFromSerial(serial float64) DateValue {
	kind := DateKindDate
	if serial != math.Trunc(serial) {
		kind = DateKindDateTime
	}
	return DateValue{
		Kind:    kind,
		Instant: TimeFromSerial(serial),
		Serial:  serial,
	}
}

// String renders the instant as an ISO date, with the time of day appended
// for datetime values.
func (d DateValue) String() string {
	if d.Kind == DateKindDateTime {
		return d.Instant.Format("2006-01-02 15:04:05")
	}
	return d.Instant.Format("2006-01-02")
}

// SerialFromTime converts an instant to an epoch-relative day count. The
// calendar fields of t are read as given; the zone offset is ignored so a
// local midnight and a UTC midnight produce the same serial.
func SerialFromTime(t time.Time) float64 {
	at := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	return at.Sub(SerialEpoch).Hours() / 24
}

// TimeFromSerial converts an epoch-relative day count back to an instant,
// rounding the fractional day to whole seconds.
func TimeFromSerial(serial float64) time.Time {
	days := math.Floor(serial)
	frac := serial - days
	secs := math.Round(frac * 86400)
	return SerialEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second)
}
