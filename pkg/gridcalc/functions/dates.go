package functions

import (
	"fmt"
	"math"
	"time"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
)

// Date builds a date value from year, month and day numbers. Out-of-range
// months and days roll over the way time.Date rolls them, so DATE(2023,13,1)
// lands in January 2024.
func Date(args []models.Value) (models.Value, error) {
	if err := requireArgs("DATE", args, 3); err != nil {
		return nil, err
	}
	year, err := intArg("DATE", args[0])
	if err != nil {
		return nil, err
	}
	month, err := intArg("DATE", args[1])
	if err != nil {
		return nil, err
	}
	day, err := intArg("DATE", args[2])
	if err != nil {
		return nil, err
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return models.NewDate(t), nil
}

// Year returns the calendar year of a date argument.
func Year(args []models.Value) (models.Value, error) {
	t, err := dateArg("YEAR", args)
	if err != nil {
		return nil, err
	}
	return float64(t.Year()), nil
}

// Month returns the calendar month of a date argument, January being 1.
func Month(args []models.Value) (models.Value, error) {
	t, err := dateArg("MONTH", args)
	if err != nil {
		return nil, err
	}
	return float64(t.Month()), nil
}

// Day returns the day of the month of a date argument.
func Day(args []models.Value) (models.Value, error) {
	t, err := dateArg("DAY", args)
	if err != nil {
		return nil, err
	}
	return float64(t.Day()), nil
}

// EOMonth returns the last day of the month the given number of months after
// the start date. The month offset may be negative.
func EOMonth(args []models.Value) (models.Value, error) {
	if err := requireArgs("EOMONTH", args, 2); err != nil {
		return nil, err
	}
	start, err := normalizeDate("EOMONTH", args[0])
	if err != nil {
		return nil, err
	}
	months, err := intArg("EOMONTH", args[1])
	if err != nil {
		return nil, err
	}
	// Day zero of the following month is the last day of the target month.
	last := time.Date(start.Year(), start.Month()+time.Month(months)+1, 0, 0, 0, 0, 0, time.UTC)
	return models.NewDate(last), nil
}

// EDate returns the date the given number of months after the start date,
// keeping the day of month and clamping it when the target month is shorter.
func EDate(args []models.Value) (models.Value, error) {
	if err := requireArgs("EDATE", args, 2); err != nil {
		return nil, err
	}
	start, err := normalizeDate("EDATE", args[0])
	if err != nil {
		return nil, err
	}
	months, err := intArg("EDATE", args[1])
	if err != nil {
		return nil, err
	}
	year, month := start.Year(), start.Month()+time.Month(months)
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := start.Day()
	if day > lastDay {
		day = lastDay
	}
	return models.NewDate(time.Date(year, month, day, 0, 0, 0, 0, time.UTC)), nil
}

func dateArg(name string, args []models.Value) (time.Time, error) {
	if err := requireArgs(name, args, 1); err != nil {
		return time.Time{}, err
	}
	return normalizeDate(name, args[0])
}

// normalizeDate accepts a date value, an ISO-formatted string or a serial
// number and returns the instant it names.
func normalizeDate(name string, v models.Value) (time.Time, error) {
	switch d := v.(type) {
	case models.DateValue:
		return d.Instant, nil
	case string:
		for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, d); err == nil {
				return t, nil
			}
		}
	}
	n := ToNumber(v)
	if math.IsNaN(n) {
		return time.Time{}, fmt.Errorf("%s: argument %v is not a date: %w", name, v, ErrInvalidArgument)
	}
	return models.TimeFromSerial(n), nil
}
