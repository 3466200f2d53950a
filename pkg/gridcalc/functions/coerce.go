package functions

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
)

// ToNumber coerces a value to float64, returning NaN when the value has no
// numeric reading. Dates coerce to their serial day count.
func ToNumber(v models.Value) float64 {
	switch t := v.(type) {
	case nil:
		return math.NaN()
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		return NumberFromString(t)
	case models.DateValue:
		return t.Serial
	default:
		return math.NaN()
	}
}

// NumberFromString parses a displayed number. Currency symbols, thousands
// separators (comma, no-break and narrow no-break spaces) and a trailing
// percent sign are tolerated; percent divides the result by 100.
func NumberFromString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	percent := false
	if strings.HasSuffix(s, "%") {
		percent = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case ',', ' ', ' ', '$', '€', '£', '¥':
		case ' ':
		default:
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return math.NaN()
	}
	if percent {
		f /= 100
	}
	return f
}

// ToText coerces a value to its textual form. Blank cells render as "".
func ToText(v models.Value) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case models.DateValue:
		return t.String()
	case models.ErrorValue:
		return t.Code
	default:
		return fmt.Sprintf("%v", t)
	}
}

// IsTruthy applies the non-zero/non-empty truth rule used by IF.
func IsTruthy(v models.Value) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	case models.DateValue:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether the value reads as a number, including numeric
// strings and dates. Booleans do not count.
func IsNumeric(v models.Value) bool {
	switch t := v.(type) {
	case float64:
		return !math.IsNaN(t)
	case int, int64:
		return true
	case string:
		return !math.IsNaN(NumberFromString(t))
	case models.DateValue:
		return true
	default:
		return false
	}
}

// Flatten expands range arguments (nested slices) into one flat argument
// list, preserving row-major order.
func Flatten(args []models.Value) []models.Value {
	flat := make([]models.Value, 0, len(args))
	for _, a := range args {
		if list, ok := a.([]models.Value); ok {
			flat = append(flat, list...)
			continue
		}
		flat = append(flat, a)
	}
	return flat
}
