package functions

import (
	"fmt"
	"math"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
)

// Sum adds every numeric argument. Range arguments are flattened first and
// entries that do not coerce to a number are skipped.
func Sum(args []models.Value) (models.Value, error) {
	total := 0.0
	for _, v := range Flatten(args) {
		n := ToNumber(v)
		if math.IsNaN(n) {
			continue
		}
		total += n
	}
	return total, nil
}

// Average returns the mean of the numeric arguments. Non-numeric entries are
// skipped; with no numeric entry at all there is nothing to divide by.
func Average(args []models.Value) (models.Value, error) {
	total := 0.0
	count := 0
	for _, v := range Flatten(args) {
		n := ToNumber(v)
		if math.IsNaN(n) {
			continue
		}
		total += n
		count++
	}
	if count == 0 {
		return nil, fmt.Errorf("AVERAGE: no numeric arguments: %w", ErrInvalidArgument)
	}
	return total / float64(count), nil
}

// Count returns the number of entries passed to it, ranges expanded. Blank
// cells inside a range count too.
func Count(args []models.Value) (models.Value, error) {
	return float64(len(Flatten(args))), nil
}

// Max returns the largest numeric argument, or 0 when none is numeric.
func Max(args []models.Value) (models.Value, error) {
	best := math.Inf(-1)
	found := false
	for _, v := range Flatten(args) {
		n := ToNumber(v)
		if math.IsNaN(n) {
			continue
		}
		if n > best {
			best = n
		}
		found = true
	}
	if !found {
		return 0.0, nil
	}
	return best, nil
}

// Min returns the smallest numeric argument, or 0 when none is numeric.
func Min(args []models.Value) (models.Value, error) {
	best := math.Inf(1)
	found := false
	for _, v := range Flatten(args) {
		n := ToNumber(v)
		if math.IsNaN(n) {
			continue
		}
		if n < best {
			best = n
		}
		found = true
	}
	if !found {
		return 0.0, nil
	}
	return best, nil
}

// Abs returns the absolute value of its argument.
func Abs(args []models.Value) (models.Value, error) {
	if err := requireArgs("ABS", args, 1); err != nil {
		return nil, err
	}
	n, err := numericArg("ABS", args[0])
	if err != nil {
		return nil, err
	}
	return math.Abs(n), nil
}

// Sqrt returns the square root of its argument. Negative input is an error.
func Sqrt(args []models.Value) (models.Value, error) {
	if err := requireArgs("SQRT", args, 1); err != nil {
		return nil, err
	}
	n, err := numericArg("SQRT", args[0])
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("SQRT: negative argument %v: %w", n, ErrInvalidArgument)
	}
	return math.Sqrt(n), nil
}

// Power raises the first argument to the second.
func Power(args []models.Value) (models.Value, error) {
	if err := requireArgs("POWER", args, 2); err != nil {
		return nil, err
	}
	base, err := numericArg("POWER", args[0])
	if err != nil {
		return nil, err
	}
	exp, err := numericArg("POWER", args[1])
	if err != nil {
		return nil, err
	}
	out := math.Pow(base, exp)
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return nil, fmt.Errorf("POWER: %v^%v is not a finite number: %w", base, exp, ErrInvalidArgument)
	}
	return out, nil
}

// Round rounds to the given number of decimal places, halves away from zero.
// The second argument defaults to 0 and may be negative.
func Round(args []models.Value) (models.Value, error) {
	n, p, err := roundArgs("ROUND", args)
	if err != nil {
		return nil, err
	}
	return sign(n) * math.Floor(math.Abs(n)*p+0.5) / p, nil
}

// RoundUp rounds away from zero at the given number of decimal places.
func RoundUp(args []models.Value) (models.Value, error) {
	n, p, err := roundArgs("ROUNDUP", args)
	if err != nil {
		return nil, err
	}
	return sign(n) * math.Ceil(math.Abs(n)*p) / p, nil
}

// RoundDown rounds toward zero at the given number of decimal places.
func RoundDown(args []models.Value) (models.Value, error) {
	n, p, err := roundArgs("ROUNDDOWN", args)
	if err != nil {
		return nil, err
	}
	return sign(n) * math.Floor(math.Abs(n)*p) / p, nil
}

// roundArgs resolves the shared number plus optional digit count of the
// ROUND family, returning the number and the scale factor 10^digits.
func roundArgs(name string, args []models.Value) (float64, float64, error) {
	if err := requireArgs(name, args, 1); err != nil {
		return 0, 0, err
	}
	n, err := numericArg(name, args[0])
	if err != nil {
		return 0, 0, err
	}
	digits := 0.0
	if len(args) > 1 {
		digits, err = numericArg(name, args[1])
		if err != nil {
			return 0, 0, err
		}
	}
	return n, math.Pow(10, math.Trunc(digits)), nil
}

func numericArg(name string, v models.Value) (float64, error) {
	n := ToNumber(v)
	if math.IsNaN(n) {
		return 0, fmt.Errorf("%s: argument %v is not numeric: %w", name, v, ErrInvalidArgument)
	}
	return n, nil
}

func sign(n float64) float64 {
	if n < 0 {
		return -1
	}
	return 1
}
