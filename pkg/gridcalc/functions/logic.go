package functions

import (
	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
)

// If returns the second argument when the first is truthy, the third
// otherwise. All three arguments are required.
func If(args []models.Value) (models.Value, error) {
	if err := requireArgs("IF", args, 3); err != nil {
		return nil, err
	}
	if IsTruthy(args[0]) {
		return args[1], nil
	}
	return args[2], nil
}

// IsNumberFn reports whether the argument is numeric.
func IsNumberFn(args []models.Value) (models.Value, error) {
	if err := requireArgs("ISNUMBER", args, 1); err != nil {
		return nil, err
	}
	return IsNumeric(args[0]), nil
}

// IsTextFn reports whether the argument is a text value.
func IsTextFn(args []models.Value) (models.Value, error) {
	if err := requireArgs("ISTEXT", args, 1); err != nil {
		return nil, err
	}
	_, ok := args[0].(string)
	return ok, nil
}

// IsBlankFn reports whether the argument is an empty cell or empty text.
func IsBlankFn(args []models.Value) (models.Value, error) {
	if err := requireArgs("ISBLANK", args, 1); err != nil {
		return nil, err
	}
	if args[0] == nil {
		return true, nil
	}
	s, ok := args[0].(string)
	return ok && s == "", nil
}
