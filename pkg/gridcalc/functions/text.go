package functions

import (
	"fmt"
	"math"
	"strings"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
)

// Concatenate joins the text form of every argument, ranges expanded.
func Concatenate(args []models.Value) (models.Value, error) {
	var b strings.Builder
	for _, v := range Flatten(args) {
		b.WriteString(ToText(v))
	}
	return b.String(), nil
}

// Length returns the number of characters in the argument's text form.
func Length(args []models.Value) (models.Value, error) {
	if err := requireArgs("LEN", args, 1); err != nil {
		return nil, err
	}
	return float64(len([]rune(ToText(args[0])))), nil
}

// Upper returns the argument's text form in upper case.
func Upper(args []models.Value) (models.Value, error) {
	if err := requireArgs("UPPER", args, 1); err != nil {
		return nil, err
	}
	return strings.ToUpper(ToText(args[0])), nil
}

// Lower returns the argument's text form in lower case.
func Lower(args []models.Value) (models.Value, error) {
	if err := requireArgs("LOWER", args, 1); err != nil {
		return nil, err
	}
	return strings.ToLower(ToText(args[0])), nil
}

// Left returns the first n characters of the text. n defaults to 1.
func Left(args []models.Value) (models.Value, error) {
	text, n, err := sliceArgs("LEFT", args)
	if err != nil {
		return nil, err
	}
	if n >= len(text) {
		return string(text), nil
	}
	return string(text[:n]), nil
}

// Right returns the last n characters of the text. n defaults to 1.
func Right(args []models.Value) (models.Value, error) {
	text, n, err := sliceArgs("RIGHT", args)
	if err != nil {
		return nil, err
	}
	if n >= len(text) {
		return string(text), nil
	}
	return string(text[len(text)-n:]), nil
}

// Mid returns length characters starting at the 1-based start position.
func Mid(args []models.Value) (models.Value, error) {
	if err := requireArgs("MID", args, 3); err != nil {
		return nil, err
	}
	text := []rune(ToText(args[0]))
	start, err := intArg("MID", args[1])
	if err != nil {
		return nil, err
	}
	length, err := intArg("MID", args[2])
	if err != nil {
		return nil, err
	}
	if start < 1 {
		return nil, fmt.Errorf("MID: start %d is before the first character: %w", start, ErrInvalidArgument)
	}
	if length < 0 {
		return nil, fmt.Errorf("MID: negative length %d: %w", length, ErrInvalidArgument)
	}
	if start > len(text) {
		return "", nil
	}
	end := start - 1 + length
	if end > len(text) {
		end = len(text)
	}
	return string(text[start-1 : end]), nil
}

// Find returns the 1-based position of needle inside haystack, searching
// case-sensitively from the optional 1-based start position. A needle that
// does not occur is an error.
func Find(args []models.Value) (models.Value, error) {
	if err := requireArgs("FIND", args, 2); err != nil {
		return nil, err
	}
	needle := []rune(ToText(args[0]))
	hay := []rune(ToText(args[1]))
	start := 1
	if len(args) > 2 {
		var err error
		start, err = intArg("FIND", args[2])
		if err != nil {
			return nil, err
		}
	}
	if start < 1 || start > len(hay)+1 {
		return nil, fmt.Errorf("FIND: start %d is outside the text: %w", start, ErrInvalidArgument)
	}
	for i := start - 1; i+len(needle) <= len(hay); i++ {
		if string(hay[i:i+len(needle)]) == string(needle) {
			return float64(i + 1), nil
		}
	}
	return nil, fmt.Errorf("FIND: %q not found: %w", string(needle), ErrInvalidArgument)
}

// sliceArgs resolves the text plus optional count shared by LEFT and RIGHT.
func sliceArgs(name string, args []models.Value) ([]rune, int, error) {
	if err := requireArgs(name, args, 1); err != nil {
		return nil, 0, err
	}
	text := []rune(ToText(args[0]))
	n := 1
	if len(args) > 1 {
		var err error
		n, err = intArg(name, args[1])
		if err != nil {
			return nil, 0, err
		}
	}
	if n < 0 {
		return nil, 0, fmt.Errorf("%s: negative count %d: %w", name, n, ErrInvalidArgument)
	}
	return text, n, nil
}

func intArg(name string, v models.Value) (int, error) {
	n, err := numericArg(name, v)
	if err != nil {
		return 0, err
	}
	return int(math.Trunc(n)), nil
}
