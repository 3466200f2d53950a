// Package models defines the data types shared by the computation engine:
// cells, coordinates, references, date values, and workbook structure.
package models

// Value is a computed cell value: one of float64, string, bool,
// DateValue, or ErrorValue (strict mode only). A nil Value is a blank cell.
type Value = any

// ErrorValue is an explicit spreadsheet error result, produced instead of
// the lenient fallbacks (echoed formula text, silent zero) when the engine
// runs in strict mode.
type ErrorValue struct {
	// Code is the spreadsheet error code, e.g. "#VALUE!".
	Code string `json:"code"`
}

// Spreadsheet error codes used by strict mode.
const (
	// ErrCodeValue indicates an argument or operand of the wrong type.
	ErrCodeValue = "#VALUE!"
	// ErrCodeName indicates an unrecognized function or formula form.
	ErrCodeName = "#NAME?"
	// ErrCodeRef indicates a reference that cannot be resolved.
	ErrCodeRef = "#REF!"
	// ErrCodeCycle indicates a circular reference chain.
	ErrCodeCycle = "#CYCLE!"
	// ErrCodeDiv0 indicates a division by zero.
	ErrCodeDiv0 = "#DIV/0!"
	// ErrCodeNum indicates a numeric result outside the representable range.
	ErrCodeNum = "#NUM!"
)

// String returns the error code.
func (e ErrorValue) String() string {
	return e.Code
}
