package models

import "fmt"

// Cell holds one grid cell: the literal text the user entered and the last
// computed result. A Raw value beginning with "=" denotes a formula.
type Cell struct {
	// Raw is the literal input text; formulas start with "=".
	Raw string `json:"raw"`
	// Computed is the last evaluated result, nil if never evaluated.
	Computed Value `json:"computed,omitempty"`
	// Format carries display attributes; it does not affect computation.
	Format *Format `json:"format,omitempty"`
}

// IsFormula reports whether the cell's raw input is a formula.
func (c *Cell) IsFormula() bool {
	return len(c.Raw) > 0 && c.Raw[0] == '='
}

// Format describes how a computed value is rendered. Formatting is applied
// by a presentation layer downstream of the engine.
type Format struct {
	// Currency is the currency symbol prefix, e.g. "$".
	Currency string `json:"currency,omitempty"`
	// Decimals is the number of decimal places to display.
	Decimals int `json:"decimals,omitempty"`
	// Percent marks the value for percentage display.
	Percent bool `json:"percent,omitempty"`
	// Date marks the value for date display.
	Date bool `json:"date,omitempty"`
	// Pattern is a number format string, e.g. "#,##0.00".
	Pattern string `json:"pattern,omitempty"`
}

// CellKey addresses a cell within one sheet. Row and Col are zero-based.
type CellKey struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Coordinate addresses a cell across the workbook. Row and Col are zero-based.
type Coordinate struct {
	Sheet string `json:"sheet"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
}

// Key returns the sheet-local part of the coordinate.
func (c Coordinate) Key() CellKey {
	return CellKey{Row: c.Row, Col: c.Col}
}

// String renders the coordinate in A1 style, qualified by sheet name.
func (c Coordinate) String() string {
	return fmt.Sprintf("%s!%s%d", c.Sheet, ColumnLabel(c.Col), c.Row+1)
}
