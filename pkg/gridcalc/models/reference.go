package models

import (
	"strconv"
	"strings"
)

// Reference is the resolved form of a textual cell or range address.
// Coordinates are zero-based and normalized so Start <= End on both axes.
// A single cell is a reference whose start and end coincide.
type Reference struct {
	// Sheet is the sheet the reference resolves against.
	Sheet string `json:"sheet,omitempty"`
	// StartRow is the first row of the rectangle.
	StartRow int `json:"start_row"`
	// StartCol is the first column of the rectangle.
	StartCol int `json:"start_col"`
	// EndRow is the last row of the rectangle, inclusive.
	EndRow int `json:"end_row"`
	// EndCol is the last column of the rectangle, inclusive.
	EndCol int `json:"end_col"`
}

// IsCell reports whether the reference addresses exactly one cell.
func (r Reference) IsCell() bool {
	return r.StartRow == r.EndRow && r.StartCol == r.EndCol
}

// Coordinate returns the start cell of the reference.
func (r Reference) Coordinate() Coordinate {
	return Coordinate{Sheet: r.Sheet, Row: r.StartRow, Col: r.StartCol}
}

// Cells expands the reference into its single-cell coordinates in
// row-major order.
func (r Reference) Cells() []Coordinate {
	cells := make([]Coordinate, 0, (r.EndRow-r.StartRow+1)*(r.EndCol-r.StartCol+1))
	for row := r.StartRow; row <= r.EndRow; row++ {
		for col := r.StartCol; col <= r.EndCol; col++ {
			cells = append(cells, Coordinate{Sheet: r.Sheet, Row: row, Col: col})
		}
	}
	return cells
}

// String renders the reference in A1 style. Sheet names containing
// non-identifier characters are single-quoted.
func (r Reference) String() string {
	var b strings.Builder
	if r.Sheet != "" {
		if needsQuoting(r.Sheet) {
			b.WriteByte('\'')
			b.WriteString(r.Sheet)
			b.WriteByte('\'')
		} else {
			b.WriteString(r.Sheet)
		}
		b.WriteByte('!')
	}
	b.WriteString(ColumnLabel(r.StartCol))
	b.WriteString(strconv.Itoa(r.StartRow + 1))
	if !r.IsCell() {
		b.WriteByte(':')
		b.WriteString(ColumnLabel(r.EndCol))
		b.WriteString(strconv.Itoa(r.EndRow + 1))
	}
	return b.String()
}

func needsQuoting(sheet string) bool {
	for i, c := range sheet {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c == '_', c == '.':
		case c >= '0' && c <= '9':
			if i == 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// ColumnLabel converts a zero-based column index to its letter form:
// 0 -> "A", 25 -> "Z", 26 -> "AA".
func ColumnLabel(col int) string {
	n := col + 1
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		n--
		i--
		buf[i] = byte('A' + n%26)
		n /= 26
	}
	return string(buf[i:])
}

// ColumnIndex converts column letters to a zero-based index:
// "A" -> 0, "Z" -> 25, "AA" -> 26.
func ColumnIndex(letters string) int {
	n := 0
	for i := 0; i < len(letters); i++ {
		n = n*26 + int(letters[i]-'A') + 1
	}
	return n - 1
}
