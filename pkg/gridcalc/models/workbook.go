package models

import (
	"github.com/tiendc/go-deepcopy"
)

// Sheet is a sparse, named grid of cells. Cells are created on first write;
// a missing cell reads as blank.
type Sheet struct {
	// Name is the sheet name used in qualified references.
	Name string `json:"name"`
	// Cells maps zero-based (row, col) keys to cells.
	Cells map[CellKey]*Cell `json:"-"`
}

// NewSheet creates an empty sheet.
func NewSheet(name string) *Sheet {
	return &Sheet{
		Name:  name,
		Cells: make(map[CellKey]*Cell),
	}
}

// Cell returns the cell at (row, col) if it exists.
func (s *Sheet) Cell(row, col int) (*Cell, bool) {
	c, ok := s.Cells[CellKey{Row: row, Col: col}]
	return c, ok
}

// SetRaw writes the raw input of the cell at (row, col), creating the cell
// if needed, and returns it. The computed value is reset; evaluation is the
// engine's job.
func (s *Sheet) SetRaw(row, col int, raw string) *Cell {
	key := CellKey{Row: row, Col: col}
	c, ok := s.Cells[key]
	if !ok {
		c = &Cell{}
		s.Cells[key] = c
	}
	c.Raw = raw
	c.Computed = nil
	return c
}

// Raw returns the raw input at (row, col), or "" for a missing cell.
func (s *Sheet) Raw(row, col int) string {
	if c, ok := s.Cell(row, col); ok {
		return c.Raw
	}
	return ""
}

// Clear removes the cell at (row, col).
func (s *Sheet) Clear(row, col int) {
	delete(s.Cells, CellKey{Row: row, Col: col})
}

// Dims returns the number of rows and columns spanned by the occupied
// cells, i.e. max index + 1 on each axis.
func (s *Sheet) Dims() (rows, cols int) {
	for key := range s.Cells {
		if key.Row+1 > rows {
			rows = key.Row + 1
		}
		if key.Col+1 > cols {
			cols = key.Col + 1
		}
	}
	return rows, cols
}

// Workbook is a named collection of sheets. Sheet order is preserved for
// serialization; lookups go through the name map.
type Workbook struct {
	// Name is the workbook name, typically the file base name.
	Name string `json:"name"`
	// Sheets maps sheet name to sheet.
	Sheets map[string]*Sheet `json:"sheets"`
	// Order lists sheet names in creation order.
	Order []string `json:"order"`
}

// NewWorkbook creates an empty workbook.
func NewWorkbook(name string) *Workbook {
	return &Workbook{
		Name:   name,
		Sheets: make(map[string]*Sheet),
	}
}

// Sheet returns the named sheet if it exists.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	s, ok := w.Sheets[name]
	return s, ok
}

// AddSheet returns the named sheet, creating it if it does not exist.
func (w *Workbook) AddSheet(name string) *Sheet {
	if s, ok := w.Sheets[name]; ok {
		return s
	}
	s := NewSheet(name)
	w.Sheets[name] = s
	w.Order = append(w.Order, name)
	return s
}

// SheetNames returns the sheet names in creation order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.Order))
	copy(names, w.Order)
	return names
}

// Clone returns a deep copy of the workbook, sharing no cells with the
// original. Callers trialing edits re-evaluate the clone, so computed
// values need not survive the copy.
func (w *Workbook) Clone() (*Workbook, error) {
	out := &Workbook{}
	if err := deepcopy.Copy(out, w); err != nil {
		return nil, err
	}
	return out, nil
}
