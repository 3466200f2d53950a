// Package output renders computed values for terminals and JSON consumers.
package output

import (
	"encoding/json"
	"sort"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/functions"
	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
)

// Result pairs a computed value with its display text.
type Result struct {
	// Value is the computed value as the engine produced it.
	Value models.Value `json:"value"`
	// Display is the value rendered the way a grid would show it.
	Display string `json:"display"`
}

// NewResult builds a Result from a computed value.
func NewResult(v models.Value) Result {
	return Result{Value: v, Display: functions.ToText(v)}
}

// CellResult is a Result bound to its cell address.
type CellResult struct {
	// Cell is the sheet-qualified A1-style address.
	Cell string `json:"cell"`
	Result
}

// ToJSON serializes v, optionally indented.
func ToJSON(v interface{}, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// Snapshot flattens the computed values of every cell in the workbook,
// ordered by sheet, row and column. Cells that have never been evaluated
// are skipped.
func Snapshot(wb *models.Workbook) []CellResult {
	var out []CellResult
	for _, name := range wb.Order {
		sheet := wb.Sheets[name]
		keys := make([]models.CellKey, 0, len(sheet.Cells))
		for key := range sheet.Cells {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].Row != keys[j].Row {
				return keys[i].Row < keys[j].Row
			}
			return keys[i].Col < keys[j].Col
		})
		for _, key := range keys {
			cell := sheet.Cells[key]
			if cell.Computed == nil {
				continue
			}
			coord := models.Coordinate{Sheet: name, Row: key.Row, Col: key.Col}
			out = append(out, CellResult{
				Cell:   coord.String(),
				Result: NewResult(cell.Computed),
			})
		}
	}
	return out
}
