package xlsxio

import (
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/functions"
	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
)

// Save writes the workbook to an xlsx file at path. Formula cells are
// written as formulas, literal cells as typed values.
func Save(wb *models.Workbook, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range wb.Order {
		if i == 0 {
			// A new file starts with one default sheet; take it over.
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return err
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return err
			}
		}
		if err := writeSheet(f, wb.Sheets[name]); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func writeSheet(f *excelize.File, sheet *models.Sheet) error {
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
		cellName, err := excelize.CoordinatesToCellName(key.Col+1, key.Row+1)
		if err != nil {
			return err
		}
		if cell.IsFormula() {
			if cell.Computed != nil {
				// The value goes in first; setting the formula keeps it as
				// the cached result.
				if err := f.SetCellValue(sheet.Name, cellName, cachedFor(cell.Computed)); err != nil {
					return err
				}
			}
			if err := f.SetCellFormula(sheet.Name, cellName, cell.Raw[1:]); err != nil {
				return err
			}
			continue
		}
		if err := f.SetCellValue(sheet.Name, cellName, literalFor(cell.Raw)); err != nil {
			return err
		}
	}
	return nil
}

// cachedFor converts a computed value to the form stored as a formula's
// cached result.
func cachedFor(v models.Value) interface{} {
	switch t := v.(type) {
	case float64, bool:
		return t
	default:
		return functions.ToText(v)
	}
}

// literalFor converts cell text to a typed value, so numbers round-trip as
// numbers.
func literalFor(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
