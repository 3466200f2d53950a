// Package xlsxio reads workbooks from and writes workbooks to xlsx files.
package xlsxio

import (
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
)

// Load reads the xlsx file at path into a workbook. Formula cells keep
// their formula text with a leading "=" and the file's cached result as
// their stored computed value; other cells keep their text as displayed.
// A sheet that fails to read is left empty rather than failing the whole
// load.
func Load(path string) (*models.Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return FromFile(f, filepath.Base(path))
}

// FromFile reads an open excelize file into a workbook named name.
func FromFile(f *excelize.File, name string) (*models.Workbook, error) {
	wb := models.NewWorkbook(name)
	for _, sheetName := range f.GetSheetList() {
		sheet := wb.AddSheet(sheetName)

		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		for rowIdx, row := range rows {
			for colIdx, value := range row {
				cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
				if err != nil {
					continue
				}
				raw := value
				isFormula := false
				if formula, err := f.GetCellFormula(sheetName, cellName); err == nil && formula != "" {
					raw = "=" + formula
					isFormula = true
				}
				if raw == "" {
					continue
				}
				cell := sheet.SetRaw(rowIdx, colIdx, raw)
				if isFormula && value != "" {
					// The file's cached result stands in until something
					// recomputes the cell.
					cell.Computed = storedValue(value)
				}
			}
		}
	}
	return wb, nil
}

// storedValue types a cached result read from the file: numeric text
// becomes a number, everything else stays text.
func storedValue(s string) models.Value {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
