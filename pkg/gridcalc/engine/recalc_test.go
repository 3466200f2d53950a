package engine

import (
	"reflect"
	"testing"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
)

func TestChangeInvalidatesSum(t *testing.T) {
	eng := seed(t, map[string]string{
		"A1": "1",
		"A2": "2",
		"A3": "3",
		"B1": "=SUM(A1:A3)",
	})
	if v := eng.CellValue(0, 1); v != 6.0 {
		t.Fatalf("expected 6, got %v", v)
	}

	affected := eng.SetCell(1, 0, "5")
	want := []models.Coordinate{at("Sheet1", 0, 1), at("Sheet1", 1, 0)}
	if !reflect.DeepEqual(affected, want) {
		t.Errorf("expected %v affected, got %v", want, affected)
	}

	if v := eng.CellValue(0, 1); v != 9.0 {
		t.Errorf("expected 9 after the write, got %v", v)
	}
}

func TestChangePropagatesTransitively(t *testing.T) {
	eng := seed(t, map[string]string{
		"A1": "1",
		"B1": "=A1+1",
		"C1": "=B1*2",
	})
	if v := eng.CellValue(0, 2); v != 4.0 {
		t.Fatalf("expected 4, got %v", v)
	}

	affected := eng.SetCell(0, 0, "2")
	want := []models.Coordinate{
		at("Sheet1", 0, 0),
		at("Sheet1", 0, 1),
		at("Sheet1", 0, 2),
	}
	if !reflect.DeepEqual(affected, want) {
		t.Errorf("expected %v affected, got %v", want, affected)
	}

	if v := eng.CellValue(0, 1); v != 3.0 {
		t.Errorf("B1 = %v, want 3", v)
	}
	if v := eng.CellValue(0, 2); v != 6.0 {
		t.Errorf("C1 = %v, want 6", v)
	}
}

func TestChangeClearsStoredValues(t *testing.T) {
	eng := seed(t, map[string]string{"A1": "2", "B1": "=A1*2"})
	eng.CellValue(0, 1)

	sheet, _ := eng.Workbook().Sheet("Sheet1")
	cell, _ := sheet.Cell(0, 1)
	if cell.Computed != 4.0 {
		t.Fatalf("expected a stored 4, got %v", cell.Computed)
	}

	eng.SetCell(0, 0, "3")
	if cell.Computed != nil {
		t.Errorf("dependent's stored value should be cleared, got %v", cell.Computed)
	}
}

func TestChangeRewiresDependencies(t *testing.T) {
	eng := seed(t, map[string]string{
		"A1": "1",
		"C1": "2",
		"B1": "=A1",
	})
	if got := eng.Dependents(at("Sheet1", 0, 0)); len(got) != 1 {
		t.Fatalf("expected one dependent of A1, got %v", got)
	}

	eng.SetCell(0, 1, "=C1")

	if got := eng.Dependents(at("Sheet1", 0, 0)); len(got) != 0 {
		t.Errorf("A1 should have no dependents after the rewrite, got %v", got)
	}
	want := []models.Coordinate{at("Sheet1", 0, 1)}
	if got := eng.Dependents(at("Sheet1", 0, 2)); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestChangeToLiteralDropsEdges(t *testing.T) {
	eng := seed(t, map[string]string{"A1": "1", "B1": "=A1"})
	eng.SetCell(0, 1, "42")
	if got := eng.Dependents(at("Sheet1", 0, 0)); len(got) != 0 {
		t.Errorf("literal rewrite should drop the edge, got %v", got)
	}
	if v := eng.CellValue(0, 1); v != 42.0 {
		t.Errorf("expected 42, got %v", v)
	}
}

func TestOnCellChangedDefaultsSheet(t *testing.T) {
	eng := seed(t, map[string]string{"A1": "1", "B1": "=A1"})
	affected := eng.OnCellChanged(models.Coordinate{Row: 0, Col: 0})
	want := []models.Coordinate{at("Sheet1", 0, 0), at("Sheet1", 0, 1)}
	if !reflect.DeepEqual(affected, want) {
		t.Errorf("expected %v, got %v", want, affected)
	}
}

func TestRebuildAllAfterExternalEdit(t *testing.T) {
	eng := seed(t, map[string]string{"A1": "1", "B1": "=A1"})
	if v := eng.CellValue(0, 1); v != 1.0 {
		t.Fatalf("expected 1, got %v", v)
	}

	// Mutate the workbook behind the engine's back.
	sheet, _ := eng.Workbook().Sheet("Sheet1")
	sheet.SetRaw(0, 0, "7")
	sheet.SetRaw(0, 2, "=B1+1")

	eng.RebuildAll()

	if v := eng.CellValue(0, 1); v != 7.0 {
		t.Errorf("expected 7 after rebuild, got %v", v)
	}
	if v := eng.CellValue(0, 2); v != 8.0 {
		t.Errorf("expected 8 from the new formula, got %v", v)
	}
	want := []models.Coordinate{at("Sheet1", 0, 1), at("Sheet1", 0, 2)}
	if got := eng.Dependents(at("Sheet1", 0, 0)); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRangeWriteReachesFormula(t *testing.T) {
	eng := seed(t, map[string]string{"B1": "=SUM(A1:A3)"})
	if v := eng.CellValue(0, 1); v != 0.0 {
		t.Fatalf("empty range sums to 0, got %v", v)
	}

	// Writing inside the summed range must reach the formula over it.
	affected := eng.SetCell(2, 0, "4")
	want := []models.Coordinate{at("Sheet1", 0, 1), at("Sheet1", 2, 0)}
	if !reflect.DeepEqual(affected, want) {
		t.Errorf("expected %v, got %v", want, affected)
	}
	if v := eng.CellValue(0, 1); v != 4.0 {
		t.Errorf("expected 4, got %v", v)
	}
}
