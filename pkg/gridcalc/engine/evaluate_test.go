package engine

import (
	"testing"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
)

func TestEvaluateLiterals(t *testing.T) {
	eng := seed(t, nil)
	cases := []struct {
		raw  string
		want models.Value
	}{
		{"5", 5.0},
		{"-3.25", -3.25},
		{"50%", 0.5},
		{"1,200", 1200.0},
		{"hello", "hello"},
		{"TRUE", "TRUE"},
		{"", nil},
	}
	for _, c := range cases {
		if got := eng.Evaluate(c.raw, 0, 0); got != c.want {
			t.Errorf("Evaluate(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestEvaluateArithmetic(t *testing.T) {
	eng := seed(t, nil)
	cases := []struct {
		raw  string
		want float64
	}{
		{"=1+2", 3},
		{"= 1 + 2", 3},
		{"=(1+2)*3", 9},
		{"=10/4", 2.5},
		{"=2*3-4", 2},
		{"=-2+7", 5},
		{"=5", 5},
		{"=3.5", 3.5},
	}
	for _, c := range cases {
		if got := eng.Evaluate(c.raw, 0, 0); got != c.want {
			t.Errorf("Evaluate(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestEvaluateReferences(t *testing.T) {
	eng := seed(t, map[string]string{
		"A1": "2",
		"A2": "3",
		"A3": "abc",
	})
	cases := []struct {
		raw  string
		want models.Value
	}{
		{"=A1+A2", 5.0},
		{"=A1*A1", 4.0},
		{"=A1+B1", 2.0}, // a blank operand reads as 0
		{"=A1", 2.0},
		{"=(A1)", 2.0},
		{"=A2", 3.0}, // numeric text reads as a number
		{"=Z9", nil},
		{"=A1+A3", "=A1+A3"}, // non-numeric operand echoes the input
	}
	for _, c := range cases {
		if got := eng.Evaluate(c.raw, 5, 5); got != c.want {
			t.Errorf("Evaluate(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestEvaluateFunctions(t *testing.T) {
	eng := seed(t, map[string]string{
		"A1": "1",
		"A2": "2",
		"A3": "3",
		"B1": "Hello",
	})
	cases := []struct {
		raw  string
		want models.Value
	}{
		{"=SUM(A1:A3)", 6.0},
		{"=SUM(A1,SUM(A2,A3))", 6.0},
		{"=SUM(A1:A3)+1", 7.0},
		{"=SUM(A1:A3)*SUM(A1,A2)", 18.0},
		{"=AVERAGE(A1:A3)", 2.0},
		{"=COUNT(A1:A4)", 4.0}, // the blank A4 still counts
		{"=MAX(A1:A3,10)", 10.0},
		{"=LEFT(B1,3)", "Hel"},
		{"=LEN(B1)", 5.0},
		{"=CONCATENATE(B1,\" \",A1)", "Hello 1"},
		{"=LEN(\"a\"\"b\")", 3.0},
		{"=IF(TRUE,1,2)", 1.0},
		{"=IF(A4,1,2)", 2.0}, // blank condition is false
		{"=UPPER(B1)", "HELLO"},
	}
	for _, c := range cases {
		if got := eng.Evaluate(c.raw, 5, 5); got != c.want {
			t.Errorf("Evaluate(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestEvaluateDates(t *testing.T) {
	eng := seed(t, nil)

	if got := eng.Evaluate("=DATE(2024,1,31)+1", 0, 0); got != 45323.0 {
		t.Errorf("date arithmetic = %v, want the serial 45323", got)
	}

	v := eng.Evaluate("=EOMONTH(DATE(2024,1,31),1)", 0, 1)
	d, ok := v.(models.DateValue)
	if !ok {
		t.Fatalf("expected DateValue, got %T (%v)", v, v)
	}
	if d.String() != "2024-02-29" {
		t.Errorf("expected 2024-02-29, got %s", d)
	}

	if got := eng.Evaluate("=YEAR(DATE(2023,13,1))", 0, 2); got != 2024.0 {
		t.Errorf("rolled-over year = %v, want 2024", got)
	}
}

func TestEvaluateEchoesUnparseable(t *testing.T) {
	eng := seed(t, map[string]string{"A1": "1"})
	for _, raw := range []string{
		"=WAT???",
		"=FOO(1)",
		"=A1:B2",
		"=A1:B2+1",
		"=1/0",
		"=SUM(A1",
		"=",
	} {
		if got := eng.Evaluate(raw, 5, 5); got != raw {
			t.Errorf("Evaluate(%q) = %v, want the input echoed", raw, got)
		}
	}
}

func TestEvaluatePercentLiterals(t *testing.T) {
	eng := seed(t, map[string]string{"A1": "50"})
	if got := eng.Evaluate("=50%+1", 5, 5); got != 1.5 {
		t.Errorf("expected 1.5, got %v", got)
	}
	if got := eng.Evaluate("=A1*10%", 5, 6); got != 5.0 {
		t.Errorf("expected 5, got %v", got)
	}

	disabled := false
	eng = seedOpts(t, map[string]string{"A1": "50"},
		Options{Mode: ModeLenient, PercentLiterals: &disabled})
	if got := eng.Evaluate("=50%+1", 5, 5); got != "=50%+1" {
		t.Errorf("disabled percent should echo, got %v", got)
	}
}

func TestEvaluateCycles(t *testing.T) {
	eng := seed(t, map[string]string{
		"A1": "=B1",
		"B1": "=A1",
		"C1": "=C1",
	})
	if v := eng.CellValue(0, 0); v != 0.0 {
		t.Errorf("A1 = %v, want 0", v)
	}
	if v := eng.CellValue(0, 1); v != 0.0 {
		t.Errorf("B1 = %v, want 0", v)
	}
	if v := eng.CellValue(0, 2); v != 0.0 {
		t.Errorf("self reference = %v, want 0", v)
	}
	// A formula over a cycle still reduces: the cycle contributes 0.
	if got := eng.Evaluate("=A1+5", 5, 5); got != 5.0 {
		t.Errorf("expected 5, got %v", got)
	}
}

func TestEvaluateCrossSheet(t *testing.T) {
	eng := seed(t, map[string]string{
		"A1":        "1",
		"Sheet2!A1": "10",
	})
	if got := eng.Evaluate("='Sheet2'!A1*2", 0, 1); got != 20.0 {
		t.Errorf("expected 20, got %v", got)
	}
	if got := eng.Evaluate("=Sheet2!A1", 0, 2); got != 10.0 {
		t.Errorf("expected 10, got %v", got)
	}
	if got := eng.Evaluate("=Missing!A1", 0, 3); got != "" {
		t.Errorf("missing sheet should read as empty text, got %v", got)
	}

	disabled := false
	eng = seedOpts(t, map[string]string{"Sheet2!A1": "10"},
		Options{Mode: ModeLenient, CrossSheet: &disabled})
	if got := eng.Evaluate("=Sheet2!A1", 0, 0); got != "" {
		t.Errorf("cross-sheet disabled should read as empty text, got %v", got)
	}
}

func TestEvaluateCrossSheetStoredValue(t *testing.T) {
	eng := seed(t, map[string]string{
		"A1":        "1",
		"Sheet2!A1": "=1+1",
	})
	sheet2, _ := eng.Workbook().Sheet("Sheet2")
	cell, _ := sheet2.Cell(0, 0)
	cell.Computed = 99.0

	// Another sheet's stored value is served without re-evaluating.
	if got := eng.Evaluate("=Sheet2!A1", 0, 1); got != 99.0 {
		t.Errorf("expected the stored 99, got %v", got)
	}

	eng.RebuildAll()
	if got := eng.Evaluate("=Sheet2!A1", 0, 1); got != 2.0 {
		t.Errorf("after a rebuild the formula re-evaluates, got %v", got)
	}
}

func TestEvaluateStrictErrors(t *testing.T) {
	eng := seedOpts(t, map[string]string{
		"A1": "abc",
		"A2": "=1/0",
		"B1": "=B2",
		"B2": "=B1",
	}, Options{Mode: ModeStrict})

	cases := []struct {
		raw  string
		code string
	}{
		{"=FOO(1)", models.ErrCodeName},
		{"=WAT???", models.ErrCodeValue},
		{"=1/0", models.ErrCodeDiv0},
		{"=A1+1", models.ErrCodeValue},
		{"=Missing!A1", models.ErrCodeRef},
		{"=B1", models.ErrCodeCycle},
		{"=SUM(A2,1)", models.ErrCodeDiv0}, // error codes propagate through arguments
		{"=A2+1", models.ErrCodeDiv0},      // and through arithmetic operands
	}
	for _, c := range cases {
		got := eng.Evaluate(c.raw, 5, 5)
		ev, ok := got.(models.ErrorValue)
		if !ok {
			t.Errorf("Evaluate(%q) = %v (%T), want an error value", c.raw, got, got)
			continue
		}
		if ev.Code != c.code {
			t.Errorf("Evaluate(%q) = %s, want %s", c.raw, ev.Code, c.code)
		}
	}
}

func TestEvaluateCaching(t *testing.T) {
	eng := seed(t, map[string]string{"A1": "2", "B1": "=A1*2"})

	if v := eng.CellValue(0, 1); v != 4.0 {
		t.Fatalf("expected 4, got %v", v)
	}
	if _, ok := eng.cache.get(0, 1, "=A1*2"); !ok {
		t.Fatal("expected the result to be cached")
	}
	if v := eng.CellValue(0, 1); v != 4.0 {
		t.Errorf("second read = %v, want 4", v)
	}

	// Literals are never cached.
	eng.Evaluate("5", 3, 3)
	if _, ok := eng.cache.get(3, 3, "5"); ok {
		t.Error("literal input must not be cached")
	}

	// A write to an unrelated cell leaves the entry alone.
	eng.SetCell(7, 7, "1")
	if _, ok := eng.cache.get(0, 1, "=A1*2"); !ok {
		t.Error("unrelated write invalidated the cache")
	}

	// A write to the operand drops it.
	eng.SetCell(0, 0, "3")
	if _, ok := eng.cache.get(0, 1, "=A1*2"); ok {
		t.Error("operand write should invalidate the dependent")
	}
	if v := eng.CellValue(0, 1); v != 6.0 {
		t.Errorf("expected 6 after the operand changed, got %v", v)
	}
}
