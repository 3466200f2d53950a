package models

import "testing"

func TestColumnLabel(t *testing.T) {
	cases := []struct {
		col  int
		want string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}
	for _, c := range cases {
		if got := ColumnLabel(c.col); got != c.want {
			t.Errorf("ColumnLabel(%d) = %q, want %q", c.col, got, c.want)
		}
	}
}

func TestColumnIndex(t *testing.T) {
	cases := []struct {
		letters string
		want    int
	}{
		{"A", 0},
		{"Z", 25},
		{"AA", 26},
		{"AZ", 51},
		{"BA", 52},
		{"ZZ", 701},
		{"AAA", 702},
	}
	for _, c := range cases {
		if got := ColumnIndex(c.letters); got != c.want {
			t.Errorf("ColumnIndex(%q) = %d, want %d", c.letters, got, c.want)
		}
	}
}

func TestColumnRoundTrip(t *testing.T) {
	for col := 0; col < 1000; col++ {
		if got := ColumnIndex(ColumnLabel(col)); got != col {
			t.Fatalf("round trip broke at %d: got %d", col, got)
		}
	}
}

func TestReferenceCells(t *testing.T) {
	ref := Reference{Sheet: "Sheet1", StartRow: 0, StartCol: 0, EndRow: 1, EndCol: 1}
	cells := ref.Cells()
	want := []Coordinate{
		{Sheet: "Sheet1", Row: 0, Col: 0},
		{Sheet: "Sheet1", Row: 0, Col: 1},
		{Sheet: "Sheet1", Row: 1, Col: 0},
		{Sheet: "Sheet1", Row: 1, Col: 1},
	}
	if len(cells) != len(want) {
		t.Fatalf("expected %d cells, got %d", len(want), len(cells))
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("cell %d = %+v, want %+v", i, cells[i], want[i])
		}
	}
}

func TestReferenceIsCell(t *testing.T) {
	single := Reference{StartRow: 2, StartCol: 3, EndRow: 2, EndCol: 3}
	if !single.IsCell() {
		t.Error("single cell reference reported as range")
	}
	ranged := Reference{StartRow: 0, StartCol: 0, EndRow: 2, EndCol: 0}
	if ranged.IsCell() {
		t.Error("range reference reported as single cell")
	}
}

func TestReferenceString(t *testing.T) {
	cases := []struct {
		ref  Reference
		want string
	}{
		{Reference{StartRow: 0, StartCol: 0, EndRow: 0, EndCol: 0}, "A1"},
		{Reference{StartRow: 2, StartCol: 1, EndRow: 2, EndCol: 1}, "B3"},
		{Reference{StartRow: 0, StartCol: 0, EndRow: 2, EndCol: 0}, "A1:A3"},
		{Reference{Sheet: "Sheet2", StartRow: 0, StartCol: 0, EndRow: 0, EndCol: 0}, "Sheet2!A1"},
		{Reference{Sheet: "My Sheet", StartRow: 0, StartCol: 0, EndRow: 0, EndCol: 0}, "'My Sheet'!A1"},
		{Reference{Sheet: "2024", StartRow: 0, StartCol: 0, EndRow: 1, EndCol: 1}, "'2024'!A1:B2"},
	}
	for _, c := range cases {
		if got := c.ref.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestCoordinateString(t *testing.T) {
	coord := Coordinate{Sheet: "Sheet1", Row: 0, Col: 1}
	if got := coord.String(); got != "Sheet1!B1" {
		t.Errorf("String() = %q, want %q", got, "Sheet1!B1")
	}
}
