package engine

import (
	"reflect"
	"testing"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
)

func at(sheet string, row, col int) models.Coordinate {
	return models.Coordinate{Sheet: sheet, Row: row, Col: col}
}

func TestGraphSetReplacesReads(t *testing.T) {
	g := newDepGraph()
	c1 := at("Sheet1", 0, 2)
	a1 := at("Sheet1", 0, 0)
	b1 := at("Sheet1", 0, 1)

	g.set(c1, []models.Coordinate{a1, b1})
	if deps := g.dependenciesOf(c1); len(deps) != 2 {
		t.Fatalf("expected 2 dependencies, got %v", deps)
	}

	g.set(c1, []models.Coordinate{b1})
	if deps := g.dependentsOf(a1); len(deps) != 0 {
		t.Errorf("stale reverse edge survived: %v", deps)
	}
	if deps := g.dependentsOf(b1); !reflect.DeepEqual(deps, []models.Coordinate{c1}) {
		t.Errorf("expected [C1], got %v", deps)
	}

	g.set(c1, nil)
	if deps := g.dependentsOf(b1); len(deps) != 0 {
		t.Errorf("cleared cell still has dependents: %v", deps)
	}
}

func TestGraphTransitiveDependents(t *testing.T) {
	g := newDepGraph()
	a1 := at("Sheet1", 0, 0)
	b1 := at("Sheet1", 0, 1)
	c1 := at("Sheet1", 0, 2)
	d1 := at("Sheet1", 0, 3)

	// B1 reads A1, C1 reads B1, D1 reads B1.
	g.set(b1, []models.Coordinate{a1})
	g.set(c1, []models.Coordinate{b1})
	g.set(d1, []models.Coordinate{b1})

	got := g.dependentsOf(a1)
	want := []models.Coordinate{b1, c1, d1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGraphCycleTerminates(t *testing.T) {
	g := newDepGraph()
	a1 := at("Sheet1", 0, 0)
	b1 := at("Sheet1", 0, 1)

	g.set(a1, []models.Coordinate{b1})
	g.set(b1, []models.Coordinate{a1})

	if got := g.dependentsOf(a1); !reflect.DeepEqual(got, []models.Coordinate{b1}) {
		t.Errorf("expected [B1], got %v", got)
	}
	if got := g.dependentsOf(b1); !reflect.DeepEqual(got, []models.Coordinate{a1}) {
		t.Errorf("expected [A1], got %v", got)
	}
}

func TestGraphDependenciesCopy(t *testing.T) {
	g := newDepGraph()
	b1 := at("Sheet1", 0, 1)
	a1 := at("Sheet1", 0, 0)
	g.set(b1, []models.Coordinate{a1})

	deps := g.dependenciesOf(b1)
	deps[0] = at("Sheet1", 9, 9)
	if got := g.dependenciesOf(b1); !reflect.DeepEqual(got, []models.Coordinate{a1}) {
		t.Errorf("caller mutation leaked into the graph: %v", got)
	}
}

func TestSortCoordinates(t *testing.T) {
	cs := []models.Coordinate{
		at("Sheet2", 0, 0),
		at("Sheet1", 1, 0),
		at("Sheet1", 0, 2),
		at("Sheet1", 0, 1),
	}
	sortCoordinates(cs)
	want := []models.Coordinate{
		at("Sheet1", 0, 1),
		at("Sheet1", 0, 2),
		at("Sheet1", 1, 0),
		at("Sheet2", 0, 0),
	}
	if !reflect.DeepEqual(cs, want) {
		t.Errorf("expected %v, got %v", want, cs)
	}
}
