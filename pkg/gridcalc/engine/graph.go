package engine

import (
	"sort"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
)

// depGraph records which cells each formula reads. Forward edges hold the
// read list per formula cell; reverse edges answer "who reads me" for
// invalidation.
type depGraph struct {
	deps  map[models.Coordinate][]models.Coordinate
	rdeps map[models.Coordinate]map[models.Coordinate]struct{}
}

func newDepGraph() *depGraph {
	return &depGraph{
		deps:  make(map[models.Coordinate][]models.Coordinate),
		rdeps: make(map[models.Coordinate]map[models.Coordinate]struct{}),
	}
}

// set replaces the read list of cell. Reverse edges from the previous list
// are dropped first, so stale dependencies never linger.
func (g *depGraph) set(cell models.Coordinate, reads []models.Coordinate) {
	for _, old := range g.deps[cell] {
		if back, ok := g.rdeps[old]; ok {
			delete(back, cell)
			if len(back) == 0 {
				delete(g.rdeps, old)
			}
		}
	}
	delete(g.deps, cell)
	if len(reads) == 0 {
		return
	}
	own := make([]models.Coordinate, len(reads))
	copy(own, reads)
	g.deps[cell] = own
	for _, r := range own {
		back, ok := g.rdeps[r]
		if !ok {
			back = make(map[models.Coordinate]struct{})
			g.rdeps[r] = back
		}
		back[cell] = struct{}{}
	}
}

// dependentsOf returns every cell whose value can change when cell changes,
// following reverse edges transitively. The start cell is not included.
// Cyclic graphs terminate because visited cells are never re-entered.
func (g *depGraph) dependentsOf(cell models.Coordinate) []models.Coordinate {
	visited := map[models.Coordinate]struct{}{cell: {}}
	var out []models.Coordinate
	var walk func(models.Coordinate)
	walk = func(c models.Coordinate) {
		for reader := range g.rdeps[c] {
			if _, seen := visited[reader]; seen {
				continue
			}
			visited[reader] = struct{}{}
			out = append(out, reader)
			walk(reader)
		}
	}
	walk(cell)
	sortCoordinates(out)
	return out
}

// dependenciesOf returns the cells the formula in cell reads directly.
func (g *depGraph) dependenciesOf(cell models.Coordinate) []models.Coordinate {
	reads := g.deps[cell]
	out := make([]models.Coordinate, len(reads))
	copy(out, reads)
	return out
}

func (g *depGraph) reset() {
	g.deps = make(map[models.Coordinate][]models.Coordinate)
	g.rdeps = make(map[models.Coordinate]map[models.Coordinate]struct{})
}

func sortCoordinates(cs []models.Coordinate) {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Sheet != b.Sheet {
			return a.Sheet < b.Sheet
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
}
