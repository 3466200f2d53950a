package engine

import (
	"log/slog"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/refs"
)

// OnCellChanged rewires the changed cell's dependency edges from its new
// raw input and invalidates the cached results of the cell and everything
// that reads it, directly or transitively. The affected set is returned so
// the caller knows which cells to re-render. Nothing is recomputed here;
// each affected cell is recomputed lazily on its next read.
func (e *Engine) OnCellChanged(coord models.Coordinate) []models.Coordinate {
	if coord.Sheet == "" {
		coord.Sheet = e.current
	}
	e.graph.set(coord, e.parseDeps(coord))

	affected := append([]models.Coordinate{coord}, e.graph.dependentsOf(coord)...)
	for _, c := range affected {
		if c.Sheet == e.current {
			e.cache.invalidate(c.Row, c.Col)
		}
		if sheet, ok := e.wb.Sheet(c.Sheet); ok {
			if cell, ok := sheet.Cell(c.Row, c.Col); ok {
				cell.Computed = nil
			}
		}
	}
	sortCoordinates(affected)
	e.log.Debug("cell changed",
		slog.String("cell", coord.String()),
		slog.Int("affected", len(affected)))
	return affected
}

// SetDependencies replaces the dependency edges of cell with the cells
// covered by references. Ranges register an edge for every covered cell,
// so a write anywhere inside a summed range reaches the formula over it.
func (e *Engine) SetDependencies(cell models.Coordinate, references []models.Reference) {
	if cell.Sheet == "" {
		cell.Sheet = e.current
	}
	e.graph.set(cell, expandRefs(references))
}

// RebuildAll rebuilds the dependency graph from every formula cell in the
// workbook and drops all cached results. Use it after the workbook has
// changed outside the engine's own write path, a bulk import for example.
func (e *Engine) RebuildAll() {
	e.graph.reset()
	e.cache.clear()
	count := 0
	for _, name := range e.wb.Order {
		sheet := e.wb.Sheets[name]
		for key, cell := range sheet.Cells {
			cell.Computed = nil
			if !cell.IsFormula() {
				continue
			}
			coord := models.Coordinate{Sheet: name, Row: key.Row, Col: key.Col}
			e.graph.set(coord, e.parseDeps(coord))
			count++
		}
	}
	e.log.Debug("dependency graph rebuilt", slog.Int("formulas", count))
}

// parseDeps extracts the cells read by the formula at coord. Non-formula
// and missing cells read nothing.
func (e *Engine) parseDeps(coord models.Coordinate) []models.Coordinate {
	sheet, ok := e.wb.Sheet(coord.Sheet)
	if !ok {
		return nil
	}
	cell, ok := sheet.Cell(coord.Row, coord.Col)
	if !ok || !cell.IsFormula() {
		return nil
	}
	return expandRefs(refs.Parse(cell.Raw[1:], coord.Sheet))
}

func expandRefs(references []models.Reference) []models.Coordinate {
	seen := make(map[models.Coordinate]struct{})
	var reads []models.Coordinate
	for _, ref := range references {
		for _, c := range ref.Cells() {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			reads = append(reads, c)
		}
	}
	return reads
}
