package engine

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr/vm"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/functions"
	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
)

// Engine evaluates formulas against one workbook. It owns the dependency
// graph and a result cache scoped to the sheet it is currently bound to.
// An Engine is single-owner state: callers on multiple goroutines must
// serialize access themselves.
type Engine struct {
	wb      *models.Workbook
	current string
	graph   *depGraph
	cache   *resultCache
	funcs   *functions.Registry
	opts    Options
	vm      vm.VM
	log     *slog.Logger
}

// New creates an engine over wb. A nil workbook is replaced by an empty
// one. The engine binds to opts.CurrentSheet, or to the workbook's first
// sheet when unset.
func New(wb *models.Workbook, opts Options) *Engine {
	if wb == nil {
		wb = models.NewWorkbook("Book1")
	}
	current := opts.CurrentSheet
	if current == "" && len(wb.Order) > 0 {
		current = wb.Order[0]
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		wb:      wb,
		current: current,
		graph:   newDepGraph(),
		cache:   newResultCache(),
		funcs:   functions.NewRegistry(opts.Clock),
		opts:    opts,
		log:     logger.With(slog.String("component", "engine")),
	}
}

// Workbook returns the workbook the engine evaluates against.
func (e *Engine) Workbook() *models.Workbook {
	return e.wb
}

// CurrentSheet returns the name of the sheet the engine is bound to.
func (e *Engine) CurrentSheet() string {
	return e.current
}

// SetCurrentSheet binds the engine to the named sheet. Switching drops the
// whole result cache, because cache keys are relative to the bound sheet.
func (e *Engine) SetCurrentSheet(name string) error {
	if name == e.current {
		return nil
	}
	if _, ok := e.wb.Sheet(name); !ok {
		return fmt.Errorf("%q: %w", name, ErrSheetNotFound)
	}
	e.current = name
	e.cache.clear()
	return nil
}

// Functions returns the names of the available library functions, sorted.
func (e *Engine) Functions() []string {
	return e.funcs.Names()
}

// Evaluate computes the value of formula text in the context of (row, col)
// on the current sheet. It never fails; input that cannot be evaluated
// comes back as the input text itself, or as a spreadsheet error code in
// strict mode. Text without a leading "=" is coerced as a literal.
func (e *Engine) Evaluate(formula string, row, col int) models.Value {
	return e.evaluate(formula, e.current, row, col, make(map[models.Coordinate]struct{}))
}

// CellValue evaluates the cell at (row, col) on the current sheet, stores
// the result on the cell and returns it. A missing cell reads as nil.
func (e *Engine) CellValue(row, col int) models.Value {
	sheet, ok := e.wb.Sheet(e.current)
	if !ok {
		return nil
	}
	cell, ok := sheet.Cell(row, col)
	if !ok {
		return nil
	}
	v := e.evaluate(cell.Raw, e.current, row, col, make(map[models.Coordinate]struct{}))
	cell.Computed = v
	return v
}

// SetCell writes raw input to (row, col) on the current sheet, creating
// the sheet and cell as needed, and returns the coordinates affected by
// the change.
func (e *Engine) SetCell(row, col int, raw string) []models.Coordinate {
	if e.current == "" {
		e.current = "Sheet1"
	}
	sheet := e.wb.AddSheet(e.current)
	sheet.SetRaw(row, col, raw)
	return e.OnCellChanged(models.Coordinate{Sheet: e.current, Row: row, Col: col})
}

// ClearCell removes the cell at (row, col) on the current sheet and
// returns the coordinates affected by the removal.
func (e *Engine) ClearCell(row, col int) []models.Coordinate {
	sheet, ok := e.wb.Sheet(e.current)
	if !ok {
		return nil
	}
	sheet.Clear(row, col)
	return e.OnCellChanged(models.Coordinate{Sheet: e.current, Row: row, Col: col})
}

// Dependents returns every cell whose value can change when cell changes,
// directly or through other formulas. A coordinate without a sheet resolves
// against the current sheet.
func (e *Engine) Dependents(cell models.Coordinate) []models.Coordinate {
	if cell.Sheet == "" {
		cell.Sheet = e.current
	}
	return e.graph.dependentsOf(cell)
}

// Dependencies returns the cells the formula at cell reads directly.
func (e *Engine) Dependencies(cell models.Coordinate) []models.Coordinate {
	if cell.Sheet == "" {
		cell.Sheet = e.current
	}
	return e.graph.dependenciesOf(cell)
}
