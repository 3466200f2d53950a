// Package functions implements the spreadsheet function library: a fixed,
// case-insensitive set of math, logical, text and date functions dispatched
// through a lookup table.
package functions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
)

// ErrUnknownFunction indicates a name with no registered handler.
var ErrUnknownFunction = errors.New("unknown function")

// ErrMissingArgument indicates a call with too few arguments.
var ErrMissingArgument = errors.New("missing argument")

// ErrInvalidArgument indicates an argument the function cannot use.
var ErrInvalidArgument = errors.New("invalid argument")

// Clock supplies the current time to TODAY and NOW, so tests can pin it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock {
	return systemClock{}
}

// Func is one library function. Arguments arrive already resolved: scalars
// as values, ranges as nested []models.Value slices in row-major order.
type Func func(args []models.Value) (models.Value, error)

// Registry maps upper-cased function names to handlers.
type Registry struct {
	table map[string]Func
	clock Clock
}

// NewRegistry builds the full function table. A nil clock defaults to the
// system clock.
func NewRegistry(clock Clock) *Registry {
	if clock == nil {
		clock = SystemClock()
	}
	r := &Registry{clock: clock}
	r.table = map[string]Func{
		"SUM":         Sum,
		"AVERAGE":     Average,
		"COUNT":       Count,
		"MAX":         Max,
		"MIN":         Min,
		"ABS":         Abs,
		"SQRT":        Sqrt,
		"POWER":       Power,
		"ROUND":       Round,
		"ROUNDUP":     RoundUp,
		"ROUNDDOWN":   RoundDown,
		"IF":          If,
		"ISNUMBER":    IsNumberFn,
		"ISTEXT":      IsTextFn,
		"ISBLANK":     IsBlankFn,
		"CONCATENATE": Concatenate,
		"LEN":         Length,
		"UPPER":       Upper,
		"LOWER":       Lower,
		"LEFT":        Left,
		"RIGHT":       Right,
		"MID":         Mid,
		"FIND":        Find,
		"TODAY":       r.today,
		"NOW":         r.now,
		"DATE":        Date,
		"YEAR":        Year,
		"MONTH":       Month,
		"DAY":         Day,
		"EOMONTH":     EOMonth,
		"EDATE":       EDate,
	}
	return r
}

// Has reports whether name is a registered function, case-insensitively.
func (r *Registry) Has(name string) bool {
	_, ok := r.table[strings.ToUpper(name)]
	return ok
}

// Call dispatches to the named function.
func (r *Registry) Call(name string, args []models.Value) (models.Value, error) {
	fn, ok := r.table[strings.ToUpper(name)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownFunction)
	}
	return fn(args)
}

// Names returns the registered function names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.table))
	for name := range r.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) today(args []models.Value) (models.Value, error) {
	return models.NewDate(r.clock.Now()), nil
}

func (r *Registry) now(args []models.Value) (models.Value, error) {
	return models.NewDateTime(r.clock.Now()), nil
}

func requireArgs(name string, args []models.Value, n int) error {
	if len(args) < n {
		return fmt.Errorf("%s: want %d arguments, got %d: %w", name, n, len(args), ErrMissingArgument)
	}
	return nil
}
