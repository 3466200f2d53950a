// Package engine provides formula evaluation over a workbook, with
// dependency tracking, result caching and change-driven invalidation.
package engine

import (
	"log/slog"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/functions"
)

// Mode represents the evaluation mode.
type Mode string

const (
	// ModeLenient echoes the raw input of any formula that cannot be
	// evaluated. Nothing ever fails; the worst outcome is the input text.
	ModeLenient Mode = "lenient"
	// ModeStrict surfaces evaluation failures as spreadsheet error codes
	// such as #VALUE! and #NAME?.
	ModeStrict Mode = "strict"
)

// Options configures evaluation behavior.
type Options struct {
	// Mode specifies the evaluation mode (lenient, strict).
	Mode Mode
	// CurrentSheet names the sheet the engine starts bound to.
	// If empty, the workbook's first sheet is used.
	CurrentSheet string
	// PercentLiterals specifies whether percent literals like 25% inside
	// arithmetic are read as divisions by 100. If nil, defaults to true.
	PercentLiterals *bool
	// CrossSheet specifies whether references may reach sheets other than
	// the current one. If nil, defaults to true.
	CrossSheet *bool
	// Clock supplies the current time to TODAY and NOW.
	// If nil, the system clock is used.
	Clock functions.Clock
	// Logger receives evaluation diagnostics. If nil, slog.Default is used.
	Logger *slog.Logger
}

// DefaultOptions returns default evaluation options.
func DefaultOptions() Options {
	return Options{
		Mode: ModeLenient,
	}
}

// IsStrict returns whether failures surface as spreadsheet error codes.
func (o Options) IsStrict() bool {
	return o.Mode == ModeStrict
}

// ShouldParsePercentLiterals returns whether percent literals are rewritten
// inside arithmetic.
func (o Options) ShouldParsePercentLiterals() bool {
	if o.PercentLiterals != nil {
		return *o.PercentLiterals
	}
	return true
}

// ShouldResolveCrossSheet returns whether references may reach other sheets.
func (o Options) ShouldResolveCrossSheet() bool {
	if o.CrossSheet != nil {
		return *o.CrossSheet
	}
	return true
}
