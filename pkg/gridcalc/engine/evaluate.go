package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/functions"
	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/refs"
)

// percentRe matches numeric percent literals like 25% or 3.5%.
var percentRe = regexp.MustCompile(`(\d+(\.\d+)?)%`)

var exprOptions = []expr.Option{
	expr.Env(map[string]any{}),
	expr.DisableAllBuiltins(),
}

// evaluate computes the value of raw input at (sheet, row, col). It never
// fails: input that cannot be evaluated comes back as the raw text, or as
// a spreadsheet error code in strict mode. visited holds the cells already
// on the evaluation path; re-entering one reads as zero and terminates
// reference cycles.
func (e *Engine) evaluate(raw, sheet string, row, col int, visited map[models.Coordinate]struct{}) models.Value {
	if !strings.HasPrefix(raw, "=") {
		return literalValue(raw)
	}
	if sheet == e.current {
		if v, ok := e.cache.get(row, col, raw); ok {
			return v
		}
	}
	coord := models.Coordinate{Sheet: sheet, Row: row, Col: col}
	if _, seen := visited[coord]; seen {
		// The short-circuit value of a cycle re-entry is never cached.
		return e.cycleValue()
	}
	visited[coord] = struct{}{}

	result, err := e.evalExpression(strings.TrimSpace(raw[1:]), sheet, visited)
	if err != nil {
		result = e.failureValue(raw, coord, err)
	}
	if sheet == e.current {
		e.cache.put(row, col, raw, result)
	}
	return result
}

// evalExpression evaluates a formula body, the text after the leading "=".
// A body that is exactly one cell address reads that cell; otherwise an
// arithmetic operator outside quotes selects expression evaluation, and a
// body shaped name(...) selects a function call. Everything else, a bare
// number for instance, is tried as arithmetic.
func (e *Engine) evalExpression(body, sheet string, visited map[models.Coordinate]struct{}) (models.Value, error) {
	if ref, ok := refs.Decode(stripParens(body), sheet); ok {
		if !ref.IsCell() {
			return nil, fmt.Errorf("range %s is not a value: %w", ref, ErrNotArithmetic)
		}
		return e.readCell(ref.Coordinate(), visited), nil
	}
	if hasOperator(body) {
		return e.evalArithmetic(body, sheet, visited)
	}
	if name, argsText, ok := splitCall(body); ok {
		if !e.funcs.Has(name) {
			return nil, fmt.Errorf("%s: %w", name, functions.ErrUnknownFunction)
		}
		return e.evalCall(name, argsText, sheet, visited)
	}
	return e.evalArithmetic(body, sheet, visited)
}

// evalArithmetic reduces an expression with +, -, * and / to a number.
// Function calls are evaluated and substituted first, then references,
// then percent literals, and the resulting plain expression is compiled
// and run.
func (e *Engine) evalArithmetic(body, sheet string, visited map[models.Coordinate]struct{}) (models.Value, error) {
	text, short, err := e.substituteCalls(body, sheet, visited)
	if err != nil {
		return nil, err
	}
	if short != nil {
		return short, nil
	}

	var propagated models.Value
	var refErr error
	text = refs.ReplaceRefs(text, sheet, func(ref models.Reference) (string, bool) {
		if propagated != nil || refErr != nil {
			return "", false
		}
		if !ref.IsCell() {
			refErr = fmt.Errorf("range %s in arithmetic: %w", ref, ErrNotArithmetic)
			return "", false
		}
		v := e.readCell(ref.Coordinate(), visited)
		if ev, ok := v.(models.ErrorValue); ok {
			propagated = ev
			return "", false
		}
		if v == nil {
			return "0", true
		}
		n := functions.ToNumber(v)
		if math.IsNaN(n) {
			refErr = fmt.Errorf("cell %s value %v is not numeric: %w", ref, v, ErrNotArithmetic)
			return "", false
		}
		return formatOperand(n), true
	})
	if refErr != nil {
		return nil, refErr
	}
	if propagated != nil {
		return propagated, nil
	}

	if e.opts.ShouldParsePercentLiterals() {
		text = percentRe.ReplaceAllString(text, "($1/100)")
	}
	return e.runArithmetic(text)
}

// substituteCalls replaces every function call in body with its numeric
// result, leaving the rest of the text intact. A call returning a
// spreadsheet error code short-circuits and is returned as the value.
func (e *Engine) substituteCalls(body, sheet string, visited map[models.Coordinate]struct{}) (string, models.Value, error) {
	var b strings.Builder
	i := 0
	for i < len(body) {
		c := body[i]
		if c == '"' {
			j := strings.IndexByte(body[i+1:], '"')
			if j < 0 {
				b.WriteString(body[i:])
				break
			}
			b.WriteString(body[i : i+j+2])
			i += j + 2
			continue
		}
		if isNameStart(c) {
			j := i + 1
			for j < len(body) && isNameByte(body[j]) {
				j++
			}
			if j < len(body) && body[j] == '(' {
				name := body[i:j]
				end := matchParen(body, j)
				if end < 0 {
					return "", nil, fmt.Errorf("unbalanced parentheses in %q: %w", body, ErrNotArithmetic)
				}
				if !e.funcs.Has(name) {
					return "", nil, fmt.Errorf("%s: %w", name, functions.ErrUnknownFunction)
				}
				v, err := e.evalCall(name, body[j+1:end], sheet, visited)
				if err != nil {
					return "", nil, err
				}
				if ev, ok := v.(models.ErrorValue); ok {
					return "", ev, nil
				}
				n := functions.ToNumber(v)
				if math.IsNaN(n) {
					return "", nil, fmt.Errorf("%s result %v is not numeric: %w", name, v, ErrNotArithmetic)
				}
				b.WriteString(formatOperand(n))
				i = end + 1
				continue
			}
			b.WriteString(body[i:j])
			i = j
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), nil, nil
}

// runArithmetic compiles and runs a substituted expression. Anything left
// in the text that is not plain arithmetic fails the compile and surfaces
// as a non-arithmetic error.
func (e *Engine) runArithmetic(text string) (models.Value, error) {
	// A % surviving substitution would read as modulo; reject it instead.
	if strings.Contains(text, "%") {
		return nil, fmt.Errorf("%q: %w", text, ErrNotArithmetic)
	}
	program, err := expr.Compile(text, exprOptions...)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %v: %w", text, err, ErrNotArithmetic)
	}
	out, err := e.vm.Run(program, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("run %q: %v: %w", text, err, ErrNotArithmetic)
	}
	var n float64
	switch v := out.(type) {
	case int:
		n = float64(v)
	case float64:
		n = v
	default:
		return nil, fmt.Errorf("%q is not numeric: %w", text, ErrNotArithmetic)
	}
	if math.IsInf(n, 0) {
		if e.opts.IsStrict() {
			return models.ErrorValue{Code: models.ErrCodeDiv0}, nil
		}
		return nil, fmt.Errorf("%q divides by zero: %w", text, ErrNotArithmetic)
	}
	if math.IsNaN(n) {
		if e.opts.IsStrict() {
			return models.ErrorValue{Code: models.ErrCodeNum}, nil
		}
		return nil, fmt.Errorf("%q is not a finite number: %w", text, ErrNotArithmetic)
	}
	return n, nil
}

// evalCall resolves the arguments of one function call and dispatches it.
// In strict mode an error code among the arguments becomes the call's
// result, the way spreadsheet errors propagate.
func (e *Engine) evalCall(name, argsText, sheet string, visited map[models.Coordinate]struct{}) (models.Value, error) {
	parts := splitArgs(argsText)
	args := make([]models.Value, 0, len(parts))
	for _, part := range parts {
		v, err := e.resolveArg(part, sheet, visited)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	if e.opts.IsStrict() {
		for _, v := range functions.Flatten(args) {
			if ev, ok := v.(models.ErrorValue); ok {
				return ev, nil
			}
		}
	}
	return e.funcs.Call(name, args)
}

// resolveArg turns one argument's text into a value: a quoted string, a
// cell or range reference, a number, a boolean, a nested call, a nested
// arithmetic expression, or bare text, tried in that order.
func (e *Engine) resolveArg(part, sheet string, visited map[models.Coordinate]struct{}) (models.Value, error) {
	if part == "" {
		return nil, nil
	}
	if len(part) >= 2 && part[0] == '"' && part[len(part)-1] == '"' {
		return strings.ReplaceAll(part[1:len(part)-1], `""`, `"`), nil
	}
	if ref, ok := refs.Decode(part, sheet); ok {
		if ref.IsCell() {
			return e.readCell(ref.Coordinate(), visited), nil
		}
		cells := ref.Cells()
		values := make([]models.Value, 0, len(cells))
		for _, coord := range cells {
			values = append(values, e.readCell(coord, visited))
		}
		return values, nil
	}
	if n := functions.NumberFromString(part); !math.IsNaN(n) {
		return n, nil
	}
	switch strings.ToUpper(part) {
	case "TRUE":
		return true, nil
	case "FALSE":
		return false, nil
	}
	if name, inner, ok := splitCall(part); ok {
		if !e.funcs.Has(name) {
			return nil, fmt.Errorf("%s: %w", name, functions.ErrUnknownFunction)
		}
		return e.evalCall(name, inner, sheet, visited)
	}
	if hasOperator(part) {
		return e.evalArithmetic(part, sheet, visited)
	}
	return part, nil
}

// readCell resolves a referenced cell to its value. A cell already on the
// evaluation path reads as zero; a missing sheet reads as empty text; a
// missing cell reads as nil. Cells on other sheets serve their stored
// computed value when they have one, since the result cache only covers
// the current sheet.
func (e *Engine) readCell(coord models.Coordinate, visited map[models.Coordinate]struct{}) models.Value {
	if _, seen := visited[coord]; seen {
		return e.cycleValue()
	}
	if coord.Sheet != e.current && !e.opts.ShouldResolveCrossSheet() {
		return e.missingSheetValue()
	}
	sheet, ok := e.wb.Sheet(coord.Sheet)
	if !ok {
		return e.missingSheetValue()
	}
	cell, ok := sheet.Cell(coord.Row, coord.Col)
	if !ok {
		return nil
	}
	if coord.Sheet != e.current && cell.Computed != nil {
		return cell.Computed
	}
	if cell.IsFormula() {
		return e.evaluate(cell.Raw, coord.Sheet, coord.Row, coord.Col, visited)
	}
	return literalValue(cell.Raw)
}

func (e *Engine) cycleValue() models.Value {
	if e.opts.IsStrict() {
		return models.ErrorValue{Code: models.ErrCodeCycle}
	}
	return 0.0
}

func (e *Engine) missingSheetValue() models.Value {
	if e.opts.IsStrict() {
		return models.ErrorValue{Code: models.ErrCodeRef}
	}
	return ""
}

// failureValue maps an evaluation error to the formula's result: the raw
// input text in lenient mode, a spreadsheet error code in strict mode.
func (e *Engine) failureValue(raw string, coord models.Coordinate, err error) models.Value {
	stage := "expression"
	if errors.Is(err, functions.ErrUnknownFunction) ||
		errors.Is(err, functions.ErrMissingArgument) ||
		errors.Is(err, functions.ErrInvalidArgument) {
		stage = "function"
	}
	evalErr := NewEvalError(coord.Sheet, refs.FormatCell(coord.Row, coord.Col), stage, err)
	e.log.Debug("formula not evaluated", slog.String("error", evalErr.Error()))
	if !e.opts.IsStrict() {
		return raw
	}
	if errors.Is(err, functions.ErrUnknownFunction) {
		return models.ErrorValue{Code: models.ErrCodeName}
	}
	return models.ErrorValue{Code: models.ErrCodeValue}
}

// literalValue coerces non-formula input: numeric text becomes a number,
// empty text reads as a blank cell, anything else stays text.
func literalValue(raw string) models.Value {
	if raw == "" {
		return nil
	}
	if n := functions.NumberFromString(raw); !math.IsNaN(n) {
		return n
	}
	return raw
}

// hasOperator reports whether s contains an arithmetic operator outside
// double-quoted string literals.
func hasOperator(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			j := strings.IndexByte(s[i+1:], '"')
			if j < 0 {
				return false
			}
			i += j + 1
		case '+', '-', '*', '/':
			return true
		}
	}
	return false
}

// splitCall reports whether body is exactly one function call, returning
// the name and the text between its outer parentheses.
func splitCall(body string) (name, argsText string, ok bool) {
	if len(body) == 0 || !isNameStart(body[0]) {
		return "", "", false
	}
	i := 1
	for i < len(body) && isNameByte(body[i]) {
		i++
	}
	if i >= len(body) || body[i] != '(' {
		return "", "", false
	}
	end := matchParen(body, i)
	if end != len(body)-1 {
		return "", "", false
	}
	return body[:i], body[i+1 : end], true
}

// splitArgs splits argument text on top-level commas, respecting quotes
// and nested parentheses.
func splitArgs(argsText string) []string {
	if strings.TrimSpace(argsText) == "" {
		return nil
	}
	var args []string
	depth := 0
	start := 0
	for i := 0; i < len(argsText); i++ {
		switch argsText[i] {
		case '"':
			j := strings.IndexByte(argsText[i+1:], '"')
			if j < 0 {
				i = len(argsText) - 1
			} else {
				i += j + 1
			}
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(argsText[start:i]))
				start = i + 1
			}
		}
	}
	return append(args, strings.TrimSpace(argsText[start:]))
}

// matchParen returns the index of the parenthesis closing the one at open,
// skipping double-quoted regions, or -1 if unbalanced.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '"':
			j := strings.IndexByte(s[i+1:], '"')
			if j < 0 {
				return -1
			}
			i += j + 1
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stripParens removes balanced outer parentheses, so "(A1)" resolves like
// "A1".
func stripParens(body string) string {
	for len(body) >= 2 && body[0] == '(' && body[len(body)-1] == ')' && matchParen(body, 0) == len(body)-1 {
		body = strings.TrimSpace(body[1 : len(body)-1])
	}
	return body
}

// formatOperand renders a substituted number, parenthesizing negatives so
// they survive adjacent operators.
func formatOperand(n float64) string {
	s := strconv.FormatFloat(n, 'f', -1, 64)
	if n < 0 {
		return "(" + s + ")"
	}
	return s
}

func isNameStart(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_'
}

func isNameByte(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9'
}
