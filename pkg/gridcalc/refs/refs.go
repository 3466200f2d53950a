// Package refs resolves textual cell and range references to structured
// coordinates and back. Formula bodies are tokenized with the same parser
// excelize uses (xuri/efp); individual address tokens are decoded with
// anchored patterns.
package refs

import (
	"regexp"
	"strings"

	"github.com/xuri/efp"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
)

var (
	// cellRe decodes one cell address, optionally sheet-qualified and
	// $-anchored. Anchors are accepted and discarded.
	cellRe = regexp.MustCompile(`^(?:'([^']+)'!|([A-Za-z_][A-Za-z0-9_.]*)!)?\$?([A-Z]+)\$?([0-9]+)$`)

	// rangeRe decodes one rectangular range address.
	rangeRe = regexp.MustCompile(`^(?:'([^']+)'!|([A-Za-z_][A-Za-z0-9_.]*)!)?\$?([A-Z]+)\$?([0-9]+):\$?([A-Z]+)\$?([0-9]+)$`)

	// scanRe finds candidate references inside an expression during
	// substitution. Matches are boundary-checked by the caller.
	scanRe = regexp.MustCompile(`(?:'[^']+'!|[A-Za-z_][A-Za-z0-9_.]*!)?\$?[A-Z]+\$?[0-9]+(?::\$?[A-Z]+\$?[0-9]+)?`)
)

// Parse extracts every cell and range reference from a formula body (the
// text after the leading "="). Unqualified references resolve against
// currentSheet. A range yields one Reference covering its rectangle; cells
// inside a matched range are not reported separately.
func Parse(body, currentSheet string) []models.Reference {
	parser := efp.ExcelParser()
	tokens := parser.Parse(body)

	var out []models.Reference
	for _, token := range tokens {
		if token.TType != efp.TokenTypeOperand || token.TSubType != efp.TokenSubTypeRange {
			continue
		}
		value := strings.TrimSpace(strings.ReplaceAll(token.TValue, "\n", ""))
		if ref, ok := Decode(value, currentSheet); ok {
			out = append(out, ref)
		}
	}
	return out
}

// Decode resolves one complete address string, e.g. "A1", "$B$2",
// "Sheet2!A1" or "'My Sheet'!A1:B3". It reports false for text that is not
// a well-formed address.
func Decode(text, currentSheet string) (models.Reference, bool) {
	if m := rangeRe.FindStringSubmatch(text); m != nil {
		ref := models.Reference{
			Sheet:    sheetName(m[1], m[2], currentSheet),
			StartCol: models.ColumnIndex(m[3]),
			StartRow: mustRow(m[4]),
			EndCol:   models.ColumnIndex(m[5]),
			EndRow:   mustRow(m[6]),
		}
		return normalize(ref), true
	}
	if m := cellRe.FindStringSubmatch(text); m != nil {
		col := models.ColumnIndex(m[3])
		row := mustRow(m[4])
		return models.Reference{
			Sheet:    sheetName(m[1], m[2], currentSheet),
			StartRow: row,
			StartCol: col,
			EndRow:   row,
			EndCol:   col,
		}, true
	}
	return models.Reference{}, false
}

// FormatCell renders a zero-based (row, col) pair in A1 style.
func FormatCell(row, col int) string {
	return models.Reference{StartRow: row, StartCol: col, EndRow: row, EndCol: col}.String()
}

// ReplaceRefs rewrites every reference in expr outside double-quoted string
// literals using repl. When repl reports false the original text is kept.
// Single-quoted regions are part of sheet-qualified references and are
// matched, not skipped.
func ReplaceRefs(expr, currentSheet string, repl func(models.Reference) (string, bool)) string {
	var b strings.Builder
	rest := expr
	for {
		quote := strings.IndexByte(rest, '"')
		if quote < 0 {
			b.WriteString(replaceSegment(rest, currentSheet, repl))
			break
		}
		b.WriteString(replaceSegment(rest[:quote], currentSheet, repl))
		end := strings.IndexByte(rest[quote+1:], '"')
		if end < 0 {
			b.WriteString(rest[quote:])
			break
		}
		b.WriteString(rest[quote : quote+end+2])
		rest = rest[quote+end+2:]
	}
	return b.String()
}

func replaceSegment(segment, currentSheet string, repl func(models.Reference) (string, bool)) string {
	matches := scanRe.FindAllStringIndex(segment, -1)
	if matches == nil {
		return segment
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if !cleanBoundary(segment, start, end) {
			continue
		}
		ref, ok := Decode(segment[start:end], currentSheet)
		if !ok {
			continue
		}
		text, ok := repl(ref)
		if !ok {
			continue
		}
		b.WriteString(segment[last:start])
		b.WriteString(text)
		last = end
	}
	b.WriteString(segment[last:])
	return b.String()
}

// cleanBoundary rejects matches embedded in a longer identifier, so "G10"
// inside "LOG10(" is not treated as a reference.
func cleanBoundary(s string, start, end int) bool {
	if start > 0 {
		c := s[start-1]
		if isWordByte(c) || c == '$' || c == '!' || c == '\'' {
			return false
		}
	}
	if end < len(s) {
		c := s[end]
		if isWordByte(c) || c == '(' {
			return false
		}
	}
	return true
}

func isWordByte(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_'
}

func sheetName(quoted, bare, current string) string {
	if quoted != "" {
		return quoted
	}
	if bare != "" {
		return bare
	}
	return current
}

func mustRow(digits string) int {
	n := 0
	for i := 0; i < len(digits); i++ {
		n = n*10 + int(digits[i]-'0')
	}
	return n - 1
}

func normalize(r models.Reference) models.Reference {
	if r.StartRow > r.EndRow {
		r.StartRow, r.EndRow = r.EndRow, r.StartRow
	}
	if r.StartCol > r.EndCol {
		r.StartCol, r.EndCol = r.EndCol, r.StartCol
	}
	return r
}
