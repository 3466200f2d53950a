// Package main provides the CLI entry point for gridcalc.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/engine"
	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/functions"
	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/output"
	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/refs"
	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/xlsxio"
)

var (
	sheetName  string
	formula    string
	rawValue   string
	outputPath string
	asJSON     bool
	pretty     bool
	strict     bool
	verbose    bool
	verify     bool
	listenAddr string
	target     cellFlag
)

// exitError carries a process exit code through the cobra error path.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return e.msg
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "gridcalc",
		Short: "Evaluate spreadsheet formulas against xlsx workbooks",
		Long: `gridcalc evaluates spreadsheet formulas: arithmetic, cell and range
references, and a library of spreadsheet functions, with dependency-aware
recalculation over xlsx workbooks.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
					&slog.HandlerOptions{Level: slog.LevelDebug})))
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&sheetName, "sheet", "", "Sheet to operate on (default: first sheet)")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Report failures as spreadsheet error codes")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	evalCmd := &cobra.Command{
		Use:   "eval [workbook.xlsx]",
		Short: "Evaluate a formula, optionally against a workbook",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEval,
	}
	evalCmd.Flags().StringVarP(&formula, "formula", "f", "", "Formula or literal to evaluate")
	evalCmd.Flags().VarP(&target, "cell", "c", "Cell context in A1 form (default A1)")

	getCmd := &cobra.Command{
		Use:   "get workbook.xlsx",
		Short: "Evaluate one cell of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  runGet,
	}
	getCmd.Flags().VarP(&target, "cell", "c", "Cell to read in A1 form")

	setCmd := &cobra.Command{
		Use:   "set workbook.xlsx",
		Short: "Write a cell and report the affected cells",
		Args:  cobra.ExactArgs(1),
		RunE:  runSet,
	}
	setCmd.Flags().VarP(&target, "cell", "c", "Cell to write in A1 form")
	setCmd.Flags().StringVar(&rawValue, "value", "", "Raw input to write; formulas start with =")
	setCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the updated workbook to this path")

	recalcCmd := &cobra.Command{
		Use:   "recalc workbook.xlsx",
		Short: "Recompute every cell of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  runRecalc,
	}
	recalcCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the recalculated workbook to this path")
	recalcCmd.Flags().BoolVar(&verify, "verify", false, "Check stored results against a fresh recalculation, exit 2 on drift; never writes")

	depsCmd := &cobra.Command{
		Use:   "deps workbook.xlsx",
		Short: "Show what a cell reads and what reads it",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeps,
	}
	depsCmd.Flags().VarP(&target, "cell", "c", "Cell to inspect in A1 form")

	serveCmd := &cobra.Command{
		Use:   "serve workbook.xlsx",
		Short: "Serve a workbook session over WebSocket",
		Args:  cobra.ExactArgs(1),
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8742", "Listen address")

	rootCmd.AddCommand(evalCmd, getCmd, setCmd, recalcCmd, depsCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintln(os.Stderr, ee.msg)
			}
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func runEval(cmd *cobra.Command, args []string) error {
	if formula == "" {
		return fmt.Errorf("--formula is required")
	}
	eng, err := newEngine(args)
	if err != nil {
		return err
	}
	row, col := 0, 0
	if target.set {
		if target.coord.Sheet != "" {
			if err := eng.SetCurrentSheet(target.coord.Sheet); err != nil {
				return err
			}
		}
		row, col = target.coord.Row, target.coord.Col
	}
	return emitResult(output.NewResult(eng.Evaluate(formula, row, col)))
}

func runGet(cmd *cobra.Command, args []string) error {
	if !target.set {
		return fmt.Errorf("--cell is required")
	}
	eng, err := openEngine(args[0])
	if err != nil {
		return err
	}
	if target.coord.Sheet != "" {
		if err := eng.SetCurrentSheet(target.coord.Sheet); err != nil {
			return err
		}
	}
	return emitResult(output.NewResult(eng.CellValue(target.coord.Row, target.coord.Col)))
}

func runSet(cmd *cobra.Command, args []string) error {
	if !target.set {
		return fmt.Errorf("--cell is required")
	}
	eng, err := openEngine(args[0])
	if err != nil {
		return err
	}
	if target.coord.Sheet != "" {
		if err := eng.SetCurrentSheet(target.coord.Sheet); err != nil {
			return err
		}
	}
	affected := eng.SetCell(target.coord.Row, target.coord.Col, rawValue)

	if asJSON {
		data, err := output.ToJSON(struct {
			Cell     string   `json:"cell"`
			Affected []string `json:"affected"`
		}{coordString(eng, target.coord), coordStrings(affected)}, pretty)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		for _, c := range affected {
			fmt.Println(c.String())
		}
	}
	return saveIfRequested(eng)
}

func runRecalc(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(args[0]); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", args[0])
	}
	wb, err := xlsxio.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load workbook: %w", err)
	}
	// Verification compares against the results stored in the file, so the
	// snapshot is taken before the engine discards them.
	var before *models.Workbook
	if verify {
		if before, err = wb.Clone(); err != nil {
			return err
		}
	}
	eng := engine.New(wb, engineOptions())
	if sheetName != "" {
		if err := eng.SetCurrentSheet(sheetName); err != nil {
			return err
		}
	}
	eng.RebuildAll()
	for _, name := range wb.SheetNames() {
		if err := eng.SetCurrentSheet(name); err != nil {
			return err
		}
		sheet := wb.Sheets[name]
		for key := range sheet.Cells {
			eng.CellValue(key.Row, key.Col)
		}
	}

	if asJSON {
		data, err := output.ToJSON(output.Snapshot(wb), pretty)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		for _, r := range output.Snapshot(wb) {
			fmt.Printf("%s = %s\n", r.Cell, r.Display)
		}
	}
	if verify {
		if stale := staleCells(before, wb); len(stale) > 0 {
			return &exitError{code: 2, msg: fmt.Sprintf("stale results: %s", strings.Join(stale, " "))}
		}
		return nil
	}
	return saveIfRequested(eng)
}

// staleCells lists the formula cells whose freshly computed value differs
// from the result stored in the file. Cells the file carried no result for
// are skipped.
func staleCells(before, after *models.Workbook) []string {
	var out []string
	for _, name := range after.Order {
		freshSheet := after.Sheets[name]
		prevSheet, ok := before.Sheet(name)
		if !ok {
			continue
		}
		keys := make([]models.CellKey, 0, len(freshSheet.Cells))
		for key := range freshSheet.Cells {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].Row != keys[j].Row {
				return keys[i].Row < keys[j].Row
			}
			return keys[i].Col < keys[j].Col
		})
		for _, key := range keys {
			cell := freshSheet.Cells[key]
			if !cell.IsFormula() {
				continue
			}
			prev, ok := prevSheet.Cell(key.Row, key.Col)
			if !ok || prev.Computed == nil {
				continue
			}
			if valuesDiffer(prev.Computed, cell.Computed) {
				out = append(out, models.Coordinate{Sheet: name, Row: key.Row, Col: key.Col}.String())
			}
		}
	}
	return out
}

// valuesDiffer compares a stored result with a fresh one, numerically when
// both sides read as numbers. Stored results come back from the file as
// text, so "6" and 6.0 must not count as drift.
func valuesDiffer(prev, fresh models.Value) bool {
	a, b := functions.ToNumber(prev), functions.ToNumber(fresh)
	if !math.IsNaN(a) && !math.IsNaN(b) {
		return a != b
	}
	return functions.ToText(prev) != functions.ToText(fresh)
}

func runDeps(cmd *cobra.Command, args []string) error {
	if !target.set {
		return fmt.Errorf("--cell is required")
	}
	eng, err := openEngine(args[0])
	if err != nil {
		return err
	}
	coord := target.coord
	if coord.Sheet == "" {
		coord.Sheet = eng.CurrentSheet()
	}
	reads := coordStrings(eng.Dependencies(coord))
	readers := coordStrings(eng.Dependents(coord))

	if asJSON {
		data, err := output.ToJSON(struct {
			Cell         string   `json:"cell"`
			Dependencies []string `json:"dependencies"`
			Dependents   []string `json:"dependents"`
		}{coord.String(), reads, readers}, pretty)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Printf("%s reads: %s\n", coord.String(), strings.Join(reads, " "))
	fmt.Printf("%s is read by: %s\n", coord.String(), strings.Join(readers, " "))
	return nil
}

// newEngine builds an engine from an optional workbook argument. With no
// argument the engine starts on an empty workbook, for scratch evaluation.
func newEngine(args []string) (*engine.Engine, error) {
	if len(args) == 1 {
		return openEngine(args[0])
	}
	eng := engine.New(nil, engineOptions())
	if sheetName != "" {
		eng.Workbook().AddSheet(sheetName)
		if err := eng.SetCurrentSheet(sheetName); err != nil {
			return nil, err
		}
	}
	return eng, nil
}

// openEngine loads the workbook at path and builds an engine over it with
// the dependency graph already in place.
func openEngine(path string) (*engine.Engine, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	wb, err := xlsxio.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load workbook: %w", err)
	}
	eng := engine.New(wb, engineOptions())
	if sheetName != "" {
		if err := eng.SetCurrentSheet(sheetName); err != nil {
			return nil, err
		}
	}
	eng.RebuildAll()
	return eng, nil
}

func engineOptions() engine.Options {
	opts := engine.DefaultOptions()
	if strict {
		opts.Mode = engine.ModeStrict
	}
	return opts
}

func emitResult(r output.Result) error {
	if asJSON {
		data, err := output.ToJSON(r, pretty)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(r.Display)
	return nil
}

func saveIfRequested(eng *engine.Engine) error {
	if outputPath == "" {
		return nil
	}
	if err := xlsxio.Save(eng.Workbook(), outputPath); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func coordString(eng *engine.Engine, coord models.Coordinate) string {
	if coord.Sheet == "" {
		coord.Sheet = eng.CurrentSheet()
	}
	return coord.String()
}

func coordStrings(coords []models.Coordinate) []string {
	out := make([]string, len(coords))
	for i, c := range coords {
		out[i] = c.String()
	}
	return out
}

// cellFlag parses an A1-style cell address, optionally sheet-qualified,
// from the command line.
type cellFlag struct {
	coord models.Coordinate
	set   bool
}

var _ pflag.Value = (*cellFlag)(nil)

func (c *cellFlag) String() string {
	if !c.set {
		return ""
	}
	if c.coord.Sheet == "" {
		return refs.FormatCell(c.coord.Row, c.coord.Col)
	}
	return c.coord.String()
}

func (c *cellFlag) Set(text string) error {
	coord, err := parseCellAddr(text)
	if err != nil {
		return err
	}
	c.coord = coord
	c.set = true
	return nil
}

func (c *cellFlag) Type() string {
	return "cell"
}

// parseCellAddr decodes a single-cell address like "B1" or "Sheet2!B1".
// The column letters may be typed in lower case; sheet names keep their
// case.
func parseCellAddr(text string) (models.Coordinate, error) {
	addr := text
	if i := strings.LastIndexByte(addr, '!'); i >= 0 {
		addr = addr[:i+1] + strings.ToUpper(addr[i+1:])
	} else {
		addr = strings.ToUpper(addr)
	}
	ref, ok := refs.Decode(addr, "")
	if !ok || !ref.IsCell() {
		return models.Coordinate{}, fmt.Errorf("invalid cell address: %s", text)
	}
	return ref.Coordinate(), nil
}
