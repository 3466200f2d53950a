package engine

import (
	"errors"
	"fmt"
)

// ErrSheetNotFound indicates a sheet name the workbook does not have.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrNotArithmetic indicates an expression that did not reduce to a number.
var ErrNotArithmetic = errors.New("expression is not arithmetic")

// EvalError represents an error during formula evaluation.
type EvalError struct {
	Sheet string
	Cell  string
	Stage string // "expression", "function"
	Err   error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluation error in %s!%s (%s): %v", e.Sheet, e.Cell, e.Stage, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// NewEvalError creates a new EvalError.
func NewEvalError(sheet, cell, stage string, err error) *EvalError {
	return &EvalError{
		Sheet: sheet,
		Cell:  cell,
		Stage: stage,
		Err:   err,
	}
}
