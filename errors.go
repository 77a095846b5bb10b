package xlcalc

import (
	"fmt"
	"strings"
)

// InvalidAddressError reports a cell or range reference that cannot be
// parsed into coordinates.
type InvalidAddressError struct {
	Text   string // the reference text as written
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Text, e.Reason)
}

// SyntaxError reports a formula that cannot be parsed past Pos.
type SyntaxError struct {
	Pos      int    // 0-based byte offset into the formula body
	Expected string // what the parser was looking for
	Got      string // the token actually found
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: expected %s, got %s", e.Pos, e.Expected, e.Got)
}

// UnsupportedConstructError reports formula syntax that is recognized but
// has no translation, such as array-formula braces.
type UnsupportedConstructError struct {
	Pos       int
	Construct string
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("unsupported construct at offset %d: %s", e.Pos, e.Construct)
}

// CycleError reports a dependency cycle. Members holds the cells that were
// on the active traversal stack when the cycle was detected, in reference
// order.
type CycleError struct {
	Members []CellRef
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Members))
	for i, m := range e.Members {
		names[i] = m.String()
	}
	return "dependency cycle: " + strings.Join(names, " -> ")
}

// UnsupportedFunctionError reports a call to a function name outside the
// generation table.
type UnsupportedFunctionError struct {
	Name string
}

func (e *UnsupportedFunctionError) Error() string {
	return fmt.Sprintf("unsupported function %s", e.Name)
}

// EvaluationError reports a failure inside the expression engine, including
// timeouts. Ref is the cell whose value was being computed.
type EvaluationError struct {
	Ref     CellRef
	Message string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation of %s failed: %s", e.Ref, e.Message)
}
