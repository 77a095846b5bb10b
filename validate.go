package xlcalc

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // cell cannot be translated or evaluated
	SeverityWarning                 // cell may produce unexpected results
)

// ValidationIssue represents a single problem found in a workbook's
// formulas.
type ValidationIssue struct {
	Severity Severity
	Ref      CellRef
	Message  string
}

// String formats the issue as "[ERROR] Sheet1!A2: message" or "[WARN] ...".
func (v ValidationIssue) String() string {
	sev := "ERROR"
	if v.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s", sev, v.Ref, v.Message)
}

// ValidateFile opens a workbook and validates every formula in it. A
// non-nil error means the file could not be read at all.
func ValidateFile(path string, opts ...Option) ([]ValidationIssue, error) {
	book, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	return book.Validate(), nil
}

// Validate checks every formula cell without evaluating anything: parse
// failures, dependency cycles, untranslatable functions, and generated
// source the engine rejects. Issues are attributed per cell; one broken
// formula never hides another.
func (b *Book) Validate() []ValidationIssue {
	var issues []ValidationIssue
	issues = append(issues, b.validateParses()...)
	issues = append(issues, b.validateCycles()...)
	issues = append(issues, b.validateGeneration()...)
	return issues
}

func (b *Book) validateParses() []ValidationIssue {
	var issues []ValidationIssue
	for _, ref := range b.formulaRefs() {
		if err := b.graph.ParseError(ref); err != nil {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Ref:      ref,
				Message:  err.Error(),
			})
		}
	}
	return issues
}

// validateCycles reports each distinct cycle once, attributed to its first
// member, regardless of how many cells reach it.
func (b *Book) validateCycles() []ValidationIssue {
	var issues []ValidationIssue
	seen := make(map[string]bool)
	for _, ref := range b.formulaRefs() {
		_, err := b.graph.Order(ref)
		var cyc *CycleError
		if !errors.As(err, &cyc) {
			continue
		}
		sig := cycleSignature(cyc)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		issues = append(issues, ValidationIssue{
			Severity: SeverityError,
			Ref:      cyc.Members[0],
			Message:  err.Error(),
		})
	}
	return issues
}

// cycleSignature canonicalizes a cycle's membership so the same cycle
// entered from different cells dedupes.
func cycleSignature(cyc *CycleError) string {
	names := make([]string, len(cyc.Members))
	for i, m := range cyc.Members {
		names[i] = m.String()
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func (b *Book) validateGeneration() []ValidationIssue {
	var issues []ValidationIssue
	for _, ref := range b.formulaRefs() {
		if b.graph.ParseError(ref) != nil {
			continue // already reported
		}
		order, err := b.graph.Order(ref)
		if err != nil {
			continue // cycle reported separately
		}
		script := generate(order, b.wb, b.funcs)
		if cellErr := script.CellError(ref); cellErr != nil {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Ref:      ref,
				Message:  cellErr.Error(),
			})
			continue
		}
		if issue := compileCheck(ref, script); issue != nil {
			issues = append(issues, *issue)
		}
	}
	return issues
}

// compileCheck compiles a cell's generated source for syntax checking and
// returns an issue if the engine rejects it.
func compileCheck(ref CellRef, script *Script) *ValidationIssue {
	src := script.Source() + script.Ident(ref) + "\n"
	if _, err := expr.Compile(src, expr.AllowUndefinedVariables()); err != nil {
		return &ValidationIssue{
			Severity: SeverityError,
			Ref:      ref,
			Message:  fmt.Sprintf("generated source rejected by engine: %v", err),
		}
	}
	return nil
}

func (b *Book) formulaRefs() []CellRef {
	var refs []CellRef
	for _, ref := range b.wb.Refs() {
		if cell := b.wb.Cell(ref); cell != nil && cell.IsFormula() {
			refs = append(refs, ref)
		}
	}
	return refs
}
