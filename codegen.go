package xlcalc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Marker values bound to a cell's identifier when its formula could not be
// translated. Dependants still generate; touching a marker in arithmetic
// fails them at run time with a type error.
const (
	unsupportedMarker = "#NAME?"
	parseErrorMarker  = "#ERROR!"
)

// Script is generated source together with the bookkeeping needed to
// evaluate it: one let-binding per cell in evaluation order, the identifier
// of every bound cell, and the per-cell failures hit during generation.
type Script struct {
	source string
	order  []CellRef
	idents map[CellKey]string
	errs   map[CellKey]error
}

// Source returns the generated program as a standalone UTF-8 string.
func (s *Script) Source() string { return s.source }

// Order returns the cells in the order their bindings appear.
func (s *Script) Order() []CellRef { return s.order }

// Ident returns the identifier bound for ref, or "" when ref is not in the
// generated order.
func (s *Script) Ident(ref CellRef) string { return s.idents[ref.Key()] }

// Has reports whether ref has a binding in the script.
func (s *Script) Has(ref CellRef) bool {
	_, ok := s.idents[ref.Key()]
	return ok
}

// CellError returns the parse or generation failure recorded for ref, or
// nil when its binding is sound.
func (s *Script) CellError(ref CellRef) error { return s.errs[ref.Key()] }

// CellIdent derives the deterministic identifier for a cell. Sheet runes
// outside [A-Za-z0-9] are escaped as _x<hex>_ (a leading digit and the
// underscore itself included), which keeps the mapping injective; the plain
// cell name follows: Sheet1!A1 -> Sheet1_A1, 'My Sheet'!B2 ->
// My_x20_Sheet_B2.
func CellIdent(ref CellRef) string {
	return escapeSheet(ref.Sheet) + "_" + ColToName(ref.Col) + strconv.Itoa(ref.Row+1)
}

func escapeSheet(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "_x%x_", r)
		}
	}
	return b.String()
}

// Generate renders one binding per cell in evaluation order. Literal cells
// bind their value, formula cells their translated expression, and absent
// or blank cells bind zero. A cell whose formula cannot be translated binds
// a marker value and records its error; generation of other cells is never
// affected.
func Generate(order []CellRef, wb *Workbook) *Script {
	return generate(order, wb, defaultFuncs)
}

func generate(order []CellRef, wb *Workbook, funcs map[string]renderFunc) *Script {
	s := &Script{
		order:  order,
		idents: make(map[CellKey]string, len(order)),
		errs:   make(map[CellKey]error),
	}
	for _, ref := range order {
		s.idents[ref.Key()] = CellIdent(ref)
	}

	var b strings.Builder
	for _, ref := range order {
		key := ref.Key()
		rhs := "0"
		cell := wb.Cell(ref)
		switch {
		case cell == nil || cell.Type == CellBlank:
			// never-populated cells read as zero

		case cell.IsFormula():
			ast, err := cell.parse()
			if err != nil {
				s.errs[key] = err
				rhs = strconv.Quote(parseErrorMarker)
				break
			}
			r := &renderer{sheet: ref.Sheet, script: s, funcs: funcs}
			text, err := r.render(ast)
			if err != nil {
				s.errs[key] = err
				rhs = strconv.Quote(markerFor(err))
				break
			}
			rhs = text

		default:
			rhs = renderLiteral(cell.Value)
		}
		fmt.Fprintf(&b, "let %s = %s;\n", s.idents[key], rhs)
	}
	s.source = b.String()
	return s
}

func markerFor(err error) string {
	if _, ok := err.(*UnsupportedFunctionError); ok {
		return unsupportedMarker
	}
	return parseErrorMarker
}

// renderer translates one cell's AST, resolving unqualified references
// against the owning cell's sheet.
type renderer struct {
	sheet  string
	script *Script
	funcs  map[string]renderFunc
}

func (r *renderer) render(n Node) (string, error) {
	switch node := n.(type) {
	case *Literal:
		return renderLiteral(node.Value), nil

	case *Ref:
		return r.ident(node.Cell), nil

	case *RangeRef:
		members := node.Area.In(r.sheet).Cells()
		parts := make([]string, len(members))
		for i, m := range members {
			parts[i] = r.ident(m)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil

	case *Unary:
		operand, err := r.render(node.Operand)
		if err != nil {
			return "", err
		}
		switch node.Op {
		case "-":
			return "(-" + operand + ")", nil
		case "%":
			return "div(" + operand + ", 100)", nil
		}
		// Unary plus is a no-op in sheet arithmetic.
		return operand, nil

	case *Binary:
		left, err := r.render(node.Left)
		if err != nil {
			return "", err
		}
		right, err := r.render(node.Right)
		if err != nil {
			return "", err
		}
		switch node.Op {
		case "+", "-", "*":
			return "(" + left + " " + node.Op + " " + right + ")", nil
		case "/":
			// div reports division by zero instead of yielding an infinity.
			return "div(" + left + ", " + right + ")", nil
		case "^":
			// Rendered as a call: the target language's infix power is not
			// relied on.
			return "pow(" + left + ", " + right + ")", nil
		case "&":
			return "concat(" + left + ", " + right + ")", nil
		case "=":
			return "eq(" + left + ", " + right + ")", nil
		case "<>":
			return "ne(" + left + ", " + right + ")", nil
		case "<":
			return "lt(" + left + ", " + right + ")", nil
		case "<=":
			return "le(" + left + ", " + right + ")", nil
		case ">":
			return "gt(" + left + ", " + right + ")", nil
		case ">=":
			return "ge(" + left + ", " + right + ")", nil
		}
		return "", fmt.Errorf("unknown operator %q", node.Op)

	case *Call:
		fn, ok := r.funcs[node.Name]
		if !ok {
			return "", &UnsupportedFunctionError{Name: node.Name}
		}
		return fn(r, node)
	}
	return "", fmt.Errorf("unknown node %T", n)
}

// ident resolves a reference to its bound identifier, or to a zero literal
// when the cell has no binding in the order.
func (r *renderer) ident(cell CellRef) string {
	if id, ok := r.script.idents[cell.In(r.sheet).Key()]; ok {
		return id
	}
	return "0"
}

func renderLiteral(value any) string {
	switch v := value.(type) {
	case nil:
		return "0"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		text := strconv.FormatFloat(v, 'g', -1, 64)
		if math.IsInf(v, 0) || math.IsNaN(v) {
			// +Inf and NaN are not number literals in the target
			// language; bind their text instead.
			return strconv.Quote(text)
		}
		return text
	case string:
		return strconv.Quote(v)
	}
	return "0"
}

// renderFunc renders one supported spreadsheet function call.
type renderFunc func(r *renderer, call *Call) (string, error)

// defaultFuncs is the translation table of supported spreadsheet functions.
// Adding a function is one row here plus its runtime counterpart in
// baseEnv. Any name outside the table fails that cell with
// *UnsupportedFunctionError.
var defaultFuncs = map[string]renderFunc{
	"SUM":         renderEnvCall("SUM"),
	"AVERAGE":     renderEnvCall("AVERAGE"),
	"MIN":         renderEnvCall("MIN"),
	"MAX":         renderEnvCall("MAX"),
	"ROUND":       renderEnvCall("ROUND"),
	"CONCATENATE": renderEnvCall("concat"),
	"AND":         renderEnvCall("AND"),
	"OR":          renderEnvCall("OR"),
	"NOT":         renderEnvCall("NOT"),
	"IF":          renderIf,
}

// renderEnvCall maps a spreadsheet call straight onto the runtime helper of
// the same shape: helper(arg, arg, ...). Range arguments arrive as sequence
// literals; the aggregate helpers flatten them.
func renderEnvCall(helper string) renderFunc {
	return func(r *renderer, call *Call) (string, error) {
		parts := make([]string, len(call.Args))
		for i, arg := range call.Args {
			text, err := r.render(arg)
			if err != nil {
				return "", err
			}
			parts[i] = text
		}
		return helper + "(" + strings.Join(parts, ", ") + ")", nil
	}
}

// renderIf maps IF onto the conditional expression, which evaluates only
// the taken branch. An omitted else-branch yields FALSE.
func renderIf(r *renderer, call *Call) (string, error) {
	if len(call.Args) < 2 || len(call.Args) > 3 {
		return "", &SyntaxError{Pos: call.Pos(), Expected: "IF(condition, then, [else])", Got: fmt.Sprintf("%d arguments", len(call.Args))}
	}
	cond, err := r.render(call.Args[0])
	if err != nil {
		return "", err
	}
	then, err := r.render(call.Args[1])
	if err != nil {
		return "", err
	}
	otherwise := "false"
	if len(call.Args) == 3 {
		otherwise, err = r.render(call.Args[2])
		if err != nil {
			return "", err
		}
	}
	return "(truth(" + cond + ") ? (" + then + ") : (" + otherwise + "))", nil
}
