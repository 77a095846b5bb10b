package xlcalc

import "context"

// Book couples a loaded workbook with its dependency graph and an
// evaluator for computed values. A Book is read-only: reload the workbook
// through a new Book to pick up changes.
type Book struct {
	wb    *Workbook
	graph *Graph
	opts  *Options
	eval  Evaluator
	funcs map[string]renderFunc
}

// Open loads a workbook file and builds its dependency graph.
func Open(path string, opts ...Option) (*Book, error) {
	wb, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	return NewBook(wb, opts...), nil
}

// NewBook builds the dependency graph for wb and prepares evaluation.
func NewBook(wb *Workbook, opts ...Option) *Book {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	funcs := defaultFuncs
	env := map[string]any(nil)
	if len(o.functions) > 0 {
		funcs = make(map[string]renderFunc, len(defaultFuncs)+len(o.functions))
		for name, fn := range defaultFuncs {
			funcs[name] = fn
		}
		env = baseEnv()
		for name, impl := range o.functions {
			funcs[name] = renderEnvCall(name)
			env[name] = impl
		}
	}
	eval := o.evaluator
	if eval == nil {
		eval = NewEvaluator(o.timeout, env)
	}

	return &Book{
		wb:    wb,
		graph: BuildGraph(wb),
		opts:  o,
		eval:  eval,
		funcs: funcs,
	}
}

// Workbook returns the underlying workbook.
func (b *Book) Workbook() *Workbook { return b.wb }

// Graph returns the dependency graph built over the workbook.
func (b *Book) Graph() *Graph { return b.graph }

// FormulaOrValue returns a cell's raw content as text: formulas with their
// leading marker, literals in display form, "" for absent cells.
func (b *Book) FormulaOrValue(ref CellRef) string {
	cell := b.wb.Cell(ref)
	if cell == nil {
		return ""
	}
	return cell.Text()
}

// Dependencies returns the cells ref's formula reads, one level deep, in
// stable order.
func (b *Book) Dependencies(ref CellRef) []CellRef {
	return b.graph.Dependencies(ref)
}

// Dependants returns the cells whose formulas read ref, one level deep, in
// stable order.
func (b *Book) Dependants(ref CellRef) []CellRef {
	return b.graph.Dependants(ref)
}

// Script generates source for the cells reachable from roots, or for the
// whole workbook when no root is given.
func (b *Book) Script(roots ...CellRef) (*Script, error) {
	order, err := b.graph.Order(roots...)
	if err != nil {
		return nil, err
	}
	return generate(order, b.wb, b.funcs), nil
}

// ComputedValue evaluates ref's formula over its dependency closure and
// returns the resulting value. Literal cells return their value, absent
// cells zero.
func (b *Book) ComputedValue(ref CellRef) (any, error) {
	return b.ComputedValueContext(context.Background(), ref)
}

// ComputedValueContext is ComputedValue bounded by ctx in addition to the
// configured timeout.
func (b *Book) ComputedValueContext(ctx context.Context, ref CellRef) (any, error) {
	if !b.wb.HasSheet(ref.Sheet) {
		return nil, &InvalidAddressError{Text: ref.String(), Reason: "unknown sheet"}
	}
	script, err := b.Script(ref)
	if err != nil {
		return nil, err
	}
	if cellErr := script.CellError(ref); cellErr != nil {
		return nil, cellErr
	}
	return b.eval.Evaluate(ctx, script, ref)
}
