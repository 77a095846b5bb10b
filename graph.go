package xlcalc

import "sort"

// Graph holds the dependency structure of a workbook: for every formula
// cell, the cells its formula reads, with ranges pre-expanded to member
// cells and duplicates removed. The reverse index is derived from the
// forward edges and is always their exact transpose.
type Graph struct {
	wb        *Workbook
	forward   map[CellKey][]CellKey
	reverse   map[CellKey][]CellKey
	parseErrs map[CellKey]error
}

// BuildGraph parses every formula cell (caching the AST on the cell) and
// collects its direct references. Literal cells contribute no outgoing
// edges. Self-references are recorded as ordinary edges; rejecting them is
// the orderer's job. A cell whose formula fails to parse gets its error
// recorded and contributes no edges; other cells are unaffected. Building
// twice from an unchanged workbook yields an equal graph.
func BuildGraph(wb *Workbook) *Graph {
	g := &Graph{
		wb:        wb,
		forward:   make(map[CellKey][]CellKey),
		reverse:   make(map[CellKey][]CellKey),
		parseErrs: make(map[CellKey]error),
	}

	for _, ref := range wb.Refs() {
		cell := wb.Cell(ref)
		if !cell.IsFormula() {
			continue
		}
		key := ref.Key()
		ast, err := cell.parse()
		if err != nil {
			g.parseErrs[key] = err
			continue
		}
		g.forward[key] = collectDeps(ast, ref.Sheet)
	}

	for from, deps := range g.forward {
		for _, to := range deps {
			g.reverse[to] = append(g.reverse[to], from)
		}
	}
	for _, froms := range g.reverse {
		sortKeys(froms)
	}
	return g
}

// parse returns the cell's cached AST, parsing the formula body on first
// use. The result, success or failure, sticks for the cell's lifetime.
func (c *Cell) parse() (Node, error) {
	if c.ast == nil && c.parseErr == nil {
		c.ast, c.parseErr = Parse(c.Formula)
	}
	return c.ast, c.parseErr
}

// collectDeps walks a formula AST and returns the referenced cell keys,
// sorted and deduplicated. Unqualified references resolve to the owning
// cell's sheet.
func collectDeps(ast Node, sheet string) []CellKey {
	seen := make(map[CellKey]bool)
	var deps []CellKey
	walkRefs(ast, func(n Node) {
		switch node := n.(type) {
		case *Ref:
			key := node.Cell.In(sheet).Key()
			if !seen[key] {
				seen[key] = true
				deps = append(deps, key)
			}
		case *RangeRef:
			for _, member := range node.Area.In(sheet).Cells() {
				key := member.Key()
				if !seen[key] {
					seen[key] = true
					deps = append(deps, key)
				}
			}
		}
	})
	sortKeys(deps)
	return deps
}

func sortKeys(keys []CellKey) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Sheet != b.Sheet {
			return a.Sheet < b.Sheet
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
}

// Dependencies returns the cells ref's formula reads directly, one level,
// in sheet/row/column order.
func (g *Graph) Dependencies(ref CellRef) []CellRef {
	return keysToRefs(g.forward[ref.Key()])
}

// Dependants returns the cells whose formulas read ref directly, one
// level, in sheet/row/column order.
func (g *Graph) Dependants(ref CellRef) []CellRef {
	return keysToRefs(g.reverse[ref.Key()])
}

// ParseError returns the recorded parse failure for ref's formula, or nil.
func (g *Graph) ParseError(ref CellRef) error {
	return g.parseErrs[ref.Key()]
}

func keysToRefs(keys []CellKey) []CellRef {
	refs := make([]CellRef, len(keys))
	for i, k := range keys {
		refs[i] = k.Ref()
	}
	return refs
}

// Traversal states for Order.
const (
	stateUnvisited = iota
	stateInProgress
	stateDone
)

// Order produces an evaluation order for the transitive dependency closure
// of the given roots: every cell appears after all cells it depends on.
// With no roots, the whole workbook is ordered. Ties between independent
// branches follow the deterministic input order, so repeated runs on the
// same workbook produce identical output. A reachable cycle aborts with a
// *CycleError carrying the cells on the active traversal stack; no partial
// order is returned.
func (g *Graph) Order(roots ...CellRef) ([]CellRef, error) {
	var rootKeys []CellKey
	if len(roots) == 0 {
		for _, ref := range g.wb.Refs() {
			rootKeys = append(rootKeys, ref.Key())
		}
	} else {
		for _, ref := range roots {
			rootKeys = append(rootKeys, ref.Key())
		}
	}

	state := make(map[CellKey]int)
	var stack []CellKey
	var order []CellKey

	var visit func(key CellKey) error
	visit = func(key CellKey) error {
		switch state[key] {
		case stateDone:
			return nil
		case stateInProgress:
			return &CycleError{Members: stackFrom(stack, key)}
		}
		state[key] = stateInProgress
		stack = append(stack, key)
		for _, dep := range g.forward[key] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[key] = stateDone
		order = append(order, key)
		return nil
	}

	for _, key := range rootKeys {
		if err := visit(key); err != nil {
			return nil, err
		}
	}
	return keysToRefs(order), nil
}

// stackFrom slices the traversal stack from the repeated key to the point
// of detection and returns the segment as references.
func stackFrom(stack []CellKey, key CellKey) []CellRef {
	start := 0
	for i, k := range stack {
		if k == key {
			start = i
			break
		}
	}
	return keysToRefs(stack[start:])
}
