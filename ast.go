package xlcalc

// Node is one node of a parsed formula. Nodes are immutable once built and
// owned by the cell whose formula they were parsed from.
type Node interface {
	// Pos returns the node's byte offset in the formula body.
	Pos() int
}

// Literal is a number, text, or boolean constant.
type Literal struct {
	Value any // float64, string, or bool
	pos   int
}

func (n *Literal) Pos() int { return n.pos }

// Ref is a reference to a single cell. An empty sheet name means the
// owning cell's sheet; resolution happens when the dependency graph is
// built.
type Ref struct {
	Cell CellRef
	pos  int
}

func (n *Ref) Pos() int { return n.pos }

// RangeRef is a rectangular range of cells, normalized corner order.
type RangeRef struct {
	Area AreaRef
	pos  int
}

func (n *RangeRef) Pos() int { return n.pos }

// Unary is a prefix sign or the percent postfix.
type Unary struct {
	Op      string // "-", "+", or "%"
	Operand Node
	pos     int
}

func (n *Unary) Pos() int { return n.pos }

// Binary is an infix operation.
type Binary struct {
	Op    string // "+" "-" "*" "/" "^" "&" "=" "<>" "<" "<=" ">" ">="
	Left  Node
	Right Node
	pos   int
}

func (n *Binary) Pos() int { return n.pos }

// Call is a function call with ordered arguments.
type Call struct {
	Name string // upper-cased function name
	Args []Node
	pos  int
}

func (n *Call) Pos() int { return n.pos }

// walkRefs visits every Ref and RangeRef node in the tree. It is the
// traversal behind dependency extraction.
func walkRefs(n Node, fn func(Node)) {
	switch node := n.(type) {
	case *Ref, *RangeRef:
		fn(n)
	case *Unary:
		walkRefs(node.Operand, fn)
	case *Binary:
		walkRefs(node.Left, fn)
		walkRefs(node.Right, fn)
	case *Call:
		for _, arg := range node.Args {
			walkRefs(arg, fn)
		}
	case *Literal:
	}
}
