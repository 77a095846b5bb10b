package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/javajack/xlcalc"
)

var (
	refStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func styled(s lipgloss.Style, text string) string {
	if flagNoColor {
		return text
	}
	return s.Render(text)
}

// dependencyTree renders the cells ref's formula reads, transitively.
func dependencyTree(book *xlcalc.Book, ref xlcalc.CellRef) *tree.Tree {
	return buildTree(book, ref, book.Dependencies, map[xlcalc.CellKey]bool{})
}

// dependantTree renders the cells whose formulas read ref, transitively.
func dependantTree(book *xlcalc.Book, ref xlcalc.CellRef) *tree.Tree {
	return buildTree(book, ref, book.Dependants, map[xlcalc.CellKey]bool{})
}

// buildTree expands one level per call. active tracks the path from the
// root so a cycle is cut with a marker instead of recursing forever;
// diamond-shaped graphs still print each branch in full.
func buildTree(book *xlcalc.Book, ref xlcalc.CellRef, next func(xlcalc.CellRef) []xlcalc.CellRef, active map[xlcalc.CellKey]bool) *tree.Tree {
	if active[ref.Key()] {
		return tree.Root(styled(refStyle, ref.String()) + " " + styled(errStyle, "(cycle)"))
	}
	active[ref.Key()] = true
	t := tree.Root(nodeLabel(book, ref))
	for _, child := range next(ref) {
		t.Child(buildTree(book, child, next, active))
	}
	delete(active, ref.Key())
	return t
}

// nodeLabel shows the cell's address, its raw content, and for formula
// cells the computed value (or the failure computing it).
func nodeLabel(book *xlcalc.Book, ref xlcalc.CellRef) string {
	label := styled(refStyle, ref.String())
	raw := book.FormulaOrValue(ref)
	if raw == "" {
		return label
	}
	label += "  " + raw

	cell := book.Workbook().Cell(ref)
	if cell == nil || !cell.IsFormula() {
		return label
	}
	value, err := book.ComputedValue(ref)
	if err != nil {
		return label + "  " + styled(errStyle, "["+err.Error()+"]")
	}
	return label + "  = " + styled(valueStyle, formatValue(value))
}

// formatValue renders a computed value the way a sheet would display it.
func formatValue(v any) string {
	switch c := v.(type) {
	case float64:
		return strconv.FormatFloat(c, 'g', -1, 64)
	case int:
		return strconv.Itoa(c)
	case int64:
		return strconv.FormatInt(c, 10)
	case bool:
		if c {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return c
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}
