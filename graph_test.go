package xlcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_DependenciesSortedAndDeduped(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetValue(cell("Sheet1", 0, 0), 1)            // A1
	wb.SetValue(cell("Sheet1", 0, 1), 2)            // B1
	wb.SetFormula(cell("Sheet1", 0, 2), "=B1+A1+A1") // C1 reads A1 twice

	g := BuildGraph(wb)
	deps := g.Dependencies(cell("Sheet1", 0, 2))
	require.Len(t, deps, 2)
	assert.Equal(t, cell("Sheet1", 0, 0), deps[0])
	assert.Equal(t, cell("Sheet1", 0, 1), deps[1])
}

func TestGraph_RangeExpandsToMembers(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetFormula(cell("Sheet1", 3, 0), "=SUM(A1:A3)") // A4

	g := BuildGraph(wb)
	deps := g.Dependencies(cell("Sheet1", 3, 0))
	require.Len(t, deps, 3)
	assert.Equal(t, cell("Sheet1", 0, 0), deps[0]) // A1
	assert.Equal(t, cell("Sheet1", 1, 0), deps[1]) // A2
	assert.Equal(t, cell("Sheet1", 2, 0), deps[2]) // A3
}

func TestGraph_UnqualifiedRefsResolveToOwningSheet(t *testing.T) {
	wb := NewWorkbook("Sheet1", "Sheet2")
	wb.SetFormula(cell("Sheet2", 0, 2), "=A1+Sheet1!B1") // Sheet2!C1

	g := BuildGraph(wb)
	deps := g.Dependencies(cell("Sheet2", 0, 2))
	require.Len(t, deps, 2)
	assert.Equal(t, cell("Sheet1", 0, 1), deps[0]) // qualified ref kept
	assert.Equal(t, cell("Sheet2", 0, 0), deps[1]) // bare A1 → Sheet2!A1
}

func TestGraph_DependantsAreTheTranspose(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetValue(cell("Sheet1", 0, 0), 5)          // A1
	wb.SetFormula(cell("Sheet1", 0, 1), "=A1")    // B1
	wb.SetFormula(cell("Sheet1", 0, 2), "=A1*2")  // C1
	wb.SetFormula(cell("Sheet1", 1, 0), "=B1+C1") // A2

	g := BuildGraph(wb)
	dependants := g.Dependants(cell("Sheet1", 0, 0))
	require.Len(t, dependants, 2)
	assert.Equal(t, cell("Sheet1", 0, 1), dependants[0])
	assert.Equal(t, cell("Sheet1", 0, 2), dependants[1])

	// Literal cells have no dependencies in either direction.
	assert.Empty(t, g.Dependencies(cell("Sheet1", 0, 0)))
	assert.Empty(t, g.Dependants(cell("Sheet1", 1, 0)))
}

func TestGraph_ParseErrorIsolatedToItsCell(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetValue(cell("Sheet1", 0, 0), 1)          // A1
	wb.SetFormula(cell("Sheet1", 0, 1), "=(((")   // B1 malformed
	wb.SetFormula(cell("Sheet1", 0, 2), "=A1+1")  // C1 healthy

	g := BuildGraph(wb)
	require.Error(t, g.ParseError(cell("Sheet1", 0, 1)))
	assert.Empty(t, g.Dependencies(cell("Sheet1", 0, 1)))

	assert.NoError(t, g.ParseError(cell("Sheet1", 0, 2)))
	require.Len(t, g.Dependencies(cell("Sheet1", 0, 2)), 1)
}

func TestGraph_RebuildYieldsEqualEdges(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetValue(cell("Sheet1", 0, 0), 1)
	wb.SetFormula(cell("Sheet1", 0, 1), "=A1+1")
	wb.SetFormula(cell("Sheet1", 0, 2), "=)bad(")

	first := BuildGraph(wb)
	second := BuildGraph(wb)
	assert.Equal(t, first.Dependencies(cell("Sheet1", 0, 1)), second.Dependencies(cell("Sheet1", 0, 1)))
	assert.Equal(t, first.Dependants(cell("Sheet1", 0, 0)), second.Dependants(cell("Sheet1", 0, 0)))
	assert.Equal(t, first.ParseError(cell("Sheet1", 0, 2)), second.ParseError(cell("Sheet1", 0, 2)))
}

func TestOrder_ChainComesOutDependenciesFirst(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetValue(cell("Sheet1", 0, 0), 1)         // A1
	wb.SetFormula(cell("Sheet1", 0, 1), "=A1+1") // B1
	wb.SetFormula(cell("Sheet1", 0, 2), "=B1*2") // C1

	g := BuildGraph(wb)
	order, err := g.Order(cell("Sheet1", 0, 2))
	require.NoError(t, err)
	require.Len(t, order, 3)
	assert.Equal(t, cell("Sheet1", 0, 0), order[0])
	assert.Equal(t, cell("Sheet1", 0, 1), order[1])
	assert.Equal(t, cell("Sheet1", 0, 2), order[2])
}

func TestOrder_ClosureOnly(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetValue(cell("Sheet1", 0, 0), 1)         // A1
	wb.SetFormula(cell("Sheet1", 0, 1), "=A1+1") // B1
	wb.SetValue(cell("Sheet1", 5, 5), 99)        // F6, unrelated

	g := BuildGraph(wb)
	order, err := g.Order(cell("Sheet1", 0, 1))
	require.NoError(t, err)
	require.Len(t, order, 2)
	assert.NotContains(t, order, cell("Sheet1", 5, 5))
}

func TestOrder_WholeWorkbookRespectsDependencies(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetFormula(cell("Sheet1", 0, 0), "=B1+C1") // A1 depends on later cells
	wb.SetFormula(cell("Sheet1", 0, 1), "=C1*2")  // B1
	wb.SetValue(cell("Sheet1", 0, 2), 3)          // C1

	g := BuildGraph(wb)
	order, err := g.Order()
	require.NoError(t, err)
	require.Len(t, order, 3)

	pos := make(map[CellKey]int)
	for i, ref := range order {
		pos[ref.Key()] = i
	}
	for _, ref := range order {
		for _, dep := range g.Dependencies(ref) {
			assert.Less(t, pos[dep.Key()], pos[ref.Key()],
				"%s must come after %s", ref, dep)
		}
	}
}

func TestOrder_Deterministic(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetValue(cell("Sheet1", 0, 0), 1)
	wb.SetValue(cell("Sheet1", 1, 0), 2)
	wb.SetValue(cell("Sheet1", 2, 0), 3)
	wb.SetFormula(cell("Sheet1", 3, 0), "=SUM(A1:A3)")
	wb.SetFormula(cell("Sheet1", 3, 1), "=A4*2")

	g := BuildGraph(wb)
	first, err := g.Order()
	require.NoError(t, err)
	second, err := g.Order()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestOrder_IncludesNeverPopulatedCells(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetFormula(cell("Sheet1", 0, 1), "=Z9+1") // B1 reads an empty cell

	g := BuildGraph(wb)
	order, err := g.Order(cell("Sheet1", 0, 1))
	require.NoError(t, err)
	require.Len(t, order, 2)
	assert.Equal(t, cell("Sheet1", 8, 25), order[0]) // Z9
	assert.Equal(t, cell("Sheet1", 0, 1), order[1])
}

func TestOrder_SelfReferenceIsACycle(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetFormula(cell("Sheet1", 0, 0), "=A1+1")

	g := BuildGraph(wb)
	_, err := g.Order(cell("Sheet1", 0, 0))
	require.Error(t, err)

	var cyc *CycleError
	require.ErrorAs(t, err, &cyc)
	require.Len(t, cyc.Members, 1)
	assert.Equal(t, cell("Sheet1", 0, 0), cyc.Members[0])
}

func TestOrder_CycleReachedFromOutside(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetFormula(cell("Sheet1", 0, 0), "=B1")   // A1
	wb.SetFormula(cell("Sheet1", 0, 1), "=A1")   // B1
	wb.SetFormula(cell("Sheet1", 0, 2), "=A1+1") // C1 outside the cycle

	g := BuildGraph(wb)
	_, err := g.Order(cell("Sheet1", 0, 2))
	require.Error(t, err)

	var cyc *CycleError
	require.ErrorAs(t, err, &cyc)
	// Members hold the looping cells only, not the entry point.
	require.Len(t, cyc.Members, 2)
	assert.Contains(t, cyc.Members, cell("Sheet1", 0, 0))
	assert.Contains(t, cyc.Members, cell("Sheet1", 0, 1))
	assert.NotContains(t, cyc.Members, cell("Sheet1", 0, 2))
	assert.Contains(t, err.Error(), "dependency cycle")
}

func TestOrder_CycleElsewhereDoesNotBlockIndependentCell(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetFormula(cell("Sheet1", 0, 0), "=B1") // A1 ↔ B1 cycle
	wb.SetFormula(cell("Sheet1", 0, 1), "=A1")
	wb.SetFormula(cell("Sheet1", 0, 3), "=2+2") // D1 independent

	g := BuildGraph(wb)
	order, err := g.Order(cell("Sheet1", 0, 3))
	require.NoError(t, err)
	require.Len(t, order, 1)
	assert.Equal(t, cell("Sheet1", 0, 3), order[0])
}
