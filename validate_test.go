package xlcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_CleanWorkbook(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetValue(cell("Sheet1", 0, 0), 1)
	wb.SetFormula(cell("Sheet1", 1, 0), "=A1*2")
	wb.SetFormula(cell("Sheet1", 2, 0), "=IF(A2>1, SUM(A1:A2), 0)")

	assert.Empty(t, NewBook(wb).Validate())
}

func TestValidate_ReportsEveryKindOnce(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetFormula(cell("Sheet1", 0, 0), "=(((")                   // A1 parse failure
	wb.SetFormula(cell("Sheet1", 0, 1), "=VLOOKUP(C1, D1:E2, 2)") // B1 unsupported
	wb.SetFormula(cell("Sheet1", 1, 2), "=C3")                    // C2 ↔ C3 cycle
	wb.SetFormula(cell("Sheet1", 2, 2), "=C2")
	wb.SetFormula(cell("Sheet1", 0, 3), "=1+1") // D1 healthy

	issues := NewBook(wb).Validate()
	require.Len(t, issues, 3)

	byCell := make(map[CellKey]ValidationIssue)
	for _, issue := range issues {
		assert.Equal(t, SeverityError, issue.Severity)
		byCell[issue.Ref.Key()] = issue
	}

	parse, ok := byCell[cell("Sheet1", 0, 0).Key()]
	require.True(t, ok)
	assert.Contains(t, parse.Message, "syntax error")

	unsup, ok := byCell[cell("Sheet1", 0, 1).Key()]
	require.True(t, ok)
	assert.Contains(t, unsup.Message, "unsupported function VLOOKUP")

	// The cycle shows up once, attributed to its first member, even though
	// both members reach it.
	cycle, ok := byCell[cell("Sheet1", 1, 2).Key()]
	require.True(t, ok)
	assert.Contains(t, cycle.Message, "dependency cycle")
}

func TestValidate_SelfReference(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetFormula(cell("Sheet1", 0, 0), "=A1+1")

	issues := NewBook(wb).Validate()
	require.Len(t, issues, 1)
	assert.Equal(t, cell("Sheet1", 0, 0), issues[0].Ref)
	assert.Contains(t, issues[0].Message, "dependency cycle")
}

func TestValidate_CustomFunctionsAreSound(t *testing.T) {
	wb := NewWorkbook("Sheet1")
	wb.SetFormula(cell("Sheet1", 0, 0), "=DOUBLE(2)")

	book := NewBook(wb, WithFunction("DOUBLE", func(v any) (float64, error) { return 0, nil }))
	assert.Empty(t, book.Validate())

	// Without the registration the same formula is an issue.
	issues := NewBook(wb).Validate()
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "unsupported function DOUBLE")
}

func TestValidateFile_BadPath(t *testing.T) {
	issues, err := ValidateFile("/nonexistent/workbook.xlsx")
	assert.Error(t, err)
	assert.Nil(t, issues)
}

func TestValidationIssue_String(t *testing.T) {
	errIssue := ValidationIssue{
		Severity: SeverityError,
		Ref:      NewCellRef("Sheet1", 1, 0),
		Message:  "unsupported function VLOOKUP",
	}
	assert.Equal(t, "[ERROR] Sheet1!A2: unsupported function VLOOKUP", errIssue.String())

	warnIssue := ValidationIssue{
		Severity: SeverityWarning,
		Ref:      NewCellRef("Data", 0, 2),
		Message:  "marker value reachable",
	}
	assert.Equal(t, "[WARN] Data!C1: marker value reachable", warnIssue.String())
}
