package xlcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cell(sheet string, row, col int) CellRef {
	return NewCellRef(sheet, row, col)
}

func TestParseCellRef_Simple(t *testing.T) {
	ref, err := ParseCellRef("A1")
	require.NoError(t, err)
	assert.Equal(t, "", ref.Sheet)
	assert.Equal(t, 0, ref.Row)
	assert.Equal(t, 0, ref.Col)
	assert.False(t, ref.RowAbs)
	assert.False(t, ref.ColAbs)
}

func TestParseCellRef_SheetQualified(t *testing.T) {
	ref, err := ParseCellRef("Sheet2!C3")
	require.NoError(t, err)
	assert.Equal(t, "Sheet2", ref.Sheet)
	assert.Equal(t, 2, ref.Row) // C3 → row 2
	assert.Equal(t, 2, ref.Col) // C → col 2
}

func TestParseCellRef_AbsoluteMarkers(t *testing.T) {
	ref, err := ParseCellRef("$B$2")
	require.NoError(t, err)
	assert.True(t, ref.ColAbs)
	assert.True(t, ref.RowAbs)
	assert.Equal(t, 1, ref.Row)
	assert.Equal(t, 1, ref.Col)

	ref, err = ParseCellRef("B$2")
	require.NoError(t, err)
	assert.False(t, ref.ColAbs)
	assert.True(t, ref.RowAbs)

	ref, err = ParseCellRef("$B2")
	require.NoError(t, err)
	assert.True(t, ref.ColAbs)
	assert.False(t, ref.RowAbs)
}

func TestParseCellRef_QuotedSheet(t *testing.T) {
	ref, err := ParseCellRef("'My Sheet'!A1")
	require.NoError(t, err)
	assert.Equal(t, "My Sheet", ref.Sheet)

	// A literal quote is written doubled.
	ref, err = ParseCellRef("'O''Brien'!B2")
	require.NoError(t, err)
	assert.Equal(t, "O'Brien", ref.Sheet)
	assert.Equal(t, 1, ref.Row)
	assert.Equal(t, 1, ref.Col)
}

func TestParseCellRef_Errors(t *testing.T) {
	invalid := []string{
		"",
		"A",        // missing row
		"1A",       // missing column letters
		"A0",       // rows are 1-based
		"A1B",      // trailing letters in row
		"!A1",      // empty sheet name
		"Sheet1!",  // missing cell part
		"'Oops!A1", // unmatched quote
		"'S'A1",    // no '!' after quoted sheet
	}
	for _, text := range invalid {
		_, err := ParseCellRef(text)
		require.Error(t, err, "input %q", text)
		var addrErr *InvalidAddressError
		assert.ErrorAs(t, err, &addrErr, "input %q", text)
	}
}

func TestCellRef_StringRoundTrip(t *testing.T) {
	// render(parse(t)) == t for canonical text forms.
	canonical := []string{
		"A1",
		"$A$1",
		"B$2",
		"$C3",
		"AA100",
		"Sheet1!A1",
		"Sheet1!$D$4",
		"'My Sheet'!B2",
		"'O''Brien'!C3",
		"'2024'!A1",
	}
	for _, text := range canonical {
		ref, err := ParseCellRef(text)
		require.NoError(t, err, "input %q", text)
		assert.Equal(t, text, ref.String(), "round-trip of %q", text)
	}
}

func TestCellRef_KeyIgnoresMarkers(t *testing.T) {
	plain, err := ParseCellRef("Sheet1!B2")
	require.NoError(t, err)
	abs, err := ParseCellRef("Sheet1!$B$2")
	require.NoError(t, err)
	assert.Equal(t, plain.Key(), abs.Key())
}

func TestCellRef_In(t *testing.T) {
	ref := cell("", 0, 0).In("Sheet1")
	assert.Equal(t, "Sheet1", ref.Sheet)

	// An explicit sheet is kept.
	ref = cell("Sheet2", 0, 0).In("Sheet1")
	assert.Equal(t, "Sheet2", ref.Sheet)
}

func TestColToName(t *testing.T) {
	cases := map[int]string{
		0:   "A",
		1:   "B",
		25:  "Z",
		26:  "AA",
		51:  "AZ",
		52:  "BA",
		701: "ZZ",
		702: "AAA",
	}
	for col, name := range cases {
		assert.Equal(t, name, ColToName(col))
	}
}

func TestNameToCol(t *testing.T) {
	cases := map[string]int{
		"A":   0,
		"Z":   25,
		"AA":  26,
		"az":  51, // case-insensitive
		"ZZ":  701,
		"AAA": 702,
	}
	for name, col := range cases {
		got, err := NameToCol(name)
		require.NoError(t, err)
		assert.Equal(t, col, got, "column %q", name)
	}

	_, err := NameToCol("")
	assert.Error(t, err)
	_, err = NameToCol("A1")
	assert.Error(t, err)
}

func TestParseAreaRef_Simple(t *testing.T) {
	area, err := ParseAreaRef("A1:C5")
	require.NoError(t, err)
	assert.Equal(t, 0, area.First.Row)
	assert.Equal(t, 0, area.First.Col)
	assert.Equal(t, 4, area.Last.Row) // C5 → row 4
	assert.Equal(t, 2, area.Last.Col)
	assert.Equal(t, "A1:C5", area.String())
}

func TestParseAreaRef_SheetInheritance(t *testing.T) {
	area, err := ParseAreaRef("Sheet1!A1:C5")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", area.First.Sheet)
	assert.Equal(t, "Sheet1", area.Last.Sheet)

	_, err = ParseAreaRef("Sheet1!A1:Sheet2!C5")
	require.Error(t, err)
	var addrErr *InvalidAddressError
	assert.ErrorAs(t, err, &addrErr)
}

func TestParseAreaRef_ReverseCorners(t *testing.T) {
	// Corners normalize per axis, so C5:A1, A5:C1, and C1:A5 all mean A1:C5.
	for _, text := range []string{"C5:A1", "A5:C1", "C1:A5"} {
		area, err := ParseAreaRef(text)
		require.NoError(t, err, "input %q", text)
		assert.Equal(t, "A1:C5", area.String(), "input %q", text)
	}
}

func TestAreaRef_NormalizeKeepsMarkers(t *testing.T) {
	// Absolute markers travel with the coordinate they were written on.
	area, err := ParseAreaRef("$C5:A$1")
	require.NoError(t, err)
	assert.Equal(t, "A$1:$C5", area.String())
}

func TestAreaRef_Cells(t *testing.T) {
	area, err := ParseAreaRef("Sheet1!A1:B2")
	require.NoError(t, err)

	cells := area.Cells()
	require.Len(t, cells, 4)
	// Row-major: A1, B1, A2, B2.
	assert.Equal(t, cell("Sheet1", 0, 0), cells[0])
	assert.Equal(t, cell("Sheet1", 0, 1), cells[1])
	assert.Equal(t, cell("Sheet1", 1, 0), cells[2])
	assert.Equal(t, cell("Sheet1", 1, 1), cells[3])
}

func TestAreaRef_SizeAndContains(t *testing.T) {
	area, err := ParseAreaRef("Sheet1!B2:D5")
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 3, Height: 4}, area.Size())

	assert.True(t, area.Contains(cell("Sheet1", 1, 1)))
	assert.True(t, area.Contains(cell("Sheet1", 4, 3)))
	assert.False(t, area.Contains(cell("Sheet1", 0, 1)))
	assert.False(t, area.Contains(cell("Sheet2", 1, 1)))
}

func TestAreaRef_QuotedSheet(t *testing.T) {
	area, err := ParseAreaRef("'My Sheet'!A1:B2")
	require.NoError(t, err)
	assert.Equal(t, "My Sheet", area.First.Sheet)
	assert.Equal(t, "'My Sheet'!A1:B2", area.String())
}
