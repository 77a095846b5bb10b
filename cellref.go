package xlcalc

import (
	"fmt"
	"strings"
)

// CellRef represents a single cell reference in a workbook. Identity is the
// (Sheet, Row, Col) triple; the absolute-marker flags only influence how the
// reference renders back to text.
type CellRef struct {
	Sheet  string // sheet name (empty = owning sheet)
	Row    int    // 0-based row index
	Col    int    // 0-based column index
	RowAbs bool   // row written with a leading $
	ColAbs bool   // column written with a leading $
}

// NewCellRef creates a CellRef with explicit sheet, row, col and no
// absolute markers.
func NewCellRef(sheet string, row, col int) CellRef {
	return CellRef{Sheet: sheet, Row: row, Col: col}
}

// CellKey is the canonical identity of a cell, with rendering flags
// stripped. It is comparable and safe to use as a map key.
type CellKey struct {
	Sheet string
	Row   int
	Col   int
}

// Key returns the canonical identity of the reference.
func (c CellRef) Key() CellKey {
	return CellKey{Sheet: c.Sheet, Row: c.Row, Col: c.Col}
}

// Ref converts the key back to a plain reference.
func (k CellKey) Ref() CellRef {
	return CellRef{Sheet: k.Sheet, Row: k.Row, Col: k.Col}
}

// In returns the reference with sheet defaulted when it has none.
func (c CellRef) In(sheet string) CellRef {
	if c.Sheet == "" {
		c.Sheet = sheet
	}
	return c
}

// ParseCellRef parses a cell reference string like "A1", "Sheet1!B5",
// "$A$1", or "'My Sheet'!C3". An unqualified reference keeps an empty
// sheet name.
func ParseCellRef(s string) (CellRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CellRef{}, &InvalidAddressError{Text: s, Reason: "empty reference"}
	}

	sheet, cellPart, err := splitSheet(s)
	if err != nil {
		return CellRef{}, err
	}
	if cellPart == "" {
		return CellRef{}, &InvalidAddressError{Text: s, Reason: "missing cell coordinates"}
	}

	ref, err := parseCellName(cellPart)
	if err != nil {
		return CellRef{}, &InvalidAddressError{Text: s, Reason: err.Error()}
	}
	ref.Sheet = sheet
	return ref, nil
}

// ParseCellRefIn parses like ParseCellRef and defaults an unqualified
// reference to the given sheet.
func ParseCellRefIn(s, defaultSheet string) (CellRef, error) {
	ref, err := ParseCellRef(s)
	if err != nil {
		return CellRef{}, err
	}
	return ref.In(defaultSheet), nil
}

// splitSheet separates an optional sheet prefix from the cell part. Quoted
// sheet names may contain any character; a literal single quote is written
// doubled ('').
func splitSheet(s string) (sheet, cellPart string, err error) {
	if !strings.HasPrefix(s, "'") {
		if idx := strings.LastIndex(s, "!"); idx >= 0 {
			name := s[:idx]
			if name == "" {
				return "", "", &InvalidAddressError{Text: s, Reason: "empty sheet name"}
			}
			if strings.ContainsRune(name, '\'') {
				return "", "", &InvalidAddressError{Text: s, Reason: "stray quote in sheet name"}
			}
			return name, s[idx+1:], nil
		}
		return "", s, nil
	}

	// Quoted form: scan for the closing quote, un-doubling '' pairs.
	var name strings.Builder
	i := 1
	for i < len(s) {
		if s[i] != '\'' {
			name.WriteByte(s[i])
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			name.WriteByte('\'')
			i += 2
			continue
		}
		// Closing quote: an '!' must follow.
		if i+1 >= len(s) || s[i+1] != '!' {
			return "", "", &InvalidAddressError{Text: s, Reason: "expected '!' after quoted sheet name"}
		}
		return name.String(), s[i+2:], nil
	}
	return "", "", &InvalidAddressError{Text: s, Reason: "unmatched quote in sheet name"}
}

// parseCellName parses "A1", "$A1", "A$1", or "$A$1" into coordinates and
// absolute markers.
func parseCellName(name string) (CellRef, error) {
	var ref CellRef
	i := 0

	if i < len(name) && name[i] == '$' {
		ref.ColAbs = true
		i++
	}
	start := i
	for i < len(name) && isAlpha(name[i]) {
		i++
	}
	if i == start {
		return CellRef{}, fmt.Errorf("missing column letters in %q", name)
	}
	col, err := NameToCol(name[start:i])
	if err != nil {
		return CellRef{}, err
	}
	ref.Col = col

	if i < len(name) && name[i] == '$' {
		ref.RowAbs = true
		i++
	}
	if i == len(name) {
		return CellRef{}, fmt.Errorf("missing row number in %q", name)
	}
	rowNum := 0
	for ; i < len(name); i++ {
		ch := name[i]
		if ch < '0' || ch > '9' {
			return CellRef{}, fmt.Errorf("invalid row in %q", name)
		}
		rowNum = rowNum*10 + int(ch-'0')
	}
	if rowNum < 1 {
		return CellRef{}, fmt.Errorf("row number must be at least 1 in %q", name)
	}
	ref.Row = rowNum - 1
	return ref, nil
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// String renders the reference in its canonical text form, quoting the
// sheet name when needed and placing $ markers per the absolute flags, so
// that ParseCellRef(r.String()) round-trips exactly.
func (c CellRef) String() string {
	name := c.CellName()
	if c.Sheet != "" {
		return quoteSheet(c.Sheet) + "!" + name
	}
	return name
}

// CellName returns just the cell part like "A1" or "$A$1" without the
// sheet prefix.
func (c CellRef) CellName() string {
	var b strings.Builder
	if c.ColAbs {
		b.WriteByte('$')
	}
	b.WriteString(ColToName(c.Col))
	if c.RowAbs {
		b.WriteByte('$')
	}
	fmt.Fprintf(&b, "%d", c.Row+1)
	return b.String()
}

// quoteSheet wraps the sheet name in single quotes when it contains
// characters that require them, doubling any embedded quote.
func quoteSheet(name string) string {
	if !sheetNeedsQuotes(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func sheetNeedsQuotes(name string) bool {
	if name == "" {
		return true
	}
	if name[0] >= '0' && name[0] <= '9' {
		return true
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'A' && ch <= 'Z':
		case ch >= 'a' && ch <= 'z':
		case ch >= '0' && ch <= '9':
		case ch == '_' || ch == '.':
		default:
			return true
		}
	}
	return false
}

// ColToName converts a 0-based column index to a column name.
// 0→"A", 25→"Z", 26→"AA", 702→"AAA"
func ColToName(col int) string {
	result := ""
	col++ // convert to 1-based for algorithm
	for col > 0 {
		col-- // adjust for 0-indexed letter
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

// NameToCol converts a column name to a 0-based column index.
// "A"→0, "Z"→25, "AA"→26
func NameToCol(name string) (int, error) {
	name = strings.ToUpper(name)
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}
	col := 0
	for _, ch := range name {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column name: %q", name)
		}
		col = col*26 + int(ch-'A') + 1
	}
	return col - 1, nil
}

// AreaRef represents a rectangular range on a single sheet. First is the
// top-left corner and Last the bottom-right after normalization.
type AreaRef struct {
	First CellRef
	Last  CellRef
}

// NewAreaRef creates an AreaRef from two corners, normalizing their order.
func NewAreaRef(first, last CellRef) AreaRef {
	return AreaRef{First: first, Last: last}.normalize()
}

// ParseAreaRef parses an area reference string like "A1:C5" or
// "Sheet1!A1:C5". The second corner inherits the first corner's sheet; an
// explicit different sheet is an error, since ranges cannot span sheets.
// Corners given in reverse order are normalized to top-left:bottom-right.
func ParseAreaRef(s string) (AreaRef, error) {
	s = strings.TrimSpace(s)
	sep := rangeSeparator(s)
	if sep < 0 {
		return AreaRef{}, &InvalidAddressError{Text: s, Reason: "missing ':'"}
	}

	first, err := ParseCellRef(s[:sep])
	if err != nil {
		return AreaRef{}, err
	}
	last, err := ParseCellRef(s[sep+1:])
	if err != nil {
		return AreaRef{}, err
	}

	if last.Sheet == "" {
		last.Sheet = first.Sheet
	} else if last.Sheet != first.Sheet {
		return AreaRef{}, &InvalidAddressError{Text: s, Reason: "range corners on different sheets"}
	}

	return AreaRef{First: first, Last: last}.normalize(), nil
}

// rangeSeparator finds the ':' splitting the two corners, skipping any
// colon inside a quoted sheet name. Returns -1 when absent.
func rangeSeparator(s string) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			if inQuote && i+1 < len(s) && s[i+1] == '\'' {
				i++
				continue
			}
			inQuote = !inQuote
		case ':':
			if !inQuote {
				return i
			}
		}
	}
	return -1
}

// normalize swaps coordinates axis by axis so First is the top-left corner.
// Absolute markers travel with the coordinate they were written on.
func (a AreaRef) normalize() AreaRef {
	if a.First.Col > a.Last.Col {
		a.First.Col, a.Last.Col = a.Last.Col, a.First.Col
		a.First.ColAbs, a.Last.ColAbs = a.Last.ColAbs, a.First.ColAbs
	}
	if a.First.Row > a.Last.Row {
		a.First.Row, a.Last.Row = a.Last.Row, a.First.Row
		a.First.RowAbs, a.Last.RowAbs = a.Last.RowAbs, a.First.RowAbs
	}
	return a
}

// In returns the area with both corners defaulted to the given sheet when
// unqualified.
func (a AreaRef) In(sheet string) AreaRef {
	a.First = a.First.In(sheet)
	a.Last = a.Last.In(sheet)
	return a
}

// String formats the AreaRef as "Sheet1!A1:C5" or "A1:C5".
func (a AreaRef) String() string {
	if a.First.Sheet != "" {
		return quoteSheet(a.First.Sheet) + "!" + a.First.CellName() + ":" + a.Last.CellName()
	}
	return a.First.CellName() + ":" + a.Last.CellName()
}

// Size returns the dimensions of the area.
func (a AreaRef) Size() Size {
	return Size{
		Width:  a.Last.Col - a.First.Col + 1,
		Height: a.Last.Row - a.First.Row + 1,
	}
}

// Cells expands the area to its member cells in row-major order. Members
// carry plain identities: sheet from the area, no absolute markers.
func (a AreaRef) Cells() []CellRef {
	size := a.Size()
	out := make([]CellRef, 0, size.Width*size.Height)
	for row := a.First.Row; row <= a.Last.Row; row++ {
		for col := a.First.Col; col <= a.Last.Col; col++ {
			out = append(out, CellRef{Sheet: a.First.Sheet, Row: row, Col: col})
		}
	}
	return out
}

// Contains returns true if the given cell reference is within this area.
func (a AreaRef) Contains(ref CellRef) bool {
	if a.First.Sheet != ref.Sheet {
		return false
	}
	return ref.Row >= a.First.Row && ref.Row <= a.Last.Row &&
		ref.Col >= a.First.Col && ref.Col <= a.Last.Col
}

// Size represents width (columns) and height (rows).
type Size struct {
	Width  int
	Height int
}

// String formats the Size as "(WxH)".
func (s Size) String() string {
	return fmt.Sprintf("(%dx%d)", s.Width, s.Height)
}
