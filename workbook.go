package xlcalc

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// CellType classifies a cell's raw content.
type CellType int

const (
	CellBlank CellType = iota
	CellNumber
	CellText
	CellBoolean
	CellFormula
)

// String returns a human-readable name for the CellType.
func (ct CellType) String() string {
	switch ct {
	case CellBlank:
		return "Blank"
	case CellNumber:
		return "Number"
	case CellText:
		return "Text"
	case CellBoolean:
		return "Boolean"
	case CellFormula:
		return "Formula"
	default:
		return "Unknown"
	}
}

// FormulaMarker is the leading character that distinguishes formula content
// from literal content in raw cell text.
const FormulaMarker = "="

// Cell holds one cell's raw content plus the parse result cached when the
// dependency graph is built.
type Cell struct {
	Ref     CellRef
	Type    CellType
	Value   any    // literal value: float64, string, or bool
	Formula string // formula body without the leading marker

	ast      Node  // cached parse result, nil until the graph is built
	parseErr error // cached parse failure for this cell
}

// IsFormula returns true if the cell contains a formula.
func (c *Cell) IsFormula() bool {
	return c.Type == CellFormula
}

// Text renders the cell's raw content: the formula with its leading marker,
// or the literal's text form.
func (c *Cell) Text() string {
	switch c.Type {
	case CellFormula:
		return FormulaMarker + c.Formula
	case CellNumber:
		return strconv.FormatFloat(c.Value.(float64), 'g', -1, 64)
	case CellBoolean:
		if c.Value.(bool) {
			return "TRUE"
		}
		return "FALSE"
	case CellText:
		return c.Value.(string)
	}
	return ""
}

// Workbook is an immutable snapshot of sheet contents: a stable sheet list
// and a mapping from cell identity to content. It is the engine's input;
// the engine never writes back.
type Workbook struct {
	sheets []string
	cells  map[CellKey]*Cell
	order  []CellKey // insertion order, deduplicated, for stable iteration
}

// NewWorkbook creates an empty workbook with the given sheets in order.
func NewWorkbook(sheets ...string) *Workbook {
	return &Workbook{
		sheets: append([]string(nil), sheets...),
		cells:  make(map[CellKey]*Cell),
	}
}

// Sheets returns the sheet names in workbook order.
func (wb *Workbook) Sheets() []string {
	return wb.sheets
}

// HasSheet reports whether the workbook contains the named sheet.
func (wb *Workbook) HasSheet(name string) bool {
	for _, s := range wb.sheets {
		if s == name {
			return true
		}
	}
	return false
}

// addSheet registers a sheet name if it is not present yet.
func (wb *Workbook) addSheet(name string) {
	if !wb.HasSheet(name) {
		wb.sheets = append(wb.sheets, name)
	}
}

// SetValue stores a literal number, text, or boolean at ref. Raw strings
// are classified: numeric text becomes a number, TRUE/FALSE a boolean.
func (wb *Workbook) SetValue(ref CellRef, value any) {
	typ, v := classifyValue(value)
	wb.put(&Cell{Ref: ref, Type: typ, Value: v})
}

// SetFormula stores a formula at ref. The body may carry the leading
// marker or not; it is stored without it.
func (wb *Workbook) SetFormula(ref CellRef, formula string) {
	body := strings.TrimPrefix(strings.TrimSpace(formula), FormulaMarker)
	wb.put(&Cell{Ref: ref, Type: CellFormula, Formula: body})
}

// SetRaw stores raw cell text, recognizing the formula marker.
func (wb *Workbook) SetRaw(ref CellRef, raw string) {
	if strings.HasPrefix(raw, FormulaMarker) {
		wb.SetFormula(ref, raw)
		return
	}
	wb.SetValue(ref, raw)
}

func (wb *Workbook) put(cell *Cell) {
	key := cell.Ref.Key()
	if _, exists := wb.cells[key]; !exists {
		wb.order = append(wb.order, key)
	}
	wb.cells[key] = cell
	wb.addSheet(key.Sheet)
}

// Cell returns the cell at ref, or nil when the cell was never populated.
// Lookup ignores absolute markers.
func (wb *Workbook) Cell(ref CellRef) *Cell {
	return wb.cells[ref.Key()]
}

// Len returns the number of populated cells.
func (wb *Workbook) Len() int {
	return len(wb.cells)
}

// Refs returns every populated cell in stable workbook order: sheets in
// workbook order, then row-major within a sheet.
func (wb *Workbook) Refs() []CellRef {
	sheetPos := make(map[string]int, len(wb.sheets))
	for i, s := range wb.sheets {
		sheetPos[s] = i
	}
	keys := append([]CellKey(nil), wb.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Sheet != b.Sheet {
			return sheetPos[a.Sheet] < sheetPos[b.Sheet]
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
	refs := make([]CellRef, len(keys))
	for i, k := range keys {
		refs[i] = k.Ref()
	}
	return refs
}

// classifyValue maps a raw literal to its closed cell type. Strings are
// inspected the way a sheet grid would: numeric text loads as a number,
// TRUE/FALSE as booleans. A sheet number is always finite, so inf and NaN
// spellings (and values) stay text.
func classifyValue(value any) (CellType, any) {
	switch v := value.(type) {
	case nil:
		return CellBlank, nil
	case bool:
		return CellBoolean, v
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return CellText, strconv.FormatFloat(v, 'g', -1, 64)
		}
		return CellNumber, v
	case float32:
		return classifyValue(float64(v))
	case int:
		return CellNumber, float64(v)
	case int64:
		return CellNumber, float64(v)
	case string:
		if v == "" {
			return CellBlank, nil
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return CellNumber, f
		}
		switch strings.ToUpper(v) {
		case "TRUE":
			return CellBoolean, true
		case "FALSE":
			return CellBoolean, false
		}
		return CellText, v
	default:
		return CellText, fmt.Sprintf("%v", v)
	}
}
