package xlcalc

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// OpenFile reads an xlsx workbook from disk into memory.
func OpenFile(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	defer f.Close()
	return ReadWorkbook(f)
}

// OpenReader reads an xlsx workbook from r into memory.
func OpenReader(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return ReadWorkbook(f)
}

// ReadWorkbook copies f's sheets and cells into a Workbook. The file is
// read-only input: cached values stored next to formulas are ignored, and
// nothing is written back.
func ReadWorkbook(f *excelize.File) (*Workbook, error) {
	wb := NewWorkbook(f.GetSheetList()...)
	for _, sheet := range wb.Sheets() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read rows from sheet %q: %w", sheet, err)
		}
		for rowIdx, row := range rows {
			for colIdx, raw := range row {
				ref := NewCellRef(sheet, rowIdx, colIdx)

				// excelize returns formulas without their leading marker.
				formula, err := f.GetCellFormula(sheet, ref.CellName())
				if err == nil && formula != "" {
					wb.SetFormula(ref, FormulaMarker+formula)
					continue
				}
				if raw == "" {
					continue
				}
				// Raw boolean cells read back as 0/1; the stored cell type
				// tells them apart from numbers.
				if typ, err := f.GetCellType(sheet, ref.CellName()); err == nil && typ == excelize.CellTypeBool {
					wb.SetValue(ref, raw == "1")
					continue
				}
				wb.SetRaw(ref, raw)
			}
		}
	}
	return wb, nil
}
