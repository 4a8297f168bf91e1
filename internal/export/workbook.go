package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	// SheetName is the sheet every artifact stores its rows in.
	SheetName = "Fichajes"

	headerKind      = "Tipo"
	headerTimestamp = "Fecha y Hora"

	kindColWidth      = 20
	timestampColWidth = 30
)

// Row is one exported clock entry: the event kind label and the
// timestamp rendered in the facility's local time.
type Row struct {
	Kind      string
	Timestamp string
}

// newWorkbook creates a workbook holding an empty sheet with the
// canonical header row.
func newWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	if err := writeHeader(f); err != nil {
		return nil, err
	}
	return f, nil
}

// openWorkbook parses existing artifact bytes and guarantees the
// canonical sheet exists with its header. Rows already present are
// left untouched.
func openWorkbook(data []byte) (*excelize.File, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse workbook: %w", err)
	}
	idx, err := f.GetSheetIndex(SheetName)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		if _, err := f.NewSheet(SheetName); err != nil {
			return nil, err
		}
		if err := writeHeader(f); err != nil {
			return nil, err
		}
		return f, nil
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		if err := writeHeader(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// appendRow writes one row after the last populated row of the sheet.
func appendRow(f *excelize.File, row Row) error {
	rows, err := f.GetRows(SheetName)
	if err != nil {
		return err
	}
	next := len(rows) + 1
	if err := f.SetCellValue(SheetName, fmt.Sprintf("A%d", next), row.Kind); err != nil {
		return err
	}
	return f.SetCellValue(SheetName, fmt.Sprintf("B%d", next), row.Timestamp)
}

// sheetRows returns the data rows of the canonical sheet, header excluded.
func sheetRows(f *excelize.File) ([]Row, error) {
	raw, err := f.GetRows(SheetName)
	if err != nil {
		return nil, err
	}
	if len(raw) <= 1 {
		return nil, nil
	}
	rows := make([]Row, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		var row Row
		if len(cells) > 0 {
			row.Kind = cells[0]
		}
		if len(cells) > 1 {
			row.Timestamp = cells[1]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// serializeWorkbook renders the workbook to xlsx bytes and closes it.
func serializeWorkbook(f *excelize.File) ([]byte, error) {
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File) error {
	if err := f.SetCellValue(SheetName, "A1", headerKind); err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, "B1", headerTimestamp); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "A", "A", kindColWidth); err != nil {
		return err
	}
	return f.SetColWidth(SheetName, "B", "B", timestampColWidth)
}
