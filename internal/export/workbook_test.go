package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWorkbookRoundTrip(t *testing.T) {
	f, err := newWorkbook()
	if err != nil {
		t.Fatalf("newWorkbook: %v", err)
	}

	rows := []Row{
		{Kind: "entrada", Timestamp: "14/03/2026 09:00:00"},
		{Kind: "desayuno_inicio", Timestamp: "14/03/2026 12:00:00"},
		{Kind: "salida", Timestamp: "14/03/2026 17:00:00"},
	}
	for _, row := range rows {
		if err := appendRow(f, row); err != nil {
			t.Fatalf("appendRow: %v", err)
		}
	}

	data, err := serializeWorkbook(f)
	if err != nil {
		t.Fatalf("serializeWorkbook: %v", err)
	}

	reopened, err := openWorkbook(data)
	if err != nil {
		t.Fatalf("openWorkbook: %v", err)
	}
	defer reopened.Close()

	got, err := sheetRows(reopened)
	if err != nil {
		t.Fatalf("sheetRows: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("got %d rows, want %d", len(got), len(rows))
	}
	for i, row := range rows {
		if got[i] != row {
			t.Errorf("row %d = %+v, want %+v", i, got[i], row)
		}
	}
}

func TestNewWorkbookHasHeader(t *testing.T) {
	f, err := newWorkbook()
	if err != nil {
		t.Fatalf("newWorkbook: %v", err)
	}
	data, err := serializeWorkbook(f)
	if err != nil {
		t.Fatalf("serializeWorkbook: %v", err)
	}

	reopened, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	raw, err := reopened.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(raw) != 1 || raw[0][0] != "Tipo" || raw[0][1] != "Fecha y Hora" {
		t.Errorf("header rows = %v, want [[Tipo Fecha y Hora]]", raw)
	}
}

func TestOpenWorkbookRecreatesMissingSheet(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetCellValue("Sheet1", "A1", "unrelated"); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	f.Close()

	reopened, err := openWorkbook(buf.Bytes())
	if err != nil {
		t.Fatalf("openWorkbook: %v", err)
	}
	defer reopened.Close()

	if err := appendRow(reopened, Row{Kind: "entrada", Timestamp: "x"}); err != nil {
		t.Fatalf("appendRow on recreated sheet: %v", err)
	}
	rows, err := sheetRows(reopened)
	if err != nil {
		t.Fatalf("sheetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows, want 1", len(rows))
	}
}

func TestOpenWorkbookRejectsGarbage(t *testing.T) {
	if _, err := openWorkbook([]byte("not an xlsx file")); err == nil {
		t.Error("openWorkbook accepted garbage bytes")
	}
}
