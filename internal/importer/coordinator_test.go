package importer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
	sessionstore "github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/store"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/store"
)

func writeScheduleFile(t *testing.T) string {
	t.Helper()

	wb := excelize.NewFile()
	t.Cleanup(func() { _ = wb.Close() })
	if err := wb.SetSheetName(wb.GetSheetName(0), "HPH-KHH"); err != nil {
		t.Fatalf("SetSheetName: %v", err)
	}
	rows := [][]interface{}{
		{"Vessel", "Voyage", "ETD", "ETA", "CY Cut-off", "SI Cut-off"},
		{"WAN HAI 301", "N123", "03-05", "03-08", "03-03 12:00", "03-02 17:00"},
		{"WAN HAI 302", "N124", "03-12", "03-15", "03-10 12:00", "03-09 17:00"},
	}
	for i, r := range rows {
		r := r
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := wb.SetSheetRow("HPH-KHH", cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if _, err := wb.NewSheet("Notes"); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	_ = wb.SetCellValue("Notes", "A1", "booking contact: sales@example.com")

	path := filepath.Join(t.TempDir(), "upload.xlsx")
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestImport_AddsRecordsToSession(t *testing.T) {
	t.Parallel()

	st, err := store.New(filepath.Join(t.TempDir(), store.DefaultFileName))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	session := sessionstore.NewMemoryStore()
	session.AddBatch("old", model.SourceManual, []model.RawRecord{{Fields: map[string]any{"vessel": "OLD"}}})

	coordinator := NewCoordinator(st, session, nil)
	ch := coordinator.Import(context.Background(), ImportOptions{
		FilePath:      writeScheduleFile(t),
		Filename:      "cnc_march.xlsx",
		Carrier:       "CNC",
		POD:           "KHH",
		ClearExisting: true,
	})

	var report *model.ImportReport
	types := map[string]int{}
	for evt := range ch {
		types[evt.Type]++
		if evt.Type == "error" {
			t.Fatalf("import error event: %s", evt.Message)
		}
		if evt.Type == "done" {
			r, ok := evt.Data.(*model.ImportReport)
			if !ok {
				t.Fatalf("unexpected report type: %T", evt.Data)
			}
			report = r
		}
	}
	if report == nil {
		t.Fatalf("missing done report")
	}

	if report.TotalSheets != 2 || report.ImportedSheets != 1 || report.SkippedSheets != 1 {
		t.Fatalf("unexpected sheet counts: %+v", report)
	}
	if report.ImportedRows != 2 {
		t.Fatalf("imported rows = %d", report.ImportedRows)
	}
	if types["start"] != 1 || types["sheet_done"] != 1 || types["warning"] != 1 {
		t.Fatalf("unexpected events: %v", types)
	}

	records := session.Records()
	if len(records) != 2 {
		t.Fatalf("session records = %d, want 2 after clear", len(records))
	}
	if records[0].Fields["carrier"] != "CNC" || records[0].Origin.File != "cnc_march.xlsx" {
		t.Fatalf("unexpected record: %+v", records[0])
	}

	logs, err := st.ListImportLogs(10)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Status != "completed" || logs[0].BatchID != report.BatchID {
		t.Fatalf("unexpected logs: %+v", logs)
	}
}

func TestImport_MissingFile(t *testing.T) {
	t.Parallel()

	coordinator := NewCoordinator(nil, sessionstore.NewMemoryStore(), nil)
	ch := coordinator.Import(context.Background(), ImportOptions{FilePath: filepath.Join(t.TempDir(), "missing.xlsx")})

	var last ProgressEvent
	for evt := range ch {
		last = evt
	}
	if last.Type != "error" {
		t.Fatalf("last event = %s, want error", last.Type)
	}
}
