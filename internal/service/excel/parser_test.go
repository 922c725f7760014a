package excel_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/excel"
)

// buildWorkbook 按顺序创建工作表并写入行
func buildWorkbook(t *testing.T, sheets []string, rows map[string][][]interface{}) *excelize.File {
	t.Helper()

	wb := excelize.NewFile()
	for i, name := range sheets {
		if i == 0 {
			if err := wb.SetSheetName(wb.GetSheetName(0), name); err != nil {
				t.Fatalf("SetSheetName failed: %v", err)
			}
		} else if _, err := wb.NewSheet(name); err != nil {
			t.Fatalf("NewSheet %s failed: %v", name, err)
		}
		for r, row := range rows[name] {
			row := row
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			if err := wb.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("SetSheetRow %s failed: %v", name, err)
			}
		}
	}
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func TestParseWorkbook_DetectsHeaderAndAppliesDefaults(t *testing.T) {
	t.Parallel()

	wb := buildWorkbook(t, []string{"Notes", "HPH-KHH"}, map[string][][]interface{}{
		"Notes": {
			{"Please contact sales for space"},
		},
		"HPH-KHH": {
			{"CNC SCHEDULE HAIPHONG - KAOHSIUNG"},
			{},
			{"Vessel", "Voyage", "ETD", "ETA", "T/T", "CY Cut-off", "SI Cut-off"},
			{"WAN HAI 301", "N123", "03-05", "03-08", "3", "03-03 12:00", "03-02 17:00"},
			{"", "", "", "", "", "", ""},
			{"Remark: subject to change"},
			{"WAN HAI 302", "N124", "03-12", "03-15", "3", "03-10 12:00", "03-09 17:00"},
		},
	})

	res, err := excel.ParseWorkbook(wb, excel.ParseOptions{
		Filename: "cnc.xlsx",
		Carrier:  "CNC",
		POL:      "HAIPHONG",
		POD:      "KAOHSIUNG",
	})
	if err != nil {
		t.Fatalf("ParseWorkbook failed: %v", err)
	}
	if len(res.Sheets) != 2 {
		t.Fatalf("sheets=%d", len(res.Sheets))
	}
	if res.Sheets[0].Status != "skipped" {
		t.Fatalf("Notes status=%s", res.Sheets[0].Status)
	}

	sheet := res.Sheets[1]
	if sheet.Status != "imported" || sheet.ImportedRows != 2 || sheet.SkippedRows != 1 {
		t.Fatalf("unexpected sheet result: %+v", sheet)
	}
	if res.Rows() != 2 {
		t.Fatalf("records=%d", res.Rows())
	}

	r := res.Records[0]
	if r.Source != model.SourceUpload {
		t.Fatalf("source=%s", r.Source)
	}
	if r.Origin.File != "cnc.xlsx" || r.Origin.Sheet != "HPH-KHH" || r.Origin.Row != 4 {
		t.Fatalf("origin=%+v", r.Origin)
	}
	want := map[string]any{
		"carrier":      "CNC",
		"pol":          "HAIPHONG",
		"pod":          "KAOHSIUNG",
		"vessel":       "WAN HAI 301",
		"voyage":       "N123",
		"etd":          "03-05",
		"eta":          "03-08",
		"transit_time": "3",
		"cy_cutoff":    "03-03 12:00",
		"si_cutoff":    "03-02 17:00",
	}
	for k, v := range want {
		if r.Fields[k] != v {
			t.Fatalf("field %s want=%v got=%v", k, v, r.Fields[k])
		}
	}
}

func TestParseWorkbook_VesselOnlyRowsAreNotes(t *testing.T) {
	t.Parallel()

	wb := buildWorkbook(t, []string{"S"}, map[string][][]interface{}{
		"S": {
			{"Vessel", "Voyage", "ETD", "ETA"},
			{"Remark: subject to change"},
			{"*** Blank sailing week 10 ***", "", "", "03-08"},
			{"WAN HAI 301", "N123"},
			{"WAN HAI 302", "", "03-12"},
		},
	})

	res, err := excel.ParseWorkbook(wb, excel.ParseOptions{Carrier: "CNC", POD: "KHH"})
	if err != nil {
		t.Fatalf("ParseWorkbook failed: %v", err)
	}
	sheet := res.Sheets[0]
	if sheet.ImportedRows != 2 || sheet.SkippedRows != 2 {
		t.Fatalf("unexpected sheet result: %+v", sheet)
	}
	if res.Records[0].Fields["vessel"] != "WAN HAI 301" || res.Records[1].Fields["vessel"] != "WAN HAI 302" {
		t.Fatalf("unexpected records: %+v", res.Records)
	}
	if res.Records[0].Origin.Row != 4 || res.Records[1].Origin.Row != 5 {
		t.Fatalf("origin rows=%d,%d", res.Records[0].Origin.Row, res.Records[1].Origin.Row)
	}
}

func TestParseWorkbook_SheetColumnOverridesDefault(t *testing.T) {
	t.Parallel()

	wb := buildWorkbook(t, []string{"Sheet"}, map[string][][]interface{}{
		"Sheet": {
			{"Carrier", "POD", "Vessel", "Voy", "ETD"},
			{"YML", "TXG", "YM WIND", "012", "2026-03-12"},
		},
	})

	res, err := excel.ParseWorkbook(wb, excel.ParseOptions{Carrier: "CNC", POD: "KHH"})
	if err != nil {
		t.Fatalf("ParseWorkbook failed: %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("records=%d", len(res.Records))
	}
	if got := res.Records[0].Fields["carrier"]; got != "YML" {
		t.Fatalf("carrier=%v", got)
	}
	if got := res.Records[0].Fields["pod"]; got != "TXG" {
		t.Fatalf("pod=%v", got)
	}
}

func TestParseUpload_WorkbookBytes(t *testing.T) {
	t.Parallel()

	wb := buildWorkbook(t, []string{"S"}, map[string][][]interface{}{
		"S": {
			{"Vessel", "Voyage", "ETD"},
			{"TS TAIPEI", "26003S", "2026-02-02"},
		},
	})
	var buf bytes.Buffer
	if _, err := wb.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}

	res, err := excel.ParseUpload(&buf, excel.ParseOptions{Filename: "tsl.xlsx", Carrier: "TSL"})
	if err != nil {
		t.Fatalf("ParseUpload failed: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].Fields["vessel"] != "TS TAIPEI" {
		t.Fatalf("unexpected records: %+v", res.Records)
	}
}

func TestParseUpload_CSVFallback(t *testing.T) {
	t.Parallel()

	data := "\ufeffVessel,Voyage,ETD,ETA,CY Closing,Doc Cut\n" +
		"KOTA LAYANG,0021N,03-10,03-18,03-08 10:00,03-07 12:00\n" +
		",,,,,\n"

	// 文件名不带扩展名时，先尝试 xlsx 再回退 CSV
	res, err := excel.ParseUpload(strings.NewReader(data), excel.ParseOptions{Filename: "ial_upload", Carrier: "IAL", POD: "PKG"})
	if err != nil {
		t.Fatalf("ParseUpload failed: %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("records=%d", len(res.Records))
	}
	f := res.Records[0].Fields
	if f["cy_cutoff"] != "03-08 10:00" || f["si_cutoff"] != "03-07 12:00" || f["pod"] != "PKG" {
		t.Fatalf("unexpected fields: %+v", f)
	}
	if res.Sheets[0].SheetName != "ial_upload" {
		t.Fatalf("sheet name=%s", res.Sheets[0].SheetName)
	}
}

func TestParseUpload_Unreadable(t *testing.T) {
	t.Parallel()

	_, err := excel.ParseUpload(strings.NewReader("hello\nworld\n"), excel.ParseOptions{Filename: "notes.txt"})
	if err == nil {
		t.Fatalf("expected error")
	}
}
