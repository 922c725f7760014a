package excel

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
)

// columnWidths 各列宽度（字符）
var columnWidths = map[string]float64{
	model.ColumnCarrier:  10,
	model.ColumnPOL:      14,
	model.ColumnPOD:      14,
	model.ColumnVessel:   22,
	model.ColumnVoyage:   10,
	model.ColumnETD:      12,
	model.ColumnETA:      12,
	model.ColumnTransit:  9,
	model.ColumnCYCutoff: 17,
	model.ColumnSICutoff: 17,
}

const (
	headerFill = "1F4E79"
	zebraFill  = "EBF3FB"
	borderGray = "AAAAAA"
)

// DefaultFileName 默认导出文件名
func DefaultFileName(now time.Time) string {
	return fmt.Sprintf("Shipping_Schedule_%s.xlsx", now.Format("20060102"))
}

// Exporter 船期工作簿导出器
type Exporter struct{}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

type sheetStyles struct {
	header int
	odd    int
	even   int
}

// Export 将工作簿写成 xlsx；工作表顺序与 wb 一致
func (e *Exporter) Export(wb *model.Workbook) (*excelize.File, error) {
	if wb == nil || len(wb.Sheets) == 0 {
		return nil, errors.New("workbook is empty")
	}

	f := excelize.NewFile()
	styles, err := newSheetStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	defaultSheet := f.GetSheetName(0)
	for i, s := range wb.Sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, s.Name); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("rename sheet %s: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", s.Name, err)
		}
		if err := writeSheet(f, s, styles); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write sheet %s: %w", s.Name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write 导出并写入 w
func (e *Exporter) Write(wb *model.Workbook, w io.Writer) error {
	f, err := e.Export(wb)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// SaveAs 导出到文件
func (e *Exporter) SaveAs(wb *model.Workbook, path string) error {
	f, err := e.Export(wb)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: borderGray, Style: 1},
		{Type: "right", Color: borderGray, Style: 1},
		{Type: "top", Color: borderGray, Style: 1},
		{Type: "bottom", Color: borderGray, Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11, Family: "Calibri"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("header style: %w", err)
	}
	odd, err := f.NewStyle(&excelize.Style{Alignment: center, Border: border})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("row style: %w", err)
	}
	even, err := f.NewStyle(&excelize.Style{
		Alignment: center,
		Border:    border,
		Fill:      excelize.Fill{Type: "pattern", Color: []string{zebraFill}, Pattern: 1},
	})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("row style: %w", err)
	}
	return sheetStyles{header: header, odd: odd, even: even}, nil
}

func writeSheet(f *excelize.File, s *model.Sheet, styles sheetStyles) error {
	columns := s.Columns
	if len(columns) == 0 {
		columns = model.Columns()
	}

	header := make([]interface{}, 0, len(columns))
	for _, c := range columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
		return err
	}

	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	if err := f.SetCellStyle(s.Name, "A1", lastCol+"1", styles.header); err != nil {
		return err
	}
	if err := f.SetRowHeight(s.Name, 1, 28); err != nil {
		return err
	}
	for i, c := range columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		width, ok := columnWidths[c]
		if !ok {
			width = 12
		}
		if err := f.SetColWidth(s.Name, name, name, width); err != nil {
			return err
		}
	}

	// 行号从 2 开始，偶数行着色
	for i, r := range s.Rows {
		rowNum := i + 2
		values := make([]interface{}, len(columns))
		for j := range columns {
			if j < len(r) {
				values[j] = r[j]
			} else {
				values[j] = ""
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
			return err
		}

		style := styles.odd
		if rowNum%2 == 0 {
			style = styles.even
		}
		if err := f.SetCellStyle(s.Name, cell, fmt.Sprintf("%s%d", lastCol, rowNum), style); err != nil {
			return err
		}
	}

	return f.SetPanes(s.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
