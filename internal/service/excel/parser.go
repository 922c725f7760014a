package excel

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/parser"
)

// ErrUnreadable 文件既不是 xlsx 也不是 CSV
var ErrUnreadable = errors.New("file is neither a workbook nor csv")

// ParseOptions 上传解析参数
type ParseOptions struct {
	// Filename 原始文件名，写入记录来源
	Filename string
	// Carrier/POL/POD 表格中缺失对应列时的默认值（上传表单提供）
	Carrier string
	POL     string
	POD     string
	// Sheets 仅解析指定工作表，为空时解析全部
	Sheets []string
}

// ParseResult 上传解析结果
type ParseResult struct {
	Records []model.RawRecord
	Sheets  []model.ParseResult
}

// Rows 所有工作表解析出的记录数
func (r *ParseResult) Rows() int { return len(r.Records) }

// ParseUpload 解析上传文件：先按 xlsx 读取，失败时回退为 CSV
func ParseUpload(r io.Reader, opts ParseOptions) (*ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	if strings.EqualFold(filepath.Ext(opts.Filename), ".csv") {
		return ParseCSV(bytes.NewReader(data), opts)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		res, csvErr := ParseCSV(bytes.NewReader(data), opts)
		if csvErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		return res, nil
	}
	defer wb.Close()

	return ParseWorkbook(wb, opts)
}

// ParseWorkbook 解析工作簿中所有可识别的船期表
func ParseWorkbook(wb *excelize.File, opts ParseOptions) (*ParseResult, error) {
	if wb == nil {
		return nil, errors.New("workbook is nil")
	}

	wanted := make(map[string]struct{}, len(opts.Sheets))
	for _, s := range opts.Sheets {
		wanted[s] = struct{}{}
	}

	res := &ParseResult{}
	for _, name := range wb.GetSheetList() {
		if len(wanted) > 0 {
			if _, ok := wanted[name]; !ok {
				continue
			}
		}

		start := time.Now()
		// 原始值：日期单元格返回序列号，避免受单元格显示格式影响
		rows, err := wb.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			res.Sheets = append(res.Sheets, model.ParseResult{
				SheetName: name,
				Status:    "error",
				Errors:    []string{err.Error()},
				Duration:  time.Since(start),
			})
			continue
		}
		records, sheet := parseRows(name, rows, opts)
		sheet.Duration = time.Since(start)
		res.Records = append(res.Records, records...)
		res.Sheets = append(res.Sheets, sheet)
	}
	return res, nil
}

// ParseCSV 解析 CSV（首个可识别表头行之后的行为数据）
func ParseCSV(r io.Reader, opts ParseOptions) (*ParseResult, error) {
	start := time.Now()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}

	name := strings.TrimSuffix(filepath.Base(opts.Filename), filepath.Ext(opts.Filename))
	if name == "" || name == "." {
		name = "csv"
	}
	records, sheet := parseRows(name, rows, opts)
	if sheet.Status == "skipped" {
		return nil, fmt.Errorf("%w: no schedule header found", ErrUnreadable)
	}
	sheet.Duration = time.Since(start)
	return &ParseResult{Records: records, Sheets: []model.ParseResult{sheet}}, nil
}

func parseRows(sheetName string, rows [][]string, opts ParseOptions) ([]model.RawRecord, model.ParseResult) {
	result := model.ParseResult{SheetName: sheetName}

	rec := parser.NewSheetRecognizer().Recognize(sheetName, rows)
	if !rec.IsSchedule() {
		result.Status = "skipped"
		result.Errors = []string{fmt.Sprintf("no schedule header (confidence %.2f)", rec.Confidence)}
		return nil, result
	}

	records := make([]model.RawRecord, 0, len(rows)-rec.HeaderRow-1)
	for i := rec.HeaderRow + 1; i < len(rows); i++ {
		row := rows[i]
		fields := make(map[string]any, len(rec.Mappings)+3)
		for idx, m := range rec.Mappings {
			if idx < len(row) {
				if v := strings.TrimSpace(row[idx]); v != "" {
					fields[m.Field] = v
				}
			}
		}

		// 船名为空，或航次与 ETD 都缺失的行视为说明/空行
		if !isScheduleRow(fields) {
			if !isBlankRow(row) {
				result.SkippedRows++
			}
			continue
		}

		setDefault(fields, parser.FieldCarrier, opts.Carrier)
		setDefault(fields, parser.FieldPOL, opts.POL)
		setDefault(fields, parser.FieldPOD, opts.POD)

		records = append(records, model.RawRecord{
			Source: model.SourceUpload,
			Origin: model.EntryOrigin{File: opts.Filename, Sheet: sheetName, Row: i + 1},
			Fields: fields,
		})
		result.ImportedRows++
	}

	result.Status = "imported"
	return records, result
}

func isScheduleRow(fields map[string]any) bool {
	if _, ok := fields[parser.FieldVessel]; !ok {
		return false
	}
	_, hasVoyage := fields[parser.FieldVoyage]
	_, hasETD := fields[parser.FieldETD]
	return hasVoyage || hasETD
}

func setDefault(fields map[string]any, key, value string) {
	if _, ok := fields[key]; ok {
		return
	}
	if v := strings.TrimSpace(value); v != "" {
		fields[key] = v
	}
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
