package model

import "time"

// ParseResult 单个工作表的解析结果
type ParseResult struct {
	SheetName    string        `json:"sheetName"`
	Status       string        `json:"status"` // imported/skipped/error
	ImportedRows int           `json:"importedRows"`
	SkippedRows  int           `json:"skippedRows"`
	Errors       []string      `json:"errors,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// ImportReport 单次导入报告
type ImportReport struct {
	BatchID        string        `json:"batchId"`
	Filename       string        `json:"filename"`
	Source         SourceMedium  `json:"source"`
	TotalSheets    int           `json:"totalSheets"`
	ImportedSheets int           `json:"importedSheets"`
	SkippedSheets  int           `json:"skippedSheets"`
	TotalRows      int           `json:"totalRows"`
	ImportedRows   int           `json:"importedRows"`
	SkippedRows    int           `json:"skippedRows"`
	Duration       time.Duration `json:"duration"`
	Sheets         []ParseResult `json:"sheets"`
}
