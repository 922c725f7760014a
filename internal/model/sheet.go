package model

import "time"

// AllSchedulesSheet 汇总工作表名称
const AllSchedulesSheet = "All Schedules"

// 固定列顺序（所有工作表一致）
const (
	ColumnCarrier  = "CARRIER"
	ColumnPOL      = "POL"
	ColumnPOD      = "POD"
	ColumnVessel   = "Vessel"
	ColumnVoyage   = "Voyage"
	ColumnETD      = "ETD"
	ColumnETA      = "ETA"
	ColumnTransit  = "T/T Time"
	ColumnCYCutoff = "CY Cut-off"
	ColumnSICutoff = "SI Cut-off"
)

// Columns 返回固定列顺序的副本
func Columns() []string {
	return []string{
		ColumnCarrier, ColumnPOL, ColumnPOD, ColumnVessel, ColumnVoyage,
		ColumnETD, ColumnETA, ColumnTransit, ColumnCYCutoff, ColumnSICutoff,
	}
}

// Sheet 抽象工作表：有序行，每行按 Columns 排列
type Sheet struct {
	Name    string     `json:"name"`
	Carrier string     `json:"carrier,omitempty"`
	POD     string     `json:"pod,omitempty"`
	Year    int        `json:"year,omitempty"`
	Month   time.Month `json:"month,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Workbook 抽象工作簿（有序工作表），由导出器序列化
type Workbook struct {
	Sheets []*Sheet `json:"sheets"`
}

// SheetNames 按顺序返回工作表名
func (w *Workbook) SheetNames() []string {
	if w == nil {
		return []string{}
	}
	names := make([]string, 0, len(w.Sheets))
	for _, s := range w.Sheets {
		names = append(names, s.Name)
	}
	return names
}

// Sheet 按名称查找工作表
func (w *Workbook) Sheet(name string) *Sheet {
	if w == nil {
		return nil
	}
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// SheetSummary 工作表预览（名称 + 行数）
type SheetSummary struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// Summaries 工作表预览列表
func (w *Workbook) Summaries() []SheetSummary {
	if w == nil {
		return []SheetSummary{}
	}
	out := make([]SheetSummary, 0, len(w.Sheets))
	for _, s := range w.Sheets {
		out = append(out, SheetSummary{Name: s.Name, Rows: len(s.Rows)})
	}
	return out
}
