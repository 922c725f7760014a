package model

import "fmt"

// SourceMedium 记录来源介质（仅用于诊断，不参与分组与去重）
type SourceMedium string

const (
	SourceUpload       SourceMedium = "upload"        // 表格上传
	SourceAIExtraction SourceMedium = "ai_extraction" // PDF/图片 AI 提取
	SourceScrape       SourceMedium = "scrape"        // 船司网页抓取
	SourceManual       SourceMedium = "manual"        // 手工录入
)

// EntryOrigin 原始来源标识（文件/工作表/行号）
type EntryOrigin struct {
	File     string `json:"file,omitempty"`
	Sheet    string `json:"sheet,omitempty"`
	Row      int    `json:"row,omitempty"`
	RecordID string `json:"recordId,omitempty"`
}

func (o EntryOrigin) String() string {
	switch {
	case o.File != "" && o.Sheet != "" && o.Row > 0:
		return fmt.Sprintf("%s[%s]#%d", o.File, o.Sheet, o.Row)
	case o.File != "" && o.Row > 0:
		return fmt.Sprintf("%s#%d", o.File, o.Row)
	case o.File != "":
		return o.File
	case o.RecordID != "":
		return o.RecordID
	default:
		return ""
	}
}

// ScheduleEntry 统一口径船期记录
type ScheduleEntry struct {
	Carrier     string       `json:"carrier"`
	POL         string       `json:"pol"`
	POD         string       `json:"pod"`
	Vessel      string       `json:"vessel"`
	Voyage      string       `json:"voyage"`
	ETD         Date         `json:"etd"`
	ETA         Date         `json:"eta"`
	TransitDays *int         `json:"transitDays,omitempty"`
	CYCutoff    Cutoff       `json:"cyCutoff"`
	SICutoff    Cutoff       `json:"siCutoff"`
	Service     string       `json:"service,omitempty"`
	Source      SourceMedium `json:"source"`
	Origin      EntryOrigin  `json:"origin"`
}

// RawRecord 适配器交付的松散记录（字段名可为任意别名）
type RawRecord struct {
	Source SourceMedium   `json:"source"`
	Origin EntryOrigin    `json:"origin"`
	Fields map[string]any `json:"fields"`
}
