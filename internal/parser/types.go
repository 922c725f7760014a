package parser

// 统一口径字段名（RawRecord 的标准键）
const (
	FieldCarrier  = "carrier"
	FieldPOL      = "pol"
	FieldPOD      = "pod"
	FieldVessel   = "vessel"
	FieldVoyage   = "voyage"
	FieldETD      = "etd"
	FieldETA      = "eta"
	FieldTransit  = "transit_time"
	FieldCYCutoff = "cy_cutoff"
	FieldSICutoff = "si_cutoff"
	FieldService  = "service"
)

// FieldMapping 字段映射结果
type FieldMapping struct {
	ColumnIndex int    `json:"columnIndex"` // Excel 列索引
	ColumnName  string `json:"columnName"`  // Excel 列名
	Field       string `json:"field"`       // 统一口径字段名
}

// HeaderRecognition 表头识别结果
type HeaderRecognition struct {
	SheetName  string               `json:"sheetName"`
	HeaderRow  int                  `json:"headerRow"`  // 表头所在行（0 起）
	Confidence float64              `json:"confidence"` // 置信度 0-1
	Mappings   map[int]FieldMapping `json:"mappings"`
	Missing    []string             `json:"missing,omitempty"`
}

// IsSchedule 是否识别为船期表
func (r HeaderRecognition) IsSchedule() bool {
	return r.Confidence >= 0.5
}
