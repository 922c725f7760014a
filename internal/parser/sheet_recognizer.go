package parser

// maxHeaderScanRows 表头最多向下查找的行数（船司表格常带标题行）
const maxHeaderScanRows = 15

// keyFields 判断船期表的关键字段
var keyFields = []string{FieldVessel, FieldVoyage, FieldETD, FieldETA, FieldCYCutoff, FieldSICutoff}

// SheetRecognizer 船期表表头识别器
type SheetRecognizer struct {
	mapper *FieldMapper
}

// NewSheetRecognizer 创建识别器
func NewSheetRecognizer() *SheetRecognizer {
	return &SheetRecognizer{mapper: NewFieldMapper()}
}

// Recognize 在前若干行中定位表头并返回映射
// 置信度 = 命中的关键字段数 / 关键字段总数；未映射到船名列时置信度为 0。
func (r *SheetRecognizer) Recognize(sheetName string, rows [][]string) HeaderRecognition {
	best := HeaderRecognition{
		SheetName: sheetName,
		HeaderRow: -1,
		Mappings:  map[int]FieldMapping{},
		Missing:   append([]string{}, keyFields...),
	}

	limit := len(rows)
	if limit > maxHeaderScanRows {
		limit = maxHeaderScanRows
	}

	for i := 0; i < limit; i++ {
		mappings := r.mapper.MapSchedule(rows[i])
		found := make(map[string]bool, len(mappings))
		for _, m := range mappings {
			found[m.Field] = true
		}
		if !found[FieldVessel] {
			continue
		}

		hit := 0
		missing := make([]string, 0, len(keyFields))
		for _, f := range keyFields {
			if found[f] {
				hit++
			} else {
				missing = append(missing, f)
			}
		}
		confidence := float64(hit) / float64(len(keyFields))
		if confidence > best.Confidence {
			best.HeaderRow = i
			best.Confidence = confidence
			best.Mappings = mappings
			best.Missing = missing
		}
	}

	return best
}
