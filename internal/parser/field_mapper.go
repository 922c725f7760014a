package parser

// FieldMapper 船期表列名映射器
type FieldMapper struct{}

// NewFieldMapper 创建字段映射器
func NewFieldMapper() *FieldMapper {
	return &FieldMapper{}
}

// MapSchedule 映射船期表列；同一字段只取最先出现的列
func (m *FieldMapper) MapSchedule(columnNames []string) map[int]FieldMapping {
	mappings := make(map[int]FieldMapping)
	taken := make(map[string]struct{})

	for idx, raw := range columnNames {
		col := NormalizeColumnName(raw)
		if col == "" {
			continue
		}

		field := m.mapColumn(col)
		if field == "" {
			continue
		}
		if _, ok := taken[field]; ok {
			continue
		}
		taken[field] = struct{}{}
		mappings[idx] = FieldMapping{
			ColumnIndex: idx,
			ColumnName:  raw,
			Field:       field,
		}
	}

	return mappings
}

// mapColumn 映射单个列名（已规范化为大写）
func (m *FieldMapper) mapColumn(col string) string {
	// 截关类列名常含 “CLOSING”，需先于 SI/DOC 等短关键词判断
	if MatchPattern(col, `\bCY\b|CONTAINER YARD|CARGO CLOS|CARGO CUT`) && MatchPattern(col, `CUT|CLOS|CLS`) {
		return FieldCYCutoff
	}
	if MatchPattern(col, `\bSI\b|S/I|\bDOC|SHIPPING INSTRUCTION|VGM`) {
		return FieldSICutoff
	}

	if MatchPattern(col, `CARRIER|SHIPPING LINE|^LINE$`) {
		return FieldCarrier
	}
	if ContainsAny(col, []string{"VESSEL", "SHIP", "VSL"}) {
		return FieldVessel
	}
	if ContainsAny(col, []string{"VOY"}) {
		return FieldVoyage
	}
	if MatchPattern(col, `\bETD\b|DEPARTURE`) {
		return FieldETD
	}
	if MatchPattern(col, `\bETA\b|ARRIVAL`) {
		return FieldETA
	}
	if ContainsAny(col, []string{"T/T", "TRANSIT"}) {
		return FieldTransit
	}
	if MatchPattern(col, `\bPOL\b|ORIGIN|PORT OF LOADING|LOADING PORT`) {
		return FieldPOL
	}
	if MatchPattern(col, `\bPOD\b|DEST|PORT OF DISCHARGE|DISCHARGE PORT`) {
		return FieldPOD
	}
	if MatchPattern(col, `SERVICE|\bROUTE\b|\bLOOP\b`) {
		return FieldService
	}
	return ""
}
