package excel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/parser"
)

// RuleSheetName 规则表导出时的工作表名
const RuleSheetName = "Service Cutoff"

var ruleHeaders = []string{"Service", "CY Weekday", "CY Time", "SI Weekday", "SI Time", "Same Weekday"}

// ErrNoRuleTable 工作簿中没有可识别的规则表
var ErrNoRuleTable = errors.New("no service cutoff table found")

type ruleColumns struct {
	service, cyDay, cyTime, siDay, siTime, same int
}

// ReadRuleTable 从工作簿读取航线截关规则（取第一个可识别的工作表）
// 返回的规则保留原始星期/时刻文本，由推算阶段逐条校验。
func ReadRuleTable(wb *excelize.File) ([]model.ServiceCutoffRule, error) {
	if wb == nil {
		return nil, errors.New("workbook is nil")
	}

	for _, name := range wb.GetSheetList() {
		rows, err := wb.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		for hr := 0; hr < len(rows) && hr < 10; hr++ {
			cols, ok := matchRuleHeader(rows[hr])
			if !ok {
				continue
			}
			return readRules(rows[hr+1:], cols)
		}
	}
	return nil, ErrNoRuleTable
}

// RuleTableWorkbook 生成规则表工作簿（可再次导入）
func RuleTableWorkbook(rules []model.ServiceCutoffRule) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), RuleSheetName); err != nil {
		_ = f.Close()
		return nil, err
	}

	header := make([]interface{}, 0, len(ruleHeaders))
	for _, h := range ruleHeaders {
		header = append(header, h)
	}
	if err := f.SetSheetRow(RuleSheetName, "A1", &header); err != nil {
		_ = f.Close()
		return nil, err
	}
	for i, r := range rules {
		row := []interface{}{r.ServiceName, r.CYWeekday, r.CYTime, r.SIWeekday, r.SITime, string(r.SameWeekday)}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(RuleSheetName, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write rule %s: %w", r.ServiceName, err)
		}
	}
	_ = f.SetColWidth(RuleSheetName, "A", "A", 18)
	_ = f.SetColWidth(RuleSheetName, "B", "F", 14)
	return f, nil
}

func matchRuleHeader(row []string) (ruleColumns, bool) {
	cols := ruleColumns{service: -1, cyDay: -1, cyTime: -1, siDay: -1, siTime: -1, same: -1}
	set := func(p *int, idx int) {
		if *p < 0 {
			*p = idx
		}
	}

	for idx, raw := range row {
		col := parser.NormalizeColumnName(raw)
		switch {
		case col == "":
		case strings.Contains(col, "SAME"):
			set(&cols.same, idx)
		case parser.MatchPattern(col, `SERVICE|航线`):
			set(&cols.service, idx)
		case parser.MatchPattern(col, `\bCY\b|截关|截柜`) && parser.MatchPattern(col, `TIME|HOUR|时间`):
			set(&cols.cyTime, idx)
		case parser.MatchPattern(col, `\bCY\b|截关|截柜`):
			set(&cols.cyDay, idx)
		case parser.MatchPattern(col, `\bSI\b|S/I|\bDOC|截单|截补料`) && parser.MatchPattern(col, `TIME|HOUR|时间`):
			set(&cols.siTime, idx)
		case parser.MatchPattern(col, `\bSI\b|S/I|\bDOC|截单|截补料`):
			set(&cols.siDay, idx)
		}
	}

	ok := cols.service >= 0 && cols.cyDay >= 0 && cols.siDay >= 0
	return cols, ok
}

func readRules(rows [][]string, cols ruleColumns) ([]model.ServiceCutoffRule, error) {
	rules := make([]model.ServiceCutoffRule, 0, len(rows))
	seen := make(map[string]int)
	for i, row := range rows {
		service := parser.CollapseSpaces(cell(row, cols.service))
		if service == "" {
			continue
		}

		policy := model.SameWeekdayPolicy(strings.ToLower(strings.TrimSpace(cell(row, cols.same))))
		if !policy.Valid() {
			return nil, fmt.Errorf("rule %s (row %d): unknown same weekday policy %q", service, i+1, policy)
		}

		r := model.ServiceCutoffRule{
			ServiceName: service,
			CYWeekday:   strings.TrimSpace(cell(row, cols.cyDay)),
			CYTime:      strings.TrimSpace(cell(row, cols.cyTime)),
			SIWeekday:   strings.TrimSpace(cell(row, cols.siDay)),
			SITime:      strings.TrimSpace(cell(row, cols.siTime)),
			SameWeekday: policy,
		}

		// 同名航线以后出现者为准
		key := strings.ToUpper(service)
		if pos, ok := seen[key]; ok {
			rules[pos] = r
			continue
		}
		seen[key] = len(rules)
		rules = append(rules, r)
	}
	return rules, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
