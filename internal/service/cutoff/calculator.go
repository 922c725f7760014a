package cutoff

import (
	"fmt"
	"strings"
	"time"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
)

// RuleLookup 航线截关规则查询（调用期间只读）
type RuleLookup interface {
	Rule(service string) (model.ServiceCutoffRule, bool)
}

// RuleTable 冻结的规则表，键不区分大小写
type RuleTable map[string]model.ServiceCutoffRule

// NewRuleTable 复制规则生成只读快照；同名规则以后者为准
func NewRuleTable(rules []model.ServiceCutoffRule) RuleTable {
	t := make(RuleTable, len(rules))
	for _, r := range rules {
		key := normalizeKey(r.ServiceName)
		if key == "" {
			continue
		}
		t[key] = r
	}
	return t
}

// Rule 查询规则
func (t RuleTable) Rule(service string) (model.ServiceCutoffRule, bool) {
	r, ok := t[normalizeKey(service)]
	return r, ok
}

func normalizeKey(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// Calculator 截关时间推算器
type Calculator struct {
	derived map[string]struct{}
}

// NewCalculator 创建推算器
// carriers 中标记为 derived 的船司才参与推算；若没有任何 derived 船司，则所有记录都参与。
func NewCalculator(carriers []model.CarrierProfile) *Calculator {
	c := &Calculator{derived: make(map[string]struct{})}
	for _, p := range carriers {
		if p.CutoffMode == model.CutoffDerived {
			c.derived[strings.ToUpper(strings.TrimSpace(p.Code))] = struct{}{}
		}
	}
	return c
}

// Eligible 该船司是否需要推算截关时间
func (c *Calculator) Eligible(carrier string) bool {
	if len(c.derived) == 0 {
		return true
	}
	_, ok := c.derived[strings.ToUpper(strings.TrimSpace(carrier))]
	return ok
}

// Compute 为单条记录补齐缺失的 CY/SI 截关时间
//
// 两个截关都已存在、ETD 缺失、船司无需推算或找不到规则时原样返回。
// 找不到规则时，仅当记录写明航线或配置了 derived 船司才产生警告。
// 只写入仍为空的截关字段；CY 与 SI 相互独立。
func (c *Calculator) Compute(index int, e model.ScheduleEntry, lookup RuleLookup) (model.ScheduleEntry, []model.Warning) {
	if !e.CYCutoff.IsZero() && !e.SICutoff.IsZero() {
		return e, nil
	}
	if e.ETD.IsZero() || !c.Eligible(e.Carrier) {
		return e, nil
	}

	rule, ok := findRule(e, lookup)
	if !ok {
		if !c.expectsRule(e) {
			return e, nil
		}
		return e, []model.Warning{{
			Kind:    model.WarningUnresolvableCutoffRule,
			Field:   "service",
			Message: fmt.Sprintf("no cutoff rule for service %q", ServiceKey(e)),
			Ref:     model.RefOf(index, e),
		}}
	}

	var warnings []model.Warning
	if e.CYCutoff.IsZero() {
		cy, err := Derive(e.ETD, rule.CYWeekday, rule.CYTime, rule.SameWeekday)
		if err != nil {
			warnings = append(warnings, arithmeticWarning(index, e, "cy_cutoff", rule, err))
		} else {
			e.CYCutoff = cy
		}
	}
	if e.SICutoff.IsZero() {
		si, err := Derive(e.ETD, rule.SIWeekday, rule.SITime, rule.SameWeekday)
		if err != nil {
			warnings = append(warnings, arithmeticWarning(index, e, "si_cutoff", rule, err))
		} else {
			e.SICutoff = si
		}
	}
	return e, warnings
}

func (c *Calculator) expectsRule(e model.ScheduleEntry) bool {
	return strings.TrimSpace(e.Service) != "" || len(c.derived) > 0
}

// ServiceKey 记录用于查询规则的键：优先航线名，其次船司代码
func ServiceKey(e model.ScheduleEntry) string {
	if s := strings.TrimSpace(e.Service); s != "" {
		return s
	}
	return e.Carrier
}

func findRule(e model.ScheduleEntry, lookup RuleLookup) (model.ServiceCutoffRule, bool) {
	if lookup == nil {
		return model.ServiceCutoffRule{}, false
	}
	if s := strings.TrimSpace(e.Service); s != "" {
		if r, ok := lookup.Rule(s); ok {
			return r, true
		}
	}
	return lookup.Rule(e.Carrier)
}

func arithmeticWarning(index int, e model.ScheduleEntry, field string, rule model.ServiceCutoffRule, err error) model.Warning {
	return model.Warning{
		Kind:    model.WarningInvalidDateArithmetic,
		Field:   field,
		Message: fmt.Sprintf("service %q: %v", rule.ServiceName, err),
		Ref:     model.RefOf(index, e),
	}
}

// Derive 解析规则文本并按星期回推截关时间
func Derive(etd model.Date, weekday, clock string, policy model.SameWeekdayPolicy) (model.Cutoff, error) {
	w, err := ParseWeekday(weekday)
	if err != nil {
		return model.Cutoff{}, err
	}
	t, err := model.ParseClock(clock)
	if err != nil {
		return model.Cutoff{}, err
	}
	if !policy.Valid() {
		return model.Cutoff{}, fmt.Errorf("unknown same-weekday policy %q", policy)
	}
	return BackCalculate(etd, w, t, policy), nil
}

// BackCalculate 从 ETD 回推到最近的目标星期（不晚于 ETD 当天）
//
// delta = (weekday(etd) - target) mod 7，Mon=0..Sun=6。
// delta 为 0 时按 policy 决定取当天还是前一周。
func BackCalculate(etd model.Date, target time.Weekday, clock model.Clock, policy model.SameWeekdayPolicy) model.Cutoff {
	delta := (mondayIndex(etd.Weekday()) - mondayIndex(target) + 7) % 7
	if delta == 0 && policy == model.SameWeekdayPreviousWeek {
		delta = 7
	}
	return model.NewCutoff(etd.AddDays(-delta), clock)
}
