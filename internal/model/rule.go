package model

// SameWeekdayPolicy 目标星期与 ETD 星期相同时的处理方式
type SameWeekdayPolicy string

const (
	SameWeekdaySameDay      SameWeekdayPolicy = "same_day"      // 截关即 ETD 当天
	SameWeekdayPreviousWeek SameWeekdayPolicy = "previous_week" // 取 ETD 之前一周的同一天
)

// Valid 是否为已知取值（空值视为 same_day）
func (p SameWeekdayPolicy) Valid() bool {
	switch p {
	case "", SameWeekdaySameDay, SameWeekdayPreviousWeek:
		return true
	}
	return false
}

// ServiceCutoffRule 航线周期截关规则（按星期 + 时刻）
//
// 星期与时刻保留参考表中的原始文本，解析失败时按单条记录告警。
type ServiceCutoffRule struct {
	ServiceName string            `json:"serviceName" toml:"service"`
	CYWeekday   string            `json:"cyWeekday" toml:"cy_weekday"`
	CYTime      string            `json:"cyTime" toml:"cy_time"`
	SIWeekday   string            `json:"siWeekday" toml:"si_weekday"`
	SITime      string            `json:"siTime" toml:"si_time"`
	SameWeekday SameWeekdayPolicy `json:"sameWeekday,omitempty" toml:"same_weekday"`
}

// CutoffMode 船司截关时间的来源方式
type CutoffMode string

const (
	CutoffSupplied CutoffMode = "supplied" // 数据源直接给出截关日期
	CutoffDerived  CutoffMode = "derived"  // 需按航线周期规则推算
)

// CarrierProfile 船司配置
type CarrierProfile struct {
	Code       string     `json:"code" toml:"code"`
	CutoffMode CutoffMode `json:"cutoffMode" toml:"cutoff_mode"`
}
