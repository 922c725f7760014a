package model

import "fmt"

// WarningKind 非致命告警类型
type WarningKind string

const (
	WarningMissingRequiredField   WarningKind = "missing_required_field"
	WarningInvalidValue           WarningKind = "invalid_value"
	WarningUnresolvableCutoffRule WarningKind = "unresolvable_cutoff_rule"
	WarningInvalidDateArithmetic  WarningKind = "invalid_date_arithmetic"
	WarningDuplicateDropped       WarningKind = "duplicate_dropped"
)

// EntryRef 告警关联的记录标识（保留原始值，便于排查）
type EntryRef struct {
	Index   int          `json:"index"`
	Source  SourceMedium `json:"source,omitempty"`
	Origin  EntryOrigin  `json:"origin"`
	Carrier string       `json:"carrier,omitempty"`
	POD     string       `json:"pod,omitempty"`
	Vessel  string       `json:"vessel,omitempty"`
	Voyage  string       `json:"voyage,omitempty"`
	ETD     string       `json:"etd,omitempty"`
}

// RefOf 由统一口径记录生成标识
func RefOf(index int, e ScheduleEntry) EntryRef {
	return EntryRef{
		Index:   index,
		Source:  e.Source,
		Origin:  e.Origin,
		Carrier: e.Carrier,
		POD:     e.POD,
		Vessel:  e.Vessel,
		Voyage:  e.Voyage,
		ETD:     e.ETD.String(),
	}
}

// Warning 数据质量告警
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Field   string      `json:"field,omitempty"`
	Message string      `json:"message"`
	Ref     EntryRef    `json:"ref"`
}

func (w Warning) String() string {
	where := w.Ref.Origin.String()
	if where == "" {
		where = fmt.Sprintf("#%d", w.Ref.Index)
	}
	if w.Ref.Source != "" {
		where = string(w.Ref.Source) + " " + where
	}
	return fmt.Sprintf("[%s] %s: %s", w.Kind, where, w.Message)
}
