package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
)

// fieldAliases 各字段可接受的键名（比较时忽略大小写与标点）
var fieldAliases = map[string][]string{
	FieldCarrier:  {"carrier", "line", "shipping line"},
	FieldPOL:      {"pol", "origin", "port of loading", "loading port"},
	FieldPOD:      {"pod", "destination", "dest", "port of discharge", "discharge port"},
	FieldVessel:   {"vessel", "ship", "vsl", "vessel name"},
	FieldVoyage:   {"voyage", "voy", "voyage no"},
	FieldETD:      {"etd", "departure"},
	FieldETA:      {"eta", "arrival"},
	FieldTransit:  {"t/t time", "transit_time", "t/t", "transit", "transit days"},
	FieldCYCutoff: {"cy cut-off", "cy_cutoff", "cy", "cy cut", "cy closing"},
	FieldSICutoff: {"si cut-off", "si_cutoff", "si", "doc_cutoff", "si cut", "doc cut"},
	FieldService:  {"service", "service name", "route", "loop"},
}

// aliasIndex 规范化键名 → 字段
var aliasIndex = func() map[string]string {
	idx := make(map[string]string)
	for field, aliases := range fieldAliases {
		for _, a := range aliases {
			idx[aliasKey(a)] = field
		}
	}
	return idx
}()

func aliasKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Options 规范化参数
type Options struct {
	// POL 全系统固定的起运港，非空时覆盖记录中的值
	POL string
	// AllowedPODs 目的港白名单（代码），为空时不限制
	AllowedPODs []string
	// Ports 港口名称到代码的映射
	Ports *PortTable
	// ReferenceDate 无年份日期的推断基准，零值取当天
	ReferenceDate model.Date
}

// Normalizer 原始记录 → 统一口径记录
type Normalizer struct {
	pol       string
	allowed   map[string]struct{}
	ports     *PortTable
	reference model.Date
}

// NewNormalizer 创建规范化器
func NewNormalizer(opts Options) *Normalizer {
	n := &Normalizer{
		ports:     opts.Ports,
		reference: opts.ReferenceDate,
	}
	if n.ports == nil {
		n.ports = NewPortTable(DefaultPortCodes())
	}
	if opts.POL != "" {
		n.pol = strings.ToUpper(CollapseSpaces(opts.POL))
	}
	if len(opts.AllowedPODs) > 0 {
		n.allowed = make(map[string]struct{}, len(opts.AllowedPODs))
		for _, p := range opts.AllowedPODs {
			n.allowed[n.ports.Code(p)] = struct{}{}
		}
	}
	if n.reference.IsZero() {
		n.reference = model.DateOf(time.Now())
	}
	return n
}

// Normalize 将原始记录转换为统一口径记录
// ok 为 false 表示记录因缺失必填字段或取值非法被排除，原因记录在告警中。
func (n *Normalizer) Normalize(index int, raw model.RawRecord) (model.ScheduleEntry, []model.Warning, bool) {
	fields := collectFields(raw.Fields)
	ref := model.EntryRef{
		Index:   index,
		Source:  raw.Source,
		Origin:  raw.Origin,
		Carrier: fields[FieldCarrier],
		POD:     fields[FieldPOD],
		Vessel:  fields[FieldVessel],
		Voyage:  fields[FieldVoyage],
		ETD:     fields[FieldETD],
	}

	var warnings []model.Warning
	invalid := func(field string, err error) {
		warnings = append(warnings, model.Warning{
			Kind:    model.WarningInvalidValue,
			Field:   field,
			Message: fmt.Sprintf("%s: %v", field, err),
			Ref:     ref,
		})
	}

	entry := model.ScheduleEntry{
		Carrier: fields[FieldCarrier],
		POL:     fields[FieldPOL],
		POD:     fields[FieldPOD],
		Vessel:  fields[FieldVessel],
		Voyage:  fields[FieldVoyage],
		Service: fields[FieldService],
		Source:  raw.Source,
		Origin:  raw.Origin,
	}

	etd, err := ParseDate(rawValue(raw.Fields, FieldETD), n.reference, Nearest)
	if err != nil {
		invalid(FieldETD, err)
	}
	entry.ETD = etd

	// 其余日期相对 ETD 推断年份；ETD 缺失时退回基准日
	anchor, after, before := entry.ETD, OnOrAfter, OnOrBefore
	if anchor.IsZero() {
		anchor, after, before = n.reference, Nearest, Nearest
	}

	if entry.ETA, err = ParseDate(rawValue(raw.Fields, FieldETA), anchor, after); err != nil {
		invalid(FieldETA, err)
	}
	if entry.CYCutoff, err = ParseCutoff(rawValue(raw.Fields, FieldCYCutoff), anchor, before); err != nil {
		invalid(FieldCYCutoff, err)
	}
	if entry.SICutoff, err = ParseCutoff(rawValue(raw.Fields, FieldSICutoff), anchor, before); err != nil {
		invalid(FieldSICutoff, err)
	}
	if v := rawValue(raw.Fields, FieldTransit); v != nil {
		days, err := ParseTransit(v)
		switch {
		case err == nil:
			entry.TransitDays = &days
		case !errors.Is(err, ErrEmptyValue):
			invalid(FieldTransit, err)
		}
	}

	validated, more, ok := n.validate(entry, ref)
	return validated, append(warnings, more...), ok
}

// Validate 校验已是统一口径的记录（手工录入、JSON 批量提交）
func (n *Normalizer) Validate(index int, e model.ScheduleEntry) (model.ScheduleEntry, []model.Warning, bool) {
	return n.validate(e, model.RefOf(index, e))
}

func (n *Normalizer) validate(e model.ScheduleEntry, ref model.EntryRef) (model.ScheduleEntry, []model.Warning, bool) {
	var warnings []model.Warning

	e.Carrier = strings.ToUpper(CollapseSpaces(e.Carrier))
	e.Vessel = CollapseSpaces(e.Vessel)
	e.Voyage = CollapseSpaces(e.Voyage)
	e.Service = CollapseSpaces(e.Service)
	if e.POD != "" {
		e.POD = n.ports.Code(e.POD)
	}
	switch {
	case n.pol != "":
		e.POL = n.pol
	default:
		e.POL = strings.ToUpper(CollapseSpaces(e.POL))
	}

	required := []struct {
		field   string
		missing bool
	}{
		{FieldCarrier, e.Carrier == ""},
		{FieldPOD, e.POD == ""},
		{FieldVessel, e.Vessel == ""},
		{FieldVoyage, e.Voyage == ""},
		{FieldETD, e.ETD.IsZero()},
	}
	ok := true
	for _, r := range required {
		if !r.missing {
			continue
		}
		ok = false
		warnings = append(warnings, model.Warning{
			Kind:    model.WarningMissingRequiredField,
			Field:   r.field,
			Message: fmt.Sprintf("missing required field %s", r.field),
			Ref:     ref,
		})
	}

	if e.POD != "" && n.allowed != nil {
		if _, allowed := n.allowed[e.POD]; !allowed {
			ok = false
			warnings = append(warnings, model.Warning{
				Kind:    model.WarningInvalidValue,
				Field:   FieldPOD,
				Message: fmt.Sprintf("pod %s is not in the allowed set", e.POD),
				Ref:     ref,
			})
		}
	}

	if !e.ETA.IsZero() && !e.ETD.IsZero() && e.ETA.Before(e.ETD) {
		warnings = append(warnings, model.Warning{
			Kind:    model.WarningInvalidValue,
			Field:   FieldETA,
			Message: fmt.Sprintf("eta %s is before etd %s, dropped", e.ETA, e.ETD),
			Ref:     ref,
		})
		e.ETA = model.Date{}
	}

	if e.TransitDays != nil && *e.TransitDays < 0 {
		warnings = append(warnings, model.Warning{
			Kind:    model.WarningInvalidValue,
			Field:   FieldTransit,
			Message: fmt.Sprintf("transit %d days is negative, dropped", *e.TransitDays),
			Ref:     ref,
		})
		e.TransitDays = nil
	}

	if e.TransitDays == nil && !e.ETA.IsZero() && !e.ETD.IsZero() {
		days := e.ETD.DaysUntil(e.ETA)
		e.TransitDays = &days
	}

	return e, warnings, ok
}

// collectFields 按别名提取字段的字符串形式（用于告警中的原始标识）
func collectFields(raw map[string]any) map[string]string {
	out := make(map[string]string, len(fieldAliases))
	for field := range fieldAliases {
		if v := rawValue(raw, field); v != nil {
			out[field] = CollapseSpaces(fmt.Sprint(v))
		}
	}
	return out
}

// rawValue 取字段的第一个非空别名值
func rawValue(raw map[string]any, field string) any {
	var found any
	bestRank := -1
	for k, v := range raw {
		if isBlank(v) {
			continue
		}
		f, ok := aliasIndex[aliasKey(k)]
		if !ok || f != field {
			continue
		}
		// 多个别名同时出现时按别名表顺序取值，保证结果与 map 遍历顺序无关
		rank := aliasRank(field, k)
		if bestRank == -1 || rank < bestRank {
			found, bestRank = v, rank
		}
	}
	return found
}

// MergeFields 将 patch 合并进原始字段
// 同一字段的其他别名键一并替换；值为 nil 时删除该字段。
func MergeFields(fields, patch map[string]any) {
	for k, v := range patch {
		if field, ok := aliasIndex[aliasKey(k)]; ok {
			for existing := range fields {
				if aliasIndex[aliasKey(existing)] == field {
					delete(fields, existing)
				}
			}
		} else {
			delete(fields, k)
		}
		if v != nil {
			fields[k] = v
		}
	}
}

func aliasRank(field, key string) int {
	k := aliasKey(key)
	for i, a := range fieldAliases[field] {
		if aliasKey(a) == k {
			return i
		}
	}
	return len(fieldAliases[field])
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

// RecordFromEntry 将统一口径记录包装为原始记录，便于与其他来源按顺序合并处理
func RecordFromEntry(e model.ScheduleEntry) model.RawRecord {
	fields := map[string]any{
		FieldCarrier: e.Carrier,
		FieldPOL:     e.POL,
		FieldPOD:     e.POD,
		FieldVessel:  e.Vessel,
		FieldVoyage:  e.Voyage,
		FieldService: e.Service,
	}
	if !e.ETD.IsZero() {
		fields[FieldETD] = e.ETD
	}
	if !e.ETA.IsZero() {
		fields[FieldETA] = e.ETA
	}
	if e.TransitDays != nil {
		fields[FieldTransit] = *e.TransitDays
	}
	if !e.CYCutoff.IsZero() {
		fields[FieldCYCutoff] = e.CYCutoff
	}
	if !e.SICutoff.IsZero() {
		fields[FieldSICutoff] = e.SICutoff
	}
	return model.RawRecord{Source: e.Source, Origin: e.Origin, Fields: fields}
}
