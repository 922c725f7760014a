package dedupe

import (
	"fmt"
	"strings"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
)

// Policy 重复记录的合并策略
type Policy string

const (
	// FirstWins 保留首条记录原样，丢弃后续重复（默认）
	FirstWins Policy = "first_wins"
	// FieldMerge 保留首条记录，空字段依次由后续重复补齐
	FieldMerge Policy = "field_merge"
)

// ParsePolicy 解析策略名称；空串返回默认策略
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FirstWins:
		return FirstWins, nil
	case FieldMerge:
		return FieldMerge, nil
	}
	return "", fmt.Errorf("unknown dedupe policy %q", s)
}

// Key 同一航次的身份键
type Key struct {
	Carrier string
	POD     string
	Vessel  string
	Voyage  string
	ETD     string
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", k.Carrier, k.POD, k.Vessel, k.Voyage, k.ETD)
}

// KeyOf 计算身份键（小写、去首尾空格、压缩内部空白）
func KeyOf(e model.ScheduleEntry) Key {
	return Key{
		Carrier: normalize(e.Carrier),
		POD:     normalize(e.POD),
		Vessel:  normalize(e.Vessel),
		Voyage:  normalize(e.Voyage),
		ETD:     e.ETD.Format("2006-01-02"),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Duplicate 一次被丢弃的重复
type Duplicate struct {
	Key          Key `json:"-"`
	KeptIndex    int `json:"keptIndex"`
	DroppedIndex int `json:"droppedIndex"`
}

// Result 去重结果
type Result struct {
	Entries    []model.ScheduleEntry
	Duplicates []Duplicate
}

// Deduplicator 去重器
type Deduplicator struct {
	policy Policy
}

// New 创建去重器
func New(policy Policy) *Deduplicator {
	if policy == "" {
		policy = FirstWins
	}
	return &Deduplicator{policy: policy}
}

// Policy 当前策略
func (d *Deduplicator) Policy() Policy { return d.policy }

// Dedupe 按输入顺序去重，首次出现者保留
func (d *Deduplicator) Dedupe(entries []model.ScheduleEntry) Result {
	out := make([]model.ScheduleEntry, 0, len(entries))
	firstSeen := make(map[Key]int, len(entries)) // key -> out 下标
	inputIndex := make([]int, 0, len(entries))   // out 下标 -> 输入下标
	var dups []Duplicate

	for i, e := range entries {
		k := KeyOf(e)
		if pos, ok := firstSeen[k]; ok {
			if d.policy == FieldMerge {
				out[pos] = mergeFields(out[pos], e)
			}
			dups = append(dups, Duplicate{Key: k, KeptIndex: inputIndex[pos], DroppedIndex: i})
			continue
		}
		firstSeen[k] = len(out)
		inputIndex = append(inputIndex, i)
		out = append(out, e)
	}

	return Result{Entries: out, Duplicates: dups}
}

// Warnings 将丢弃的重复转为告警
// indexes 为 input 下标到批次全局编号的映射，nil 时直接使用 input 下标。
func (r Result) Warnings(input []model.ScheduleEntry, indexes []int) []model.Warning {
	global := func(i int) int {
		if i < len(indexes) {
			return indexes[i]
		}
		return i
	}

	warnings := make([]model.Warning, 0, len(r.Duplicates))
	for _, dup := range r.Duplicates {
		if dup.DroppedIndex < 0 || dup.DroppedIndex >= len(input) {
			continue
		}
		warnings = append(warnings, model.Warning{
			Kind:    model.WarningDuplicateDropped,
			Message: fmt.Sprintf("duplicate of entry #%d (%s)", global(dup.KeptIndex), dup.Key),
			Ref:     model.RefOf(global(dup.DroppedIndex), input[dup.DroppedIndex]),
		})
	}
	return warnings
}

// mergeFields 用 later 的非空字段补齐 kept 的空字段
func mergeFields(kept, later model.ScheduleEntry) model.ScheduleEntry {
	if kept.POL == "" {
		kept.POL = later.POL
	}
	if kept.ETA.IsZero() {
		kept.ETA = later.ETA
	}
	if kept.TransitDays == nil && later.TransitDays != nil {
		v := *later.TransitDays
		kept.TransitDays = &v
	}
	if kept.CYCutoff.IsZero() {
		kept.CYCutoff = later.CYCutoff
	}
	if kept.SICutoff.IsZero() {
		kept.SICutoff = later.SICutoff
	}
	if kept.Service == "" {
		kept.Service = later.Service
	}
	return kept
}
