package sheets

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
)

// DefaultTemplate 默认分表命名模板
const DefaultTemplate = "{CARRIER} - {POD} - {MONTH}"

// MaxSheetNameLen xlsx 工作表名长度上限
const MaxSheetNameLen = 31

// ErrNonCanonical 传入的记录缺少分组所需字段（调用方未先做校验）
var ErrNonCanonical = errors.New("entry is missing carrier, pod or etd")

var monthAbbr = [...]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// MonthAbbr 三字母大写月份缩写
func MonthAbbr(m time.Month) string {
	if m < time.January || m > time.December {
		return "???"
	}
	return monthAbbr[m-1]
}

// groupKey 分表键：船司 + 目的港 + 年月
type groupKey struct {
	carrier string
	pod     string
	year    int
	month   time.Month
}

func (k groupKey) less(o groupKey) bool {
	if k.carrier != o.carrier {
		return k.carrier < o.carrier
	}
	if k.pod != o.pod {
		return k.pod < o.pod
	}
	if k.year != o.year {
		return k.year < o.year
	}
	return k.month < o.month
}

// Builder 分组与工作表构建器
type Builder struct {
	template string
}

// NewBuilder 创建构建器；template 为空时使用默认模板
func NewBuilder(template string) *Builder {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}
	return &Builder{template: template}
}

// Build 生成工作簿：首个工作表为 All Schedules，其后每个（船司, 目的港, 月份）一个工作表
func (b *Builder) Build(entries []model.ScheduleEntry) (*model.Workbook, error) {
	for i, e := range entries {
		if e.Carrier == "" || e.POD == "" || e.ETD.IsZero() {
			return nil, fmt.Errorf("entry #%d: %w", i, ErrNonCanonical)
		}
	}

	sorted := SortEntries(entries)

	all := newSheet(model.AllSchedulesSheet)
	groups := make(map[groupKey][]model.ScheduleEntry)
	keys := make([]groupKey, 0)
	for _, e := range sorted {
		all.Rows = append(all.Rows, Row(e))

		k := groupKey{carrier: e.Carrier, pod: e.POD, year: e.ETD.Year(), month: e.ETD.Month()}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], e)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	names := b.sheetNames(keys)

	wb := &model.Workbook{Sheets: make([]*model.Sheet, 0, len(keys)+1)}
	wb.Sheets = append(wb.Sheets, all)
	for _, k := range keys {
		s := newSheet(names[k])
		s.Carrier = k.carrier
		s.POD = k.pod
		s.Year = k.year
		s.Month = k.month
		for _, e := range groups[k] {
			s.Rows = append(s.Rows, Row(e))
		}
		wb.Sheets = append(wb.Sheets, s)
	}
	return wb, nil
}

func newSheet(name string) *model.Sheet {
	return &model.Sheet{
		Name:    name,
		Columns: model.Columns(),
		Rows:    [][]string{},
	}
}

// sheetNames 为有序分组键生成唯一工作表名
// 同名（船司/目的港/月份相同但年份不同）时追加年份；截断后仍冲突时追加 " (n)"。
func (b *Builder) sheetNames(keys []groupKey) map[groupKey]string {
	base := make(map[groupKey]string, len(keys))
	count := make(map[string]int)
	for _, k := range keys {
		name := b.render(k)
		base[k] = name
		count[name]++
	}

	used := map[string]struct{}{strings.ToUpper(model.AllSchedulesSheet): {}}
	names := make(map[groupKey]string, len(keys))
	for _, k := range keys {
		name := base[k]
		if count[name] > 1 {
			name += " " + strconv.Itoa(k.year)
		}
		name = truncate(name, MaxSheetNameLen)

		unique := name
		for n := 2; ; n++ {
			// xlsx 工作表名不区分大小写
			if _, ok := used[strings.ToUpper(unique)]; !ok {
				break
			}
			suffix := fmt.Sprintf(" (%d)", n)
			unique = truncate(name, MaxSheetNameLen-len(suffix)) + suffix
		}
		used[strings.ToUpper(unique)] = struct{}{}
		names[k] = unique
	}
	return names
}

func (b *Builder) render(k groupKey) string {
	r := strings.NewReplacer(
		"{CARRIER}", k.carrier,
		"{POD}", k.pod,
		"{MONTH}", MonthAbbr(k.month),
		"{YEAR}", strconv.Itoa(k.year),
	)
	return sanitizeSheetName(r.Replace(b.template))
}

var sheetNameReplacer = strings.NewReplacer(":", "-", "\\", "-", "/", "-", "?", "", "*", "", "[", "(", "]", ")")

func sanitizeSheetName(s string) string {
	return strings.TrimSpace(sheetNameReplacer.Replace(s))
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max]))
}

// SortEntries 返回按 ETD、船名、航次（再按船司、目的港）稳定排序的副本
func SortEntries(entries []model.ScheduleEntry) []model.ScheduleEntry {
	out := make([]model.ScheduleEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.ETD.Compare(b.ETD); c != 0 {
			return c < 0
		}
		if a.Vessel != b.Vessel {
			return a.Vessel < b.Vessel
		}
		if a.Voyage != b.Voyage {
			return a.Voyage < b.Voyage
		}
		if a.Carrier != b.Carrier {
			return a.Carrier < b.Carrier
		}
		return a.POD < b.POD
	})
	return out
}

// Row 按固定列顺序渲染一行
func Row(e model.ScheduleEntry) []string {
	transit := ""
	if e.TransitDays != nil {
		transit = strconv.Itoa(*e.TransitDays)
	}
	return []string{
		e.Carrier,
		e.POL,
		e.POD,
		e.Vessel,
		e.Voyage,
		e.ETD.Format(model.DateLayout),
		e.ETA.Format(model.DateLayout),
		transit,
		e.CYCutoff.Format(model.DateLayout),
		e.SICutoff.Format(model.DateLayout),
	}
}
