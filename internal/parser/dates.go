package parser

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
)

// Relation 无年份日期的年份推断方式
type Relation int

const (
	// Nearest 取离锚点最近的年份
	Nearest Relation = iota
	// OnOrAfter 取不早于锚点的最近日期（ETA 相对 ETD）
	OnOrAfter
	// OnOrBefore 取不晚于锚点的最近日期（截关相对 ETD）
	OnOrBefore
)

var (
	reParenthesized = regexp.MustCompile(`\([^)]*\)`)
	reLeadingDay    = regexp.MustCompile(`^(?i)(mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)[a-z]*\.?,?\s+`)
	reTrailingClock = regexp.MustCompile(`^(.*?\S)[\sT]+(\d{1,2}(?:[:.h]\d{2}|h))(?::\d{2})?\s*$`)

	reYMD      = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`)
	reCompact  = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	reDMY      = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{2}|\d{4})$`)
	reMD       = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})$`)
	reDayMonth = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th)?[\s\-/.]*([A-Za-z]{3,9})\.?(?:[\s\-/.,]+(\d{2}|\d{4}))?$`)
	reMonthDay = regexp.MustCompile(`^([A-Za-z]{3,9})\.?[\s\-/.]*(\d{1,2})(?:st|nd|rd|th)?(?:[\s,\-/.]+(\d{4}))?$`)
	reSerial   = regexp.MustCompile(`^\d{5}(?:\.\d+)?$`)
)

// ErrEmptyValue 值为空
var ErrEmptyValue = errors.New("empty value")

var monthNames = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March, "APR": time.April,
	"MAY": time.May, "JUN": time.June, "JUL": time.July, "AUG": time.August,
	"SEP": time.September, "OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// excelEpoch Excel 序列日期的零点
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDate 解析日期值
// 空值返回零值且无错误；无年份的值按 relation 相对 anchor 推断年份。
func ParseDate(v any, anchor model.Date, relation Relation) (model.Date, error) {
	switch x := v.(type) {
	case nil:
		return model.Date{}, nil
	case model.Date:
		return x, nil
	case time.Time:
		if x.IsZero() {
			return model.Date{}, nil
		}
		return model.DateOf(x), nil
	case float64:
		if err := checkSerial(x); err != nil {
			return model.Date{}, err
		}
		d, _ := fromSerial(x)
		return d, nil
	}

	s := cleanDateText(fmt.Sprint(v))
	if s == "" {
		return model.Date{}, nil
	}
	return parseDateText(s, anchor, relation)
}

// ParseCutoff 解析截关值（日期 + 可选时刻）
func ParseCutoff(v any, anchor model.Date, relation Relation) (model.Cutoff, error) {
	switch x := v.(type) {
	case nil:
		return model.Cutoff{}, nil
	case model.Cutoff:
		return x, nil
	case time.Time:
		return cutoffFromTime(x), nil
	case float64:
		if err := checkSerial(x); err != nil {
			return model.Cutoff{}, err
		}
		return cutoffFromSerial(x), nil
	}

	s := cleanDateText(fmt.Sprint(v))
	if s == "" {
		return model.Cutoff{}, nil
	}
	// 带时区的 ISO 时间保留原文的本地时刻
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return cutoffFromTime(t), nil
	}
	if reSerial.MatchString(s) {
		f, _ := strconv.ParseFloat(s, 64)
		if err := checkSerial(f); err != nil {
			return model.Cutoff{}, err
		}
		return cutoffFromSerial(f), nil
	}

	datePart, clockPart := s, ""
	if m := reTrailingClock.FindStringSubmatch(s); m != nil {
		datePart, clockPart = m[1], m[2]
	}

	d, err := parseDateText(datePart, anchor, relation)
	if err != nil {
		return model.Cutoff{}, err
	}
	if clockPart == "" {
		return model.Cutoff{Date: d}, nil
	}
	clock, err := model.ParseClock(clockPart)
	if err != nil {
		return model.Cutoff{}, err
	}
	return model.NewCutoff(d, clock), nil
}

func cutoffFromTime(t time.Time) model.Cutoff {
	if t.IsZero() {
		return model.Cutoff{}
	}
	d := model.DateOf(t)
	if t.Hour() == 0 && t.Minute() == 0 {
		return model.Cutoff{Date: d}
	}
	return model.NewCutoff(d, model.NewClock(t.Hour(), t.Minute()))
}

// ParseTransit 解析航程天数，不足一天向上取整（"1d 15h" → 2）
func ParseTransit(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, ErrEmptyValue
	case int:
		if x < 0 {
			return 0, fmt.Errorf("negative transit time %d", x)
		}
		return x, nil
	case float64:
		if x < 0 {
			return 0, fmt.Errorf("negative transit time %v", x)
		}
		return int(math.Ceil(x)), nil
	}

	s := strings.ToLower(CollapseSpaces(fmt.Sprint(v)))
	if s == "" {
		return 0, ErrEmptyValue
	}

	var total float64
	matched := false
	if m := reTransitDays.FindStringSubmatch(s); m != nil {
		f, _ := strconv.ParseFloat(m[1], 64)
		total += f
		matched = true
	}
	if m := reTransitHours.FindStringSubmatch(s); m != nil {
		f, _ := strconv.ParseFloat(m[1], 64)
		total += f / 24
		matched = true
	}
	if !matched {
		m := reTransitPlain.FindStringSubmatch(s)
		if m == nil {
			return 0, fmt.Errorf("invalid transit time %q", s)
		}
		total, _ = strconv.ParseFloat(m[1], 64)
	}
	return int(math.Ceil(total)), nil
}

var (
	reTransitDays  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:d|day|days)\b`)
	reTransitHours = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:h|hr|hrs|hour|hours)\b`)
	reTransitPlain = regexp.MustCompile(`^(\d+(?:\.\d+)?)(?:\s|$)`)
)

func cleanDateText(s string) string {
	s = reParenthesized.ReplaceAllString(s, " ")
	s = CollapseSpaces(s)
	s = reLeadingDay.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func parseDateText(s string, anchor model.Date, relation Relation) (model.Date, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return model.DateOf(t), nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return model.DateOf(t), nil
	}

	if reSerial.MatchString(s) {
		f, _ := strconv.ParseFloat(s, 64)
		if err := checkSerial(f); err != nil {
			return model.Date{}, err
		}
		d, _ := fromSerial(f)
		return d, nil
	}
	if m := reYMD.FindStringSubmatch(s); m != nil {
		return fullDate(s, atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := reCompact.FindStringSubmatch(s); m != nil {
		return fullDate(s, atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := reDMY.FindStringSubmatch(s); m != nil {
		return fullDate(s, expandYear(m[3]), atoi(m[2]), atoi(m[1]))
	}
	if m := reMD.FindStringSubmatch(s); m != nil {
		return inferYear(s, atoi(m[1]), atoi(m[2]), anchor, relation)
	}
	if m := reDayMonth.FindStringSubmatch(s); m != nil {
		month, ok := lookupMonth(m[2])
		if !ok {
			return model.Date{}, fmt.Errorf("invalid date %q", s)
		}
		if m[3] != "" {
			return fullDate(s, expandYear(m[3]), int(month), atoi(m[1]))
		}
		return inferYear(s, int(month), atoi(m[1]), anchor, relation)
	}
	if m := reMonthDay.FindStringSubmatch(s); m != nil {
		month, ok := lookupMonth(m[1])
		if !ok {
			return model.Date{}, fmt.Errorf("invalid date %q", s)
		}
		if m[3] != "" {
			return fullDate(s, atoi(m[3]), int(month), atoi(m[2]))
		}
		return inferYear(s, int(month), atoi(m[2]), anchor, relation)
	}

	return model.Date{}, fmt.Errorf("invalid date %q", s)
}

func fullDate(raw string, year, month, day int) (model.Date, error) {
	d, ok := validDate(year, month, day)
	if !ok {
		return model.Date{}, fmt.Errorf("invalid date %q", raw)
	}
	return d, nil
}

// inferYear 为 月-日 选择年份
func inferYear(raw string, month, day int, anchor model.Date, relation Relation) (model.Date, error) {
	if anchor.IsZero() {
		anchor = model.DateOf(time.Now())
	}

	var candidates []model.Date
	for y := anchor.Year() - 1; y <= anchor.Year()+1; y++ {
		if d, ok := validDate(y, month, day); ok {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return model.Date{}, fmt.Errorf("invalid date %q", raw)
	}

	switch relation {
	case OnOrAfter:
		for _, c := range candidates {
			if !c.Before(anchor) {
				return c, nil
			}
		}
	case OnOrBefore:
		for i := len(candidates) - 1; i >= 0; i-- {
			if !candidates[i].After(anchor) {
				return candidates[i], nil
			}
		}
	default:
		best := candidates[0]
		bestDist := absInt(anchor.DaysUntil(best))
		for _, c := range candidates[1:] {
			if dist := absInt(anchor.DaysUntil(c)); dist < bestDist {
				best, bestDist = c, dist
			}
		}
		return best, nil
	}
	return model.Date{}, fmt.Errorf("cannot place date %q relative to %s", raw, anchor)
}

func validDate(year, month, day int) (model.Date, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return model.Date{}, false
	}
	d := model.NewDate(year, time.Month(month), day)
	if d.Month() != time.Month(month) || d.Day() != day {
		return model.Date{}, false
	}
	return d, true
}

func lookupMonth(name string) (time.Month, bool) {
	up := strings.ToUpper(name)
	if len(up) < 3 {
		return 0, false
	}
	m, ok := monthNames[up[:3]]
	return m, ok
}

func checkSerial(f float64) error {
	// 约 1954 年至 2119 年，排除普通数字被误认为日期
	if f < 20000 || f > 80000 {
		return fmt.Errorf("invalid date serial %v", f)
	}
	return nil
}

func fromSerial(f float64) (model.Date, model.Clock) {
	days := math.Floor(f)
	minutes := int(math.Round((f - days) * 24 * 60))
	if minutes >= 24*60 {
		minutes = 24*60 - 1
	}
	return model.DateOf(excelEpoch.AddDate(0, 0, int(days))), model.Clock(minutes)
}

func cutoffFromSerial(f float64) model.Cutoff {
	d, clock := fromSerial(f)
	if clock == 0 {
		return model.Cutoff{Date: d}
	}
	return model.NewCutoff(d, clock)
}

func expandYear(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		y += 2000
	}
	return y
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
