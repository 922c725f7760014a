package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout 导出表格中的日期格式
const DateLayout = "2006/01/02"

// isoLayout JSON 序列化使用的日期格式
const isoLayout = "2006-01-02"

// Date 日历日期（只保留年月日，UTC 零点）；零值表示缺失
type Date struct {
	t time.Time
}

// NewDate 创建日期
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf 截取 time.Time 的日期部分
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// IsZero 是否缺失
func (d Date) IsZero() bool { return d.t.IsZero() }

// Year 年份
func (d Date) Year() int { return d.t.Year() }

// Month 月份
func (d Date) Month() time.Month { return d.t.Month() }

// Day 月内第几天
func (d Date) Day() int { return d.t.Day() }

// Weekday 星期
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// Time 当天 UTC 零点
func (d Date) Time() time.Time { return d.t }

// Equal 是否同一天
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// Before 是否早于 other
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After 是否晚于 other
func (d Date) After(other Date) bool { return d.t.After(other.t) }

// Compare 比较两个日期，缺失日期排在最前
func (d Date) Compare(other Date) int { return d.t.Compare(other.t) }

// AddDays 日期加减天数；缺失日期保持缺失
func (d Date) AddDays(n int) Date {
	if d.IsZero() {
		return d
	}
	return Date{t: d.t.AddDate(0, 0, n)}
}

// DaysUntil 计算到 other 的天数差（other - d）
func (d Date) DaysUntil(other Date) int {
	return int(other.t.Sub(d.t).Hours() / 24)
}

// Format 按布局格式化；缺失日期返回空串
func (d Date) Format(layout string) string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(layout)
}

// String 输出 "2006/01/02"
func (d Date) String() string { return d.Format(DateLayout) }

// MarshalJSON 缺失日期输出 null
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.t.Format(isoLayout))
}

// UnmarshalJSON 接受 null / "" / "2006-01-02" / "2006/01/02"
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Date{}
		return nil
	}
	for _, layout := range []string{isoLayout, DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			*d = DateOf(t)
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// Clock 一天内的时刻（分钟数 0-1440，1440 即 24:00）
type Clock int

// EndOfDay 24:00，表示当天结束（等价于次日 00:00）
const EndOfDay Clock = 24 * 60

// NewClock 创建时刻
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// Hour 小时（24:00 返回 24）
func (c Clock) Hour() int { return int(c) / 60 }

// Minute 分钟
func (c Clock) Minute() int { return int(c) % 60 }

// String 输出 "HH:MM"
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// ParseClock 解析时刻，支持 "9:00" "09:00" "0900" "09.00" "9h" "9h30" "24:00"
func ParseClock(s string) (Clock, error) {
	raw := s
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}

	var hourPart, minutePart string
	switch {
	case strings.ContainsAny(s, ":."):
		sep := strings.IndexAny(s, ":.")
		hourPart, minutePart = s[:sep], s[sep+1:]
	case strings.Contains(s, "H"):
		sep := strings.Index(s, "H")
		hourPart, minutePart = s[:sep], s[sep+1:]
	case len(s) == 4:
		hourPart, minutePart = s[:2], s[2:]
	default:
		hourPart = s
	}
	if minutePart == "" {
		minutePart = "0"
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	if minute < 0 || minute > 59 || hour < 0 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("time out of range %q", raw)
	}
	return NewClock(hour, minute), nil
}

// Cutoff 截关时间：日期 + 可选时刻
//
// 24:00 保留为展示约定：Date 仍是计算出的日历日期，Instant 返回次日 00:00。
type Cutoff struct {
	Date     Date
	Clock    Clock
	HasClock bool
}

// NewCutoff 创建带时刻的截关时间
func NewCutoff(date Date, clock Clock) Cutoff {
	return Cutoff{Date: date, Clock: clock, HasClock: true}
}

// IsZero 是否缺失
func (c Cutoff) IsZero() bool { return c.Date.IsZero() }

// Instant 绝对时间点（UTC）
func (c Cutoff) Instant() time.Time {
	t := c.Date.Time()
	if c.HasClock {
		t = t.Add(time.Duration(c.Clock) * time.Minute)
	}
	return t
}

// Format 以给定日期布局输出，带时刻时追加 " HH:MM"
func (c Cutoff) Format(layout string) string {
	if c.IsZero() {
		return ""
	}
	s := c.Date.Format(layout)
	if c.HasClock {
		s += " " + c.Clock.String()
	}
	return s
}

// String 输出 "2006/01/02 HH:MM"，无时刻时只输出日期
func (c Cutoff) String() string { return c.Format(DateLayout) }

// MarshalJSON 输出 "2006-01-02 15:04" 或 "2006-01-02"；缺失输出 null
func (c Cutoff) MarshalJSON() ([]byte, error) {
	if c.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(c.Format(isoLayout))
}

// UnmarshalJSON 与 MarshalJSON 对应
func (c *Cutoff) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Cutoff{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*c = Cutoff{}
		return nil
	}

	datePart, timePart, hasTime := strings.Cut(s, " ")
	var d Date
	if err := d.UnmarshalJSON([]byte(strconv.Quote(datePart))); err != nil {
		return err
	}
	out := Cutoff{Date: d}
	if hasTime {
		clock, err := ParseClock(timePart)
		if err != nil {
			return err
		}
		out.Clock = clock
		out.HasClock = true
	}
	*c = out
	return nil
}
