package cutoff

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// weekdayNames 星期别名（英文全称/缩写、越南语、中文）
var weekdayNames = map[string]time.Weekday{
	"MONDAY": time.Monday, "MON": time.Monday, "THỨ 2": time.Monday, "THU 2": time.Monday, "T2": time.Monday, "周一": time.Monday, "星期一": time.Monday,
	"TUESDAY": time.Tuesday, "TUE": time.Tuesday, "TUES": time.Tuesday, "THỨ 3": time.Tuesday, "THU 3": time.Tuesday, "T3": time.Tuesday, "周二": time.Tuesday, "星期二": time.Tuesday,
	"WEDNESDAY": time.Wednesday, "WED": time.Wednesday, "THỨ 4": time.Wednesday, "THU 4": time.Wednesday, "T4": time.Wednesday, "周三": time.Wednesday, "星期三": time.Wednesday,
	"THURSDAY": time.Thursday, "THU": time.Thursday, "THUR": time.Thursday, "THURS": time.Thursday, "THỨ 5": time.Thursday, "THU 5": time.Thursday, "T5": time.Thursday, "周四": time.Thursday, "星期四": time.Thursday,
	"FRIDAY": time.Friday, "FRI": time.Friday, "THỨ 6": time.Friday, "THU 6": time.Friday, "T6": time.Friday, "周五": time.Friday, "星期五": time.Friday,
	"SATURDAY": time.Saturday, "SAT": time.Saturday, "THỨ 7": time.Saturday, "THU 7": time.Saturday, "T7": time.Saturday, "周六": time.Saturday, "星期六": time.Saturday,
	"SUNDAY": time.Sunday, "SUN": time.Sunday, "CHỦ NHẬT": time.Sunday, "CHU NHAT": time.Sunday, "CN": time.Sunday, "周日": time.Sunday, "星期日": time.Sunday, "星期天": time.Sunday,
}

// ParseWeekday 解析星期文本；数字按 Mon=0..Sun=6 解释
func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if key == "" {
		return 0, fmt.Errorf("empty weekday")
	}
	if w, ok := weekdayNames[key]; ok {
		return w, nil
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 0 && n <= 6 {
		return time.Weekday((n + 1) % 7), nil
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// mondayIndex 星期序号（Mon=0..Sun=6）
func mondayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}
