package parser

import (
	"regexp"
	"strings"
	"sync"
)

var (
	patternCache   = map[string]*regexp.Regexp{}
	patternCacheMu sync.Mutex
)

// NormalizeColumnName 规范化列名：去换行/制表符，压缩空白，转大写
func NormalizeColumnName(name string) string {
	name = strings.ReplaceAll(name, "\n", " ")
	name = strings.ReplaceAll(name, "\r", " ")
	name = strings.ReplaceAll(name, "\t", " ")
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// CollapseSpaces 去首尾空格并压缩内部空白
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ContainsAny 检查字符串是否包含任意一个关键词
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// MatchPattern 使用正则匹配（编译结果缓存）
func MatchPattern(text, pattern string) bool {
	patternCacheMu.Lock()
	re, ok := patternCache[pattern]
	if !ok {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			patternCacheMu.Unlock()
			return false
		}
		patternCache[pattern] = re
	}
	patternCacheMu.Unlock()
	return re.MatchString(text)
}
