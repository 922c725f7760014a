package parser

import (
	"sort"
	"strings"
)

// DefaultPortCodes 常用港口名称到代码
func DefaultPortCodes() map[string]string {
	return map[string]string{
		"HAIPHONG": "HPH", "HO CHI MINH CITY": "SGN", "DA NANG": "DAD",
		"HONG KONG": "HKG", "SHEKOU": "SKU", "NANSHA": "NSA", "GUANGZHOU": "CAN",
		"KAOHSIUNG": "KHH", "TAICHUNG": "TXG", "KEELUNG": "KEL",
		"SHANGHAI": "SHA", "NINGBO": "NGB", "QINGDAO": "TAO", "TIANJIN": "TSN",
		"YANGON": "RGN", "PORT KLANG": "PKG", "SINGAPORE": "SIN",
		"BANGKOK": "BKK", "LAEM CHABANG": "LCB",
		"JAKARTA": "JKT", "SURABAYA": "SUB", "COLOMBO": "CMB",
		"CHATTOGRAM": "CGP", "BUSAN": "PUS", "TOKYO": "TYO",
	}
}

// PortTable 港口代码表
type PortTable struct {
	byName map[string]string
	codes  map[string]struct{}
	names  []string // 按长度降序，包含匹配时优先最长名称
}

// NewPortTable 创建港口代码表
func NewPortTable(nameToCode map[string]string) *PortTable {
	t := &PortTable{
		byName: make(map[string]string, len(nameToCode)),
		codes:  make(map[string]struct{}, len(nameToCode)),
	}
	for name, code := range nameToCode {
		n := normalizePort(name)
		c := normalizePort(code)
		if n == "" || c == "" {
			continue
		}
		t.byName[n] = c
		t.codes[c] = struct{}{}
		t.names = append(t.names, n)
	}
	sort.Slice(t.names, func(i, j int) bool {
		if len(t.names[i]) != len(t.names[j]) {
			return len(t.names[i]) > len(t.names[j])
		}
		return t.names[i] < t.names[j]
	})
	return t
}

// Code 港口名称转代码
// 依次尝试：已是代码、精确名称、名称互相包含、取前三个字母。
func (t *PortTable) Code(name string) string {
	n := normalizePort(name)
	if n == "" {
		return ""
	}
	if _, ok := t.codes[n]; ok {
		return n
	}
	if code, ok := t.byName[n]; ok {
		return code
	}
	for _, k := range t.names {
		if strings.Contains(n, k) || (len(n) >= 3 && strings.Contains(k, n)) {
			return t.byName[k]
		}
	}
	if r := []rune(n); len(r) > 3 {
		return string(r[:3])
	}
	return n
}

// Known 是否为代码表中的港口代码
func (t *PortTable) Known(code string) bool {
	_, ok := t.codes[normalizePort(code)]
	return ok
}

func normalizePort(s string) string {
	return strings.ToUpper(CollapseSpaces(s))
}
