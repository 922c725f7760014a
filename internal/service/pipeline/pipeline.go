// Package pipeline 船期数据处理主流程：校验 → 截关推算 → 去重 → 分表
package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/parser"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/cutoff"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/dedupe"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/sheets"
)

// Options 流程参数
type Options struct {
	POL           string
	AllowedPODs   []string
	Ports         *parser.PortTable
	Carriers      []model.CarrierProfile
	DedupePolicy  dedupe.Policy
	SheetTemplate string
	// ReferenceDate 无年份日期的推断基准，零值取当天
	ReferenceDate model.Date
}

// Batch 一次处理的输入
//
// Records 与 Entries 可同时提供，编号时 Records 在前。
// Rules 在处理期间只读，调用方如需并发修改应传入副本（cutoff.NewRuleTable 会复制）。
type Batch struct {
	Records []model.RawRecord
	Entries []model.ScheduleEntry
	Rules   cutoff.RuleLookup
}

// Size 输入条数
func (b Batch) Size() int { return len(b.Records) + len(b.Entries) }

// Stats 处理统计
type Stats struct {
	Input          int      `json:"input"`
	Rejected       int      `json:"rejected"`
	CutoffsDerived int      `json:"cutoffsDerived"`
	Duplicates     int      `json:"duplicates"`
	Output         int      `json:"output"`
	Sheets         int      `json:"sheets"`
	Carriers       []string `json:"carriers"`
	PODs           []string `json:"pods"`
}

// Result 处理结果
type Result struct {
	Workbook *model.Workbook       `json:"-"`
	Entries  []model.ScheduleEntry `json:"entries"`
	Warnings []model.Warning       `json:"warnings"`
	Stats    Stats                 `json:"stats"`
	Duration time.Duration         `json:"duration"`
}

// Pipeline 处理流程；无共享可变状态，可被多个批次并发使用
type Pipeline struct {
	normalizer *parser.Normalizer
	calculator *cutoff.Calculator
	deduper    *dedupe.Deduplicator
	builder    *sheets.Builder
}

// New 创建处理流程
func New(opts Options) *Pipeline {
	return &Pipeline{
		normalizer: parser.NewNormalizer(parser.Options{
			POL:           opts.POL,
			AllowedPODs:   opts.AllowedPODs,
			Ports:         opts.Ports,
			ReferenceDate: opts.ReferenceDate,
		}),
		calculator: cutoff.NewCalculator(opts.Carriers),
		deduper:    dedupe.New(opts.DedupePolicy),
		builder:    sheets.NewBuilder(opts.SheetTemplate),
	}
}

// Run 处理一个批次
// 数据质量问题只产生告警，不会中断；返回错误说明流程本身存在缺陷。
func (p *Pipeline) Run(batch Batch) (*Result, error) {
	start := time.Now()
	res := &Result{Stats: Stats{Input: batch.Size()}}

	valid := make([]model.ScheduleEntry, 0, batch.Size())
	indexes := make([]int, 0, batch.Size())
	accept := func(index int, e model.ScheduleEntry, warnings []model.Warning, ok bool) {
		res.Warnings = append(res.Warnings, warnings...)
		if !ok {
			res.Stats.Rejected++
			return
		}
		valid = append(valid, e)
		indexes = append(indexes, index)
	}

	for i, raw := range batch.Records {
		e, warnings, ok := p.normalizer.Normalize(i, raw)
		accept(i, e, warnings, ok)
	}
	for j, in := range batch.Entries {
		i := len(batch.Records) + j
		e, warnings, ok := p.normalizer.Validate(i, in)
		accept(i, e, warnings, ok)
	}

	for k, e := range valid {
		computed, warnings := p.calculator.Compute(indexes[k], e, batch.Rules)
		if (e.CYCutoff.IsZero() && !computed.CYCutoff.IsZero()) || (e.SICutoff.IsZero() && !computed.SICutoff.IsZero()) {
			res.Stats.CutoffsDerived++
		}
		valid[k] = computed
		res.Warnings = append(res.Warnings, warnings...)
	}

	deduped := p.deduper.Dedupe(valid)
	res.Warnings = append(res.Warnings, deduped.Warnings(valid, indexes)...)
	res.Stats.Duplicates = len(deduped.Duplicates)

	wb, err := p.builder.Build(deduped.Entries)
	if err != nil {
		return nil, fmt.Errorf("build workbook: %w", err)
	}

	res.Workbook = wb
	res.Entries = sheets.SortEntries(deduped.Entries)
	res.Stats.Output = len(res.Entries)
	res.Stats.Sheets = len(wb.Sheets)
	res.Stats.Carriers, res.Stats.PODs = distinct(res.Entries)
	res.Duration = time.Since(start)
	return res, nil
}

// WarningCounts 按类型统计告警
func (r *Result) WarningCounts() map[model.WarningKind]int {
	counts := make(map[model.WarningKind]int)
	for _, w := range r.Warnings {
		counts[w.Kind]++
	}
	return counts
}

func distinct(entries []model.ScheduleEntry) (carriers, pods []string) {
	seenCarrier := map[string]struct{}{}
	seenPOD := map[string]struct{}{}
	carriers, pods = []string{}, []string{}
	for _, e := range entries {
		if _, ok := seenCarrier[e.Carrier]; !ok {
			seenCarrier[e.Carrier] = struct{}{}
			carriers = append(carriers, e.Carrier)
		}
		if _, ok := seenPOD[e.POD]; !ok {
			seenPOD[e.POD] = struct{}{}
			pods = append(pods, e.POD)
		}
	}
	sort.Strings(carriers)
	sort.Strings(pods)
	return carriers, pods
}
