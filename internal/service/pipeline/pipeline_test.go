package pipeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/cutoff"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/dedupe"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/pipeline"
)

func newPipeline(policy dedupe.Policy) *pipeline.Pipeline {
	return pipeline.New(pipeline.Options{
		POL:         "HAIPHONG",
		AllowedPODs: []string{"KHH", "TXG", "PKG", "HKG"},
		Carriers: []model.CarrierProfile{
			{Code: "CNC", CutoffMode: model.CutoffSupplied},
			{Code: "TSL", CutoffMode: model.CutoffDerived},
		},
		DedupePolicy:  policy,
		ReferenceDate: model.NewDate(2026, time.February, 20),
	})
}

func TestRun_DuplicateSailingKeepsFirst(t *testing.T) {
	t.Parallel()

	batch := pipeline.Batch{Records: []model.RawRecord{
		{
			Source: model.SourceUpload,
			Origin: model.EntryOrigin{File: "cnc.xlsx", Row: 5},
			Fields: map[string]any{
				"carrier": "CNC", "pod": "KHH", "vessel": "WAN HAI 301", "voyage": "N123",
				"etd": "2026-03-05",
			},
		},
		{
			Source: model.SourceScrape,
			Fields: map[string]any{
				"carrier": "CNC", "pod": "KHH", "vessel": "WAN HAI 301", "voyage": "N123",
				"etd": "2026-03-05", "eta": "2026-03-08",
			},
		},
	}}

	res, err := newPipeline(dedupe.FirstWins).Run(batch)
	require.NoError(t, err)

	require.Equal(t, []string{"All Schedules", "CNC - KHH - MAR"}, res.Workbook.SheetNames())
	for _, s := range res.Workbook.Sheets {
		require.Len(t, s.Rows, 1, s.Name)
		assert.Equal(t, "", s.Rows[0][6], "first occurrence has no ETA")
	}

	require.Len(t, res.Entries, 1)
	assert.Equal(t, model.SourceUpload, res.Entries[0].Source)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, model.WarningDuplicateDropped, res.Warnings[0].Kind)
	assert.Equal(t, 1, res.Warnings[0].Ref.Index)

	assert.Equal(t, 2, res.Stats.Input)
	assert.Equal(t, 1, res.Stats.Duplicates)
	assert.Equal(t, 1, res.Stats.Output)
	assert.Equal(t, 2, res.Stats.Sheets)
}

func TestRun_FieldMergeFillsFromLaterDuplicate(t *testing.T) {
	t.Parallel()

	batch := pipeline.Batch{Records: []model.RawRecord{
		{Fields: map[string]any{"carrier": "CNC", "pod": "KHH", "vessel": "WAN HAI 301", "voyage": "N123", "etd": "2026-03-05"}},
		{Fields: map[string]any{"carrier": "CNC", "pod": "KHH", "vessel": "WAN HAI 301", "voyage": "N123", "etd": "2026-03-05", "eta": "2026-03-08"}},
	}}

	res, err := newPipeline(dedupe.FieldMerge).Run(batch)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "2026/03/08", res.Entries[0].ETA.String())
	require.NotNil(t, res.Entries[0].TransitDays)
	assert.Equal(t, 3, *res.Entries[0].TransitDays)
}

func TestRun_MissingPODIsWarnedAndExcluded(t *testing.T) {
	t.Parallel()

	batch := pipeline.Batch{Records: []model.RawRecord{
		{
			Source: model.SourceUpload,
			Fields: map[string]any{"carrier": "CNC", "pod": "KHH", "vessel": "WAN HAI 301", "voyage": "N123", "etd": "2026-03-05"},
		},
		{
			Source: model.SourceAIExtraction,
			Origin: model.EntryOrigin{File: "ial.png", RecordID: "3"},
			Fields: map[string]any{"carrier": "IAL", "vessel": "KOTA LAYANG", "voyage": "0021N", "etd": "2026-03-10"},
		},
	}}

	res, err := newPipeline(dedupe.FirstWins).Run(batch)
	require.NoError(t, err)

	for _, s := range res.Workbook.Sheets {
		for _, row := range s.Rows {
			assert.NotEqual(t, "KOTA LAYANG", row[3], "excluded entry leaked into %s", s.Name)
		}
	}
	assert.Equal(t, []string{"All Schedules", "CNC - KHH - MAR"}, res.Workbook.SheetNames())

	require.Len(t, res.Warnings, 1)
	w := res.Warnings[0]
	assert.Equal(t, model.WarningMissingRequiredField, w.Kind)
	assert.Equal(t, "pod", w.Field)
	assert.Equal(t, 1, w.Ref.Index)
	assert.Equal(t, model.SourceAIExtraction, w.Ref.Source)
	assert.Equal(t, "ial.png", w.Ref.Origin.File)
	assert.Equal(t, "KOTA LAYANG", w.Ref.Vessel)
	assert.Equal(t, 1, res.Stats.Rejected)
}

func TestRun_DerivesCutoffsForDerivedCarriers(t *testing.T) {
	t.Parallel()

	rules := cutoff.NewRuleTable([]model.ServiceCutoffRule{
		{ServiceName: "VTX", CYWeekday: "Sat", CYTime: "24:00", SIWeekday: "Fri", SITime: "09:00"},
	})
	batch := pipeline.Batch{
		Entries: []model.ScheduleEntry{
			{Carrier: "TSL", POD: "PKG", Vessel: "TS TAIPEI", Voyage: "26003S", ETD: model.NewDate(2026, time.February, 2), Service: "VTX"},
			{Carrier: "TSL", POD: "PKG", Vessel: "TS KEELUNG", Voyage: "26004S", ETD: model.NewDate(2026, time.February, 9), Service: "UNKNOWN"},
			{Carrier: "CNC", POD: "KHH", Vessel: "WAN HAI 301", Voyage: "N123", ETD: model.NewDate(2026, time.February, 3)},
		},
		Rules: rules,
	}

	res, err := newPipeline(dedupe.FirstWins).Run(batch)
	require.NoError(t, err)

	var taipei model.ScheduleEntry
	for _, e := range res.Entries {
		if e.Vessel == "TS TAIPEI" {
			taipei = e
		}
	}
	assert.Equal(t, "2026/01/31 24:00", taipei.CYCutoff.String())
	assert.Equal(t, "2026/01/30 09:00", taipei.SICutoff.String())
	assert.Equal(t, 1, res.Stats.CutoffsDerived)

	counts := res.WarningCounts()
	assert.Equal(t, 1, counts[model.WarningUnresolvableCutoffRule], "CNC supplies its own cutoffs")
	assert.Equal(t, []string{"CNC", "TSL"}, res.Stats.Carriers)
	assert.Equal(t, []string{"KHH", "PKG"}, res.Stats.PODs)

	names := res.Workbook.SheetNames()
	assert.Equal(t, []string{"All Schedules", "CNC - KHH - FEB", "TSL - PKG - FEB"}, names)
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	batch := pipeline.Batch{Records: []model.RawRecord{
		{Fields: map[string]any{"carrier": "YML", "pod": "TXG", "vessel": "YM WIND", "voyage": "012", "etd": "03-12"}},
		{Fields: map[string]any{"carrier": "CNC", "pod": "KHH", "vessel": "WAN HAI 301", "voyage": "N123", "etd": "03-05"}},
		{Fields: map[string]any{"carrier": "CNC", "pod": "KHH", "vessel": "WAN HAI 302", "voyage": "N124", "etd": "04-02"}},
	}}

	p := newPipeline(dedupe.FirstWins)
	first, err := p.Run(batch)
	require.NoError(t, err)
	second, err := p.Run(batch)
	require.NoError(t, err)

	assert.Equal(t, first.Workbook, second.Workbook)
	assert.Equal(t, first.Entries, second.Entries)
}

func TestRun_EmptyBatch(t *testing.T) {
	t.Parallel()

	res, err := newPipeline(dedupe.FirstWins).Run(pipeline.Batch{})
	require.NoError(t, err)
	assert.Equal(t, []string{"All Schedules"}, res.Workbook.SheetNames())
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 0, res.Stats.Output)
}
