package sheets

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
)

func mk(carrier, pod, vessel, voyage string, etd model.Date) model.ScheduleEntry {
	return model.ScheduleEntry{Carrier: carrier, POL: "HAIPHONG", POD: pod, Vessel: vessel, Voyage: voyage, ETD: etd}
}

func d(y int, m time.Month, day int) model.Date { return model.NewDate(y, m, day) }

func TestBuild_SheetOrderAndRowOrder(t *testing.T) {
	t.Parallel()

	entries := []model.ScheduleEntry{
		mk("TSL", "HKG", "TS KEELUNG", "26001N", d(2026, time.March, 9)),
		mk("CNC", "KHH", "WAN HAI 302", "N002", d(2026, time.April, 1)),
		mk("CNC", "KHH", "WAN HAI 301", "N001", d(2026, time.March, 5)),
		mk("CNC", "HKG", "CNC LION", "001S", d(2026, time.March, 5)),
		mk("CNC", "KHH", "ALPHA", "N009", d(2026, time.March, 5)),
		mk("CNC", "KHH", "ALPHA", "N008", d(2026, time.March, 5)),
	}

	wb, err := NewBuilder("").Build(entries)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"All Schedules",
		"CNC - HKG - MAR",
		"CNC - KHH - MAR",
		"CNC - KHH - APR",
		"TSL - HKG - MAR",
	}, wb.SheetNames())

	mar := wb.Sheet("CNC - KHH - MAR")
	require.NotNil(t, mar)
	require.Len(t, mar.Rows, 3)
	assert.Equal(t, []string{"ALPHA", "N008"}, mar.Rows[0][3:5])
	assert.Equal(t, []string{"ALPHA", "N009"}, mar.Rows[1][3:5])
	assert.Equal(t, []string{"WAN HAI 301", "N001"}, mar.Rows[2][3:5])

	all := wb.Sheet(model.AllSchedulesSheet)
	require.Len(t, all.Rows, len(entries))
	for i := 1; i < len(all.Rows); i++ {
		assert.LessOrEqual(t, all.Rows[i-1][5], all.Rows[i][5], "All Schedules sorted by ETD")
	}
	assert.Equal(t, "2026/04/01", all.Rows[len(all.Rows)-1][5])
}

func TestBuild_ScenarioSingleSailing(t *testing.T) {
	t.Parallel()

	e := mk("CNC", "KHH", "WAN HAI 301", "N123", d(2026, time.March, 5))
	e.ETA = d(2026, time.March, 8)
	tt := 3
	e.TransitDays = &tt
	e.CYCutoff = model.NewCutoff(d(2026, time.March, 3), model.NewClock(12, 0))
	e.SICutoff = model.Cutoff{Date: d(2026, time.March, 2)}

	wb, err := NewBuilder(DefaultTemplate).Build([]model.ScheduleEntry{e})
	require.NoError(t, err)
	require.Equal(t, []string{"All Schedules", "CNC - KHH - MAR"}, wb.SheetNames())

	for _, s := range wb.Sheets {
		assert.Equal(t, model.Columns(), s.Columns)
		require.Len(t, s.Rows, 1)
		assert.Equal(t, []string{
			"CNC", "HAIPHONG", "KHH", "WAN HAI 301", "N123",
			"2026/03/05", "2026/03/08", "3", "2026/03/03 12:00", "2026/03/02",
		}, s.Rows[0])
	}
}

func TestBuild_CompletenessAndMinimality(t *testing.T) {
	t.Parallel()

	var entries []model.ScheduleEntry
	carriers := []string{"CNC", "IAL", "KMTC"}
	pods := []string{"KHH", "HKG"}
	for i := 0; i < 30; i++ {
		entries = append(entries, mk(carriers[i%3], pods[i%2], "V", string(rune('A'+i)), d(2026, time.Month(1+i%5), 1+i)))
	}

	wb, err := NewBuilder("").Build(entries)
	require.NoError(t, err)

	total := 0
	present := map[string]bool{}
	for _, e := range entries {
		present[e.Carrier+"|"+e.POD+"|"+MonthAbbr(e.ETD.Month())] = true
	}
	for _, s := range wb.Sheets[1:] {
		require.NotEmpty(t, s.Rows, "no empty sheet %s", s.Name)
		assert.True(t, present[s.Carrier+"|"+s.POD+"|"+MonthAbbr(s.Month)], "sheet %s has data", s.Name)
		for _, row := range s.Rows {
			assert.Equal(t, s.Carrier, row[0])
			assert.Equal(t, s.POD, row[2])
		}
		total += len(s.Rows)
	}
	assert.Equal(t, len(entries), total, "each entry appears in exactly one grouped sheet")
	assert.Len(t, wb.Sheets[0].Rows, len(entries))
	assert.Len(t, wb.Sheets, len(present)+1)
}

func TestBuild_Idempotent(t *testing.T) {
	t.Parallel()

	entries := []model.ScheduleEntry{
		mk("CNC", "KHH", "B", "2", d(2026, time.March, 5)),
		mk("CNC", "KHH", "A", "1", d(2026, time.March, 5)),
		mk("YML", "KEL", "C", "3", d(2026, time.February, 5)),
	}
	b := NewBuilder("")
	first, err := b.Build(entries)
	require.NoError(t, err)
	second, err := b.Build(entries)
	require.NoError(t, err)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("builder not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestBuild_SameMonthDifferentYearsGetYearSuffix(t *testing.T) {
	t.Parallel()

	wb, err := NewBuilder("").Build([]model.ScheduleEntry{
		mk("CNC", "KHH", "A", "1", d(2027, time.January, 3)),
		mk("CNC", "KHH", "B", "2", d(2026, time.January, 3)),
		mk("CNC", "KHH", "C", "3", d(2026, time.December, 28)),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"All Schedules",
		"CNC - KHH - JAN 2026",
		"CNC - KHH - DEC",
		"CNC - KHH - JAN 2027",
	}, wb.SheetNames())
}

func TestBuild_LongNamesAreTruncatedAndUnique(t *testing.T) {
	t.Parallel()

	wb, err := NewBuilder("{CARRIER} / {POD} service schedule {MONTH}").Build([]model.ScheduleEntry{
		mk("EVERGREEN", "LAEM CHABANG", "A", "1", d(2026, time.March, 3)),
		mk("EVERGREEN", "LAEM CHABANG", "B", "2", d(2026, time.April, 3)),
	})
	require.NoError(t, err)

	names := wb.SheetNames()
	require.Len(t, names, 3)
	seen := map[string]bool{}
	for _, n := range names {
		assert.LessOrEqual(t, len([]rune(n)), MaxSheetNameLen, n)
		assert.NotContains(t, n, "/")
		assert.False(t, seen[n], "duplicate sheet name %s", n)
		seen[n] = true
	}
	assert.Equal(t, "EVERGREEN - LAEM CHABANG servic", names[1])
	assert.Equal(t, "EVERGREEN - LAEM CHABANG se (2)", names[2])
}

func TestBuild_RejectsNonCanonicalInput(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder("").Build([]model.ScheduleEntry{{Carrier: "CNC", ETD: d(2026, time.March, 5)}})
	require.ErrorIs(t, err, ErrNonCanonical)
}
