package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	t.Parallel()

	cases := map[string]Clock{
		"09:00": NewClock(9, 0),
		"9:30":  NewClock(9, 30),
		"0900":  NewClock(9, 0),
		"17.45": NewClock(17, 45),
		"12h":   NewClock(12, 0),
		"12h30": NewClock(12, 30),
		"24:00": EndOfDay,
		"0":     0,
	}
	for in, want := range cases {
		got, err := ParseClock(in)
		if err != nil {
			t.Fatalf("ParseClock(%q) err=%v", in, err)
		}
		if got != want {
			t.Fatalf("ParseClock(%q)=%v want %v", in, got, want)
		}
	}

	for _, bad := range []string{"", "25:00", "24:30", "9:75", "noon", "900"} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("ParseClock(%q) expected error", bad)
		}
	}
}

func TestCutoff_EndOfDayInstantIsNextMidnight(t *testing.T) {
	t.Parallel()

	c := NewCutoff(NewDate(2026, time.January, 31), EndOfDay)
	if got := c.String(); got != "2026/01/31 24:00" {
		t.Fatalf("String()=%q", got)
	}
	want := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	if !c.Instant().Equal(want) {
		t.Fatalf("Instant()=%v want %v", c.Instant(), want)
	}
	if !c.Date.Equal(NewDate(2026, time.January, 31)) {
		t.Fatalf("calendar date changed: %v", c.Date)
	}
}

func TestDate_JSONRoundTripKeepsAbsence(t *testing.T) {
	t.Parallel()

	e := ScheduleEntry{Carrier: "CNC", ETD: NewDate(2026, time.March, 5)}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back ScheduleEntry
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, b)
	}
	if !back.ETD.Equal(e.ETD) {
		t.Fatalf("ETD=%v want %v", back.ETD, e.ETD)
	}
	if !back.ETA.IsZero() {
		t.Fatalf("absent ETA became %v", back.ETA)
	}
	if !back.CYCutoff.IsZero() {
		t.Fatalf("absent CY cutoff became %v", back.CYCutoff)
	}
}

func TestCutoff_UnmarshalWithAndWithoutClock(t *testing.T) {
	t.Parallel()

	var c Cutoff
	if err := json.Unmarshal([]byte(`"2026-01-30 09:00"`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !c.HasClock || c.Clock != NewClock(9, 0) {
		t.Fatalf("unexpected cutoff: %+v", c)
	}

	var d Cutoff
	if err := json.Unmarshal([]byte(`"2026/01/30"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.HasClock || d.String() != "2026/01/30" {
		t.Fatalf("unexpected cutoff: %+v", d)
	}
}

func TestDate_DaysUntil(t *testing.T) {
	t.Parallel()

	a := NewDate(2026, time.February, 25)
	b := NewDate(2026, time.March, 3)
	if got := a.DaysUntil(b); got != 6 {
		t.Fatalf("DaysUntil=%d want 6", got)
	}
	if got := a.AddDays(6); !got.Equal(b) {
		t.Fatalf("AddDays=%v want %v", got, b)
	}
}

func TestDate_Accessors(t *testing.T) {
	t.Parallel()

	d := DateOf(time.Date(2026, time.January, 31, 23, 30, 0, 0, time.FixedZone("ICT", 7*3600)))
	if d.Year() != 2026 || d.Month() != time.January || d.Day() != 31 || d.Weekday() != time.Saturday {
		t.Fatalf("unexpected date parts: %v", d)
	}
	if want := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC); !d.Time().Equal(want) {
		t.Fatalf("Time()=%v want %v", d.Time(), want)
	}

	next := d.AddDays(1)
	if !d.Before(next) || !next.After(d) || d.After(next) || !d.Equal(NewDate(2026, time.January, 31)) {
		t.Fatalf("ordering broken: %v %v", d, next)
	}

	c := NewClock(9, 5)
	if c.Hour() != 9 || c.Minute() != 5 || c.String() != "09:05" || EndOfDay.String() != "24:00" {
		t.Fatalf("clock parts: %d %d %s %s", c.Hour(), c.Minute(), c, EndOfDay)
	}
}
