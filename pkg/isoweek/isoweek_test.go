package isoweek

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var location, _ = time.LoadLocation("Europe/Oslo")

func TestFromDate(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want WeekNumber
	}{
		{"monday of first week in previous calendar year", time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), WeekNumber{2025, 1}},
		{"new year's day on wednesday", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), WeekNumber{2025, 1}},
		{"sunday closing week 1", time.Date(2025, 1, 5, 23, 59, 0, 0, time.UTC), WeekNumber{2025, 1}},
		{"early january in week 53 of previous year", time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC), WeekNumber{2020, 53}},
		{"early january in week 52 of previous year", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), WeekNumber{2021, 52}},
		{"late december in week 1 of next year", time.Date(2025, 12, 29, 0, 0, 0, 0, location), WeekNumber{2026, 1}},
		{"week 53", time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), WeekNumber{2026, 53}},
		{"mid year", time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC), WeekNumber{2025, 24}},
		{"wall clock day is used, not the UTC day", time.Date(2025, 1, 6, 0, 30, 0, 0, location), WeekNumber{2025, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromDate(tt.date))
		})
	}
}

func TestFromDate_MatchesStandardLibrary(t *testing.T) {
	start := time.Date(1999, 12, 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Year() < 2032; d = d.AddDate(0, 0, 1) {
		year, week := d.ISOWeek()
		got := FromDate(d)
		if got.Year != year || got.Week != week {
			t.Fatalf("FromDate(%s) = %s, want %04d-W%02d", d.Format("2006-01-02"), got, year, week)
		}
	}
}

func TestMonday_IsInverseOfFromDate(t *testing.T) {
	start := time.Date(2019, 12, 20, 0, 0, 0, 0, time.UTC)
	for d := start; d.Year() < 2028; d = d.AddDate(0, 0, 1) {
		week := FromDate(d)
		monday := Monday(week.Year, week.Week)

		require.Equal(t, time.Monday, monday.Weekday(), "for %s", d)
		diff := d.Sub(monday)
		require.True(t, diff >= 0 && diff < 7*24*time.Hour, "monday %s not within the week of %s", monday, d)
		require.Equal(t, week, FromDate(monday))
	}
}

func TestMonday(t *testing.T) {
	assert.Equal(t, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), Monday(2025, 1))
	assert.Equal(t, time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC), Monday(2021, 1))
	assert.Equal(t, time.Date(2020, 12, 28, 0, 0, 0, 0, time.UTC), Monday(2020, 53))
	assert.Equal(t, time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC), Monday(2025, 3))
}

func TestWeekNumber_Sunday(t *testing.T) {
	week := WeekNumber{Year: 2025, Week: 1}
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), week.Sunday())
}

func TestWeekNumber_AddWeeks(t *testing.T) {
	tests := []struct {
		name string
		week WeekNumber
		n    int
		want WeekNumber
	}{
		{"zero", WeekNumber{2025, 10}, 0, WeekNumber{2025, 10}},
		{"forward across year", WeekNumber{2025, 52}, 1, WeekNumber{2026, 1}},
		{"backward across year with week 53", WeekNumber{2021, 1}, -1, WeekNumber{2020, 53}},
		{"many weeks back", WeekNumber{2025, 3}, -10, WeekNumber{2024, 45}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.week.AddWeeks(tt.n))
		})
	}
}

func TestFromString(t *testing.T) {
	week, err := FromString("2025-W03")
	require.NoError(t, err)
	assert.Equal(t, WeekNumber{Year: 2025, Week: 3}, week)

	week, err = FromString("2020-W53")
	require.NoError(t, err)
	assert.Equal(t, WeekNumber{Year: 2020, Week: 53}, week)

	for _, invalid := range []string{"", "2025-03", "abcd-W01", "2025-Wxx", "2025-W00", "2025-W53"} {
		_, err := FromString(invalid)
		assert.Error(t, err, "input %q", invalid)
	}
}

func TestWeekNumber_String(t *testing.T) {
	assert.Equal(t, "2025-W01", WeekNumber{Year: 2025, Week: 1}.String())
	assert.Equal(t, "2020-W53", WeekNumber{Year: 2020, Week: 53}.String())
}

func TestWeekNumberComparisons(t *testing.T) {
	tests := []struct {
		name   string
		left   WeekNumber
		right  WeekNumber
		equal  bool
		before bool
		after  bool
	}{
		{"same week", WeekNumber{2025, 3}, WeekNumber{2025, 3}, true, false, false},
		{"earlier week same year", WeekNumber{2025, 2}, WeekNumber{2025, 3}, false, true, false},
		{"later week same year", WeekNumber{2025, 4}, WeekNumber{2025, 3}, false, false, true},
		{"earlier year", WeekNumber{2024, 52}, WeekNumber{2025, 1}, false, true, false},
		{"later year", WeekNumber{2026, 1}, WeekNumber{2025, 52}, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.left.Equal(tt.right))
			assert.Equal(t, tt.before, tt.left.Before(tt.right))
			assert.Equal(t, tt.after, tt.left.After(tt.right))
		})
	}
}

func TestWeekNumber_Contains(t *testing.T) {
	week := WeekNumber{Year: 2025, Week: 1}
	assert.True(t, week.Contains(time.Date(2024, 12, 30, 8, 0, 0, 0, time.UTC)))
	assert.True(t, week.Contains(time.Date(2025, 1, 5, 23, 0, 0, 0, time.UTC)))
	assert.False(t, week.Contains(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)))
}
