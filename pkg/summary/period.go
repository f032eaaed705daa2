package summary

import (
	"sort"
	"time"

	"github.com/totaltiming/totaltiming/pkg/hours"
	"github.com/totaltiming/totaltiming/pkg/isoweek"
)

// DayKeyLayout is the layout of the keys in PeriodSummary.GroupedByDay.
const DayKeyLayout = "2006-01-02"

// PeriodSummary is the view of one week or month of entries, grouped per calendar day.
type PeriodSummary struct {
	// GroupedByDay maps YYYY-MM-DD to the entries starting that day, ordered by start time.
	GroupedByDay map[string][]hours.Entry
	SortedDays   []string
	Total        float64
	PeriodStart  time.Time
	PeriodEnd    time.Time
	// Week is the ISO week in weekly mode and the zero value in monthly mode.
	Week isoweek.WeekNumber
}

type MonthTotal struct {
	Year  int
	Month time.Month
	Total float64
	Label string
}

// WeeklySummary buckets the entries that start in the ISO week of today + weekOffset weeks.
//
// Day keys and week membership use the wall-clock date of StartTime in today's location.
// Entries are bucketed by their start only; an entry running past midnight stays on its start day.
func WeeklySummary(entries []hours.Entry, today time.Time, weekOffset int) PeriodSummary {
	loc := today.Location()
	target := isoweek.FromDate(today.AddDate(0, 0, weekOffset*7))

	summary := bucket(entries, loc, func(start time.Time) bool {
		return isoweek.FromDate(start).Equal(target)
	})
	summary.Week = target
	summary.PeriodStart = target.Monday()
	summary.PeriodEnd = target.Sunday()
	return summary
}

// MonthlySummary buckets the entries that start in the calendar month of baseDate, in
// baseDate's location.
func MonthlySummary(entries []hours.Entry, baseDate time.Time) PeriodSummary {
	loc := baseDate.Location()
	year, month, _ := baseDate.Date()

	summary := bucket(entries, loc, func(start time.Time) bool {
		y, m, _ := start.Date()
		return y == year && m == month
	})
	summary.PeriodStart = time.Date(year, month, 1, 0, 0, 0, 0, loc)
	summary.PeriodEnd = time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
	return summary
}

// AllMonthlyTotals sums hours per calendar month over all entries, newest month first.
// A nil loc means UTC.
func AllMonthlyTotals(entries []hours.Entry, loc *time.Location) []MonthTotal {
	if loc == nil {
		loc = time.UTC
	}
	type monthKey struct {
		year  int
		month time.Month
	}
	totals := make(map[monthKey]float64)
	for _, e := range entries {
		if e.StartTime.IsZero() {
			continue
		}
		y, m, _ := e.StartTime.In(loc).Date()
		totals[monthKey{y, m}] += hours.FiniteOrZero(e.HoursWorked)
	}

	months := make([]MonthTotal, 0, len(totals))
	for key, total := range totals {
		months = append(months, MonthTotal{
			Year:  key.year,
			Month: key.month,
			Total: total,
			Label: MonthLabel(key.year, key.month),
		})
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year > months[j].Year
		}
		return months[i].Month > months[j].Month
	})
	return months
}

// MonthLabel formats a month for month pickers, e.g. "January 2025".
func MonthLabel(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// DayKey returns the YYYY-MM-DD key of t's wall-clock day in loc. A nil loc means UTC.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DayKeyLayout)
}

func bucket(entries []hours.Entry, loc *time.Location, include func(start time.Time) bool) PeriodSummary {
	grouped := make(map[string][]hours.Entry)
	total := 0.0
	for _, e := range entries {
		if e.StartTime.IsZero() {
			continue
		}
		start := e.StartTime.In(loc)
		if !include(start) {
			continue
		}
		key := start.Format(DayKeyLayout)
		grouped[key] = append(grouped[key], e)
		total += hours.FiniteOrZero(e.HoursWorked)
	}

	days := make([]string, 0, len(grouped))
	for key, dayEntries := range grouped {
		sort.SliceStable(dayEntries, func(i, j int) bool {
			a, b := dayEntries[i], dayEntries[j]
			if !a.StartTime.Equal(b.StartTime) {
				return a.StartTime.Before(b.StartTime)
			}
			return a.Id < b.Id
		})
		days = append(days, key)
	}
	sort.Strings(days)

	return PeriodSummary{
		GroupedByDay: grouped,
		SortedDays:   days,
		Total:        total,
	}
}
