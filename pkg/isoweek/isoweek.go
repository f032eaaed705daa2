package isoweek

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// WeekNumber identifies an ISO 8601 week. Year is the ISO year, which differs from the calendar
// year for some days around New Year.
type WeekNumber struct {
	Year int
	Week int
}

// FromDate returns the ISO week of the calendar day date falls on in its own location.
//
// The week is the one containing that day's Thursday, so 2024-12-30 belongs to 2025-W01 and
// 2027-01-01 belongs to 2026-W53.
func FromDate(date time.Time) WeekNumber {
	thursday := thursdayOf(date)
	year := thursday.Year()
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(thursday.Sub(jan1) / day)
	return WeekNumber{Year: year, Week: days/7 + 1}
}

// FromString parses the ISO 8601 week format, e.g. "2025-W03".
func FromString(isoWeekString string) (WeekNumber, error) {
	yearPart, weekPart, found := strings.Cut(isoWeekString, "-W")
	if !found {
		return WeekNumber{}, fmt.Errorf("invalid ISO week format: %s", isoWeekString)
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return WeekNumber{}, fmt.Errorf("invalid year: %w", err)
	}
	week, err := strconv.Atoi(weekPart)
	if err != nil {
		return WeekNumber{}, fmt.Errorf("invalid week: %w", err)
	}
	if week < 1 || week > WeeksInYear(year) {
		return WeekNumber{}, fmt.Errorf("week %d out of range for %d", week, year)
	}
	return WeekNumber{Year: year, Week: week}, nil
}

// Monday returns the Monday of the given ISO week at UTC midnight.
func Monday(year, week int) time.Time {
	// January 4th is always in week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	firstMonday := jan4.AddDate(0, 0, 1-isoWeekday(jan4))
	return firstMonday.AddDate(0, 0, (week-1)*7)
}

// WeeksInYear returns 52 or 53.
func WeeksInYear(year int) int {
	return FromDate(time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC)).Week
}

func (w WeekNumber) Monday() time.Time {
	return Monday(w.Year, w.Week)
}

// Sunday is Monday + 6 days, at UTC midnight.
func (w WeekNumber) Sunday() time.Time {
	return w.Monday().AddDate(0, 0, 6)
}

// AddWeeks moves n weeks forward (or backward for negative n).
func (w WeekNumber) AddWeeks(n int) WeekNumber {
	return FromDate(w.Monday().AddDate(0, 0, 7*n))
}

// Contains reports whether the calendar day of t (in t's location) falls in w.
func (w WeekNumber) Contains(t time.Time) bool {
	return FromDate(t).Equal(w)
}

func (w WeekNumber) Equal(other WeekNumber) bool {
	return w.Year == other.Year && w.Week == other.Week
}

func (w WeekNumber) Before(other WeekNumber) bool {
	if w.Year != other.Year {
		return w.Year < other.Year
	}
	return w.Week < other.Week
}

func (w WeekNumber) After(other WeekNumber) bool {
	if w.Year != other.Year {
		return w.Year > other.Year
	}
	return w.Week > other.Week
}

// String returns the week key, e.g. "2025-W03".
func (w WeekNumber) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Week)
}

// thursdayOf normalizes date to UTC midnight of its wall-clock day and shifts it to the
// Thursday of the same Monday-based week.
func thursdayOf(date time.Time) time.Time {
	y, m, d := date.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, 4-isoWeekday(midnight))
}

// isoWeekday maps Monday..Sunday to 1..7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
