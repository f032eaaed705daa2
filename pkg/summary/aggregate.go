package summary

import (
	"fmt"
	"sort"
	"time"

	"github.com/totaltiming/totaltiming/pkg/hours"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// EntitySummary is the total of hours attributed to one user, project or absence reason.
type EntitySummary struct {
	EntityId   int
	Name       string
	TotalHours float64
}

type UserProjectSummary struct {
	UserId      int
	UserName    string
	ProjectId   int
	ProjectName string
	TotalHours  float64
}

// Aggregator groups entries per entity. Names are ordered with the collation rules of its locale.
type Aggregator struct {
	tag language.Tag
}

func NewAggregator(locale string) *Aggregator {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Norwegian
	}
	return &Aggregator{tag: tag}
}

// ResolveName looks id up in names and falls back to "<prefix> <id>".
func ResolveName(names map[int]string, id int, prefix string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("%s %d", prefix, id)
}

func (a *Aggregator) MonthlyUserSummary(entries []hours.Entry, baseDate time.Time, names map[int]string) []EntitySummary {
	return a.SummarizeByUser(inMonth(entries, baseDate), names)
}

func (a *Aggregator) MonthlyProjectSummary(entries []hours.Entry, baseDate time.Time, names map[int]string) []EntitySummary {
	return a.SummarizeByProject(inMonth(entries, baseDate), names)
}

func (a *Aggregator) MonthlyAbsenceSummary(entries []hours.Entry, baseDate time.Time, names map[int]string) []EntitySummary {
	return a.SummarizeByAbsence(inMonth(entries, baseDate), names)
}

// SummarizeByUser totals already filtered entries per user.
func (a *Aggregator) SummarizeByUser(entries []hours.Entry, names map[int]string) []EntitySummary {
	return a.summarize(entries, names, "User", func(e hours.Entry) (int, bool) {
		return e.UserId, true
	})
}

// SummarizeByProject skips entries that are not logged against a project.
func (a *Aggregator) SummarizeByProject(entries []hours.Entry, names map[int]string) []EntitySummary {
	return a.summarize(entries, names, "Project", func(e hours.Entry) (int, bool) {
		return e.Target.ProjectId()
	})
}

// SummarizeByAbsence skips entries that are not logged against an absence reason.
func (a *Aggregator) SummarizeByAbsence(entries []hours.Entry, names map[int]string) []EntitySummary {
	return a.summarize(entries, names, "Absence", func(e hours.Entry) (int, bool) {
		return e.Target.AbsenceId()
	})
}

// SummarizeByUserProject totals project hours per (user, project) pair, ordered by user name
// and then project name.
func (a *Aggregator) SummarizeByUserProject(entries []hours.Entry, userNames, projectNames map[int]string) []UserProjectSummary {
	type pairKey struct{ userId, projectId int }
	totals := make(map[pairKey]float64)
	for _, e := range entries {
		if e.StartTime.IsZero() {
			continue
		}
		projectId, ok := e.Target.ProjectId()
		if !ok {
			continue
		}
		totals[pairKey{e.UserId, projectId}] += hours.FiniteOrZero(e.HoursWorked)
	}

	rows := make([]UserProjectSummary, 0, len(totals))
	for key, total := range totals {
		rows = append(rows, UserProjectSummary{
			UserId:      key.userId,
			UserName:    ResolveName(userNames, key.userId, "User"),
			ProjectId:   key.projectId,
			ProjectName: ResolveName(projectNames, key.projectId, "Project"),
			TotalHours:  total,
		})
	}

	c := a.collator()
	sort.Slice(rows, func(i, j int) bool {
		if cmp := c.CompareString(rows[i].UserName, rows[j].UserName); cmp != 0 {
			return cmp < 0
		}
		if rows[i].UserId != rows[j].UserId {
			return rows[i].UserId < rows[j].UserId
		}
		if cmp := c.CompareString(rows[i].ProjectName, rows[j].ProjectName); cmp != 0 {
			return cmp < 0
		}
		return rows[i].ProjectId < rows[j].ProjectId
	})
	return rows
}

// CalculateTotalHours sums the rows of a summary table.
func CalculateTotalHours(summaries []EntitySummary) float64 {
	total := 0.0
	for _, s := range summaries {
		total += hours.FiniteOrZero(s.TotalHours)
	}
	return total
}

func (a *Aggregator) summarize(entries []hours.Entry, names map[int]string, prefix string, key func(hours.Entry) (int, bool)) []EntitySummary {
	totals := make(map[int]float64)
	for _, e := range entries {
		if e.StartTime.IsZero() {
			continue
		}
		id, ok := key(e)
		if !ok {
			continue
		}
		totals[id] += hours.FiniteOrZero(e.HoursWorked)
	}

	rows := make([]EntitySummary, 0, len(totals))
	for id, total := range totals {
		rows = append(rows, EntitySummary{
			EntityId:   id,
			Name:       ResolveName(names, id, prefix),
			TotalHours: total,
		})
	}
	a.sortByName(rows)
	return rows
}

func (a *Aggregator) sortByName(rows []EntitySummary) {
	c := a.collator()
	sort.Slice(rows, func(i, j int) bool {
		if cmp := c.CompareString(rows[i].Name, rows[j].Name); cmp != 0 {
			return cmp < 0
		}
		return rows[i].EntityId < rows[j].EntityId
	})
}

// collate.Collator keeps internal buffers and is not safe for concurrent use.
func (a *Aggregator) collator() *collate.Collator {
	return collate.New(a.tag)
}

// inMonth keeps entries that start in the calendar month of baseDate, in baseDate's location.
func inMonth(entries []hours.Entry, baseDate time.Time) []hours.Entry {
	year, month, _ := baseDate.Date()
	loc := baseDate.Location()
	filtered := make([]hours.Entry, 0, len(entries))
	for _, e := range entries {
		if e.StartTime.IsZero() {
			continue
		}
		y, m, _ := e.StartTime.In(loc).Date()
		if y == year && m == month {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
