package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/totaltiming/totaltiming/internal/utils"
	"github.com/totaltiming/totaltiming/pkg/absence"
	"github.com/totaltiming/totaltiming/pkg/hours"
	"github.com/totaltiming/totaltiming/pkg/project"
	"github.com/totaltiming/totaltiming/pkg/summary"
	"github.com/totaltiming/totaltiming/pkg/user"
)

var ErrForbidden = errors.New("reports are only available to admins and accountants")

// Range bounds the StartTime of the reported entries: From inclusive, To exclusive. Zero means open.
type Range struct {
	From time.Time
	To   time.Time
}

// Table is one entity summary: one row per user, project or absence reason, plus the grand total.
type Table struct {
	// Entity names what a row is, e.g. "User".
	Entity      string
	Rows        []summary.EntitySummary
	Total       float64
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// Detail is one entry of a detail report with the names resolved.
type Detail struct {
	Entry      hours.Entry
	UserName   string
	TargetName string
	// TargetCode is the project or absence code.
	TargetCode string
}

type Service interface {
	HoursByUserProject(ctx context.Context, r Range) ([]summary.UserProjectSummary, error)
	HoursByUser(ctx context.Context, r Range) (Table, error)
	HoursByProject(ctx context.Context, r Range) (Table, error)
	// ProjectHours lists the entries of one project, optionally of one user only (userId 0 means all).
	ProjectHours(ctx context.Context, projectIdOrCode string, userId int, r Range) ([]Detail, error)
	ProjectHoursByUser(ctx context.Context, projectIdOrCode string, r Range) (Table, error)
	AbsenceHours(ctx context.Context, absenceIdOrCode string, userId int, r Range) ([]Detail, error)
	AbsenceHoursByUser(ctx context.Context, absenceIdOrCode string, r Range) (Table, error)
	// MonthlyByUser, MonthlyByProject and MonthlyByAbsence summarize the calendar month containing
	// date in the caller's timezone. A zero date means the current month.
	MonthlyByUser(ctx context.Context, date time.Time) (Table, error)
	MonthlyByProject(ctx context.Context, date time.Time) (Table, error)
	MonthlyByAbsence(ctx context.Context, date time.Time) (Table, error)
}

type ProjectReader interface {
	GetProject(ctx context.Context, idOrCode string) (project.Project, error)
	ProjectNames(ctx context.Context) (map[int]string, error)
}

type AbsenceReader interface {
	GetAbsence(ctx context.Context, idOrCode string) (absence.Absence, error)
	AbsenceNames(ctx context.Context) (map[int]string, error)
}

type ServiceImpl struct {
	hours      hours.Service
	users      user.Directory
	projects   ProjectReader
	absences   AbsenceReader
	aggregator *summary.Aggregator
	clock      utils.Clock
}

func NewService(
	hoursService hours.Service,
	users user.Directory,
	projects ProjectReader,
	absences AbsenceReader,
	aggregator *summary.Aggregator,
	clock utils.Clock,
) *ServiceImpl {
	return &ServiceImpl{
		hours:      hoursService,
		users:      users,
		projects:   projects,
		absences:   absences,
		aggregator: aggregator,
		clock:      clock,
	}
}

func (s *ServiceImpl) HoursByUserProject(ctx context.Context, r Range) ([]summary.UserProjectSummary, error) {
	entries, err := s.entries(ctx, hours.Filter{From: r.From, To: r.To})
	if err != nil {
		return nil, err
	}
	userNames, err := s.users.UserNames(ctx)
	if err != nil {
		return nil, err
	}
	projectNames, err := s.projects.ProjectNames(ctx)
	if err != nil {
		return nil, err
	}
	return s.aggregator.SummarizeByUserProject(entries, userNames, projectNames), nil
}

func (s *ServiceImpl) HoursByUser(ctx context.Context, r Range) (Table, error) {
	entries, err := s.entries(ctx, hours.Filter{From: r.From, To: r.To})
	if err != nil {
		return Table{}, err
	}
	names, err := s.users.UserNames(ctx)
	if err != nil {
		return Table{}, err
	}
	return newTable("User", s.aggregator.SummarizeByUser(entries, names), r), nil
}

func (s *ServiceImpl) HoursByProject(ctx context.Context, r Range) (Table, error) {
	entries, err := s.entries(ctx, hours.Filter{From: r.From, To: r.To})
	if err != nil {
		return Table{}, err
	}
	names, err := s.projects.ProjectNames(ctx)
	if err != nil {
		return Table{}, err
	}
	return newTable("Project", s.aggregator.SummarizeByProject(entries, names), r), nil
}

func (s *ServiceImpl) ProjectHours(ctx context.Context, projectIdOrCode string, userId int, r Range) ([]Detail, error) {
	if err := requireReporter(ctx); err != nil {
		return nil, err
	}
	p, err := s.projects.GetProject(ctx, projectIdOrCode)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries(ctx, hours.Filter{UserId: userId, ProjectId: p.Id, From: r.From, To: r.To})
	if err != nil {
		return nil, err
	}
	return s.details(ctx, entries, p.Name, p.ProjectCode)
}

func (s *ServiceImpl) ProjectHoursByUser(ctx context.Context, projectIdOrCode string, r Range) (Table, error) {
	if err := requireReporter(ctx); err != nil {
		return Table{}, err
	}
	p, err := s.projects.GetProject(ctx, projectIdOrCode)
	if err != nil {
		return Table{}, err
	}
	entries, err := s.entries(ctx, hours.Filter{ProjectId: p.Id, From: r.From, To: r.To})
	if err != nil {
		return Table{}, err
	}
	names, err := s.users.UserNames(ctx)
	if err != nil {
		return Table{}, err
	}
	return newTable("User", s.aggregator.SummarizeByUser(entries, names), r), nil
}

func (s *ServiceImpl) AbsenceHours(ctx context.Context, absenceIdOrCode string, userId int, r Range) ([]Detail, error) {
	if err := requireReporter(ctx); err != nil {
		return nil, err
	}
	a, err := s.absences.GetAbsence(ctx, absenceIdOrCode)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries(ctx, hours.Filter{UserId: userId, AbsenceId: a.Id, From: r.From, To: r.To})
	if err != nil {
		return nil, err
	}
	return s.details(ctx, entries, a.Name, a.AbsenceCode)
}

func (s *ServiceImpl) AbsenceHoursByUser(ctx context.Context, absenceIdOrCode string, r Range) (Table, error) {
	if err := requireReporter(ctx); err != nil {
		return Table{}, err
	}
	a, err := s.absences.GetAbsence(ctx, absenceIdOrCode)
	if err != nil {
		return Table{}, err
	}
	entries, err := s.entries(ctx, hours.Filter{AbsenceId: a.Id, From: r.From, To: r.To})
	if err != nil {
		return Table{}, err
	}
	names, err := s.users.UserNames(ctx)
	if err != nil {
		return Table{}, err
	}
	return newTable("User", s.aggregator.SummarizeByUser(entries, names), r), nil
}

func (s *ServiceImpl) MonthlyByUser(ctx context.Context, date time.Time) (Table, error) {
	base, entries, err := s.monthEntries(ctx, date)
	if err != nil {
		return Table{}, err
	}
	names, err := s.users.UserNames(ctx)
	if err != nil {
		return Table{}, err
	}
	return newMonthTable("User", s.aggregator.MonthlyUserSummary(entries, base, names), base), nil
}

func (s *ServiceImpl) MonthlyByProject(ctx context.Context, date time.Time) (Table, error) {
	base, entries, err := s.monthEntries(ctx, date)
	if err != nil {
		return Table{}, err
	}
	names, err := s.projects.ProjectNames(ctx)
	if err != nil {
		return Table{}, err
	}
	return newMonthTable("Project", s.aggregator.MonthlyProjectSummary(entries, base, names), base), nil
}

func (s *ServiceImpl) MonthlyByAbsence(ctx context.Context, date time.Time) (Table, error) {
	base, entries, err := s.monthEntries(ctx, date)
	if err != nil {
		return Table{}, err
	}
	names, err := s.absences.AbsenceNames(ctx)
	if err != nil {
		return Table{}, err
	}
	return newMonthTable("Absence", s.aggregator.MonthlyAbsenceSummary(entries, base, names), base), nil
}

// monthEntries returns the first day of the month in the caller's timezone together with the
// entries starting in that month.
func (s *ServiceImpl) monthEntries(ctx context.Context, date time.Time) (time.Time, []hours.Entry, error) {
	current, err := user.CurrentUser(ctx)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("failed to get current user: %w", err)
	}
	loc := utils.LoadLocation(current.Settings.Timezone)
	if date.IsZero() {
		date = s.clock.Now().In(loc)
	}
	base := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, loc)

	entries, err := s.entries(ctx, hours.Filter{From: base, To: base.AddDate(0, 1, 0)})
	if err != nil {
		return time.Time{}, nil, err
	}
	return base, entries, nil
}

func (s *ServiceImpl) entries(ctx context.Context, filter hours.Filter) ([]hours.Entry, error) {
	if err := requireReporter(ctx); err != nil {
		return nil, err
	}
	entries, err := s.hours.ListEntries(ctx, filter)
	if err != nil {
		log.Errorf("failed to load entries for report: %v", err)
		return nil, err
	}
	return entries, nil
}

func (s *ServiceImpl) details(ctx context.Context, entries []hours.Entry, targetName, targetCode string) ([]Detail, error) {
	names, err := s.users.UserNames(ctx)
	if err != nil {
		return nil, err
	}
	details := make([]Detail, 0, len(entries))
	for _, e := range entries {
		details = append(details, Detail{
			Entry:      e,
			UserName:   summary.ResolveName(names, e.UserId, "User"),
			TargetName: targetName,
			TargetCode: targetCode,
		})
	}
	return details, nil
}

func requireReporter(ctx context.Context) error {
	current, err := user.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	if !current.CanReadAll() {
		return ErrForbidden
	}
	return nil
}

func newTable(entity string, rows []summary.EntitySummary, r Range) Table {
	table := Table{
		Entity:      entity,
		Rows:        rows,
		Total:       summary.CalculateTotalHours(rows),
		PeriodStart: r.From,
	}
	if !r.To.IsZero() {
		table.PeriodEnd = r.To.AddDate(0, 0, -1)
	}
	return table
}

func newMonthTable(entity string, rows []summary.EntitySummary, base time.Time) Table {
	return Table{
		Entity:      entity,
		Rows:        rows,
		Total:       summary.CalculateTotalHours(rows),
		PeriodStart: base,
		PeriodEnd:   base.AddDate(0, 1, -1),
	}
}
