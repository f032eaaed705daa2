package timesheet

import (
	"context"
	"fmt"
	"time"

	"github.com/totaltiming/totaltiming/internal/utils"
	"github.com/totaltiming/totaltiming/pkg/hours"
	"github.com/totaltiming/totaltiming/pkg/isoweek"
	"github.com/totaltiming/totaltiming/pkg/summary"
	"github.com/totaltiming/totaltiming/pkg/user"
)

// Service builds the week and month views of one user's hours. A userId of 0 means the current user.
type Service interface {
	WeeklySummary(ctx context.Context, userId int, weekOffset int) (summary.PeriodSummary, error)
	// WeekOffset returns how many weeks week lies from the current week of the user.
	WeekOffset(ctx context.Context, userId int, week isoweek.WeekNumber) (int, error)
	// MonthlySummary summarizes the month containing date. A zero date means the current month.
	MonthlySummary(ctx context.Context, userId int, date time.Time) (summary.PeriodSummary, error)
	MonthlyTotals(ctx context.Context, userId int) ([]summary.MonthTotal, error)
}

type UserReader interface {
	GetUser(ctx context.Context, id int) (user.User, error)
}

type ServiceImpl struct {
	hours hours.Service
	users UserReader
	clock utils.Clock
}

func NewService(hoursService hours.Service, users UserReader, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{hours: hoursService, users: users, clock: clock}
}

func (s *ServiceImpl) WeeklySummary(ctx context.Context, userId int, weekOffset int) (summary.PeriodSummary, error) {
	userId, loc, err := s.resolveUser(ctx, userId)
	if err != nil {
		return summary.PeriodSummary{}, err
	}
	today := s.clock.Now().In(loc)
	week := isoweek.FromDate(today.AddDate(0, 0, weekOffset*7))

	entries, err := s.hours.ListEntries(ctx, hours.Filter{
		UserId: userId,
		From:   week.Monday().AddDate(0, 0, -1),
		To:     week.Sunday().AddDate(0, 0, 2),
	})
	if err != nil {
		return summary.PeriodSummary{}, err
	}
	return summary.WeeklySummary(entries, today, weekOffset), nil
}

func (s *ServiceImpl) WeekOffset(ctx context.Context, userId int, week isoweek.WeekNumber) (int, error) {
	_, loc, err := s.resolveUser(ctx, userId)
	if err != nil {
		return 0, err
	}
	current := isoweek.FromDate(s.clock.Now().In(loc))
	days := week.Monday().Sub(current.Monday()).Hours() / 24
	return int(days) / 7, nil
}

func (s *ServiceImpl) MonthlySummary(ctx context.Context, userId int, date time.Time) (summary.PeriodSummary, error) {
	userId, loc, err := s.resolveUser(ctx, userId)
	if err != nil {
		return summary.PeriodSummary{}, err
	}
	if date.IsZero() {
		date = s.clock.Now().In(loc)
	}
	year, month, day := date.Date()
	base := time.Date(year, month, day, 0, 0, 0, 0, loc)

	entries, err := s.hours.ListEntries(ctx, hours.Filter{
		UserId: userId,
		From:   time.Date(year, month, 1, 0, 0, 0, 0, loc),
		To:     time.Date(year, month+1, 1, 0, 0, 0, 0, loc),
	})
	if err != nil {
		return summary.PeriodSummary{}, err
	}
	return summary.MonthlySummary(entries, base), nil
}

func (s *ServiceImpl) MonthlyTotals(ctx context.Context, userId int) ([]summary.MonthTotal, error) {
	userId, loc, err := s.resolveUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	entries, err := s.hours.ListEntries(ctx, hours.Filter{UserId: userId})
	if err != nil {
		return nil, err
	}
	return summary.AllMonthlyTotals(entries, loc), nil
}

// resolveUser returns the id and timezone of the user whose hours are summarized.
// Permissions are enforced by the hours service when the entries are listed.
func (s *ServiceImpl) resolveUser(ctx context.Context, userId int) (int, *time.Location, error) {
	current, err := user.CurrentUser(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if userId == 0 || userId == current.Id {
		return current.Id, utils.LoadLocation(current.Settings.Timezone), nil
	}
	if !current.CanReadAll() {
		return 0, nil, hours.ErrForbidden
	}
	target, err := s.users.GetUser(ctx, userId)
	if err != nil {
		return 0, nil, err
	}
	return target.Id, utils.LoadLocation(target.Settings.Timezone), nil
}
