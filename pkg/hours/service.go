package hours

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/totaltiming/totaltiming/internal/event_bus"
	"github.com/totaltiming/totaltiming/pkg/user"
)

var (
	ErrMissingTime      = errors.New("start and end time are required")
	ErrNegativeBreak    = errors.New("break minutes cannot be negative")
	ErrNegativeDuration = errors.New("end time must be after start time and cover the break")
	ErrForbidden        = errors.New("hour entry belongs to another user")
)

type Service interface {
	// ListEntries returns entries newest first. Employees only ever see their own entries.
	ListEntries(ctx context.Context, filter Filter) ([]Entry, error)
	GetEntry(ctx context.Context, id int) (Entry, error)
	CreateEntry(ctx context.Context, entry Entry) (Entry, error)
	UpdateEntry(ctx context.Context, id int, update EntryUpdate) (Entry, error)
	DeleteEntry(ctx context.Context, id int) error
}

// EntryUpdate carries the fields of a partial update. Nil fields keep their stored value.
// Setting either ProjectId or AbsenceId replaces the target, so exactly one of them must be positive.
type EntryUpdate struct {
	ProjectId    *int
	AbsenceId    *int
	StartTime    *time.Time
	EndTime      *time.Time
	BreakMinutes *int
	Note         *string
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
}

func NewService(repo Repository, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus}
}

func (s *ServiceImpl) ListEntries(ctx context.Context, filter Filter) ([]Entry, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if !currentUser.CanReadAll() {
		if filter.UserId != 0 && filter.UserId != currentUser.Id {
			return nil, ErrForbidden
		}
		filter.UserId = currentUser.Id
	}
	return s.repo.ListEntries(ctx, filter)
}

func (s *ServiceImpl) GetEntry(ctx context.Context, id int) (Entry, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get current user: %w", err)
	}
	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if !currentUser.CanReadAll() && entry.UserId != currentUser.Id {
		return Entry{}, ErrForbidden
	}
	return entry, nil
}

// CreateEntry stores a new entry owned by the current user. Admins may log hours for another
// user by setting UserId.
func (s *ServiceImpl) CreateEntry(ctx context.Context, entry Entry) (Entry, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if entry.UserId == 0 {
		entry.UserId = currentUser.Id
	}
	if entry.UserId != currentUser.Id && !currentUser.IsAdmin() {
		return Entry{}, ErrForbidden
	}
	if err := Validate(entry); err != nil {
		return Entry{}, err
	}

	created, err := s.repo.CreateEntry(ctx, entry)
	if err != nil {
		return Entry{}, err
	}
	log.Debugf("hour entry %d created for user %d (%s)", created.Id, created.UserId, created.Target)

	err = s.publish(ctx, event_bus.HourEntryCreated, created, 0)
	if err != nil {
		return Entry{}, err
	}
	return created, nil
}

// UpdateEntry applies a partial update. The owner of an entry never changes.
func (s *ServiceImpl) UpdateEntry(ctx context.Context, id int, update EntryUpdate) (Entry, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get current user: %w", err)
	}

	var previous, updated Entry
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		previous, err = repo.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		if previous.UserId != currentUser.Id && !currentUser.IsAdmin() {
			return ErrForbidden
		}

		merged, err := update.applyTo(previous)
		if err != nil {
			return err
		}
		if err := Validate(merged); err != nil {
			return err
		}
		updated, err = repo.UpdateEntry(ctx, merged)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	log.Debugf("hour entry %d updated (%s -> %s)", id, previous.Target, updated.Target)

	err = s.publish(ctx, event_bus.HourEntryUpdated, updated, previous.ProjectId())
	if err != nil {
		return Entry{}, err
	}
	return updated, nil
}

func (s *ServiceImpl) DeleteEntry(ctx context.Context, id int) error {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	var deleted Entry
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		deleted, err = repo.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		if deleted.UserId != currentUser.Id && !currentUser.IsAdmin() {
			return ErrForbidden
		}
		return repo.DeleteEntry(ctx, id)
	})
	if err != nil {
		return err
	}
	log.Debugf("hour entry %d deleted", id)

	return s.publish(ctx, event_bus.HourEntryDeleted, Entry{Id: deleted.Id, UserId: deleted.UserId}, deleted.ProjectId())
}

// publish is called after the change is committed. A failing subscriber leaves derived totals
// stale until the next change of the same project.
func (s *ServiceImpl) publish(ctx context.Context, eventType event_bus.EventType, entry Entry, previousProjectId int) error {
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, eventType, event_bus.HourEntryChanged{
		EntryId:    entry.Id,
		UserId:     entry.UserId,
		ProjectIds: event_bus.AffectedProjects(previousProjectId, entry.ProjectId()),
	}))
	if err != nil {
		log.Errorf("failed to publish %s event: %v", eventType, err)
		return err
	}
	return nil
}

// Validate rejects entries the calculator would turn into meaningless totals.
func Validate(entry Entry) error {
	if !entry.Target.Valid() {
		return ErrInvalidTarget
	}
	if entry.StartTime.IsZero() || entry.EndTime.IsZero() {
		return ErrMissingTime
	}
	if entry.BreakMinutes < 0 {
		return ErrNegativeBreak
	}
	if !entry.EndTime.After(entry.StartTime) || CalculateHoursWorked(entry.StartTime, entry.EndTime, entry.BreakMinutes) < 0 {
		return ErrNegativeDuration
	}
	return nil
}

func (u EntryUpdate) applyTo(entry Entry) (Entry, error) {
	if u.ProjectId != nil || u.AbsenceId != nil {
		target, err := NewTarget(u.ProjectId, u.AbsenceId)
		if err != nil {
			return Entry{}, err
		}
		entry.Target = target
	}
	if u.StartTime != nil {
		entry.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		entry.EndTime = *u.EndTime
	}
	if u.BreakMinutes != nil {
		entry.BreakMinutes = *u.BreakMinutes
	}
	if u.Note != nil {
		entry.Note = *u.Note
	}
	return entry.WithCalculatedHours(), nil
}
