package project

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/totaltiming/totaltiming/internal/event_bus"
	"github.com/totaltiming/totaltiming/internal/utils"
	"github.com/totaltiming/totaltiming/pkg/hours"
	"github.com/totaltiming/totaltiming/pkg/user"
)

var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrProjectInvalid    = errors.New("invalid project")
	ErrProjectCodeExists = errors.New("project code already exists")
	ErrForbidden         = errors.New("only admins can change projects")
)

type Service interface {
	ListProjects(ctx context.Context) ([]Project, error)
	ListActiveProjects(ctx context.Context) ([]Project, error)
	// GetProject looks the project up by project code first and then by numeric id.
	GetProject(ctx context.Context, idOrCode string) (Project, error)
	CreateProject(ctx context.Context, project Project) (Project, error)
	UpdateProject(ctx context.Context, id int, update ProjectUpdate) (Project, error)
	DeleteProject(ctx context.Context, id int) error
	ProjectNames(ctx context.Context) (map[int]string, error)
}

// ProjectUpdate carries the fields of a partial update. Nil fields keep their stored value.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Status      *Status
	StartDate   *time.Time
	EndDate     *time.Time
	ProjectCode *string
}

// HoursReader lists hour entries without applying the caller's permissions.
type HoursReader interface {
	ListEntries(ctx context.Context, filter hours.Filter) ([]hours.Entry, error)
}

type ServiceImpl struct {
	repo        Repository
	hoursReader HoursReader
	clock       utils.Clock
}

func NewService(repo Repository, hoursReader HoursReader, eventBus *event_bus.EventBus, clock utils.Clock) *ServiceImpl {
	service := &ServiceImpl{repo: repo, hoursReader: hoursReader, clock: clock}
	for _, eventType := range []event_bus.EventType{
		event_bus.HourEntryCreated,
		event_bus.HourEntryUpdated,
		event_bus.HourEntryDeleted,
	} {
		event_bus.SubscribeTyped[event_bus.HourEntryChanged](
			eventBus,
			eventType,
			func(e event_bus.EventT[event_bus.HourEntryChanged]) error {
				log.Debugf("received %s event: %+v", e.Type, e.Data)
				if err := service.RecalculateLoggedHours(e.Context(), e.Data.ProjectIds...); err != nil {
					log.Errorf("failed to recalculate logged hours: %v", err)
					return err
				}
				return nil
			},
		)
	}
	return service
}

func (s *ServiceImpl) ListProjects(ctx context.Context) ([]Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *ServiceImpl) ListActiveProjects(ctx context.Context) ([]Project, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	today := s.clock.Now()
	if current, err := user.CurrentUser(ctx); err == nil {
		today = today.In(utils.LoadLocation(current.Settings.Timezone))
	}
	active := make([]Project, 0, len(projects))
	for _, p := range projects {
		if p.IsActiveOn(today) {
			active = append(active, p)
		}
	}
	return active, nil
}

func (s *ServiceImpl) GetProject(ctx context.Context, idOrCode string) (Project, error) {
	p, err := s.repo.GetProjectByCode(ctx, idOrCode)
	if err == nil || !errors.Is(err, ErrProjectNotFound) {
		return p, err
	}
	id, convErr := strconv.Atoi(idOrCode)
	if convErr != nil {
		return Project{}, ErrProjectNotFound
	}
	return s.repo.GetProject(ctx, id)
}

func (s *ServiceImpl) CreateProject(ctx context.Context, project Project) (Project, error) {
	if err := requireAdmin(ctx); err != nil {
		return Project{}, err
	}
	project.Name = strings.TrimSpace(project.Name)
	project.ProjectCode = strings.TrimSpace(project.ProjectCode)
	if project.Status == "" {
		project.Status = StatusActive
	}
	if err := validate(project); err != nil {
		return Project{}, err
	}
	created, err := s.repo.CreateProject(ctx, project)
	if err != nil {
		return Project{}, err
	}
	log.Infof("project %d (%s) created", created.Id, created.ProjectCode)
	return created, nil
}

func (s *ServiceImpl) UpdateProject(ctx context.Context, id int, update ProjectUpdate) (Project, error) {
	if err := requireAdmin(ctx); err != nil {
		return Project{}, err
	}
	project, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return Project{}, err
	}
	if update.Name != nil {
		project.Name = strings.TrimSpace(*update.Name)
	}
	if update.Description != nil {
		project.Description = *update.Description
	}
	if update.Status != nil {
		project.Status = *update.Status
	}
	if update.StartDate != nil {
		project.StartDate = update.StartDate
	}
	if update.EndDate != nil {
		project.EndDate = update.EndDate
	}
	if update.ProjectCode != nil {
		project.ProjectCode = strings.TrimSpace(*update.ProjectCode)
	}
	if err := validate(project); err != nil {
		return Project{}, err
	}
	return s.repo.UpdateProject(ctx, project)
}

func (s *ServiceImpl) DeleteProject(ctx context.Context, id int) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteProject(ctx, id)
}

func (s *ServiceImpl) ProjectNames(ctx context.Context) (map[int]string, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load project names: %w", err)
	}
	names := make(map[int]string, len(projects))
	for _, p := range projects {
		names[p.Id] = p.Name
	}
	return names, nil
}

// RecalculateLoggedHours recomputes LoggedHours of the given projects from their hour entries.
// Projects deleted in the meantime are skipped.
func (s *ServiceImpl) RecalculateLoggedHours(ctx context.Context, projectIds ...int) error {
	var errs []error
	for _, id := range projectIds {
		entries, err := s.hoursReader.ListEntries(ctx, hours.Filter{ProjectId: id})
		if err != nil {
			errs = append(errs, fmt.Errorf("project %d: %w", id, err))
			continue
		}
		total := hours.SumHours(entries)
		err = s.repo.SetLoggedHours(ctx, id, total)
		if errors.Is(err, ErrProjectNotFound) {
			log.Debugf("project %d no longer exists, skipping logged hours", id)
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("project %d: %w", id, err))
			continue
		}
		log.Tracef("project %d logged hours set to %.2f", id, total)
	}
	return errors.Join(errs...)
}

func requireAdmin(ctx context.Context) error {
	current, err := user.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	if !current.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func validate(p Project) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrProjectInvalid)
	}
	if p.ProjectCode == "" {
		return fmt.Errorf("%w: project code is required", ErrProjectInvalid)
	}
	if _, err := ParseStatus(string(p.Status)); err != nil {
		return err
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return fmt.Errorf("%w: end date is before start date", ErrProjectInvalid)
	}
	return nil
}
