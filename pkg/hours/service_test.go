package hours

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/totaltiming/totaltiming/internal/event_bus"
	"github.com/totaltiming/totaltiming/pkg/user"
)

var employeeCtx = user.WithUser(context.Background(), user.User{Id: 10, Name: "Employee", Role: user.RoleEmployee})
var otherEmployeeCtx = user.WithUser(context.Background(), user.User{Id: 11, Name: "Other", Role: user.RoleEmployee})
var adminCtx = user.WithUser(context.Background(), user.User{Id: 1, Name: "Admin", Role: user.RoleAdmin})
var accountantCtx = user.WithUser(context.Background(), user.User{Id: 2, Name: "Accountant", Role: user.RoleAccountant})

type recordedEvent struct {
	Type event_bus.EventType
	Data event_bus.HourEntryChanged
}

func setupService(t *testing.T) (*ServiceImpl, *RepositoryStub, *[]recordedEvent) {
	repo := NewRepositoryStub()
	bus := event_bus.NewEventBus()
	var events []recordedEvent
	for _, eventType := range []event_bus.EventType{event_bus.HourEntryCreated, event_bus.HourEntryUpdated, event_bus.HourEntryDeleted} {
		event_bus.SubscribeTyped(bus, eventType, func(e event_bus.EventT[event_bus.HourEntryChanged]) error {
			events = append(events, recordedEvent{e.Type, e.Data})
			return nil
		})
	}
	t.Cleanup(repo.Reset)
	return NewService(repo, bus), repo, &events
}

func workday(day int) (time.Time, time.Time) {
	start := time.Date(2025, 1, day, 8, 0, 0, 0, time.UTC)
	return start, start.Add(8*time.Hour + 30*time.Minute)
}

func TestServiceImpl_CreateEntry(t *testing.T) {
	t.Run("creates entry for current user and publishes event", func(t *testing.T) {
		service, _, events := setupService(t)
		start, end := workday(6)

		created, err := service.CreateEntry(employeeCtx, Entry{Target: Project(3), StartTime: start, EndTime: end, BreakMinutes: 30})

		require.NoError(t, err)
		assert.NotZero(t, created.Id)
		assert.Equal(t, 10, created.UserId)
		assert.Equal(t, 8.0, created.HoursWorked)
		require.Len(t, *events, 1)
		assert.Equal(t, event_bus.HourEntryCreated, (*events)[0].Type)
		assert.Equal(t, []int{3}, (*events)[0].Data.ProjectIds)
	})

	t.Run("absence entry publishes no project ids", func(t *testing.T) {
		service, _, events := setupService(t)
		start, end := workday(6)

		_, err := service.CreateEntry(employeeCtx, Entry{Target: Absence(1), StartTime: start, EndTime: end})

		require.NoError(t, err)
		require.Len(t, *events, 1)
		assert.Empty(t, (*events)[0].Data.ProjectIds)
	})

	t.Run("validation errors", func(t *testing.T) {
		start, end := workday(6)
		tests := []struct {
			name  string
			entry Entry
			want  error
		}{
			{"no target", Entry{StartTime: start, EndTime: end}, ErrInvalidTarget},
			{"missing start", Entry{Target: Project(1), EndTime: end}, ErrMissingTime},
			{"missing end", Entry{Target: Project(1), StartTime: start}, ErrMissingTime},
			{"negative break", Entry{Target: Project(1), StartTime: start, EndTime: end, BreakMinutes: -5}, ErrNegativeBreak},
			{"end before start", Entry{Target: Project(1), StartTime: end, EndTime: start}, ErrNegativeDuration},
			{"equal start and end", Entry{Target: Project(1), StartTime: start, EndTime: start}, ErrNegativeDuration},
			{"break longer than interval", Entry{Target: Project(1), StartTime: start, EndTime: start.Add(time.Hour), BreakMinutes: 61}, ErrNegativeDuration},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				service, repo, events := setupService(t)

				_, err := service.CreateEntry(employeeCtx, tt.entry)

				assert.ErrorIs(t, err, tt.want)
				entries, _ := repo.ListEntries(context.Background(), Filter{})
				assert.Empty(t, entries)
				assert.Empty(t, *events)
			})
		}
	})

	t.Run("employee cannot log hours for another user", func(t *testing.T) {
		service, _, _ := setupService(t)
		start, end := workday(6)

		_, err := service.CreateEntry(employeeCtx, Entry{UserId: 11, Target: Project(1), StartTime: start, EndTime: end})

		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin can log hours for another user", func(t *testing.T) {
		service, _, _ := setupService(t)
		start, end := workday(6)

		created, err := service.CreateEntry(adminCtx, Entry{UserId: 11, Target: Project(1), StartTime: start, EndTime: end})

		require.NoError(t, err)
		assert.Equal(t, 11, created.UserId)
	})

	t.Run("requires user in context", func(t *testing.T) {
		service, _, _ := setupService(t)

		_, err := service.CreateEntry(context.Background(), Entry{})

		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}

func TestServiceImpl_ListEntries(t *testing.T) {
	service, repo, _ := setupService(t)
	for day := 6; day <= 8; day++ {
		start, end := workday(day)
		repo.Put(Entry{UserId: 10, Target: Project(1), StartTime: start, EndTime: end})
		repo.Put(Entry{UserId: 11, Target: Project(2), StartTime: start, EndTime: end})
	}

	t.Run("employee sees only own entries newest first", func(t *testing.T) {
		entries, err := service.ListEntries(employeeCtx, Filter{})

		require.NoError(t, err)
		require.Len(t, entries, 3)
		for _, e := range entries {
			assert.Equal(t, 10, e.UserId)
			assert.Equal(t, 8.5, e.HoursWorked)
		}
		assert.True(t, entries[0].StartTime.After(entries[1].StartTime))
	})

	t.Run("employee cannot ask for another user", func(t *testing.T) {
		_, err := service.ListEntries(employeeCtx, Filter{UserId: 11})

		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("accountant sees everyone and can filter", func(t *testing.T) {
		all, err := service.ListEntries(accountantCtx, Filter{})
		require.NoError(t, err)
		assert.Len(t, all, 6)

		project2, err := service.ListEntries(accountantCtx, Filter{ProjectId: 2})
		require.NoError(t, err)
		assert.Len(t, project2, 3)

		from := time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)
		ranged, err := service.ListEntries(accountantCtx, Filter{From: from, To: from.AddDate(0, 0, 1)})
		require.NoError(t, err)
		assert.Len(t, ranged, 2)
	})
}

func TestServiceImpl_GetEntry(t *testing.T) {
	service, repo, _ := setupService(t)
	start, end := workday(6)
	stored := repo.Put(Entry{UserId: 10, Target: Project(1), StartTime: start, EndTime: end})

	got, err := service.GetEntry(employeeCtx, stored.Id)
	require.NoError(t, err)
	assert.Equal(t, 8.5, got.HoursWorked)

	_, err = service.GetEntry(otherEmployeeCtx, stored.Id)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = service.GetEntry(accountantCtx, stored.Id)
	assert.NoError(t, err)

	_, err = service.GetEntry(employeeCtx, 999)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestServiceImpl_UpdateEntry(t *testing.T) {
	t.Run("partial update keeps owner and recalculates hours", func(t *testing.T) {
		service, repo, events := setupService(t)
		start, end := workday(6)
		stored := repo.Put(Entry{UserId: 10, Target: Project(1), StartTime: start, EndTime: end, Note: "before"})
		breakMinutes := 30
		note := "after"

		updated, err := service.UpdateEntry(employeeCtx, stored.Id, EntryUpdate{BreakMinutes: &breakMinutes, Note: &note})

		require.NoError(t, err)
		assert.Equal(t, 10, updated.UserId)
		assert.Equal(t, 8.0, updated.HoursWorked)
		assert.Equal(t, "after", updated.Note)
		assert.Equal(t, Project(1), updated.Target)
		require.Len(t, *events, 1)
		assert.Equal(t, []int{1}, (*events)[0].Data.ProjectIds)
	})

	t.Run("moving entry to another project reports both projects", func(t *testing.T) {
		service, repo, events := setupService(t)
		start, end := workday(6)
		stored := repo.Put(Entry{UserId: 10, Target: Project(1), StartTime: start, EndTime: end})
		projectId := 2

		updated, err := service.UpdateEntry(employeeCtx, stored.Id, EntryUpdate{ProjectId: &projectId})

		require.NoError(t, err)
		assert.Equal(t, Project(2), updated.Target)
		require.Len(t, *events, 1)
		assert.Equal(t, []int{1, 2}, (*events)[0].Data.ProjectIds)
	})

	t.Run("switching to absence", func(t *testing.T) {
		service, repo, events := setupService(t)
		start, end := workday(6)
		stored := repo.Put(Entry{UserId: 10, Target: Project(1), StartTime: start, EndTime: end})
		absenceId := 4

		updated, err := service.UpdateEntry(employeeCtx, stored.Id, EntryUpdate{AbsenceId: &absenceId})

		require.NoError(t, err)
		assert.Equal(t, Absence(4), updated.Target)
		assert.Equal(t, []int{1}, (*events)[0].Data.ProjectIds)
	})

	t.Run("setting both targets is rejected", func(t *testing.T) {
		service, repo, _ := setupService(t)
		start, end := workday(6)
		stored := repo.Put(Entry{UserId: 10, Target: Project(1), StartTime: start, EndTime: end})
		projectId, absenceId := 2, 3

		_, err := service.UpdateEntry(employeeCtx, stored.Id, EntryUpdate{ProjectId: &projectId, AbsenceId: &absenceId})

		assert.ErrorIs(t, err, ErrInvalidTarget)
	})

	t.Run("invalid merged entry leaves stored entry untouched", func(t *testing.T) {
		service, repo, events := setupService(t)
		start, end := workday(6)
		stored := repo.Put(Entry{UserId: 10, Target: Project(1), StartTime: start, EndTime: end})
		newEnd := start.Add(-time.Hour)

		_, err := service.UpdateEntry(employeeCtx, stored.Id, EntryUpdate{EndTime: &newEnd})

		assert.ErrorIs(t, err, ErrNegativeDuration)
		current, _ := repo.GetEntry(context.Background(), stored.Id)
		assert.Equal(t, end, current.EndTime)
		assert.Empty(t, *events)
	})

	t.Run("only owner or admin", func(t *testing.T) {
		service, repo, _ := setupService(t)
		start, end := workday(6)
		stored := repo.Put(Entry{UserId: 10, Target: Project(1), StartTime: start, EndTime: end})
		note := "x"

		_, err := service.UpdateEntry(otherEmployeeCtx, stored.Id, EntryUpdate{Note: &note})
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = service.UpdateEntry(accountantCtx, stored.Id, EntryUpdate{Note: &note})
		assert.ErrorIs(t, err, ErrForbidden)

		updated, err := service.UpdateEntry(adminCtx, stored.Id, EntryUpdate{Note: &note})
		require.NoError(t, err)
		assert.Equal(t, 10, updated.UserId)
	})

	t.Run("unknown entry", func(t *testing.T) {
		service, _, _ := setupService(t)
		note := "x"

		_, err := service.UpdateEntry(adminCtx, 42, EntryUpdate{Note: &note})

		assert.ErrorIs(t, err, ErrEntryNotFound)
	})
}

func TestServiceImpl_DeleteEntry(t *testing.T) {
	t.Run("owner deletes and event names the project", func(t *testing.T) {
		service, repo, events := setupService(t)
		start, end := workday(6)
		stored := repo.Put(Entry{UserId: 10, Target: Project(5), StartTime: start, EndTime: end})

		err := service.DeleteEntry(employeeCtx, stored.Id)

		require.NoError(t, err)
		_, err = repo.GetEntry(context.Background(), stored.Id)
		assert.ErrorIs(t, err, ErrEntryNotFound)
		require.Len(t, *events, 1)
		assert.Equal(t, event_bus.HourEntryDeleted, (*events)[0].Type)
		assert.Equal(t, []int{5}, (*events)[0].Data.ProjectIds)
	})

	t.Run("other employee cannot delete", func(t *testing.T) {
		service, repo, _ := setupService(t)
		start, end := workday(6)
		stored := repo.Put(Entry{UserId: 10, Target: Project(5), StartTime: start, EndTime: end})

		err := service.DeleteEntry(otherEmployeeCtx, stored.Id)

		assert.ErrorIs(t, err, ErrForbidden)
		_, err = repo.GetEntry(context.Background(), stored.Id)
		assert.NoError(t, err)
	})
}

func TestServiceImpl_SubscriberFailureIsReturned(t *testing.T) {
	repo := NewRepositoryStub()
	bus := event_bus.NewEventBus()
	failure := errors.New("recalculation failed")
	bus.Subscribe(event_bus.HourEntryCreated, func(event_bus.Event) error { return failure })
	service := NewService(repo, bus)
	start, end := workday(6)

	_, err := service.CreateEntry(employeeCtx, Entry{Target: Project(1), StartTime: start, EndTime: end})

	assert.ErrorIs(t, err, failure)
}
