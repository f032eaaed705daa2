package hours

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/totaltiming/totaltiming/internal/test_utils"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	defer func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			log.Errorf("failed to terminate container: %s", err)
		}
	}()
	code := m.Run()
	os.Exit(code)
}

// setupTestRepository seeds two users (1, 2) and two projects (1, 2). Absence 1..3 come from migrations.
func setupTestRepository(t *testing.T) (context.Context, Repository, *pgxpool.Pool) {
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		err := pgContainer.Restore(ctx)
		require.NoError(t, err)
	})
	_, err := db.Exec(ctx, `INSERT INTO users (uid, name, role) VALUES
		('00000000-0000-0000-0000-000000000001', 'Ada', 'employee'),
		('00000000-0000-0000-0000-000000000002', 'Bo', 'employee')`)
	require.NoError(t, err)
	_, err = db.Exec(ctx, `INSERT INTO projects (name, project_code) VALUES ('Bridge', 'P-1'), ('Tunnel', 'P-2')`)
	require.NoError(t, err)
	return ctx, NewRepo(db), db
}

func TestRepositoryImpl_CreateAndGet(t *testing.T) {
	ctx, repo, _ := setupTestRepository(t)
	oslo, _ := time.LoadLocation("Europe/Oslo")
	start := time.Date(2025, 1, 6, 8, 0, 0, 0, oslo)

	created, err := repo.CreateEntry(ctx, Entry{
		UserId:       1,
		Target:       Project(1),
		StartTime:    start,
		EndTime:      start.Add(8*time.Hour + 30*time.Minute),
		BreakMinutes: 30,
		Note:         "foundation",
	})
	require.NoError(t, err)
	require.NotZero(t, created.Id)
	assert.Equal(t, 8.0, created.HoursWorked)

	got, err := repo.GetEntry(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, Project(1), got.Target)
	assert.True(t, got.StartTime.Equal(start))
	assert.Equal(t, time.UTC, got.StartTime.Location())
	assert.Equal(t, 30, got.BreakMinutes)
	assert.Equal(t, "foundation", got.Note)
	assert.Equal(t, 8.0, got.HoursWorked)

	_, err = repo.GetEntry(ctx, 9999)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestRepositoryImpl_ListEntries(t *testing.T) {
	ctx, repo, _ := setupTestRepository(t)
	base := time.Date(2025, 2, 3, 8, 0, 0, 0, time.UTC)
	seed := []Entry{
		{UserId: 1, Target: Project(1), StartTime: base, EndTime: base.Add(2 * time.Hour)},
		{UserId: 1, Target: Project(2), StartTime: base.AddDate(0, 0, 1), EndTime: base.AddDate(0, 0, 1).Add(3 * time.Hour)},
		{UserId: 2, Target: Absence(1), StartTime: base.AddDate(0, 0, 2), EndTime: base.AddDate(0, 0, 2).Add(7 * time.Hour)},
		{UserId: 2, Target: Project(1), StartTime: base.AddDate(0, 1, 0), EndTime: base.AddDate(0, 1, 0).Add(time.Hour)},
	}
	for _, e := range seed {
		_, err := repo.CreateEntry(ctx, e)
		require.NoError(t, err)
	}

	tests := []struct {
		name      string
		filter    Filter
		wantHours []float64
	}{
		{"no filter newest first", Filter{}, []float64{1, 7, 3, 2}},
		{"by user", Filter{UserId: 1}, []float64{3, 2}},
		{"by project", Filter{ProjectId: 1}, []float64{1, 2}},
		{"by absence", Filter{AbsenceId: 1}, []float64{7}},
		{"from inclusive to exclusive", Filter{From: base.AddDate(0, 0, 1), To: base.AddDate(0, 0, 2)}, []float64{3}},
		{"combined", Filter{UserId: 2, ProjectId: 1}, []float64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := repo.ListEntries(ctx, tt.filter)

			require.NoError(t, err)
			got := make([]float64, 0, len(entries))
			for _, e := range entries {
				got = append(got, e.HoursWorked)
			}
			assert.Equal(t, tt.wantHours, got)
		})
	}
}

func TestRepositoryImpl_MalformedTargetIsTolerated(t *testing.T) {
	ctx, repo, db := setupTestRepository(t)
	_, err := db.Exec(ctx, `INSERT INTO hours (user_id, project_id, absence_id, start_time, end_time)
		VALUES (1, 1, 2, '2025-01-06T08:00:00Z', '2025-01-06T10:00:00Z'),
		       (1, NULL, NULL, '2025-01-07T08:00:00Z', '2025-01-07T09:00:00Z')`)
	require.NoError(t, err)

	entries, err := repo.ListEntries(ctx, Filter{UserId: 1})

	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.False(t, e.Target.Valid())
	}
	assert.Equal(t, 3.0, SumHours(entries))
}

func TestRepositoryImpl_UpdateEntry(t *testing.T) {
	ctx, repo, _ := setupTestRepository(t)
	start := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	created, err := repo.CreateEntry(ctx, Entry{UserId: 1, Target: Project(1), StartTime: start, EndTime: start.Add(4 * time.Hour)})
	require.NoError(t, err)

	created.Target = Absence(2)
	created.EndTime = start.Add(6 * time.Hour)
	created.UserId = 2
	updated, err := repo.UpdateEntry(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, 6.0, updated.HoursWorked)

	got, err := repo.GetEntry(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, Absence(2), got.Target)
	assert.Equal(t, 1, got.UserId, "owner is not updated")

	_, err = repo.UpdateEntry(ctx, Entry{Id: 9999, Target: Project(1), StartTime: start, EndTime: start})
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestRepositoryImpl_DeleteEntry(t *testing.T) {
	ctx, repo, _ := setupTestRepository(t)
	start := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	created, err := repo.CreateEntry(ctx, Entry{UserId: 1, Target: Project(1), StartTime: start, EndTime: start.Add(time.Hour)})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteEntry(ctx, created.Id))
	assert.ErrorIs(t, repo.DeleteEntry(ctx, created.Id), ErrEntryNotFound)
}

func TestRepositoryImpl_WithTransactionRollsBack(t *testing.T) {
	ctx, repo, _ := setupTestRepository(t)
	start := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

	err := repo.WithTransaction(ctx, func(tx Repository) error {
		_, err := tx.CreateEntry(ctx, Entry{UserId: 1, Target: Project(1), StartTime: start, EndTime: start.Add(time.Hour)})
		require.NoError(t, err)
		return ErrForbidden
	})

	assert.ErrorIs(t, err, ErrForbidden)
	entries, err := repo.ListEntries(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
