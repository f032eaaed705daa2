package user_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/totaltiming/totaltiming/internal/test_utils"
	"github.com/totaltiming/totaltiming/pkg/user"
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

func setupTestRepository(t *testing.T) (context.Context, user.Repo) {
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		err := pgContainer.Restore(ctx)
		require.NoError(t, err)
	})
	return ctx, user.NewUserRepo(db)
}

func TestUserRepoImpl(t *testing.T) {
	ctx, repo := setupTestRepository(t)

	id, err := repo.CreateUser(ctx, test_utils.TestUser)
	require.NoError(t, err)
	other := test_utils.TestUser
	other.Uid = "0b7d2f55-3c1e-4d0e-8f3a-7e2a5b9c1d00"
	other.Name = "Anna Accountant"
	other.Role = user.RoleAccountant
	other.Settings.Timezone = "UTC"
	_, err = repo.CreateUser(ctx, other)
	require.NoError(t, err)

	got, err := repo.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, test_utils.TestUser.Uid, got.Uid)
	assert.Equal(t, user.RoleEmployee, got.Role)
	assert.Equal(t, "Europe/Oslo", got.Settings.Timezone)

	byUid, err := repo.GetUserByUid(ctx, other.Uid)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAccountant, byUid.Role)

	all, err := repo.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Anna Accountant", all[0].Name)
	assert.Equal(t, "Test User", all[1].Name)

	_, err = repo.GetUser(ctx, 9999)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
	_, err = repo.GetUserByUid(ctx, "missing")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}
