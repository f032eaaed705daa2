package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserDataInvalid = errors.New("invalid user data")
	ErrForbidden       = errors.New("operation not permitted for current user")
)

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
	Directory
}

// Directory resolves user ids to display names for reports.
type Directory interface {
	UserNames(ctx context.Context) (map[int]string, error)
}

type UserServiceImpl struct {
	repo            Repo
	defaultTimezone string
}

// NewUserService creates the user service. defaultTimezone is assigned to users created without
// a timezone; empty means UTC.
func NewUserService(repo Repo, defaultTimezone string) *UserServiceImpl {
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &UserServiceImpl{repo: repo, defaultTimezone: defaultTimezone}
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.GetUser(ctx, userId)
}

// CreateUser registers a user with a freshly generated uid. Only admins may create users.
func (u *UserServiceImpl) CreateUser(ctx context.Context, user User) (User, error) {
	current, err := CurrentUser(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if !current.IsAdmin() {
		return User{}, ErrForbidden
	}

	user.Name = strings.TrimSpace(user.Name)
	if user.Name == "" {
		return User{}, fmt.Errorf("%w: name is required", ErrUserDataInvalid)
	}
	if user.Role == "" {
		user.Role = RoleEmployee
	}
	if _, err := ParseRole(string(user.Role)); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrUserDataInvalid, err)
	}
	user.Settings.Timezone = strings.TrimSpace(user.Settings.Timezone)
	if user.Settings.Timezone == "" {
		user.Settings.Timezone = u.defaultTimezone
	}
	if _, err := time.LoadLocation(user.Settings.Timezone); err != nil {
		return User{}, fmt.Errorf("%w: unknown timezone %q", ErrUserDataInvalid, user.Settings.Timezone)
	}
	user.Uid = uuid.NewString()

	userId, err := u.repo.CreateUser(ctx, user)
	if err != nil {
		return User{}, err
	}
	user.Id = userId
	log.Infof("user %d created with role %s", user.Id, user.Role)
	return user, nil
}

func (u *UserServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.repo.GetUser(ctx, id)
}

func (u *UserServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.repo.GetUserByUid(ctx, uid)
}

// GetAllUsers returns users ordered by name.
func (u *UserServiceImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	return u.repo.GetAllUsers(ctx)
}

func (u *UserServiceImpl) UserNames(ctx context.Context) (map[int]string, error) {
	users, err := u.repo.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user directory: %w", err)
	}
	names := make(map[int]string, len(users))
	for _, user := range users {
		names[user.Id] = user.Name
	}
	return names, nil
}
