package test_utils

import (
	"context"

	"github.com/totaltiming/totaltiming/pkg/user"
)

var TestUser = user.User{
	Id:   1,
	Uid:  "5f0e1c1e-4a8e-4b4f-9d0c-9e8f6f1d2a11",
	Name: "Test User",
	Role: user.RoleEmployee,
	Settings: user.Settings{
		Timezone: "Europe/Oslo",
	},
}

// CtxAs returns a context carrying TestUser with the given id and role.
func CtxAs(id int, role user.Role) context.Context {
	u := TestUser
	u.Id = id
	u.Role = role
	return user.WithUser(context.Background(), u)
}
