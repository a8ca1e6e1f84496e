package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// each role's permission set must be a superset of the set below it in the
// precedence order
func TestRolePermissionsMonotonic(t *testing.T) {
	order := []Role{RolePublic, RoleReader, RoleWriter, RoleModerator, RoleAdmin}
	for i := 1; i < len(order); i++ {
		lower, higher := order[i-1], order[i]
		for _, p := range Permissions(lower) {
			assert.True(t, HasPermission(higher, p),
				"%s lacks %q held by %s", higher, p, lower)
		}
	}
}

func TestHasPermission(t *testing.T) {
	tcs := []struct {
		role     Role
		perm     Permission
		expected bool
	}{
		{RolePublic, PermViewMap, true},
		{RolePublic, PermCreatePin, false},
		{RoleReader, PermCreatePin, false},
		{RoleWriter, PermCreatePin, true},
		{RoleWriter, PermEditOwnPin, true},
		{RoleWriter, PermEditMapConfig, false},
		{RoleModerator, PermEditMapConfig, true},
		{RoleModerator, PermManageRoles, false},
		{RoleAdmin, PermManageRoles, true},
		{RoleAdmin, PermSystemConfig, true},
	}
	for _, c := range tcs {
		assert.Equal(t, c.expected, HasPermission(c.role, c.perm),
			"%s / %q", c.role, c.perm)
	}
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "public", RolePublic.String())
	assert.Equal(t, "admin", RoleAdmin.String())
	assert.Equal(t, "public", Role(99).String())
}

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleModerator))
	assert.True(t, RoleModerator.AtLeast(RoleModerator))
	assert.False(t, RoleWriter.AtLeast(RoleModerator))
}
