// Package auth implements the service's authentication and authorization building
// blocks: the role precedence order, the static role-to-permission table, Discord
// guild role resolution behind a bounded TTL cache, cookie sessions and the OAuth
// login flow.
package auth

// Role is the caller's access level, derived from their Discord guild roles. The
// precedence order is public < reader < writer < moderator < admin; the highest
// matching guild role wins.
type Role int

const (
	RolePublic Role = iota
	RoleReader
	RoleWriter
	RoleModerator
	RoleAdmin
)

var roleNames = map[Role]string{
	RolePublic:    "public",
	RoleReader:    "reader",
	RoleWriter:    "writer",
	RoleModerator: "moderator",
	RoleAdmin:     "admin",
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "public"
}

// AtLeast reports whether r sits at or above o in the precedence order.
func (r Role) AtLeast(o Role) bool {
	return r >= o
}

// Permission names a single action a role may perform.
type Permission string

const (
	PermViewMap         Permission = "view_map"
	PermCreatePin       Permission = "create_pin"
	PermEditOwnPin      Permission = "edit_own_pin"
	PermModerateContent Permission = "moderate_content"
	PermViewDashboard   Permission = "view_dashboard"
	PermEditMapConfig   Permission = "edit_map_config"
	PermManageRoles     Permission = "manage_roles"
	PermSystemConfig    Permission = "system_config"
)

// rolePermissions is the static role-to-permission table. Each role's set is a
// superset of the set below it in the precedence order.
var rolePermissions = map[Role][]Permission{
	RolePublic: {
		PermViewMap,
	},
	RoleReader: {
		PermViewMap,
	},
	RoleWriter: {
		PermViewMap,
		PermCreatePin,
		PermEditOwnPin,
	},
	RoleModerator: {
		PermViewMap,
		PermCreatePin,
		PermEditOwnPin,
		PermModerateContent,
		PermViewDashboard,
		PermEditMapConfig,
	},
	RoleAdmin: {
		PermViewMap,
		PermCreatePin,
		PermEditOwnPin,
		PermModerateContent,
		PermViewDashboard,
		PermEditMapConfig,
		PermManageRoles,
		PermSystemConfig,
	},
}

// Permissions returns the actions the given role may perform.
func Permissions(r Role) []Permission {
	return rolePermissions[r]
}

// HasPermission is a pure set-membership test against the static table.
func HasPermission(r Role, p Permission) bool {
	for _, have := range rolePermissions[r] {
		if have == p {
			return true
		}
	}
	return false
}
