package domain

// Role is a totally ordered access level: user < moderator < admin < superadmin.
type Role string

const (
	RoleUser       Role = "user"
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

var roleRank = map[Role]int{
	RoleUser:       0,
	RoleModerator:  1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// ParseRole maps a stored role name to a Role, defaulting to RoleUser for
// anything unknown so a bad row can never grant elevated access.
func ParseRole(s string) Role {
	r := Role(s)
	if _, ok := roleRank[r]; ok {
		return r
	}
	return RoleUser
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants everything required grants. Unknown roles
// rank below user.
func (r Role) AtLeast(required Role) bool {
	return roleRank[r] >= roleRank[required]
}

// Named permissions map to the minimum role that holds them. The CRUD
// handlers consume these through SessionGate.RequirePermission.
var permissionRoles = map[string]Role{
	"projects:write":  RoleModerator,
	"services:write":  RoleModerator,
	"inquiries:read":  RoleModerator,
	"activity:read":   RoleAdmin,
	"users:manage":    RoleAdmin,
	"site:administer": RoleSuperAdmin,
}

// RoleForPermission returns the minimum role holding perm. Unknown
// permissions require superadmin; failing closed beats a typo granting
// access to everyone.
func RoleForPermission(perm string) Role {
	if r, ok := permissionRoles[perm]; ok {
		return r
	}
	return RoleSuperAdmin
}
