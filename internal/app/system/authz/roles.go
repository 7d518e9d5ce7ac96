// internal/app/system/authz/roles.go
package authz

// Role names used throughout MemberHub. The auth service owns the role
// field on users; these constants only exist so handlers and policies
// compare against one spelling.
const (
	RoleMember     = "member"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// ValidRole reports whether s is a known role.
func ValidRole(s string) bool {
	switch s {
	case RoleMember, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}
