package domain

// Role is the authorisation tier of a caller
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Allows reports whether a caller holding r may use a route requiring required
func (r Role) Allows(required Role) bool {
	switch required {
	case RoleAdmin:
		return r == RoleAdmin
	case RoleUser:
		return r == RoleUser || r == RoleAdmin
	default:
		return false
	}
}

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), true
	default:
		return "", false
	}
}

// Principal is an authenticated caller
type Principal struct {
	Name string
	Role Role
}
