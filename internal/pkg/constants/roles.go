package constants

const (
	Owner = "owner"
	Admin = "admin"
)

// ValidRoles is the set of roles a session may carry.
var ValidRoles = []string{Owner, Admin}

func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
