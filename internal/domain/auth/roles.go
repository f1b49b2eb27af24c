package auth

import "strings"

const (
	RoleEmployee         = "employee"
	RoleManager          = "manager"
	RoleFinance          = "finance"
	RoleAdmin            = "admin"
	RoleSeniorManagement = "senior_management"
)

var Roles = []string{RoleEmployee, RoleManager, RoleFinance, RoleAdmin, RoleSeniorManagement}

func ValidRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, candidate := range Roles {
		if role == candidate {
			return true
		}
	}
	return false
}

// UserContext is the acting principal resolved from the session token.
type UserContext struct {
	UserID     string
	EmployeeID string
	RoleName   string
}

// IsAdmin reports whether the principal holds the HR/admin role that owns GOSI reporting.
func (u UserContext) IsAdmin() bool {
	return u.RoleName == RoleAdmin
}
