package auth

import (
	"github.com/kimconnect/internship-service/internal/models"
)

// Principal is the authenticated caller passed explicitly into every service
// call. It carries identity and role only; profile data is always re-read.
type Principal struct {
	UserID uint            `json:"user_id"`
	Role   models.UserRole `json:"role"`
}

func (p Principal) IsAdmin() bool    { return p.Role == models.RoleAdmin }
func (p Principal) IsEmployer() bool { return p.Role == models.RoleEmployer }
func (p Principal) IsStudent() bool  { return p.Role == models.RoleStudent }

// HasRole reports whether the principal holds one of roles.
func (p Principal) HasRole(roles ...models.UserRole) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
