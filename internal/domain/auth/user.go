package auth

import "aper/internal/domain/evaluation"

// UserContext is the identity attached to an authenticated request. The
// role is whatever the user asserted when the token was issued.
type UserContext struct {
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  evaluation.Role `json:"role"`
}

func (u UserContext) Actor() evaluation.Actor {
	return evaluation.Actor{Name: u.Name, Email: u.Email, Role: u.Role}
}
