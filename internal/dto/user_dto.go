package dto

import "github.com/noah-isme/revu-go-api/internal/models"

// MeResponse is the authenticated user's own profile.
type MeResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsAdmin  bool   `json:"is_admin"`
	IsActive bool   `json:"is_active"`
}

// NewMeResponse maps a user model to its profile wire form.
func NewMeResponse(u models.User) MeResponse {
	return MeResponse{
		ID:       u.ID.String(),
		Email:    u.Email,
		FullName: u.FullName,
		IsAdmin:  u.IsAdmin,
		IsActive: u.IsActive,
	}
}
