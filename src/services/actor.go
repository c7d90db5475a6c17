package services

import "github.com/BookClub/BookClub-Backend/src/models"

// Actor is the caller as vouched for by the identity provider
type Actor struct {
	UserID int
	Role   models.Role
	ClubID *int
}

func (a Actor) IsSuperAdmin() bool {
	return a.Role == models.RoleSuperAdmin
}

// AdminOf reports whether the actor administers the given club
func (a Actor) AdminOf(clubID *int) bool {
	if a.IsSuperAdmin() {
		return true
	}
	return a.Role == models.RoleClubAdmin && clubID != nil && a.ClubID != nil && *clubID == *a.ClubID
}

func (a Actor) Is(userID *int) bool {
	return userID != nil && *userID == a.UserID
}
