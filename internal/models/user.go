package models

import "time"

// UserRole represents the dashboard roles.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
	RoleParent  UserRole = "parent"
)

// User represents the authenticated dashboard actor as returned by the API.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Role           UserRole  `json:"role"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Address        string    `json:"address,omitempty"`
	Status         string    `json:"status,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

// FullName joins the name fields for display.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Merge overlays server-provided profile fields onto the persisted record.
// Server fields win; fields the server omits keep the persisted values so
// name and contact data are never lost by a sparse profile response.
func (u User) Merge(incoming User) User {
	merged := u
	if incoming.ID != "" {
		merged.ID = incoming.ID
	}
	if incoming.Email != "" {
		merged.Email = incoming.Email
	}
	if incoming.FirstName != "" {
		merged.FirstName = incoming.FirstName
	}
	if incoming.LastName != "" {
		merged.LastName = incoming.LastName
	}
	if incoming.Role != "" {
		merged.Role = incoming.Role
	}
	if incoming.ProfilePicture != "" {
		merged.ProfilePicture = incoming.ProfilePicture
	}
	if incoming.Phone != "" {
		merged.Phone = incoming.Phone
	}
	if incoming.Address != "" {
		merged.Address = incoming.Address
	}
	if incoming.Status != "" {
		merged.Status = incoming.Status
	}
	if !incoming.CreatedAt.IsZero() {
		merged.CreatedAt = incoming.CreatedAt
	}
	if !incoming.UpdatedAt.IsZero() {
		merged.UpdatedAt = incoming.UpdatedAt
	}
	return merged
}
