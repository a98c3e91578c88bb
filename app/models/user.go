package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is keyed by email. PreviousRole is only set while Role is admin.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"           json:"_id"`
	Email        string             `bson:"email"                   json:"email"`
	Name         string             `bson:"name,omitempty"          json:"name,omitempty"`
	Photo        string             `bson:"photo,omitempty"         json:"photo,omitempty"`
	Phone        string             `bson:"phone,omitempty"         json:"phone,omitempty"`
	Role         Role               `bson:"role"                    json:"role"`
	PreviousRole Role               `bson:"previous_role,omitempty" json:"previous_role,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"              json:"created_at"`
	LastLogIn    time.Time          `bson:"last_log_in"             json:"last_log_in"`
}

// UserSummary is the projection returned by user search.
type UserSummary struct {
	Email     string    `bson:"email"      json:"email"`
	Role      Role      `bson:"role"       json:"role"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Summary projects u for search results.
func (u User) Summary() UserSummary {
	return UserSummary{Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

// RoleChange computes the stored role after a request to move u to requested.
// Promotion to admin stashes the current role; any other request restores the
// stashed role, or user when nothing was stashed.
func (u User) RoleChange(requested Role) (role Role, previous Role) {
	if requested == RoleAdmin {
		if u.Role == RoleAdmin {
			return RoleAdmin, u.PreviousRole
		}
		return RoleAdmin, u.Role
	}
	if u.PreviousRole != "" && u.PreviousRole != RoleAdmin {
		return u.PreviousRole, ""
	}
	return RoleUser, ""
}
