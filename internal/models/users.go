// internal/models/users.go
package models

import (
	"strings"
	"time"

	dbgen "github.com/codr1/plantfloor/internal/db/generated"
)

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func UserFromDB(row dbgen.User) User {
	return User{
		ID:        row.ID,
		Email:     row.Email,
		Name:      row.Name,
		Role:      row.Role,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func UsersFromDB(rows []dbgen.User) []User {
	users := make([]User, 0, len(rows))
	for _, row := range rows {
		users = append(users, UserFromDB(row))
	}
	return users
}

// IsValidRole reports whether role is one of the known staff roles.
func IsValidRole(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleAdmin, RoleEditor:
		return true
	default:
		return false
	}
}

// NormalizeEmail lowercases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
