package entity

import (
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleReviewer UserRole = "reviewer"
)

type User struct {
	ID           *models.RecordID `json:"id,omitempty"`
	Email        string           `json:"email"`
	FullName     string           `json:"full_name"`
	PasswordHash string           `json:"password_hash"`
	Role         UserRole         `json:"role"`
	IsActive     bool             `json:"is_active"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    *time.Time       `json:"updated_at,omitempty"`
}

// RecordKey returns the key part of the user's record id as a string.
func (u *User) RecordKey() string {
	if u.ID == nil {
		return ""
	}
	return fmt.Sprint(u.ID.ID)
}
