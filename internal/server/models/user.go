// Package models defines server-side data models persisted in the database.
package models

import "time"

// Role values stored in users.role.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is an account identity. Accounts are deactivated (soft), never
// hard-deleted.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}
