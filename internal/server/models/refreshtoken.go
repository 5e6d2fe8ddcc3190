package models

import "time"

// RefreshToken is a server-stored, rotated credential for minting new access
// tokens without re-authentication.
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
