package models

import "time"

// Album groups photos belonging to a single owner.
//
// ShareToken is minted once, the first time sharing is enabled, and is stable
// afterwards: disabling sharing clears IsShared but keeps the token so that
// re-enabling restores the same public link. Invariant: IsShared implies
// ShareToken != nil.
type Album struct {
	ID          int64
	UserID      int64
	Title       string
	Description *string
	ShareToken  *string
	IsShared    bool
	CreatedAt   time.Time
}
