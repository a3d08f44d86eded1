package domain

import "time"

// Identity is the authenticated principal carried inside a signed token.
type Identity struct {
	ID        string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the identity's expiry has elapsed at now.
func (i Identity) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// CanActOn reports whether the identity may touch the record owned by ownerID.
func (i Identity) CanActOn(ownerID string) bool {
	return i.Role == RoleAdmin || i.ID == ownerID
}
