package domain

import (
	"strings"
	"time"
)

// ProfileRecord is the persisted per-user profile document.
type ProfileRecord struct {
	OwnerID      string    `json:"ownerId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phoneNumber"`
	Address      string    `json:"address"`
	Role         Role      `json:"role"`
	Details      Details   `json:"details"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share the nested details.
func (p *ProfileRecord) Clone() *ProfileRecord {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Details = p.Details.Clone()
	return &cp
}

// Touch advances UpdatedAt to now, or one microsecond past the previous value when the
// clock has not moved, so every write is observable by a conditional read.
func (p *ProfileRecord) Touch(now time.Time) {
	next := now.UTC().Truncate(time.Microsecond)
	if !next.After(p.UpdatedAt) {
		next = p.UpdatedAt.Add(time.Microsecond)
	}
	p.UpdatedAt = next
}

// ModifiedSince reports whether the record changed after the given instant.
func (p *ProfileRecord) ModifiedSince(since time.Time) bool {
	return p.UpdatedAt.After(since)
}

// ProfilePatch names the top-level fields to overwrite. Nil fields are left untouched.
type ProfilePatch struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
	Address     *string
}

// Empty reports whether the patch names no field.
func (p ProfilePatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
		p.PhoneNumber == nil && p.Address == nil
}

// Apply writes the named fields onto record.
func (p ProfilePatch) Apply(record *ProfileRecord) {
	if p.FirstName != nil {
		record.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		record.LastName = *p.LastName
	}
	if p.Email != nil {
		record.Email = NormalizeEmail(*p.Email)
	}
	if p.PhoneNumber != nil {
		record.PhoneNumber = *p.PhoneNumber
	}
	if p.Address != nil {
		record.Address = *p.Address
	}
}

// NormalizeEmail lowercases and trims an address for lookups and uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
