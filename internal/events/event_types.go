package events

import (
	"time"

	"github.com/jobportal/profile-sync/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProfileRegistered EventType = "profile_registered"
	EventProfileUpdated    EventType = "profile_updated"
	EventDetailsMerged     EventType = "profile_details_merged"
)

// Actor identifies who caused an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// ActorFrom builds an Actor from an identity.
func ActorFrom(identity domain.Identity) Actor {
	return Actor{ID: identity.ID, Role: identity.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	OwnerID   string    `json:"owner_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// ProfileRegisteredPayload payload.
type ProfileRegisteredPayload struct {
	Role domain.Role `json:"role"`
}

// ProfileUpdatedPayload lists the top-level fields that were written.
type ProfileUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// DetailsMergedPayload payload.
type DetailsMergedPayload struct {
	Section domain.SectionKey `json:"section"`
	Mode    string            `json:"mode"`
	Entries int               `json:"entries"`
}
