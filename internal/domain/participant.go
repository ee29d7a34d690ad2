package domain

import (
	"context"
	"time"
)

// Participant roles within an event.
const (
	EventRoleHost        = "host"
	EventRoleCohost      = "cohost"
	EventRoleParticipant = "participant"
)

// ValidEventRole reports whether role is one of the participant roles a host
// may grant through an invite.
func ValidEventRole(role string) bool {
	switch role {
	case EventRoleHost, EventRoleCohost, EventRoleParticipant:
		return true
	}
	return false
}

// Participant binds a user to an event with a role. Identity is the
// (event, user) pair.
// swagger:model Participant
type Participant struct {
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ParticipantWithUser bundles a participant row with the display fields of
// its user, for event detail views.
type ParticipantWithUser struct {
	Participant
	FirstName string
	LastName  string
	Email     string
}

// DisplayName mirrors User.DisplayName for the joined projection.
func (p *ParticipantWithUser) DisplayName() string {
	u := User{FirstName: p.FirstName, LastName: p.LastName, Email: p.Email}
	return u.DisplayName()
}

// ParticipantRepository defines storage operations for participants.
type ParticipantRepository interface {
	Get(ctx context.Context, eventID, userID string) (*Participant, error)
	ListByEventID(ctx context.Context, eventID string) ([]*ParticipantWithUser, error)
}
