package domain

import (
	"context"
	"time"
)

// InviteStatus is the lifecycle state of an invite. Transitions only
// pending -> accepted or pending -> declined; accepted and declined are
// terminal.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
)

// ParseInviteStatus validates a status filter value. Empty and "all" mean no
// filter.
func ParseInviteStatus(s string) (InviteStatus, error) {
	switch InviteStatus(s) {
	case "", "all":
		return "", nil
	case InvitePending, InviteAccepted, InviteDeclined:
		return InviteStatus(s), nil
	default:
		return "", ErrInvalidInput
	}
}

// Terminal reports whether the status admits no further transitions.
func (s InviteStatus) Terminal() bool {
	return s == InviteAccepted || s == InviteDeclined
}

// Invite grants one email address the ability to join one event with a given
// role. The token is the bearer capability: whoever holds it may respond.
// UserID stays nil until the invitee identity is known (pre-bound at creation
// when the email matches a user, resolved at response time, or backfilled
// when the invitee registers).
// swagger:model Invite
type Invite struct {
	ID        string       `json:"id"`
	EventID   string       `json:"event_id"`
	UserID    *string      `json:"user_id,omitempty"`
	Email     string       `json:"email"`
	Role      string       `json:"role"`
	Token     string       `json:"token"`
	Status    InviteStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewInvite returns a pending Invite. ID is set by the repository on create.
func NewInvite(eventID, email, role, token string, userID *string, now time.Time) *Invite {
	return &Invite{
		EventID:   eventID,
		UserID:    userID,
		Email:     email,
		Role:      role,
		Token:     token,
		Status:    InvitePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// InviteDetail is an invite with its resolved event summary and responder
// display name, for listing and confirmation views.
// swagger:model InviteDetail
type InviteDetail struct {
	*Invite
	Event    *EventSummary `json:"event,omitempty"`
	UserName string        `json:"user_name,omitempty"`
}

// InviteFilter narrows invite listings. Zero values mean "no constraint";
// Status empty means all statuses.
type InviteFilter struct {
	UserID  string
	EventID string
	Status  InviteStatus
}

// InviteRepository defines storage operations for invites.
type InviteRepository interface {
	Create(ctx context.Context, inv *Invite) error
	GetByID(ctx context.Context, id string) (*Invite, error)
	GetByToken(ctx context.Context, token string) (*Invite, error)
	FindByEventAndEmail(ctx context.Context, eventID, email string) (*Invite, error)
	// Reissue resets a declined invite to pending under a fresh token.
	Reissue(ctx context.Context, id, token string, now time.Time) (*Invite, error)
	// Accept marks the invite accepted, binds userID, and inserts the
	// participant row in one transaction. Returns ErrAlreadyResponded if the
	// invite is no longer pending.
	Accept(ctx context.Context, id, userID string, now time.Time) error
	// Decline marks the invite declined, binding userID when non-nil.
	// Returns ErrAlreadyResponded if the invite is no longer pending.
	Decline(ctx context.Context, id string, userID *string, now time.Time) error
	// HasAccepted reports whether userID holds an accepted invite to the
	// event.
	HasAccepted(ctx context.Context, eventID, userID string) (bool, error)
	List(ctx context.Context, filter InviteFilter, params PaginationParams) ([]*Invite, int, error)
	Delete(ctx context.Context, id string) error
}

// InviteService is the invite ledger: creation with dedup, token response
// with identity reconciliation, the visibility-scoped listing, and host
// cleanup.
type InviteService interface {
	CreateInvite(ctx context.Context, eventID, email, role, actorID string) (*InviteDetail, error)
	RespondToInvite(ctx context.Context, token string, accept bool) (*InviteDetail, error)
	ListInvites(ctx context.Context, filter InviteFilter, actorID string, params PaginationParams) ([]*InviteDetail, int, error)
	DeleteInvite(ctx context.Context, inviteID, actorID string) error
}
