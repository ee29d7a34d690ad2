package domain

import (
	"context"
	"time"
)

// TimeFilter narrows event listings by start/end time relative to now.
type TimeFilter string

const (
	TimeFilterAll      TimeFilter = "all"
	TimeFilterUpcoming TimeFilter = "upcoming"
	TimeFilterPast     TimeFilter = "past"
)

// ParseTimeFilter validates a time filter query value. Empty means all.
func ParseTimeFilter(s string) (TimeFilter, error) {
	switch TimeFilter(s) {
	case "", TimeFilterAll:
		return TimeFilterAll, nil
	case TimeFilterUpcoming:
		return TimeFilterUpcoming, nil
	case TimeFilterPast:
		return TimeFilterPast, nil
	default:
		return "", ErrInvalidInput
	}
}

// Event represents a hostable gathering.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	HostID      string    `json:"host_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewEvent returns a new Event. ID is set by the repository on create.
func NewEvent(title string, description *string, startTime, endTime time.Time, hostID string, now time.Time) *Event {
	return &Event{
		Title:       title,
		Description: description,
		StartTime:   startTime,
		EndTime:     endTime,
		HostID:      hostID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// EventSummary is the event projection embedded in invite responses.
// swagger:model EventSummary
type EventSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	HostID      string    `json:"host_id"`
	HostName    string    `json:"host_name"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// EventDetail is the full event view: summary plus participant display names
// (host excluded).
// swagger:model EventDetail
type EventDetail struct {
	EventSummary
	Participants []string `json:"participants"`
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	// Create inserts the event and its host participant row in one
	// transaction.
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByHostID(ctx context.Context, hostID string, filter TimeFilter) ([]*Event, error)
	ListByParticipantID(ctx context.Context, userID string, filter TimeFilter) ([]*Event, error)
	// Update applies the non-nil fields and returns the updated event.
	Update(ctx context.Context, id string, title, description *string, startTime, endTime *time.Time) (*Event, error)
	// Delete removes the event; participants and invites go with it via
	// foreign keys.
	Delete(ctx context.Context, id string) error
}

// EventService defines event and participant linkage operations.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, eventID, actorID string) (*EventDetail, error)
	ListEvents(ctx context.Context, actorID string, role string, filter TimeFilter) ([]*EventSummary, error)
	UpdateEvent(ctx context.Context, eventID, actorID string, title, description *string, startTime, endTime *time.Time) (*Event, error)
	DeleteEvent(ctx context.Context, eventID, actorID string) error
}
