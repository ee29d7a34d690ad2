package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatherly/internal/domain"
)

type eventService struct {
	eventRepo       domain.EventRepository
	participantRepo domain.ParticipantRepository
	userRepo        domain.UserRepository
	contextTimeout  time.Duration
}

// NewEventService creates an EventService with the given repositories.
func NewEventService(eventRepo domain.EventRepository, participantRepo domain.ParticipantRepository, userRepo domain.UserRepository, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		contextTimeout:  timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.HostID == "" {
		return fmt.Errorf("event host is required")
	}
	if !event.EndTime.After(event.StartTime) {
		return domain.ErrInvalidInput
	}

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	// The repository inserts the event and the host participant row in one
	// transaction.
	return s.eventRepo.Create(ctx, event)
}

// GetEvent returns the full event view. Visible to the host and to users
// holding a participant row; everyone else gets ErrForbidden.
func (s *eventService) GetEvent(ctx context.Context, eventID, actorID string) (*domain.EventDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	if event.HostID != actorID {
		if _, err := s.participantRepo.Get(ctx, eventID, actorID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrForbidden
			}
			return nil, fmt.Errorf("get participant: %w", err)
		}
	}

	summary, err := s.summarize(ctx, event)
	if err != nil {
		return nil, err
	}

	participants, err := s.participantRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	names := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.UserID == event.HostID {
			continue
		}
		names = append(names, p.DisplayName())
	}

	return &domain.EventDetail{EventSummary: *summary, Participants: names}, nil
}

func (s *eventService) ListEvents(ctx context.Context, actorID string, role string, filter domain.TimeFilter) ([]*domain.EventSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var events []*domain.Event
	var err error
	switch role {
	case domain.EventRoleHost:
		events, err = s.eventRepo.ListByHostID(ctx, actorID, filter)
	case "", domain.EventRoleParticipant:
		events, err = s.eventRepo.ListByParticipantID(ctx, actorID, filter)
	default:
		return nil, domain.ErrInvalidInput
	}
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	hostNames := make(map[string]string)
	summaries := make([]*domain.EventSummary, 0, len(events))
	for _, e := range events {
		name, ok := hostNames[e.HostID]
		if !ok {
			name = s.hostName(ctx, e.HostID)
			hostNames[e.HostID] = name
		}
		summaries = append(summaries, &domain.EventSummary{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			HostID:      e.HostID,
			HostName:    name,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
		})
	}
	return summaries, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, actorID string, title, description *string, startTime, endTime *time.Time) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.HostID != actorID {
		return nil, domain.ErrForbidden
	}

	newStart := event.StartTime
	if startTime != nil {
		newStart = *startTime
	}
	newEnd := event.EndTime
	if endTime != nil {
		newEnd = *endTime
	}
	if !newEnd.After(newStart) {
		return nil, domain.ErrInvalidInput
	}

	updated, err := s.eventRepo.Update(ctx, eventID, title, description, startTime, endTime)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, actorID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.HostID != actorID {
		return domain.ErrForbidden
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *eventService) summarize(ctx context.Context, event *domain.Event) (*domain.EventSummary, error) {
	return &domain.EventSummary{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		HostID:      event.HostID,
		HostName:    s.hostName(ctx, event.HostID),
		StartTime:   event.StartTime,
		EndTime:     event.EndTime,
	}, nil
}

// hostName resolves the host's display name, falling back to empty if the
// user row is gone.
func (s *eventService) hostName(ctx context.Context, hostID string) string {
	host, err := s.userRepo.GetByID(ctx, hostID)
	if err != nil {
		return ""
	}
	return host.DisplayName()
}
