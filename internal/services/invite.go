package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

// tokenAttempts bounds the retry loop on invite token collisions. A v4 UUID
// collision is vanishingly unlikely; exhausting the retries is an internal
// error, never ambiguous state surfaced to the caller.
const tokenAttempts = 3

type inviteService struct {
	inviteRepo     domain.InviteRepository
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	userService    domain.UserService
	emailService   domain.EmailService
	frontendHost   string
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewInviteService creates the invite ledger service.
func NewInviteService(
	inviteRepo domain.InviteRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	userService domain.UserService,
	emailService domain.EmailService,
	frontendHost string,
	logger *slog.Logger,
	timeout time.Duration,
) domain.InviteService {
	return &inviteService{
		inviteRepo:     inviteRepo,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		userService:    userService,
		emailService:   emailService,
		frontendHost:   strings.TrimSuffix(frontendHost, "/"),
		logger:         logger,
		contextTimeout: timeout,
	}
}

// CreateInvite issues (or re-issues) the invite for (event, email).
// Dedup rules: an accepted invite is a conflict; a pending invite is
// returned unchanged with no second email; a declined invite is reset to
// pending under a fresh token and the email is resent.
func (s *inviteService) CreateInvite(ctx context.Context, eventID, email, role, actorID string) (*domain.InviteDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return nil, domain.ErrInvalidInput
	}
	if !domain.ValidEventRole(role) {
		return nil, domain.ErrInvalidInput
	}

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

	existing, err := s.inviteRepo.FindByEventAndEmail(ctx, eventID, email)
	if err == nil {
		return s.handleExisting(ctx, existing, event)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find invite: %w", err)
	}

	// Pre-bind the invitee identity when the email already has an account;
	// otherwise resolution waits for response time.
	var userID *string
	if invitee, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		userID = &invitee.ID
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	var invite *domain.Invite
	for attempt := 0; attempt < tokenAttempts; attempt++ {
		candidate := domain.NewInvite(eventID, email, role, uuid.NewString(), userID, time.Now())
		err = s.inviteRepo.Create(ctx, candidate)
		if err == nil {
			invite = candidate
			break
		}
		if errors.Is(err, domain.ErrDuplicateToken) {
			continue
		}
		if errors.Is(err, domain.ErrDuplicateInvite) {
			// Concurrent duplicate request won the insert; fall back to the
			// dedup rules against the committed row.
			existing, ferr := s.inviteRepo.FindByEventAndEmail(ctx, eventID, email)
			if ferr != nil {
				return nil, fmt.Errorf("find invite after duplicate insert: %w", ferr)
			}
			return s.handleExisting(ctx, existing, event)
		}
		return nil, fmt.Errorf("create invite: %w", err)
	}
	if invite == nil {
		return nil, fmt.Errorf("create invite: token collision retries exhausted: %w", err)
	}

	s.sendInviteEmail(ctx, invite, event)
	return s.toDetail(ctx, invite, event)
}

// handleExisting applies the dedup policy to a committed invite row.
func (s *inviteService) handleExisting(ctx context.Context, existing *domain.Invite, event *domain.Event) (*domain.InviteDetail, error) {
	switch existing.Status {
	case domain.InviteAccepted:
		return nil, domain.ErrAlreadyAccepted
	case domain.InvitePending:
		// Idempotent: same row, same token, no second email.
		return s.toDetail(ctx, existing, event)
	default:
		return s.reissue(ctx, existing, event)
	}
}

// reissue resets a declined invite to pending under a fresh token.
func (s *inviteService) reissue(ctx context.Context, existing *domain.Invite, event *domain.Event) (*domain.InviteDetail, error) {
	var invite *domain.Invite
	var err error
	for attempt := 0; attempt < tokenAttempts; attempt++ {
		invite, err = s.inviteRepo.Reissue(ctx, existing.ID, uuid.NewString(), time.Now())
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrDuplicateToken) {
			continue
		}
		if errors.Is(err, domain.ErrNotFound) {
			// A concurrent request reset or removed it first; report the
			// row as it stands now.
			current, ferr := s.inviteRepo.GetByID(ctx, existing.ID)
			if ferr != nil {
				return nil, domain.ErrNotFound
			}
			return s.toDetail(ctx, current, event)
		}
		return nil, fmt.Errorf("reissue invite: %w", err)
	}
	if invite == nil {
		return nil, fmt.Errorf("reissue invite: token collision retries exhausted: %w", err)
	}

	s.sendInviteEmail(ctx, invite, event)
	return s.toDetail(ctx, invite, event)
}

// RespondToInvite resolves a bearer token to its pending invite and applies
// the decision. Acceptance binds an identity — the pre-bound user if any,
// otherwise a placeholder synthesized for the invite's email — and creates
// the participant row atomically with the status transition.
func (s *inviteService) RespondToInvite(ctx context.Context, token string, accept bool) (*domain.InviteDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	invite, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invite by token: %w", err)
	}
	if invite.Status.Terminal() {
		return nil, domain.ErrAlreadyResponded
	}

	now := time.Now()
	if accept {
		var userID string
		if invite.UserID != nil {
			userID = *invite.UserID
		} else {
			responder, err := s.userService.FindOrCreatePlaceholder(ctx, invite.Email)
			if err != nil {
				return nil, fmt.Errorf("resolve responder: %w", err)
			}
			userID = responder.ID
		}
		if err := s.inviteRepo.Accept(ctx, invite.ID, userID, now); err != nil {
			if errors.Is(err, domain.ErrAlreadyResponded) {
				return nil, domain.ErrAlreadyResponded
			}
			return nil, fmt.Errorf("accept invite: %w", err)
		}
		invite.Status = domain.InviteAccepted
		invite.UserID = &userID
	} else {
		if err := s.inviteRepo.Decline(ctx, invite.ID, invite.UserID, now); err != nil {
			if errors.Is(err, domain.ErrAlreadyResponded) {
				return nil, domain.ErrAlreadyResponded
			}
			return nil, fmt.Errorf("decline invite: %w", err)
		}
		invite.Status = domain.InviteDeclined
	}
	invite.UpdatedAt = now

	return s.toDetail(ctx, invite, nil)
}

// ListInvites applies the asymmetric visibility rule: callers list their own
// invites freely; an event's invites are visible in full to the host, and
// narrowed to accepted ones for accepted participants; everyone else is
// refused.
func (s *inviteService) ListInvites(ctx context.Context, filter domain.InviteFilter, actorID string, params domain.PaginationParams) ([]*domain.InviteDetail, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if filter.EventID != "" {
		event, err := s.eventRepo.GetByID(ctx, filter.EventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, 0, domain.ErrNotFound
			}
			return nil, 0, fmt.Errorf("get event: %w", err)
		}
		if event.HostID != actorID {
			accepted, err := s.inviteRepo.HasAccepted(ctx, filter.EventID, actorID)
			if err != nil {
				return nil, 0, fmt.Errorf("check accepted invite: %w", err)
			}
			if !accepted {
				return nil, 0, domain.ErrForbidden
			}
			// Co-participant visibility stops at accepted invites.
			filter.Status = domain.InviteAccepted
		}
	} else {
		if filter.UserID == "" {
			filter.UserID = actorID
		}
		if filter.UserID != actorID {
			return nil, 0, domain.ErrForbidden
		}
	}

	invites, total, err := s.inviteRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list invites: %w", err)
	}

	// Resolve event summaries one by one with a small cache; invite lists
	// are short enough that the N+1 shape is fine.
	eventsByID := make(map[string]*domain.Event)
	details := make([]*domain.InviteDetail, 0, len(invites))
	for _, inv := range invites {
		event, ok := eventsByID[inv.EventID]
		if !ok {
			event, err = s.eventRepo.GetByID(ctx, inv.EventID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return nil, 0, fmt.Errorf("get event for invite: %w", err)
			}
			eventsByID[inv.EventID] = event
		}
		detail, err := s.toDetail(ctx, inv, event)
		if err != nil {
			return nil, 0, err
		}
		details = append(details, detail)
	}
	return details, total, nil
}

// DeleteInvite removes the invite record. Host only; an already-created
// participant row stays — deleting the invite is record cleanup, not an
// un-invite.
func (s *inviteService) DeleteInvite(ctx context.Context, inviteID, actorID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	invite, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get invite: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, invite.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.HostID != actorID {
		return domain.ErrForbidden
	}
	if err := s.inviteRepo.Delete(ctx, inviteID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete invite: %w", err)
	}
	return nil
}

// sendInviteEmail is strictly best-effort: the invite row is the source of
// truth, so a send failure is logged and never propagated.
func (s *inviteService) sendInviteEmail(ctx context.Context, invite *domain.Invite, event *domain.Event) {
	data := &domain.EventInviteEmailData{
		Email:        invite.Email,
		HostName:     s.resolveName(ctx, event.HostID),
		EventTitle:   event.Title,
		AcceptLink:   s.frontendHost + "/invites?token=" + invite.Token,
		RegisterLink: s.frontendHost + "/signup",
	}
	if err := s.emailService.SendEventInvite(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "invite email failed",
			"invite_id", invite.ID, "email", invite.Email, "err", err)
	}
}

func (s *inviteService) toDetail(ctx context.Context, invite *domain.Invite, event *domain.Event) (*domain.InviteDetail, error) {
	if event == nil {
		var err error
		event, err = s.eventRepo.GetByID(ctx, invite.EventID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("get event for invite: %w", err)
			}
			event = nil
		}
	}

	detail := &domain.InviteDetail{Invite: invite}
	if event != nil {
		detail.Event = &domain.EventSummary{
			ID:          event.ID,
			Title:       event.Title,
			Description: event.Description,
			HostID:      event.HostID,
			HostName:    s.resolveName(ctx, event.HostID),
			StartTime:   event.StartTime,
			EndTime:     event.EndTime,
		}
	}
	if invite.UserID != nil {
		detail.UserName = s.resolveName(ctx, *invite.UserID)
	}
	return detail, nil
}

func (s *inviteService) resolveName(ctx context.Context, userID string) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	return user.DisplayName()
}
