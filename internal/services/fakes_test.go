package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gatherly/internal/domain"
)

// In-memory fakes shared by the service tests in this package.

type fakeUserRepo struct {
	byID      map[string]*domain.User
	nextID    int
	createErr error
	updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*domain.User), nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if u.Email != "" {
		for _, existing := range f.byID {
			if existing.Email == u.Email {
				return domain.ErrDuplicateEmail
			}
		}
	}
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email != "" && u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) FindInactivePatient(ctx context.Context, firstName, lastName string, dob time.Time, phone string) (*domain.User, error) {
	for _, u := range f.byID {
		if !u.Registered && u.Email == "" && u.FirstName == firstName && u.LastName == lastName &&
			u.DOB != nil && u.DOB.Equal(dob) && u.Phone == phone {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeIdentityRepo mirrors the registration transaction: claim a placeholder
// in place, otherwise insert, then bind unbound invites for the email.
type fakeIdentityRepo struct {
	users   *fakeUserRepo
	invites *fakeInviteRepo
}

func (f *fakeIdentityRepo) RegisterUser(ctx context.Context, u *domain.User) error {
	existing, err := f.users.GetByEmail(ctx, u.Email)
	if err != nil && u.DOB != nil {
		existing, err = f.users.FindInactivePatient(ctx, u.FirstName, u.LastName, *u.DOB, u.Phone)
	}
	if err == nil {
		if existing.Registered {
			return domain.ErrDuplicateEmail
		}
		existing.Promote(u.Email, u.PasswordHash, u.Salt, u.Role, u.UpdatedAt)
		existing.FirstName = u.FirstName
		existing.LastName = u.LastName
		*u = *existing
	} else if err := f.users.Create(ctx, u); err != nil {
		return err
	}
	u.Registered = true
	if f.invites != nil {
		for _, inv := range f.invites.byID {
			if inv.Email == u.Email && inv.UserID == nil {
				id := u.ID
				inv.UserID = &id
			}
		}
	}
	return nil
}

type fakeParticipantRepo struct {
	rows  map[string]*domain.Participant
	users *fakeUserRepo
}

func newFakeParticipantRepo(users *fakeUserRepo) *fakeParticipantRepo {
	return &fakeParticipantRepo{rows: make(map[string]*domain.Participant), users: users}
}

func participantKey(eventID, userID string) string {
	return eventID + "|" + userID
}

func (f *fakeParticipantRepo) add(eventID, userID, role string, now time.Time) {
	key := participantKey(eventID, userID)
	if _, ok := f.rows[key]; ok {
		return
	}
	f.rows[key] = &domain.Participant{EventID: eventID, UserID: userID, Role: role, CreatedAt: now}
}

func (f *fakeParticipantRepo) Get(ctx context.Context, eventID, userID string) (*domain.Participant, error) {
	if p, ok := f.rows[participantKey(eventID, userID)]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeParticipantRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.ParticipantWithUser, error) {
	var out []*domain.ParticipantWithUser
	for _, p := range f.rows {
		if p.EventID != eventID {
			continue
		}
		pw := &domain.ParticipantWithUser{Participant: *p}
		if u, err := f.users.GetByID(ctx, p.UserID); err == nil {
			pw.FirstName = u.FirstName
			pw.LastName = u.LastName
			pw.Email = u.Email
		}
		out = append(out, pw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

type fakeEventRepo struct {
	byID         map[string]*domain.Event
	participants *fakeParticipantRepo
	nextID       int
}

func newFakeEventRepo(participants *fakeParticipantRepo) *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[string]*domain.Event), participants: participants, nextID: 1}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = e
	if f.participants != nil {
		f.participants.add(e.ID, e.HostID, domain.EventRoleHost, e.CreatedAt)
	}
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) ListByHostID(ctx context.Context, hostID string, filter domain.TimeFilter) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.byID {
		if e.HostID == hostID && matchesTimeFilter(e, filter) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func (f *fakeEventRepo) ListByParticipantID(ctx context.Context, userID string, filter domain.TimeFilter) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.byID {
		if _, err := f.participants.Get(ctx, e.ID, userID); err == nil && matchesTimeFilter(e, filter) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func matchesTimeFilter(e *domain.Event, filter domain.TimeFilter) bool {
	switch filter {
	case domain.TimeFilterUpcoming:
		return e.StartTime.After(time.Now())
	case domain.TimeFilterPast:
		return e.EndTime.Before(time.Now())
	}
	return true
}

func sortEvents(events []*domain.Event) {
	sort.Slice(events, func(i, j int) bool { return events[i].StartTime.Before(events[j].StartTime) })
}

func (f *fakeEventRepo) Update(ctx context.Context, id string, title, description *string, startTime, endTime *time.Time) (*domain.Event, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if title != nil {
		e.Title = *title
	}
	if description != nil {
		e.Description = description
	}
	if startTime != nil {
		e.StartTime = *startTime
	}
	if endTime != nil {
		e.EndTime = *endTime
	}
	return e, nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeInviteRepo struct {
	byID         map[string]*domain.Invite
	participants *fakeParticipantRepo
	nextID       int
	createErr    error
}

func newFakeInviteRepo(participants *fakeParticipantRepo) *fakeInviteRepo {
	return &fakeInviteRepo{byID: make(map[string]*domain.Invite), participants: participants, nextID: 1}
}

func (f *fakeInviteRepo) Create(ctx context.Context, inv *domain.Invite) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if existing.Token == inv.Token {
			return domain.ErrDuplicateToken
		}
		if existing.EventID == inv.EventID && existing.Email == inv.Email {
			return domain.ErrDuplicateInvite
		}
	}
	inv.ID = fmt.Sprintf("inv-%d", f.nextID)
	f.nextID++
	// Store a copy so later in-place updates (e.g. Reissue) don't mutate the
	// caller's struct, mirroring a real store returning distinct rows.
	stored := *inv
	f.byID[inv.ID] = &stored
	return nil
}

func (f *fakeInviteRepo) GetByID(ctx context.Context, id string) (*domain.Invite, error) {
	if inv, ok := f.byID[id]; ok {
		return inv, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInviteRepo) GetByToken(ctx context.Context, token string) (*domain.Invite, error) {
	for _, inv := range f.byID {
		if inv.Token == token {
			return inv, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInviteRepo) FindByEventAndEmail(ctx context.Context, eventID, email string) (*domain.Invite, error) {
	for _, inv := range f.byID {
		if inv.EventID == eventID && inv.Email == email {
			return inv, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInviteRepo) Reissue(ctx context.Context, id, token string, now time.Time) (*domain.Invite, error) {
	inv, ok := f.byID[id]
	if !ok || inv.Status != domain.InviteDeclined {
		return nil, domain.ErrNotFound
	}
	inv.Status = domain.InvitePending
	inv.Token = token
	inv.UpdatedAt = now
	return inv, nil
}

func (f *fakeInviteRepo) Accept(ctx context.Context, id, userID string, now time.Time) error {
	inv, ok := f.byID[id]
	if !ok || inv.Status != domain.InvitePending {
		return domain.ErrAlreadyResponded
	}
	inv.Status = domain.InviteAccepted
	inv.UserID = &userID
	inv.UpdatedAt = now
	f.participants.add(inv.EventID, userID, inv.Role, now)
	return nil
}

func (f *fakeInviteRepo) Decline(ctx context.Context, id string, userID *string, now time.Time) error {
	inv, ok := f.byID[id]
	if !ok || inv.Status != domain.InvitePending {
		return domain.ErrAlreadyResponded
	}
	inv.Status = domain.InviteDeclined
	if userID != nil {
		inv.UserID = userID
	}
	inv.UpdatedAt = now
	return nil
}

func (f *fakeInviteRepo) HasAccepted(ctx context.Context, eventID, userID string) (bool, error) {
	for _, inv := range f.byID {
		if inv.EventID == eventID && inv.UserID != nil && *inv.UserID == userID && inv.Status == domain.InviteAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInviteRepo) List(ctx context.Context, filter domain.InviteFilter, params domain.PaginationParams) ([]*domain.Invite, int, error) {
	var all []*domain.Invite
	for _, inv := range f.byID {
		if filter.UserID != "" && (inv.UserID == nil || *inv.UserID != filter.UserID) {
			continue
		}
		if filter.EventID != "" && inv.EventID != filter.EventID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		all = append(all, inv)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeInviteRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeHasher is a deterministic PasswordHasher.
type fakeHasher struct{}

func (fakeHasher) GenerateSalt() (string, error) { return "salt", nil }

func (fakeHasher) Hash(salt, password string) (string, error) {
	return "hashed:" + salt + ":" + password, nil
}

func (fakeHasher) Compare(hash, salt, password string) error {
	if hash != "hashed:"+salt+":"+password {
		return errors.New("mismatch")
	}
	return nil
}

// fakeIssuer issues predictable tokens.
type fakeIssuer struct{}

func (fakeIssuer) Issue(userID, email, role string, expiry time.Duration) (string, error) {
	return strings.Join([]string{"token", userID, role}, "-"), nil
}

// fakeEmailService records invite emails instead of sending.
type fakeEmailService struct {
	sent []*domain.EventInviteEmailData
	err  error
}

func (f *fakeEmailService) SendEventInvite(ctx context.Context, data *domain.EventInviteEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}
