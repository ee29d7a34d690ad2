package controllers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
)

// fakeInviteService implements domain.InviteService for handler tests.
type fakeInviteService struct {
	createErr     error
	createResult  *domain.InviteDetail
	respondErr    error
	respondResult *domain.InviteDetail
	listErr       error
	listResult    []*domain.InviteDetail
	listTotal     int
	deleteErr     error

	lastCreateEventID string
	lastCreateEmail   string
	lastCreateRole    string
	lastCreateActorID string
	lastRespondToken  string
	lastRespondAccept bool
	lastListFilter    domain.InviteFilter
	lastListActorID   string
	lastListParams    domain.PaginationParams
	lastDeleteID      string
	lastDeleteActorID string
}

func (f *fakeInviteService) CreateInvite(ctx context.Context, eventID, email, role, actorID string) (*domain.InviteDetail, error) {
	f.lastCreateEventID = eventID
	f.lastCreateEmail = email
	f.lastCreateRole = role
	f.lastCreateActorID = actorID
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResult, nil
}

func (f *fakeInviteService) RespondToInvite(ctx context.Context, token string, accept bool) (*domain.InviteDetail, error) {
	f.lastRespondToken = token
	f.lastRespondAccept = accept
	if f.respondErr != nil {
		return nil, f.respondErr
	}
	return f.respondResult, nil
}

func (f *fakeInviteService) ListInvites(ctx context.Context, filter domain.InviteFilter, actorID string, params domain.PaginationParams) ([]*domain.InviteDetail, int, error) {
	f.lastListFilter = filter
	f.lastListActorID = actorID
	f.lastListParams = params
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.listResult, f.listTotal, nil
}

func (f *fakeInviteService) DeleteInvite(ctx context.Context, inviteID, actorID string) error {
	f.lastDeleteID = inviteID
	f.lastDeleteActorID = actorID
	return f.deleteErr
}

func pendingInviteDetail() *domain.InviteDetail {
	return &domain.InviteDetail{
		Invite: &domain.Invite{ID: "inv-1", EventID: "ev-1", Email: "guest@example.com",
			Role: domain.EventRoleParticipant, Token: "tok-1", Status: domain.InvitePending},
		Event: &domain.EventSummary{ID: "ev-1", Title: "Dinner", HostID: "user-123"},
	}
}

func TestInviteController_CreateInvite(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		fakeErr        error
		noUserContext  bool
		wantStatus     int
		wantBodySubstr string
		wantRole       string
	}{
		{
			name:       "success defaults role to participant",
			body:       `{"email":"Guest@Example.com"}`,
			wantStatus: http.StatusCreated,
			wantRole:   domain.EventRoleParticipant,
		},
		{
			name:       "cohost role",
			body:       `{"email":"guest@example.com","role":"cohost"}`,
			wantStatus: http.StatusCreated,
			wantRole:   domain.EventRoleCohost,
		},
		{
			name:           "missing email",
			body:           `{}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "email is required",
		},
		{
			name:           "bad email",
			body:           `{"email":"nope"}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "invalid email format",
		},
		{
			name:           "bad role",
			body:           `{"email":"guest@example.com","role":"owner"}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "role must be",
		},
		{
			name:           "no user in context",
			body:           `{"email":"guest@example.com"}`,
			noUserContext:  true,
			wantStatus:     http.StatusUnauthorized,
			wantBodySubstr: "unauthorized",
		},
		{
			name:           "event not found",
			body:           `{"email":"guest@example.com"}`,
			fakeErr:        domain.ErrNotFound,
			wantStatus:     http.StatusNotFound,
			wantBodySubstr: "event not found",
		},
		{
			name:           "not the host",
			body:           `{"email":"guest@example.com"}`,
			fakeErr:        domain.ErrForbidden,
			wantStatus:     http.StatusForbidden,
			wantBodySubstr: "forbidden",
		},
		{
			name:           "already accepted",
			body:           `{"email":"guest@example.com"}`,
			fakeErr:        domain.ErrAlreadyAccepted,
			wantStatus:     http.StatusConflict,
			wantBodySubstr: "already accepted",
		},
		{
			name:           "service error",
			body:           `{"email":"guest@example.com"}`,
			fakeErr:        errors.New("db error"),
			wantStatus:     http.StatusInternalServerError,
			wantBodySubstr: "db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeInviteService{createErr: tt.fakeErr, createResult: pendingInviteDetail()}
			ctrl := NewInviteController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/events/ev-1/invites", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.SetPathValue("eventID", "ev-1")
			if !tt.noUserContext {
				req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
			}
			rr := httptest.NewRecorder()

			ctrl.CreateInvite(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusCreated {
				require.Nil(t, envelope.Error)
				assert.Equal(t, "ev-1", fake.lastCreateEventID)
				assert.Equal(t, tt.wantRole, fake.lastCreateRole)
				assert.Equal(t, "user-123", fake.lastCreateActorID)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}

func TestInviteController_RespondToInvite(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		fakeErr        error
		wantStatus     int
		wantBodySubstr string
		wantAccept     bool
	}{
		{name: "accept", body: `{"status":"accepted"}`, wantStatus: http.StatusOK, wantAccept: true},
		{name: "decline", body: `{"status":"declined"}`, wantStatus: http.StatusOK, wantAccept: false},
		{name: "bad status", body: `{"status":"maybe"}`, wantStatus: http.StatusBadRequest, wantBodySubstr: "status must be"},
		{name: "unknown token", body: `{"status":"accepted"}`, fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantBodySubstr: "invite not found"},
		{name: "already responded", body: `{"status":"declined"}`, fakeErr: domain.ErrAlreadyResponded, wantStatus: http.StatusConflict, wantBodySubstr: "already responded"},
		{name: "service error", body: `{"status":"accepted"}`, fakeErr: errors.New("db error"), wantStatus: http.StatusInternalServerError, wantBodySubstr: "db error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeInviteService{respondErr: tt.fakeErr, respondResult: pendingInviteDetail()}
			ctrl := NewInviteController(testLogger, fake)
			// No auth context: the token is the capability.
			req := httptest.NewRequest(http.MethodPut, "/invites/tok-1", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.SetPathValue("token", "tok-1")
			rr := httptest.NewRecorder()

			ctrl.RespondToInvite(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				assert.Equal(t, "tok-1", fake.lastRespondToken)
				assert.Equal(t, tt.wantAccept, fake.lastRespondAccept)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}

func TestInviteController_ListInvites(t *testing.T) {
	t.Run("passes filters and pagination through", func(t *testing.T) {
		fake := &fakeInviteService{listResult: []*domain.InviteDetail{pendingInviteDetail()}, listTotal: 1}
		ctrl := NewInviteController(testLogger, fake)
		req := httptest.NewRequest(http.MethodGet, "/invites?event_id=ev-1&status=pending&page=2&page_size=5", nil)
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.ListInvites(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ev-1", fake.lastListFilter.EventID)
		assert.Equal(t, domain.InvitePending, fake.lastListFilter.Status)
		assert.Equal(t, 2, fake.lastListParams.Page)
		assert.Equal(t, 5, fake.lastListParams.PageSize)
		assert.Equal(t, "user-123", fake.lastListActorID)
	})

	t.Run("empty result keeps items an array", func(t *testing.T) {
		fake := &fakeInviteService{}
		ctrl := NewInviteController(testLogger, fake)
		req := httptest.NewRequest(http.MethodGet, "/invites", nil)
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.ListInvites(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		envelope := decodeEnvelope(t, rr)
		dataMap, ok := envelope.Data.(map[string]interface{})
		require.True(t, ok, "data must be object")
		items, ok := dataMap["items"].([]interface{})
		require.True(t, ok, "items must be an array")
		assert.Empty(t, items)
	})

	t.Run("invalid status filter", func(t *testing.T) {
		ctrl := NewInviteController(testLogger, &fakeInviteService{})
		req := httptest.NewRequest(http.MethodGet, "/invites?status=maybe", nil)
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.ListInvites(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("foreign user_id is forbidden", func(t *testing.T) {
		ctrl := NewInviteController(testLogger, &fakeInviteService{listErr: domain.ErrForbidden})
		req := httptest.NewRequest(http.MethodGet, "/invites?user_id=someone-else", nil)
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.ListInvites(rr, req)

		require.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown event", func(t *testing.T) {
		ctrl := NewInviteController(testLogger, &fakeInviteService{listErr: domain.ErrNotFound})
		req := httptest.NewRequest(http.MethodGet, "/invites?event_id=nonexistent", nil)
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.ListInvites(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestInviteController_DeleteInvite(t *testing.T) {
	tests := []struct {
		name           string
		fakeErr        error
		wantStatus     int
		wantBodySubstr string
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "not found", fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantBodySubstr: "invite not found"},
		{name: "not the host", fakeErr: domain.ErrForbidden, wantStatus: http.StatusForbidden, wantBodySubstr: "forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeInviteService{deleteErr: tt.fakeErr}
			ctrl := NewInviteController(testLogger, fake)
			req := httptest.NewRequest(http.MethodDelete, "/invites/inv-1", nil)
			req.SetPathValue("inviteID", "inv-1")
			req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
			rr := httptest.NewRecorder()

			ctrl.DeleteInvite(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				dataMap, ok := envelope.Data.(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, "deleted", dataMap["status"])
				assert.Equal(t, "inv-1", fake.lastDeleteID)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}
