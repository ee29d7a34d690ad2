package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
)

// CreateInviteRequest is the request body for POST /events/{eventID}/invites.
type CreateInviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"` // optional: "participant" or "cohost" (defaults to "participant")
}

// Validate implements Validator.
func (c CreateInviteRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(strings.ToLower(c.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	role := strings.TrimSpace(strings.ToLower(c.Role))
	if role != "" && role != domain.EventRoleParticipant && role != domain.EventRoleCohost {
		errs = append(errs, "role must be \"participant\" or \"cohost\"")
	}
	return errs
}

// RespondInviteRequest is the request body for PUT /invites/{token}.
type RespondInviteRequest struct {
	Status string `json:"status"` // "accepted" or "declined"
}

// Validate implements Validator.
func (r RespondInviteRequest) Validate() []string {
	switch strings.TrimSpace(strings.ToLower(r.Status)) {
	case string(domain.InviteAccepted), string(domain.InviteDeclined):
		return nil
	default:
		return []string{"status must be \"accepted\" or \"declined\""}
	}
}

// ListInvitesResponse is the data payload for GET /invites (200).
type ListInvitesResponse struct {
	Items      []*domain.InviteDetail `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

type InviteController struct {
	Logger  *slog.Logger
	Service domain.InviteService
}

func NewInviteController(logger *slog.Logger, svc domain.InviteService) *InviteController {
	return &InviteController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateInvite godoc
// @Summary Invite an email address to an event
// @Description Creates a pending invite for the email and sends a notification with the response link. Only the host can invite. Inviting the same email again returns the existing pending invite unchanged; a declined invite is reset to pending under a fresh token and the email is resent; an accepted invite is a conflict.
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body CreateInviteRequest true "Invitee email and optional role"
// @Success 201 {object} helpers.APIResponse "data contains the invite with its event summary"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not host)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already accepted)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invites [post]
func (c *InviteController) CreateInvite(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req CreateInviteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	role := strings.TrimSpace(strings.ToLower(req.Role))
	if role == "" {
		role = domain.EventRoleParticipant
	}
	invite, err := c.Service.CreateInvite(r.Context(), eventID, req.Email, role, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		if errors.Is(err, domain.ErrAlreadyAccepted) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "invite already accepted")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, invite)
}

// RespondToInvite godoc
// @Summary Respond to an invite by token
// @Description Accepts or declines the invite identified by the token from the invitation email. No authentication required: the token is the capability. Accepting links the invitee to the event; if no account exists for the invited email, a placeholder identity is created and later claimed at signup. Responses are final.
// @Tags invites
// @Accept json
// @Produce json
// @Param token path string true "Invite token"
// @Param body body RespondInviteRequest true "Response: accepted or declined"
// @Success 200 {object} helpers.APIResponse "data contains the invite with its event summary"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (unknown token)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already responded)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites/{token} [put]
func (c *InviteController) RespondToInvite(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing token")
		return
	}
	var req RespondInviteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	accept := strings.TrimSpace(strings.ToLower(req.Status)) == string(domain.InviteAccepted)
	invite, err := c.Service.RespondToInvite(r.Context(), token, accept)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "invite not found")
			return
		}
		if errors.Is(err, domain.ErrAlreadyResponded) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "invite already responded to")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, invite)
}

// ListInvites godoc
// @Summary List invites
// @Description Returns a paginated list of invites. By default lists the caller's own invites. event_id scopes to one event: the host sees every invite for it, accepted participants see only the accepted ones. user_id other than the caller's own is rejected. Optional status filters by pending, accepted, or declined.
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter: pending, accepted, declined, or all"
// @Param event_id query string false "Scope to one event"
// @Param user_id query string false "Scope to one user (must be the caller)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (unknown event)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites [get]
func (c *InviteController) ListInvites(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	status, err := domain.ParseInviteStatus(r.URL.Query().Get("status"))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "status must be \"pending\", \"accepted\", \"declined\", or \"all\"")
		return
	}
	filter := domain.InviteFilter{
		UserID:  strings.TrimSpace(r.URL.Query().Get("user_id")),
		EventID: strings.TrimSpace(r.URL.Query().Get("event_id")),
		Status:  status,
	}
	params := helpers.ParsePagination(r)
	invites, total, err := c.Service.ListInvites(r.Context(), filter, userID, params)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if invites == nil {
		invites = []*domain.InviteDetail{}
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListInvitesResponse{Items: invites, Pagination: meta})
}

// DeleteInviteResponse is the data payload for DELETE /invites/{inviteID} (200).
type DeleteInviteResponse struct {
	Status string `json:"status"`
}

// DeleteInvite godoc
// @Summary Delete an invite
// @Description Removes the invite record. Only the host of the invite's event can delete. Deleting an accepted invite does not unlink the participant.
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param inviteID path string true "Invite ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not host)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites/{inviteID} [delete]
func (c *InviteController) DeleteInvite(w http.ResponseWriter, r *http.Request) {
	inviteID := r.PathValue("inviteID")
	if inviteID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing inviteID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.DeleteInvite(r.Context(), inviteID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "invite not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteInviteResponse{Status: "deleted"})
}
