package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"gatherly/internal/delivery/http/controllers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// Invite responses by token are deliberately unauthenticated: the token is
// the capability.
func NewRouter(
	authController *controllers.AuthController,
	userController *controllers.UserController,
	eventController *controllers.EventController,
	inviteController *controllers.InviteController,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/signin", authController.SignIn)

	// Users
	mux.HandleFunc("GET /users/me", auth(userController.GetMe))
	mux.HandleFunc("PUT /users/me", auth(userController.UpdateMe))
	mux.HandleFunc("DELETE /users/me", auth(userController.DeleteMe))
	mux.HandleFunc("POST /users/inactive-patient", auth(middleware.RequireAdmin(userController.CreateInactivePatient)))
	mux.HandleFunc("POST /users/employee", auth(middleware.RequireAdmin(userController.CreateEmployee)))

	// Events
	mux.HandleFunc("POST /events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /events", auth(eventController.ListEvents))
	mux.HandleFunc("GET /events/{eventID}", auth(eventController.GetEvent))
	mux.HandleFunc("PATCH /events/{eventID}", auth(eventController.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(eventController.DeleteEvent))

	// Invites
	mux.HandleFunc("POST /events/{eventID}/invites", auth(inviteController.CreateInvite))
	mux.HandleFunc("GET /invites", auth(inviteController.ListInvites))
	mux.HandleFunc("PUT /invites/{token}", inviteController.RespondToInvite)
	mux.HandleFunc("DELETE /invites/{inviteID}", auth(inviteController.DeleteInvite))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
