package domain

import (
	"context"
	"strings"
	"time"
)

// Account roles. Placeholder users carry no role until they register.
const (
	AccountRolePatient  = "patient"
	AccountRoleEmployee = "employee"
	AccountRoleAdmin    = "admin"
)

// User represents an identity record: either a registered account or an
// unregistered placeholder waiting to be claimed by a later signup.
// swagger:model User
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email,omitempty"`
	PasswordHash string     `json:"-"`
	Salt         string     `json:"-"`
	Role         string     `json:"role,omitempty"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	DOB          *time.Time `json:"dob,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Registered   bool       `json:"registered"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewRegisteredUser returns a registered User carrying credentials.
// ID is set by the repository on create.
func NewRegisteredUser(email, passwordHash, salt, role, firstName, lastName string, dob *time.Time, phone string, now time.Time) *User {
	return &User{
		Email:        email,
		PasswordHash: passwordHash,
		Salt:         salt,
		Role:         role,
		FirstName:    firstName,
		LastName:     lastName,
		DOB:          dob,
		Phone:        phone,
		Registered:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewPlaceholderUser returns an unregistered User with no credential material.
// Placeholders exist only to be claimed by a later registration; construction
// through this function is what enforces the no-credentials invariant.
func NewPlaceholderUser(email, firstName, lastName string, dob *time.Time, phone string, now time.Time) *User {
	return &User{
		Email:      email,
		FirstName:  firstName,
		LastName:   lastName,
		DOB:        dob,
		Phone:      phone,
		Registered: false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// DisplayName returns "First Last", falling back to the email address when
// both name fields are empty.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Email
	}
	return name
}

// Promote fills in the credential and profile fields that turn a placeholder
// into a registered account. It never runs on an already registered user.
func (u *User) Promote(email, passwordHash, salt, role string, now time.Time) {
	u.Email = email
	u.PasswordHash = passwordHash
	u.Salt = salt
	u.Role = role
	u.Registered = true
	u.UpdatedAt = now
}

// PasswordHasher handles salt generation, hashing, and verification.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues signed session tokens for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email, role string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a session token and returns the caller identity.
type TokenVerifier interface {
	Verify(token string) (userID, role string, err error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// FindInactivePatient looks up an admin-created placeholder patient by
	// its identity-matching fields (no email on record).
	FindInactivePatient(ctx context.Context, firstName, lastName string, dob time.Time, phone string) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
}

// IdentityRepository performs the registration reconciliation: claiming a
// placeholder row for the email if one exists, inserting a fresh user
// otherwise, and rebinding outstanding invites under that email — all in a
// single transaction.
type IdentityRepository interface {
	// RegisterUser persists u as a registered account. If a placeholder with
	// the same email exists, that row is promoted in place and u takes over
	// its ID; if a registered account already holds the email,
	// ErrDuplicateEmail is returned. Unbound invites addressed to the email
	// are bound to the resulting user ID in the same transaction.
	RegisterUser(ctx context.Context, u *User) error
}

// ProfileUpdate carries optional profile changes; nil fields are unchanged.
type ProfileUpdate struct {
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
	DOB       *time.Time
	Phone     *string
}

// UserService defines profile operations for the authenticated user.
type UserService interface {
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, upd *ProfileUpdate) (*User, error)
	Delete(ctx context.Context, id string) error
	// FindOrCreatePlaceholder returns the user holding email, creating an
	// unregistered placeholder when none exists. Safe under concurrent
	// invocation for the same email.
	FindOrCreatePlaceholder(ctx context.Context, email string) (*User, error)
}

// AuthService defines registration and authentication.
type AuthService interface {
	// SignUp registers a new patient account, promoting a matching
	// placeholder if one exists, and returns the user plus a session token.
	SignUp(ctx context.Context, req *SignUpData) (*User, string, error)
	SignIn(ctx context.Context, email, password string) (*User, string, error)
	// CreateInactivePatient creates a placeholder patient record with no
	// email or credentials. Admin only; enforced by the caller.
	CreateInactivePatient(ctx context.Context, firstName, lastName string, dob *time.Time, phone string) (*User, error)
	// CreateEmployee creates a registered employee account. Admin only;
	// enforced by the caller.
	CreateEmployee(ctx context.Context, req *SignUpData) (*User, error)
}

// SignUpData carries the fields of a registration request.
type SignUpData struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	DOB       *time.Time
	Phone     string
}
