package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gatherly/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const minPasswordLength = 8

type authService struct {
	userRepo     domain.UserRepository
	identityRepo domain.IdentityRepository
	hasher       domain.PasswordHasher
	tokenIssuer  domain.TokenIssuer
	tokenExpiry  time.Duration
}

// NewAuthService creates an AuthService with the given repositories and auth
// ports.
func NewAuthService(userRepo domain.UserRepository, identityRepo domain.IdentityRepository, hasher domain.PasswordHasher, tokenIssuer domain.TokenIssuer, tokenExpiry time.Duration) domain.AuthService {
	return &authService{
		userRepo:     userRepo,
		identityRepo: identityRepo,
		hasher:       hasher,
		tokenIssuer:  tokenIssuer,
		tokenExpiry:  tokenExpiry,
	}
}

// SignUp registers a patient account. When a placeholder already holds the
// email (or an admin-created patient record matches on the identity fields),
// that row is claimed instead of inserting a second identity, and every
// unbound invite addressed to the email is bound to the account — all within
// the repository's single registration transaction.
func (s *authService) SignUp(ctx context.Context, req *domain.SignUpData) (*domain.User, string, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !emailRegexp.MatchString(email) {
		return nil, "", domain.ErrInvalidInput
	}
	if len(req.Password) < minPasswordLength {
		return nil, "", domain.ErrInvalidInput
	}

	hash, salt, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	user := domain.NewRegisteredUser(email, hash, salt, domain.AccountRolePatient,
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), req.DOB, strings.TrimSpace(req.Phone), now)
	if err := s.identityRepo.RegisterUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, "", domain.ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("register user: %w", err)
	}

	token, err := s.tokenIssuer.Issue(user.ID, user.Email, user.Role, s.tokenExpiry)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return user, token, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get user by email: %w", err)
	}
	// A placeholder has no usable password and cannot authenticate.
	if !user.Registered || user.PasswordHash == "" {
		return nil, "", domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokenIssuer.Issue(user.ID, user.Email, user.Role, s.tokenExpiry)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return user, token, nil
}

func (s *authService) CreateInactivePatient(ctx context.Context, firstName, lastName string, dob *time.Time, phone string) (*domain.User, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	phone = strings.TrimSpace(phone)
	if firstName == "" || lastName == "" || dob == nil || phone == "" {
		return nil, domain.ErrInvalidInput
	}

	if _, err := s.userRepo.FindInactivePatient(ctx, firstName, lastName, *dob, phone); err == nil {
		return nil, domain.ErrDuplicatePatient
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find inactive patient: %w", err)
	}

	now := time.Now()
	patient := domain.NewPlaceholderUser("", firstName, lastName, dob, phone, now)
	if err := s.userRepo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return patient, nil
}

func (s *authService) CreateEmployee(ctx context.Context, req *domain.SignUpData) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !emailRegexp.MatchString(email) || len(req.Password) < minPasswordLength {
		return nil, domain.ErrInvalidInput
	}

	hash, salt, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	employee := domain.NewRegisteredUser(email, hash, salt, domain.AccountRoleEmployee,
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), req.DOB, strings.TrimSpace(req.Phone), now)
	if err := s.userRepo.Create(ctx, employee); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return employee, nil
}

func (s *authService) hashPassword(password string) (hash, salt string, err error) {
	salt, err = s.hasher.GenerateSalt()
	if err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	hash, err = s.hasher.Hash(salt, password)
	if err != nil {
		return "", "", fmt.Errorf("hash password: %w", err)
	}
	return hash, salt, nil
}
