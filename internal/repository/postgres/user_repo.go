package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gatherly/internal/domain"
)

const userColumns = `id, email, password_hash, salt, role, first_name, last_name, dob, phone, registered, created_at, updated_at`

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanUser reads a users row, folding SQL NULLs into zero values. Email,
// credentials, role, and phone are nullable for placeholder records.
func scanUser(row scanner) (*domain.User, error) {
	u := &domain.User{}
	var email, passwordHash, salt, role, phone sql.NullString
	var dob sql.NullTime
	err := row.Scan(
		&u.ID, &email, &passwordHash, &salt, &role,
		&u.FirstName, &u.LastName, &dob, &phone,
		&u.Registered, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Email = email.String
	u.PasswordHash = passwordHash.String
	u.Salt = salt.String
	u.Role = role.String
	u.Phone = phone.String
	if dob.Valid {
		t := dob.Time
		u.DOB = &t
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (email, password_hash, salt, role, first_name, last_name, dob, phone, registered, created_at, updated_at)
		VALUES (NULLIF($1, ''), NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), $9, $10, $11)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		u.Email, u.PasswordHash, u.Salt, u.Role,
		u.FirstName, u.LastName, u.DOB, u.Phone,
		u.Registered, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) FindInactivePatient(ctx context.Context, firstName, lastName string, dob time.Time, phone string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE first_name = $1 AND last_name = $2 AND dob = $3 AND phone = $4
		  AND registered = FALSE AND email IS NULL
	`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, firstName, lastName, dob, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET email = NULLIF($2, ''), password_hash = NULLIF($3, ''), salt = NULLIF($4, ''),
		    role = NULLIF($5, ''), first_name = $6, last_name = $7, dob = $8,
		    phone = NULLIF($9, ''), registered = $10, updated_at = $11
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.Salt, u.Role,
		u.FirstName, u.LastName, u.DOB, u.Phone,
		u.Registered, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
