package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gatherly/internal/domain"
)

// identityRepository reconciles registrations against placeholder users and
// outstanding invites. Each operation is one transaction: the promoted (or
// inserted) user row and the invite backfill become visible together.
type identityRepository struct {
	DB *sql.DB
}

func NewIdentityRepository(db *sql.DB) domain.IdentityRepository {
	return &identityRepository{DB: db}
}

func (r *identityRepository) RegisterUser(ctx context.Context, u *domain.User) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Lock any row already holding the email so a concurrent registration
	// for the same address serializes behind us.
	var existingID string
	var registered bool
	err = tx.QueryRowContext(ctx,
		`SELECT id, registered FROM users WHERE email = $1 FOR UPDATE`,
		u.Email,
	).Scan(&existingID, &registered)
	switch {
	case err == nil:
		if registered {
			return domain.ErrDuplicateEmail
		}
		// Claim the placeholder: same id, now carrying credentials.
		_, err = tx.ExecContext(ctx, `
			UPDATE users
			SET password_hash = $2, salt = $3, role = $4, first_name = $5,
			    last_name = $6, dob = $7, phone = NULLIF($8, ''),
			    registered = TRUE, updated_at = $9
			WHERE id = $1
		`, existingID, u.PasswordHash, u.Salt, u.Role, u.FirstName, u.LastName, u.DOB, u.Phone, u.UpdatedAt)
		if err != nil {
			return err
		}
		u.ID = existingID
	case errors.Is(err, sql.ErrNoRows):
		// No row under the email. A patient record created by an admin has
		// no email at all; match it on the identity fields instead so the
		// signup claims that record rather than forking a second identity.
		if u.DOB != nil && u.Phone != "" {
			var patientID string
			err = tx.QueryRowContext(ctx, `
				SELECT id FROM users
				WHERE first_name = $1 AND last_name = $2 AND dob = $3 AND phone = $4
				  AND registered = FALSE AND email IS NULL
				FOR UPDATE
			`, u.FirstName, u.LastName, u.DOB, u.Phone).Scan(&patientID)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			if err == nil {
				_, err = tx.ExecContext(ctx, `
					UPDATE users
					SET email = $2, password_hash = $3, salt = $4, role = $5,
					    registered = TRUE, updated_at = $6
					WHERE id = $1
				`, patientID, u.Email, u.PasswordHash, u.Salt, u.Role, u.UpdatedAt)
				if err != nil {
					if isUniqueViolation(err, "users_email_key") {
						return domain.ErrDuplicateEmail
					}
					return err
				}
				u.ID = patientID
				break
			}
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO users (email, password_hash, salt, role, first_name, last_name, dob, phone, registered, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), TRUE, $9, $10)
			RETURNING id
		`, u.Email, u.PasswordHash, u.Salt, u.Role, u.FirstName, u.LastName, u.DOB, u.Phone, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
		if err != nil {
			if isUniqueViolation(err, "users_email_key") {
				return domain.ErrDuplicateEmail
			}
			return err
		}
	default:
		return err
	}
	u.Registered = true

	// Backfill: invites addressed to this email with no bound user now point
	// at the registered account. Invites already bound to the claimed
	// placeholder keep their reference, since the id did not change.
	_, err = tx.ExecContext(ctx, `
		UPDATE invites SET user_id = $1, updated_at = $2
		WHERE email = $3 AND user_id IS NULL
	`, u.ID, u.UpdatedAt, u.Email)
	if err != nil {
		return err
	}

	return tx.Commit()
}
