package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gatherly/internal/domain"
)

const inviteColumns = `id, event_id, user_id, email, role, token, status, created_at, updated_at`

type inviteRepository struct {
	DB *sql.DB
}

func NewInviteRepository(db *sql.DB) domain.InviteRepository {
	return &inviteRepository{DB: db}
}

func scanInvite(row scanner) (*domain.Invite, error) {
	inv := &domain.Invite{}
	var userID sql.NullString
	err := row.Scan(&inv.ID, &inv.EventID, &userID, &inv.Email, &inv.Role, &inv.Token, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		inv.UserID = &userID.String
	}
	return inv, nil
}

func (r *inviteRepository) Create(ctx context.Context, inv *domain.Invite) error {
	query := `
		INSERT INTO invites (event_id, user_id, email, role, token, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		inv.EventID, inv.UserID, inv.Email, inv.Role, inv.Token, inv.Status, inv.CreatedAt, inv.UpdatedAt,
	).Scan(&inv.ID)
	if err != nil {
		if isUniqueViolation(err, "invites_token_key") {
			return domain.ErrDuplicateToken
		}
		if isUniqueViolation(err, "invites_event_id_email_key") {
			return domain.ErrDuplicateInvite
		}
		return err
	}
	return nil
}

func (r *inviteRepository) GetByID(ctx context.Context, id string) (*domain.Invite, error) {
	return r.getWhere(ctx, `id = $1`, id)
}

func (r *inviteRepository) GetByToken(ctx context.Context, token string) (*domain.Invite, error) {
	return r.getWhere(ctx, `token = $1`, token)
}

func (r *inviteRepository) FindByEventAndEmail(ctx context.Context, eventID, email string) (*domain.Invite, error) {
	return r.getWhere(ctx, `event_id = $1 AND email = $2`, eventID, email)
}

func (r *inviteRepository) getWhere(ctx context.Context, where string, args ...any) (*domain.Invite, error) {
	query := `
		SELECT ` + inviteColumns + `
		FROM invites
		WHERE ` + where + `
	`
	inv, err := scanInvite(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

// Reissue resets a declined invite to pending under a fresh token. The
// status guard keeps it from clobbering an invite a concurrent request
// already reset or responded to; callers treat ErrNotFound as "re-fetch".
func (r *inviteRepository) Reissue(ctx context.Context, id, token string, now time.Time) (*domain.Invite, error) {
	query := `
		UPDATE invites
		SET status = $3, token = $2, updated_at = $4
		WHERE id = $1 AND status = $5
		RETURNING ` + inviteColumns + `
	`
	inv, err := scanInvite(r.DB.QueryRowContext(ctx, query, id, token, domain.InvitePending, now, domain.InviteDeclined))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isUniqueViolation(err, "invites_token_key") {
			return nil, domain.ErrDuplicateToken
		}
		return nil, err
	}
	return inv, nil
}

// Accept transitions the invite to accepted, binds the user, and inserts the
// participant row in a single transaction: a reader never observes
// accepted-without-participant. The status guard in the UPDATE makes
// concurrent responses lose cleanly with ErrAlreadyResponded.
func (r *inviteRepository) Accept(ctx context.Context, id, userID string, now time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var eventID, role string
	err = tx.QueryRowContext(ctx, `
		UPDATE invites
		SET status = $3, user_id = $2, updated_at = $4
		WHERE id = $1 AND status = $5
		RETURNING event_id, role
	`, id, userID, domain.InviteAccepted, now, domain.InvitePending).Scan(&eventID, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrAlreadyResponded
		}
		return err
	}

	// The (event, user) pair may already exist when the same identity was
	// added through another path; the composite key is authoritative.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO participants (event_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, user_id) DO NOTHING
	`, eventID, userID, role, now)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *inviteRepository) Decline(ctx context.Context, id string, userID *string, now time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE invites
		SET status = $3, user_id = COALESCE($2, user_id), updated_at = $4
		WHERE id = $1 AND status = $5
	`, id, userID, domain.InviteDeclined, now, domain.InvitePending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAlreadyResponded
	}
	return nil
}

func (r *inviteRepository) HasAccepted(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM invites
			WHERE event_id = $1 AND user_id = $2 AND status = $3
		)
	`, eventID, userID, domain.InviteAccepted).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *inviteRepository) List(ctx context.Context, filter domain.InviteFilter, params domain.PaginationParams) ([]*domain.Invite, int, error) {
	where := ``
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		cond := clause + ` $` + strconv.Itoa(len(args))
		if where == `` {
			where = ` WHERE ` + cond
		} else {
			where += ` AND ` + cond
		}
	}
	if filter.UserID != "" {
		add(`user_id =`, filter.UserID)
	}
	if filter.EventID != "" {
		add(`event_id =`, filter.EventID)
	}
	if filter.Status != "" {
		add(`status =`, string(filter.Status))
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM invites`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT `+inviteColumns+`
		FROM invites%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, params.PageSize, params.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invites []*domain.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, 0, err
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if invites == nil {
		invites = []*domain.Invite{}
	}
	return invites, total, nil
}

func (r *inviteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM invites WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
