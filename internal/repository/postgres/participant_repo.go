package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gatherly/internal/domain"
)

type participantRepository struct {
	DB *sql.DB
}

func NewParticipantRepository(db *sql.DB) domain.ParticipantRepository {
	return &participantRepository{DB: db}
}

func (r *participantRepository) Get(ctx context.Context, eventID, userID string) (*domain.Participant, error) {
	query := `
		SELECT event_id, user_id, role, created_at
		FROM participants
		WHERE event_id = $1 AND user_id = $2
	`
	p := &domain.Participant{}
	err := r.DB.QueryRowContext(ctx, query, eventID, userID).
		Scan(&p.EventID, &p.UserID, &p.Role, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *participantRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.ParticipantWithUser, error) {
	query := `
		SELECT p.event_id, p.user_id, p.role, p.created_at, u.first_name, u.last_name, u.email
		FROM participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.event_id = $1
		ORDER BY p.created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []*domain.ParticipantWithUser
	for rows.Next() {
		p := &domain.ParticipantWithUser{}
		var email sql.NullString
		if err := rows.Scan(&p.EventID, &p.UserID, &p.Role, &p.CreatedAt, &p.FirstName, &p.LastName, &email); err != nil {
			return nil, err
		}
		p.Email = email.String
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if participants == nil {
		participants = []*domain.ParticipantWithUser{}
	}
	return participants, nil
}
