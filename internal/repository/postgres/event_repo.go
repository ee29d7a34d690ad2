package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gatherly/internal/domain"
)

const eventColumns = `id, title, description, start_time, end_time, host_id, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{DB: db}
}

func scanEvent(row scanner) (*domain.Event, error) {
	e := &domain.Event{}
	var desc sql.NullString
	err := row.Scan(&e.ID, &e.Title, &desc, &e.StartTime, &e.EndTime, &e.HostID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		e.Description = &desc.String
	}
	return e, nil
}

// Create inserts the event and the host's own participant row in one
// transaction, so an event is never visible without its host participant.
func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO events (title, description, start_time, end_time, host_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, e.Title, e.Description, e.StartTime, e.EndTime, e.HostID, e.CreatedAt, e.UpdatedAt).Scan(&e.ID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO participants (event_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
	`, e.ID, e.HostID, domain.EventRoleHost, e.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// timeFilterClause returns the SQL predicate for a time filter, or "" for all.
func timeFilterClause(filter domain.TimeFilter) string {
	switch filter {
	case domain.TimeFilterUpcoming:
		return ` AND start_time > NOW()`
	case domain.TimeFilterPast:
		return ` AND end_time < NOW()`
	}
	return ``
}

func (r *eventRepository) ListByHostID(ctx context.Context, hostID string, filter domain.TimeFilter) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE host_id = $1` + timeFilterClause(filter) + `
		ORDER BY start_time
	`
	return r.listEvents(ctx, query, hostID)
}

func (r *eventRepository) ListByParticipantID(ctx context.Context, userID string, filter domain.TimeFilter) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id IN (SELECT event_id FROM participants WHERE user_id = $1)` + timeFilterClause(filter) + `
		ORDER BY start_time
	`
	return r.listEvents(ctx, query, userID)
}

func (r *eventRepository) listEvents(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (r *eventRepository) Update(ctx context.Context, id string, title, description *string, startTime, endTime *time.Time) (*domain.Event, error) {
	query := `
		UPDATE events
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    start_time = COALESCE($4, start_time),
		    end_time = COALESCE($5, end_time),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + eventColumns + `
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id, title, description, startTime, endTime))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// Delete removes the event. Participant and invite rows go with it through
// ON DELETE CASCADE.
func (r *eventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
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
