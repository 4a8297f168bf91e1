package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/fichaje-app/apiserver/types"
)

// ClockEventRepository handles persistence for the append-only clock log.
// Events are never updated or deleted.
type ClockEventRepository struct {
	db *sql.DB
}

func NewClockEventRepository(db *sql.DB) *ClockEventRepository {
	return &ClockEventRepository{db: db}
}

// Append stores a new event and fills in its id. The bigserial id is
// the secondary ordering key for events sharing a timestamp.
func (r *ClockEventRepository) Append(ctx context.Context, event types.ClockEvent) (types.ClockEvent, error) {
	const query = `
		INSERT INTO clock_events (user_id, facility_id, kind, recorded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		event.UserID,
		event.FacilityID,
		event.Kind,
		event.RecordedAt,
	).Scan(&event.ID); err != nil {
		return types.ClockEvent{}, err
	}
	return event, nil
}

// ListByUserAndRange returns the user's events inside [from, to],
// ordered by (recorded_at, id) ascending.
func (r *ClockEventRepository) ListByUserAndRange(ctx context.Context, userID int, facilityID string, from, to time.Time) ([]types.ClockEvent, error) {
	const query = `
		SELECT id, user_id, facility_id, kind, recorded_at
		FROM clock_events
		WHERE user_id = $1 AND facility_id = $2 AND recorded_at BETWEEN $3 AND $4
		ORDER BY recorded_at, id`
	rows, err := r.db.QueryContext(ctx, query, userID, facilityID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListByUser returns every event the user has ever recorded, ordered by
// (recorded_at, id) ascending. Used by the export rebuild tools.
func (r *ClockEventRepository) ListByUser(ctx context.Context, userID int, facilityID string) ([]types.ClockEvent, error) {
	const query = `
		SELECT id, user_id, facility_id, kind, recorded_at
		FROM clock_events
		WHERE user_id = $1 AND facility_id = $2
		ORDER BY recorded_at, id`
	rows, err := r.db.QueryContext(ctx, query, userID, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]types.ClockEvent, error) {
	var events []types.ClockEvent
	for rows.Next() {
		var event types.ClockEvent
		if err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.FacilityID,
			&event.Kind,
			&event.RecordedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
