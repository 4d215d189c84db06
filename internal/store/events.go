package store

import (
	"context"
	"database/sql"
	"fmt"
)

func (s *PostgresStore) InsertEvent(ctx context.Context, e Event) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO cusp_event (title, description, date, time, location, location_url, event_link, event_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id
	`, e.Title, e.Description, e.Date, e.Time, e.Location, e.LocationURL, e.EventLink, e.EventImage).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	for _, tag := range e.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cusp_event_tag (event_id, tag) VALUES ($1, $2)`, id, tag); err != nil {
			return 0, fmt.Errorf("insert event tag: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

const eventSelect = `
	SELECT id, title, description, date, time, location, location_url, event_link, event_image, created_at
	FROM cusp_event WHERE status=1`

func (s *PostgresStore) scanEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	items := make([]Event, 0)
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Location,
			&e.LocationURL, &e.EventLink, &e.EventImage, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Tags = []string{}
		e.Attendees = []int64{}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		tags, err := s.eventTags(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Tags = tags
		attendees, err := s.eventAttendees(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Attendees = attendees
	}
	return items, nil
}

func (s *PostgresStore) eventTags(ctx context.Context, eventID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag FROM cusp_event_tag WHERE event_id=$1 ORDER BY id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("event tags: %w", err)
	}
	defer rows.Close()
	tags := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *PostgresStore) eventAttendees(ctx context.Context, eventID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM cusp_event_registration WHERE event_id=$1 AND status=1 ORDER BY id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("event attendees: %w", err)
	}
	defer rows.Close()
	users := make([]int64, 0)
	for rows.Next() {
		var u int64
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PostgresStore) ListEvents(ctx context.Context) ([]Event, error) {
	return s.scanEvents(ctx, eventSelect+` ORDER BY id DESC`)
}

func (s *PostgresStore) GetEvent(ctx context.Context, eventID int64) (Event, error) {
	items, err := s.scanEvents(ctx, eventSelect+` AND id=$1`, eventID)
	if err != nil {
		return Event{}, err
	}
	if len(items) == 0 {
		return Event{}, sql.ErrNoRows
	}
	return items[0], nil
}

func (s *PostgresStore) UpdateEvent(ctx context.Context, e Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE cusp_event SET title=$1, description=$2, date=$3, time=$4, location=$5,
			location_url=$6, event_link=$7, event_image=$8, updated_at=NOW()
		WHERE id=$9 AND status=1
	`, e.Title, e.Description, e.Date, e.Time, e.Location, e.LocationURL, e.EventLink, e.EventImage, e.ID)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cusp_event_tag WHERE event_id=$1`, e.ID); err != nil {
		return fmt.Errorf("clear event tags: %w", err)
	}
	for _, tag := range e.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cusp_event_tag (event_id, tag) VALUES ($1, $2)`, e.ID, tag); err != nil {
			return fmt.Errorf("insert event tag: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) SoftDeleteEvent(ctx context.Context, eventID int64) error {
	var id int64
	return s.db.QueryRowContext(ctx,
		`UPDATE cusp_event SET status=0, updated_at=NOW() WHERE id=$1 AND status=1 RETURNING id`,
		eventID).Scan(&id)
}

// RegisterForEvent is idempotent per (event, user).
func (s *PostgresStore) RegisterForEvent(ctx context.Context, eventID, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cusp_event_registration (event_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (event_id, user_id) DO UPDATE SET status=1, updated_at=NOW()
	`, eventID, userID)
	if err != nil {
		return fmt.Errorf("register for event: %w", err)
	}
	return nil
}
