package store

import (
	"context"
	"fmt"
)

func (s *PostgresStore) InsertMessage(ctx context.Context, m ChatMessage) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cusp_chat (sender_id, receiver_id, message, time)
		VALUES ($1, $2, $3, $4) RETURNING id
	`, m.SenderID, m.ReceiverID, m.Message, m.Time).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	return id, nil
}

// ListConversation returns the full two-way history between a and b,
// oldest first. Messages come back still ciphered.
func (s *PostgresStore) ListConversation(ctx context.Context, a, b int64) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, message, time
		FROM cusp_chat
		WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
		ORDER BY time ASC, id ASC
	`, a, b)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	defer rows.Close()

	items := make([]ChatMessage, 0)
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Message, &m.Time); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
