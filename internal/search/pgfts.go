package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search runs plainto_tsquery over post title and content, ranked by
// ts_rank with ts_headline snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where := `p.status = 1 AND p.fts @@ plainto_tsquery('english', $1)`
	args := []any{q.Text}
	if q.TagID != "" {
		where += ` AND p.tag_id = $2`
		args = append(args, q.TagID)
	}

	ctx := context.Background()

	var total int
	countSQL := `SELECT count(*) FROM cusp_post p WHERE ` + where
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT p.id, p.title,
			ts_headline('english', coalesce(p.content, ''), plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30'),
			p.tag_id, p.user_id
		FROM cusp_post p
		WHERE %s
		ORDER BY ts_rank(p.fts, plainto_tsquery('english', $1)) DESC
		LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet, &r.TagID, &r.UserID); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// LoadAllRecords returns all live posts for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]PostRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, title, content, tag_id, user_id FROM cusp_post WHERE status=1
	`)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	defer rows.Close()

	posts := make([]PostRecord, 0)
	for rows.Next() {
		var r PostRecord
		if err := rows.Scan(&r.ID, &r.Title, &r.Content, &r.TagID, &r.UserID); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, r)
	}
	return posts, rows.Err()
}
