package store

import (
	"context"
	"fmt"
	"strings"
)

// Tags

func (s *PostgresStore) GetTagByName(ctx context.Context, name string) (Tag, error) {
	var t Tag
	err := s.db.QueryRowContext(ctx, `SELECT id, name, description FROM cusp_tag WHERE name=$1 AND status=1`, name).
		Scan(&t.ID, &t.Name, &t.Description)
	return t, err
}

func (s *PostgresStore) GetTag(ctx context.Context, tagID int64) (Tag, error) {
	var t Tag
	err := s.db.QueryRowContext(ctx, `SELECT id, name, description FROM cusp_tag WHERE id=$1 AND status=1`, tagID).
		Scan(&t.ID, &t.Name, &t.Description)
	return t, err
}

func (s *PostgresStore) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description FROM cusp_tag WHERE status=1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	items := make([]Tag, 0)
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (s *PostgresStore) InsertTag(ctx context.Context, name, description string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO cusp_tag (name, description) VALUES ($1, $2) RETURNING id`,
		name, description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert tag: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) UpdateTag(ctx context.Context, tagID int64, name, description string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE cusp_tag SET name=$1, description=$2, updated_at=NOW() WHERE id=$3`,
		name, description, tagID)
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	return nil
}

func (s *PostgresStore) SoftDeleteTag(ctx context.Context, tagID int64) error {
	var id int64
	return s.db.QueryRowContext(ctx,
		`UPDATE cusp_tag SET status=0, updated_at=NOW() WHERE id=$1 AND status=1 RETURNING id`,
		tagID).Scan(&id)
}

// Posts

func (s *PostgresStore) InsertPost(ctx context.Context, p Post) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO cusp_post (title, content, user_id, tag_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		p.Title, p.Content, p.UserID, p.TagID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetPost(ctx context.Context, postID int64) (Post, error) {
	var p Post
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, user_id, tag_id, likes, comments, created_at, updated_at
		FROM cusp_post WHERE id=$1 AND status=1
	`, postID).Scan(&p.ID, &p.Title, &p.Content, &p.UserID, &p.TagID, &p.Likes, &p.Comments, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *PostgresStore) ListPosts(ctx context.Context) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, user_id, tag_id, likes, comments, created_at, updated_at
		FROM cusp_post WHERE status=1 ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	items := make([]Post, 0)
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.UserID, &p.TagID, &p.Likes, &p.Comments, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// Comments and replies

func (s *PostgresStore) InsertComment(ctx context.Context, postID, userID int64, text string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO cusp_comment (post_id, user_id, comment_text) VALUES ($1, $2, $3) RETURNING id`,
		postID, userID, text).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}
	return id, nil
}

// RefreshCommentCount recomputes the denormalized comments counter on the
// post from the live comment rows, returning the new total.
func (s *PostgresStore) RefreshCommentCount(ctx context.Context, postID int64) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cusp_comment WHERE post_id=$1 AND status=1`, postID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE cusp_post SET comments=$1 WHERE id=$2`, total, postID); err != nil {
		return 0, fmt.Errorf("update comment count: %w", err)
	}
	return total, nil
}

const commentSelect = `
	SELECT c.id, c.post_id, c.user_id, COALESCE(u.username, ''), COALESCE(p.title, ''),
		c.comment_text, c.created_at
	FROM cusp_comment c
	LEFT JOIN cusp_user u ON c.user_id = u.id
	LEFT JOIN cusp_post p ON c.post_id = p.id
	WHERE c.status = 1`

func (s *PostgresStore) queryComments(ctx context.Context, query string, args ...any) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	items := make([]Comment, 0)
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Username, &c.PostTitle, &c.CommentText, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.Replies = []Reply{}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	if len(items) == 0 {
		return items, nil
	}

	// Attach replies for the whole batch in one query.
	ids := make([]string, 0, len(items))
	index := make(map[int64]int, len(items))
	for i, c := range items {
		ids = append(ids, fmt.Sprintf("%d", c.ID))
		index[c.ID] = i
	}
	replyRows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.comment_id, r.reply_user_id, COALESCE(u.username, ''), r.reply_text, r.created_at
		FROM cusp_comment_reply r
		LEFT JOIN cusp_user u ON r.reply_user_id = u.id
		WHERE r.comment_id IN (`+strings.Join(ids, ",")+`) AND r.status = 1
		ORDER BY r.created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("query replies: %w", err)
	}
	defer replyRows.Close()
	for replyRows.Next() {
		var r Reply
		if err := replyRows.Scan(&r.ID, &r.CommentID, &r.ReplyUserID, &r.ReplyUsername, &r.ReplyText, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reply: %w", err)
		}
		i := index[r.CommentID]
		items[i].Replies = append(items[i].Replies, r)
	}
	return items, replyRows.Err()
}

func (s *PostgresStore) ListComments(ctx context.Context) ([]Comment, error) {
	return s.queryComments(ctx, commentSelect)
}

func (s *PostgresStore) GetComment(ctx context.Context, commentID int64) ([]Comment, error) {
	return s.queryComments(ctx, commentSelect+` AND c.id = $1`, commentID)
}

func (s *PostgresStore) ListCommentsByPost(ctx context.Context, postID int64) ([]Comment, error) {
	return s.queryComments(ctx, commentSelect+` AND c.post_id = $1`, postID)
}

func (s *PostgresStore) SoftDeleteComment(ctx context.Context, commentID int64) error {
	var id int64
	return s.db.QueryRowContext(ctx,
		`UPDATE cusp_comment SET status=0, updated_at=NOW() WHERE id=$1 AND status=1 RETURNING id`,
		commentID).Scan(&id)
}

func (s *PostgresStore) InsertReply(ctx context.Context, commentID, userID, postID int64, text string) (Reply, error) {
	var replyID int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO cusp_comment_reply (comment_id, reply_user_id, reply_text, post_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		commentID, userID, text, postID).Scan(&replyID)
	if err != nil {
		return Reply{}, fmt.Errorf("insert reply: %w", err)
	}

	var r Reply
	err = s.db.QueryRowContext(ctx, `
		SELECT r.id, r.comment_id, r.reply_user_id, COALESCE(u.username, ''), r.reply_text,
			r.post_id, COALESCE(p.title, ''), COALESCE(c.comment_text, ''), r.created_at
		FROM cusp_comment_reply r
		LEFT JOIN cusp_post p ON r.post_id = p.id
		LEFT JOIN cusp_user u ON r.reply_user_id = u.id
		LEFT JOIN cusp_comment c ON r.comment_id = c.id
		WHERE r.id = $1
	`, replyID).Scan(&r.ID, &r.CommentID, &r.ReplyUserID, &r.ReplyUsername, &r.ReplyText,
		&r.PostID, &r.PostTitle, &r.CommentText, &r.CreatedAt)
	if err != nil {
		return Reply{}, fmt.Errorf("load reply: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListReplies(ctx context.Context, commentID int64) ([]Reply, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.comment_id, r.reply_user_id, COALESCE(u.username, ''), r.reply_text, r.created_at
		FROM cusp_comment_reply r
		LEFT JOIN cusp_user u ON r.reply_user_id = u.id
		WHERE r.comment_id = $1 AND r.status = 1
	`, commentID)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	defer rows.Close()

	items := make([]Reply, 0)
	for rows.Next() {
		var r Reply
		if err := rows.Scan(&r.ID, &r.CommentID, &r.ReplyUserID, &r.ReplyUsername, &r.ReplyText, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reply: %w", err)
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func (s *PostgresStore) SoftDeleteReply(ctx context.Context, replyID int64) error {
	var id int64
	return s.db.QueryRowContext(ctx,
		`UPDATE cusp_comment_reply SET status=0, updated_at=NOW() WHERE id=$1 AND status=1 RETURNING id`,
		replyID).Scan(&id)
}

// Likes

// UpsertLike records the like/unlike decision for (post, user), then
// recomputes and stores the post's likes counter, returning the new total.
func (s *PostgresStore) UpsertLike(ctx context.Context, postID, userID int64, liked bool) (int, error) {
	status := 0
	if liked {
		status = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cusp_like (post_id, user_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id) DO UPDATE SET status=EXCLUDED.status, updated_at=NOW()
	`, postID, userID, status)
	if err != nil {
		return 0, fmt.Errorf("upsert like: %w", err)
	}

	var total int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cusp_like WHERE post_id=$1 AND status=1`, postID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE cusp_post SET likes=$1 WHERE id=$2`, total, postID); err != nil {
		return 0, fmt.Errorf("update like count: %w", err)
	}
	return total, nil
}
