package store

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore wraps the shared *sql.DB with typed accessors for every
// platform table. Soft deletes flip the status column; reads filter on it.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const userColumns = `id, username, email, phone, password, job_title, company_name,
	profile_photo, timezone, language, headline, tag_id, post_id, comment_id,
	rewards_id, save_id, que1, que2, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Phone, &u.PasswordHash,
		&u.JobTitle, &u.CompanyName, &u.ProfilePhoto, &u.Timezone, &u.Language,
		&u.Headline, &u.TagID, &u.PostID, &u.CommentID, &u.RewardsID, &u.SaveID,
		&u.Que1, &u.Que2, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM cusp_user WHERE email=$1 AND status=1`, email)
	return scanUser(row)
}

func (s *PostgresStore) GetUser(ctx context.Context, userID int64) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM cusp_user WHERE id=$1 AND status=1`, userID)
	return scanUser(row)
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM cusp_user WHERE status=1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertUser(ctx context.Context, u User) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cusp_user (username, email, phone, password, job_title, company_name,
			profile_photo, timezone, language, headline, tag_id, post_id, comment_id,
			rewards_id, save_id, que1, que2)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`, u.Username, u.Email, u.Phone, u.PasswordHash, u.JobTitle, u.CompanyName,
		u.ProfilePhoto, u.Timezone, u.Language, u.Headline, u.TagID, u.PostID,
		u.CommentID, u.RewardsID, u.SaveID, u.Que1, u.Que2).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE cusp_user SET username=$1, email=$2, phone=$3, job_title=$4,
			company_name=$5, timezone=$6, language=$7, headline=$8, profile_photo=$9,
			tag_id=$10, post_id=$11, comment_id=$12, rewards_id=$13, save_id=$14,
			que1=$15, que2=$16, updated_at=NOW()
		WHERE id=$17
	`, u.Username, u.Email, u.Phone, u.JobTitle, u.CompanyName, u.Timezone,
		u.Language, u.Headline, u.ProfilePhoto, u.TagID, u.PostID, u.CommentID,
		u.RewardsID, u.SaveID, u.Que1, u.Que2, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// SoftDeleteUser flags the row inactive; sql.ErrNoRows means the user was
// absent or already deleted.
func (s *PostgresStore) SoftDeleteUser(ctx context.Context, userID int64) error {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE cusp_user SET status=0, updated_at=NOW()
		WHERE id=$1 AND status=1
		RETURNING id
	`, userID).Scan(&id)
	if err != nil {
		return err
	}
	return nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE cusp_user SET password=$1, updated_at=NOW() WHERE id=$2`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// EmailTaken reports whether another active user already owns email.
// excludeID=0 checks all users.
func (s *PostgresStore) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM cusp_user WHERE email=$1 AND id != $2 AND status=1)`,
		email, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) PhoneTaken(ctx context.Context, phone string, excludeID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM cusp_user WHERE phone=$1 AND id != $2 AND status=1)`,
		phone, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check phone: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM cusp_user WHERE username=$1 AND id != $2 AND status=1)`,
		username, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}
