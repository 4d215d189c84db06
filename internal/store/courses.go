package store

import (
	"context"
	"fmt"
)

func (s *PostgresStore) InsertCourse(ctx context.Context, c Course) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cusp_course (name, description) VALUES ($1, $2) RETURNING id
	`, c.Name, c.Description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert course: %w", err)
	}
	return id, nil
}

const courseSelect = `
	SELECT id, name, description, lessons_count, created_at, updated_at
	FROM cusp_course WHERE status=1`

func (s *PostgresStore) GetCourse(ctx context.Context, courseID int64) (Course, error) {
	var c Course
	err := s.db.QueryRowContext(ctx, courseSelect+` AND id=$1`, courseID).
		Scan(&c.ID, &c.Name, &c.Description, &c.LessonsCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Course{}, err
	}
	return c, nil
}

func (s *PostgresStore) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx, courseSelect+` ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	items := make([]Course, 0)
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.LessonsCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (s *PostgresStore) UpdateCourse(ctx context.Context, c Course) error {
	var id int64
	return s.db.QueryRowContext(ctx, `
		UPDATE cusp_course SET name=$1, description=$2, updated_at=NOW()
		WHERE id=$3 AND status=1 RETURNING id
	`, c.Name, c.Description, c.ID).Scan(&id)
}

func (s *PostgresStore) SoftDeleteCourse(ctx context.Context, courseID int64) error {
	var id int64
	return s.db.QueryRowContext(ctx,
		`UPDATE cusp_course SET status=0, updated_at=NOW() WHERE id=$1 AND status=1 RETURNING id`,
		courseID).Scan(&id)
}

// refreshLessonCount recounts live lessons and stores the total on the course row.
func (s *PostgresStore) refreshLessonCount(ctx context.Context, courseID int64) error {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cusp_lession WHERE course_id=$1 AND status=1`, courseID).Scan(&total)
	if err != nil {
		return fmt.Errorf("count lessons: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE cusp_course SET lessons_count=$1, updated_at=NOW() WHERE id=$2`, total, courseID)
	if err != nil {
		return fmt.Errorf("update lesson count: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertLesson(ctx context.Context, l Lesson) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cusp_lession (name, description, course_id) VALUES ($1, $2, $3) RETURNING id
	`, l.Name, l.Description, l.CourseID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert lesson: %w", err)
	}
	if err := s.refreshLessonCount(ctx, l.CourseID); err != nil {
		return 0, err
	}
	return id, nil
}

const lessonSelect = `
	SELECT id, name, description, course_id, created_at, updated_at
	FROM cusp_lession WHERE status=1`

func (s *PostgresStore) GetLesson(ctx context.Context, lessonID int64) (Lesson, error) {
	var l Lesson
	err := s.db.QueryRowContext(ctx, lessonSelect+` AND id=$1`, lessonID).
		Scan(&l.ID, &l.Name, &l.Description, &l.CourseID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return Lesson{}, err
	}
	return l, nil
}

func (s *PostgresStore) ListLessons(ctx context.Context, courseID int64) ([]Lesson, error) {
	rows, err := s.db.QueryContext(ctx, lessonSelect+` AND course_id=$1 ORDER BY id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("query lessons: %w", err)
	}
	defer rows.Close()

	items := make([]Lesson, 0)
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.CourseID, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func (s *PostgresStore) UpdateLesson(ctx context.Context, l Lesson) error {
	var id int64
	return s.db.QueryRowContext(ctx, `
		UPDATE cusp_lession SET name=$1, description=$2, updated_at=NOW()
		WHERE id=$3 AND status=1 RETURNING id
	`, l.Name, l.Description, l.ID).Scan(&id)
}

func (s *PostgresStore) SoftDeleteLesson(ctx context.Context, lessonID int64) error {
	var courseID int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE cusp_lession SET status=0, updated_at=NOW() WHERE id=$1 AND status=1 RETURNING course_id`,
		lessonID).Scan(&courseID)
	if err != nil {
		return err
	}
	return s.refreshLessonCount(ctx, courseID)
}
