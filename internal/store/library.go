package store

import (
	"context"
	"fmt"
)

// Documents

func (s *PostgresStore) InsertDocument(ctx context.Context, d Document) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cusp_document (title, description, file_path, file_type, user_id)
		VALUES ($1, $2, $3, $4, $5) RETURNING id
	`, d.Title, d.Description, d.FilePath, d.FileType, d.UserID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

const documentSelect = `
	SELECT d.id, d.title, d.description, d.file_path, d.file_type, d.user_id,
		COALESCE(u.username, ''), COALESCE(u.email, ''), d.created_at, d.updated_at
	FROM cusp_document d
	LEFT JOIN cusp_user u ON d.user_id = u.id
	WHERE d.status=1`

func (s *PostgresStore) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, documentSelect+` ORDER BY d.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	items := make([]Document, 0)
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.FilePath, &d.FileType, &d.UserID,
			&d.Username, &d.Email, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (s *PostgresStore) GetDocument(ctx context.Context, documentID int64) (Document, error) {
	var d Document
	err := s.db.QueryRowContext(ctx, documentSelect+` AND d.id=$1`, documentID).
		Scan(&d.ID, &d.Title, &d.Description, &d.FilePath, &d.FileType, &d.UserID,
			&d.Username, &d.Email, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, d Document) error {
	var id int64
	return s.db.QueryRowContext(ctx, `
		UPDATE cusp_document SET title=$1, description=$2, file_path=$3, file_type=$4, updated_at=NOW()
		WHERE id=$5 AND status=1 RETURNING id
	`, d.Title, d.Description, d.FilePath, d.FileType, d.ID).Scan(&id)
}

func (s *PostgresStore) SoftDeleteDocument(ctx context.Context, documentID int64) error {
	var id int64
	return s.db.QueryRowContext(ctx,
		`UPDATE cusp_document SET status=0, updated_at=NOW() WHERE id=$1 AND status=1 RETURNING id`,
		documentID).Scan(&id)
}

// Business directory

func (s *PostgresStore) InsertDirectoryEntry(ctx context.Context, d DirectoryEntry) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cusp_directory (place_name, location, location_url, p_name, p_email, p_photo)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id
	`, d.PlaceName, d.Location, d.LocationURL, d.ContactName, d.ContactEmail, d.ContactPhoto).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert directory entry: %w", err)
	}
	return id, nil
}

const directorySelect = `
	SELECT id, place_name, location, location_url, p_name, p_email, p_photo, created_at, updated_at
	FROM cusp_directory WHERE status=1`

func (s *PostgresStore) ListDirectory(ctx context.Context) ([]DirectoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, directorySelect+` ORDER BY place_name`)
	if err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}
	defer rows.Close()

	items := make([]DirectoryEntry, 0)
	for rows.Next() {
		var d DirectoryEntry
		if err := rows.Scan(&d.ID, &d.PlaceName, &d.Location, &d.LocationURL,
			&d.ContactName, &d.ContactEmail, &d.ContactPhoto, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan directory entry: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (s *PostgresStore) GetDirectoryEntry(ctx context.Context, entryID int64) (DirectoryEntry, error) {
	var d DirectoryEntry
	err := s.db.QueryRowContext(ctx, directorySelect+` AND id=$1`, entryID).
		Scan(&d.ID, &d.PlaceName, &d.Location, &d.LocationURL,
			&d.ContactName, &d.ContactEmail, &d.ContactPhoto, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (s *PostgresStore) UpdateDirectoryEntry(ctx context.Context, d DirectoryEntry) error {
	var id int64
	return s.db.QueryRowContext(ctx, `
		UPDATE cusp_directory SET place_name=$1, location=$2, location_url=$3,
			p_name=$4, p_email=$5, p_photo=$6, updated_at=NOW()
		WHERE id=$7 AND status=1 RETURNING id
	`, d.PlaceName, d.Location, d.LocationURL, d.ContactName, d.ContactEmail, d.ContactPhoto, d.ID).Scan(&id)
}

func (s *PostgresStore) SoftDeleteDirectoryEntry(ctx context.Context, entryID int64) error {
	var id int64
	return s.db.QueryRowContext(ctx,
		`UPDATE cusp_directory SET status=0, updated_at=NOW() WHERE id=$1 AND status=1 RETURNING id`,
		entryID).Scan(&id)
}

// Tools

func (s *PostgresStore) InsertTool(ctx context.Context, t Tool) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cusp_tool (title, description, link, img_url)
		VALUES ($1, $2, $3, $4) RETURNING id
	`, t.Title, t.Description, t.Link, t.ImageURL).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert tool: %w", err)
	}
	return id, nil
}

const toolSelect = `
	SELECT id, title, description, link, img_url, created_at, updated_at
	FROM cusp_tool WHERE status=1`

func (s *PostgresStore) ListTools(ctx context.Context) ([]Tool, error) {
	rows, err := s.db.QueryContext(ctx, toolSelect+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	defer rows.Close()

	items := make([]Tool, 0)
	for rows.Next() {
		var t Tool
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Link, &t.ImageURL, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tool: %w", err)
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (s *PostgresStore) GetTool(ctx context.Context, toolID int64) (Tool, error) {
	var t Tool
	err := s.db.QueryRowContext(ctx, toolSelect+` AND id=$1`, toolID).
		Scan(&t.ID, &t.Title, &t.Description, &t.Link, &t.ImageURL, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *PostgresStore) UpdateTool(ctx context.Context, t Tool) error {
	var id int64
	return s.db.QueryRowContext(ctx, `
		UPDATE cusp_tool SET title=$1, description=$2, link=$3, img_url=$4, updated_at=NOW()
		WHERE id=$5 AND status=1 RETURNING id
	`, t.Title, t.Description, t.Link, t.ImageURL, t.ID).Scan(&id)
}

func (s *PostgresStore) SoftDeleteTool(ctx context.Context, toolID int64) error {
	var id int64
	return s.db.QueryRowContext(ctx,
		`UPDATE cusp_tool SET status=0, updated_at=NOW() WHERE id=$1 AND status=1 RETURNING id`,
		toolID).Scan(&id)
}

// Practice valuation intake

const valuationColumns = `id, name, email, phone, site_size, dental_chairs, practice_type,
	interior_finish, location_type, location_other, unit_condition, equipment_condition,
	equipment_needed, specialist_equipment`

func scanValuation(row interface{ Scan(...any) error }) (ValuationEntry, error) {
	var v ValuationEntry
	err := row.Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.SiteSize, &v.DentalChairs, &v.PracticeType,
		&v.InteriorFinish, &v.LocationType, &v.LocationOther, &v.UnitCondition, &v.EquipmentCondition,
		&v.EquipmentNeeded, &v.SpecialistEquipment)
	return v, err
}

func (s *PostgresStore) InsertValuation(ctx context.Context, v ValuationEntry) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cusp_calculator (
			name, email, phone, site_size, dental_chairs, practice_type,
			interior_finish, location_type, location_other, unit_condition,
			equipment_condition, equipment_needed, specialist_equipment
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id
	`, v.Name, v.Email, v.Phone, v.SiteSize, v.DentalChairs, v.PracticeType,
		v.InteriorFinish, v.LocationType, v.LocationOther, v.UnitCondition,
		v.EquipmentCondition, v.EquipmentNeeded, v.SpecialistEquipment).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert valuation: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetValuation(ctx context.Context, entryID int64) (ValuationEntry, error) {
	return scanValuation(s.db.QueryRowContext(ctx,
		`SELECT `+valuationColumns+` FROM cusp_calculator WHERE id=$1 AND status=1`, entryID))
}

func (s *PostgresStore) ListValuations(ctx context.Context) ([]ValuationEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+valuationColumns+` FROM cusp_calculator WHERE status=1 ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list valuations: %w", err)
	}
	defer rows.Close()

	items := make([]ValuationEntry, 0)
	for rows.Next() {
		v, err := scanValuation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan valuation: %w", err)
		}
		items = append(items, v)
	}
	return items, rows.Err()
}
