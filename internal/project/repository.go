package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository persists the project document as a single versioned record,
// export job rows for history/polling, and agent config (device id, auth
// token).
type Repository interface {
	SaveDocument(ctx context.Context, doc Document) error
	LoadDocument(ctx context.Context) (*Document, error)

	CreateExport(ctx context.Context, e *Export) error
	GetExport(ctx context.Context, id string) (*Export, error)
	ListExports(ctx context.Context, limit int) ([]*Export, error)
	UpdateExportProgress(ctx context.Context, id string, progress int) error
	UpdateExportStatus(ctx context.Context, id, status, errorMsg, artifactPath string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) SaveDocument(ctx context.Context, doc Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO document (id, revision, payload, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			revision = excluded.revision,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, doc.Revision, string(payload), time.Now().Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) LoadDocument(ctx context.Context) (*Document, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, "SELECT payload FROM document WHERE id = 1").Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

func (r *SQLiteRepository) CreateExport(ctx context.Context, e *Export) error {
	settings, err := json.Marshal(e.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode export settings: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO exports (id, status, settings, progress, artifact_path, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Status, string(settings), e.Progress, nullString(e.ArtifactPath), nullString(e.Error),
		e.CreatedAt.Format(time.RFC3339), e.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetExport(ctx context.Context, id string) (*Export, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, status, settings, progress, artifact_path, error, created_at, updated_at
		FROM exports WHERE id = ?
	`, id)
	return scanExport(row)
}

func (r *SQLiteRepository) ListExports(ctx context.Context, limit int) ([]*Export, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, status, settings, progress, artifact_path, error, created_at, updated_at
		FROM exports ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []*Export
	for rows.Next() {
		e, err := scanExportRow(rows)
		if err != nil {
			return nil, err
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

func (r *SQLiteRepository) UpdateExportProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE exports SET progress = ?, updated_at = datetime('now') WHERE id = ?
	`, progress, id)
	return err
}

func (r *SQLiteRepository) UpdateExportStatus(ctx context.Context, id, status, errorMsg, artifactPath string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE exports SET status = ?, error = ?, artifact_path = ?, updated_at = datetime('now') WHERE id = ?
	`, status, nullString(errorMsg), nullString(artifactPath), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExport(row *sql.Row) (*Export, error) {
	e, err := scanExportRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func scanExportRow(row rowScanner) (*Export, error) {
	var e Export
	var settings string
	var artifactPath, errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&e.ID, &e.Status, &settings, &e.Progress, &artifactPath, &errMsg, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(settings), &e.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode export settings: %w", err)
	}
	e.ArtifactPath = artifactPath.String
	e.Error = errMsg.String
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &e, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
