package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/filebeam/filebeam/internal/common"
	"github.com/filebeam/filebeam/internal/dbx"
	"github.com/filebeam/filebeam/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, user_id, original_filename, stored_filename, file_size,
		mime_type, upload_date, download_token, download_count, file_hash`

func scanFile(row interface{ Scan(...any) error }) (*models.File, error) {
	f := &models.File{}
	var userID sql.NullString
	err := row.Scan(&f.ID, &userID, &f.OriginalFilename, &f.StoredFilename,
		&f.FileSize, &f.MimeType, &f.UploadDate, &f.DownloadToken,
		&f.DownloadCount, &f.FileHash)
	if err != nil {
		return nil, err
	}
	f.UserID = userID.String
	return f, nil
}

// nullableOwner maps the service-level "no owner" (empty string) to SQL NULL.
func nullableOwner(ownerID string) sql.NullString {
	if ownerID == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: ownerID, Valid: true}
}

// Create inserts a metadata row. The caller has already written the blob,
// so a visible row always has backing bytes at insert time.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (id, user_id, original_filename, stored_filename,
			file_size, mime_type, upload_date, download_token, download_count, file_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		file.ID, nullableOwner(file.UserID), file.OriginalFilename, file.StoredFilename,
		file.FileSize, file.MimeType, file.UploadDate, file.DownloadToken,
		file.DownloadCount, file.FileHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByToken returns the row matching a download token.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE download_token = $1`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// GetByID returns the row with the given id. A non-empty ownerID narrows the
// predicate to that owner, so another user's file id behaves exactly like a
// nonexistent one.
func (r *PostgresRepository) GetByID(ctx context.Context, id, ownerID string) (*models.File, error) {
	var row *sql.Row
	if ownerID == "" {
		query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
		row = r.db.QueryRowContext(ctx, query, id)
	} else {
		query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1 AND user_id = $2`
		row = r.db.QueryRowContext(ctx, query, id, ownerID)
	}

	f, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// List returns up to limit rows in descending upload-date order, scoped to
// ownerID when it is non-empty.
func (r *PostgresRepository) List(ctx context.Context, ownerID string, limit int) ([]*models.File, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if ownerID == "" {
		query := `SELECT ` + fileColumns + ` FROM files ORDER BY upload_date DESC LIMIT $1`
		rows, err = r.db.QueryContext(ctx, query, limit)
	} else {
		query := `SELECT ` + fileColumns + ` FROM files WHERE user_id = $1 ORDER BY upload_date DESC LIMIT $2`
		rows, err = r.db.QueryContext(ctx, query, ownerID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the row with the given id. Missing rows yield
// common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// IncrementDownloadCount bumps the counter for a token in a single UPDATE so
// concurrent downloads never lose an increment. Returns the new count.
func (r *PostgresRepository) IncrementDownloadCount(ctx context.Context, token string) (int64, error) {
	query := `
		UPDATE files SET download_count = download_count + 1
		WHERE download_token = $1
		RETURNING download_count
	`

	var count int64
	err := r.db.QueryRowContext(ctx, query, token).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}
