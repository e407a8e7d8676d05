package statuschecks

import (
	"context"
	"fmt"

	"github.com/filebeam/filebeam/internal/dbx"
	"github.com/filebeam/filebeam/internal/server/models"
)

// PostgresRepository implements status-check storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a status check.
func (r *PostgresRepository) Create(ctx context.Context, check *models.StatusCheck) error {
	query := `INSERT INTO status_checks (id, client_name, ts) VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, check.ID, check.ClientName, check.Timestamp)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// List returns up to limit checks, newest first.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]*models.StatusCheck, error) {
	query := `SELECT id, client_name, ts FROM status_checks ORDER BY ts DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select status checks: %w", err)
	}
	defer rows.Close()

	var result []*models.StatusCheck
	for rows.Next() {
		var item models.StatusCheck
		if err := rows.Scan(&item.ID, &item.ClientName, &item.Timestamp); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
