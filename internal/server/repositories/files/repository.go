package files

import (
	"context"

	"github.com/filebeam/filebeam/internal/server/models"
)

// Repository stores file metadata. Methods taking ownerID treat the empty
// string as "no owner scoping" (anonymous deployments).
type Repository interface {
	Create(ctx context.Context, file *models.File) error
	GetByToken(ctx context.Context, token string) (*models.File, error)
	GetByID(ctx context.Context, id, ownerID string) (*models.File, error)
	List(ctx context.Context, ownerID string, limit int) ([]*models.File, error)
	Delete(ctx context.Context, id string) error
	IncrementDownloadCount(ctx context.Context, token string) (int64, error)
}
