package statuschecks

import (
	"context"

	"github.com/filebeam/filebeam/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, check *models.StatusCheck) error
	List(ctx context.Context, limit int) ([]*models.StatusCheck, error)
}
