package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/filebeam/filebeam/internal/common"
	"github.com/filebeam/filebeam/internal/server/models"
	"github.com/filebeam/filebeam/internal/server/repositories/repomanager"
)

// StatusListLimit caps how many recent check-ins a listing returns.
const StatusListLimit = 1000

// StatusService records client check-ins, a lightweight liveness trail
// for deployed clients.
type StatusService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewStatusService(db *sql.DB, m repomanager.RepositoryManager) *StatusService {
	return &StatusService{db: db, repomanager: m}
}

// Create records a check-in for clientName at the current time.
func (s *StatusService) Create(ctx context.Context, clientName string) (*models.StatusCheck, error) {
	if clientName == "" {
		return nil, common.ErrorValidation
	}

	check := &models.StatusCheck{
		ID:         uuid.New().String(),
		ClientName: clientName,
		Timestamp:  time.Now().UTC(),
	}

	repo := s.repomanager.StatusChecks(s.db)
	if err := repo.Create(ctx, check); err != nil {
		return nil, fmt.Errorf("error creating status check: %w", err)
	}
	return check, nil
}

// List returns the most recent check-ins, newest first.
func (s *StatusService) List(ctx context.Context) ([]*models.StatusCheck, error) {
	repo := s.repomanager.StatusChecks(s.db)
	result, err := repo.List(ctx, StatusListLimit)
	if err != nil {
		return nil, fmt.Errorf("error listing status checks: %w", err)
	}
	return result, nil
}
