package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/filebeam/filebeam/internal/common"
	"github.com/filebeam/filebeam/internal/dbx"
	"github.com/filebeam/filebeam/internal/server/blob"
	"github.com/filebeam/filebeam/internal/server/models"
	"github.com/filebeam/filebeam/internal/server/repositories/repomanager"
)

const (
	// DefaultListLimit caps ListFiles when the caller does not pass a limit.
	DefaultListLimit = 50

	// downloadTokenBytes is the entropy of a download token before encoding.
	downloadTokenBytes = 32

	fallbackMimeType = "application/octet-stream"
)

// FileService implements the file registry: upload intake, token-based
// retrieval, owner-scoped listing and deletion, and download accounting.
// File bytes live in a blob.Store, metadata in the files repository; the
// stored filename is the only link between the two.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
}

// NewFileService constructs a FileService over the given stores.
func NewFileService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
	}
}

// detectMimeType maps a filename extension to a media type, falling back to
// application/octet-stream. Parameters like "; charset=utf-8" are stripped.
func detectMimeType(filename string) string {
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if mt == "" {
		return fallbackMimeType
	}
	if mediaType, _, err := mime.ParseMediaType(mt); err == nil {
		return mediaType
	}
	return mt
}

// Upload stores content under a fresh collision-free name, then persists
// metadata with a new unguessable download token. The blob is written before
// the metadata row, so a visible row always has backing bytes. ownerID may
// be empty in anonymous deployments. Zero-byte files are legal; only a
// missing filename means no file was provided.
func (s *FileService) Upload(ctx context.Context, ownerID, filename string, content []byte) (*models.File, error) {
	if filename == "" {
		return nil, common.ErrorNoFile
	}

	storedFilename := uuid.New().String() + filepath.Ext(filename)

	if err := s.blobs.Save(ctx, storedFilename, content); err != nil {
		return nil, fmt.Errorf("error saving file content: %w", err)
	}

	digest := sha256.Sum256(content)

	token, err := common.MakeRandTokenURLSafe(downloadTokenBytes)
	if err != nil {
		return nil, common.ErrorInternal
	}

	file := &models.File{
		ID:               uuid.New().String(),
		UserID:           ownerID,
		OriginalFilename: filename,
		StoredFilename:   storedFilename,
		FileSize:         int64(len(content)),
		MimeType:         detectMimeType(filename),
		UploadDate:       time.Now().UTC(),
		DownloadToken:    token,
		FileHash:         hex.EncodeToString(digest[:]),
	}

	repo := s.repomanager.Files(s.db)
	if err := repo.Create(ctx, file); err != nil {
		return nil, fmt.Errorf("error creating file record: %w", err)
	}

	return file, nil
}

// DownloadByToken resolves a download token to the file content and its
// metadata, bumping the download counter. A token with no metadata row and a
// row whose backing bytes are gone both yield common.ErrorNotFound.
// Token possession is the sole authorization; there is no ownership check.
func (s *FileService) DownloadByToken(ctx context.Context, token string) (*models.File, []byte, error) {
	repo := s.repomanager.Files(s.db)

	file, err := repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, fmt.Errorf("error finding file: %w", err)
	}

	content, err := s.blobs.Get(ctx, file.StoredFilename)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, fmt.Errorf("error reading file content: %w", err)
	}

	count, err := repo.IncrementDownloadCount(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("error incrementing download count: %w", err)
	}
	file.DownloadCount = count

	return file, content, nil
}

// GetInfoByToken returns the metadata behind a token without touching the
// counter or the bytes.
func (s *FileService) GetInfoByToken(ctx context.Context, token string) (*models.File, error) {
	repo := s.repomanager.Files(s.db)

	file, err := repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error finding file: %w", err)
	}
	return file, nil
}

// List returns the newest files first, capped at limit (DefaultListLimit
// when limit <= 0) and scoped to ownerID when it is non-empty.
func (s *FileService) List(ctx context.Context, ownerID string, limit int) ([]*models.File, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	repo := s.repomanager.Files(s.db)
	result, err := repo.List(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}
	return result, nil
}

// Delete removes the metadata row for fileID and then best-effort removes
// the backing bytes. With a non-empty ownerID the lookup itself is scoped,
// so another user's file id produces the same common.ErrorNotFound as a
// nonexistent one. A missing blob on delete is not an error.
func (s *FileService) Delete(ctx context.Context, ownerID, fileID string) error {
	var storedFilename string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Files(tx)

		file, err := repo.GetByID(ctx, fileID, ownerID)
		if err != nil {
			return err
		}
		storedFilename = file.StoredFilename

		return repo.Delete(ctx, file.ID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error deleting file: %w", err)
	}

	// the row is gone; a failed blob removal only leaves an orphan blob
	_ = s.blobs.Delete(ctx, storedFilename)

	return nil
}
