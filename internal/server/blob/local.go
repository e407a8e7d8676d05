package blob

import (
	"context"
	"os"
	"path/filepath"

	"github.com/filebeam/filebeam/internal/common"
	"github.com/filebeam/filebeam/internal/filex"
)

// LocalStore implements Store on a flat directory of files, one per key.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the storage directory if needed and returns a store
// rooted there.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := filex.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) path(key string) string {
	// keys are generated server-side, but Base strips any path anyway
	return filepath.Join(s.dir, filepath.Base(key))
}

func (s *LocalStore) Save(_ context.Context, key string, content []byte) error {
	return os.WriteFile(s.path(key), content, 0o644)
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	content, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return content, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
