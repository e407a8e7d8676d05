package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/filebeam/filebeam/internal/common"
	"github.com/filebeam/filebeam/internal/dbx"
	"github.com/filebeam/filebeam/internal/server/models"
	"github.com/filebeam/filebeam/internal/server/repositories/files"
	"github.com/filebeam/filebeam/internal/server/repositories/statuschecks"
	"github.com/filebeam/filebeam/internal/server/repositories/users"
)

// fakeRepoManager vends in-memory repositories regardless of the DB handle
// passed in, so services can be tested without a database.
type fakeRepoManager struct {
	users        *fakeUserRepo
	files        *fakeFileRepo
	statusChecks *fakeStatusRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:        &fakeUserRepo{byUsername: map[string]*models.User{}},
		files:        &fakeFileRepo{},
		statusChecks: &fakeStatusRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository { return m.users }

func (m *fakeRepoManager) Files(db dbx.DBTX) files.Repository { return m.files }

func (m *fakeRepoManager) StatusChecks(db dbx.DBTX) statuschecks.Repository {
	return m.statusChecks
}

type fakeUserRepo struct {
	mu         sync.Mutex
	byUsername map[string]*models.User
	createErr  error
	nextID     int
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, ok := r.byUsername[user.Username]; ok {
		return nil, common.ErrorUsernameTaken
	}
	r.nextID++
	created := *user
	created.ID = "user-" + string(rune('0'+r.nextID))
	created.IsActive = true
	r.byUsername[user.Username] = &created
	return &created, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byUsername[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byUsername {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeFileRepo struct {
	mu        sync.Mutex
	files     []*models.File
	createErr error
	bumped    []string // tokens whose counter was incremented
}

func (r *fakeFileRepo) Create(ctx context.Context, file *models.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	clone := *file
	r.files = append(r.files, &clone)
	return nil
}

func (r *fakeFileRepo) GetByToken(ctx context.Context, token string) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		if f.DownloadToken == token {
			clone := *f
			return &clone, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeFileRepo) GetByID(ctx context.Context, id, ownerID string) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		if f.ID == id && (ownerID == "" || f.UserID == ownerID) {
			clone := *f
			return &clone, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeFileRepo) List(ctx context.Context, ownerID string, limit int) ([]*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.File
	for _, f := range r.files {
		if ownerID != "" && f.UserID != ownerID {
			continue
		}
		clone := *f
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UploadDate.After(result[j].UploadDate)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeFileRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, f := range r.files {
		if f.ID == id {
			r.files = append(r.files[:i], r.files[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r *fakeFileRepo) IncrementDownloadCount(ctx context.Context, token string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		if f.DownloadToken == token {
			f.DownloadCount++
			r.bumped = append(r.bumped, token)
			return f.DownloadCount, nil
		}
	}
	return 0, common.ErrorNotFound
}

type fakeStatusRepo struct {
	mu        sync.Mutex
	checks    []*models.StatusCheck
	createErr error
}

func (r *fakeStatusRepo) Create(ctx context.Context, check *models.StatusCheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	clone := *check
	r.checks = append(r.checks, &clone)
	return nil
}

func (r *fakeStatusRepo) List(ctx context.Context, limit int) ([]*models.StatusCheck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.StatusCheck
	for i := len(r.checks) - 1; i >= 0 && len(result) < limit; i-- {
		clone := *r.checks[i]
		result = append(result, &clone)
	}
	return result, nil
}

// fakeBlobStore keeps blobs in a map.
type fakeBlobStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	saveErr error
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[string][]byte{}}
}

func (s *fakeBlobStore) Save(ctx context.Context, name string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.blobs[name] = append([]byte(nil), content...)
	return nil
}

func (s *fakeBlobStore) Get(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.blobs[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return append([]byte(nil), content...), nil
}

func (s *fakeBlobStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, name)
	s.deleted = append(s.deleted, name)
	return nil
}
