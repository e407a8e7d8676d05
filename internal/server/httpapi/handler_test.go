package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filebeam/filebeam/internal/common"
	"github.com/filebeam/filebeam/internal/logging"
	"github.com/filebeam/filebeam/internal/server/config"
	"github.com/filebeam/filebeam/internal/server/models"
	"github.com/filebeam/filebeam/internal/server/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUsers struct {
	registerFn     func(ctx context.Context, username, password string) (*models.User, error)
	loginFn        func(ctx context.Context, username, password string, extended bool) (*services.Session, error)
	authenticateFn func(ctx context.Context, token string) (*models.User, error)
}

func (s *stubUsers) Register(ctx context.Context, username, password string) (*models.User, error) {
	return s.registerFn(ctx, username, password)
}

func (s *stubUsers) Login(ctx context.Context, username, password string, extended bool) (*services.Session, error) {
	return s.loginFn(ctx, username, password, extended)
}

func (s *stubUsers) AuthenticateToken(ctx context.Context, token string) (*models.User, error) {
	return s.authenticateFn(ctx, token)
}

type stubFiles struct {
	uploadFn   func(ctx context.Context, ownerID, filename string, content []byte) (*models.File, error)
	downloadFn func(ctx context.Context, token string) (*models.File, []byte, error)
	infoFn     func(ctx context.Context, token string) (*models.File, error)
	listFn     func(ctx context.Context, ownerID string, limit int) ([]*models.File, error)
	deleteFn   func(ctx context.Context, ownerID, fileID string) error
}

func (s *stubFiles) Upload(ctx context.Context, ownerID, filename string, content []byte) (*models.File, error) {
	return s.uploadFn(ctx, ownerID, filename, content)
}

func (s *stubFiles) DownloadByToken(ctx context.Context, token string) (*models.File, []byte, error) {
	return s.downloadFn(ctx, token)
}

func (s *stubFiles) GetInfoByToken(ctx context.Context, token string) (*models.File, error) {
	return s.infoFn(ctx, token)
}

func (s *stubFiles) List(ctx context.Context, ownerID string, limit int) ([]*models.File, error) {
	return s.listFn(ctx, ownerID, limit)
}

func (s *stubFiles) Delete(ctx context.Context, ownerID, fileID string) error {
	return s.deleteFn(ctx, ownerID, fileID)
}

type stubStatus struct {
	createFn func(ctx context.Context, clientName string) (*models.StatusCheck, error)
	listFn   func(ctx context.Context) ([]*models.StatusCheck, error)
}

func (s *stubStatus) Create(ctx context.Context, clientName string) (*models.StatusCheck, error) {
	return s.createFn(ctx, clientName)
}

func (s *stubStatus) List(ctx context.Context) ([]*models.StatusCheck, error) {
	return s.listFn(ctx)
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testUser() *models.User {
	return &models.User{ID: "u1", Username: "alice", CreatedAt: time.Now().UTC(), IsActive: true}
}

func testFile() *models.File {
	return &models.File{
		ID:               "f1",
		UserID:           "u1",
		OriginalFilename: "report.pdf",
		StoredFilename:   "deadbeef.pdf",
		FileSize:         2048,
		MimeType:         "application/pdf",
		UploadDate:       time.Now().UTC(),
		DownloadToken:    "tok123",
		DownloadCount:    4,
	}
}

func newTestServer(t *testing.T, cfg *config.Config, us UserProvider, fs FileProvider, ss StatusProvider) *Server {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{EndpointAddr: ":0", MaxUploadSize: 10 << 20}
	}
	if us == nil {
		us = &stubUsers{}
	}
	if fs == nil {
		fs = &stubFiles{}
	}
	if ss == nil {
		ss = &stubStatus{}
	}
	return NewServer(cfg, testLogger(), us, fs, ss)
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandleRoot(t *testing.T) {
	s := newTestServer(t, nil, nil, nil, nil)

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "File Sharing API - Ready to upload!", decodeBody(t, w)["message"])
}

func TestHandleRegister(t *testing.T) {
	us := &stubUsers{
		registerFn: func(ctx context.Context, username, password string) (*models.User, error) {
			assert.Equal(t, "alice", username)
			assert.Equal(t, "secret1", password)
			return testUser(), nil
		},
	}
	s := newTestServer(t, nil, us, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"username":"alice","password":"secret1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := doRequest(s, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, w.Body.String(), "password")
}

func TestHandleRegisterDuplicate(t *testing.T) {
	us := &stubUsers{
		registerFn: func(ctx context.Context, username, password string) (*models.User, error) {
			return nil, common.ErrorUsernameTaken
		},
	}
	s := newTestServer(t, nil, us, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"username":"alice","password":"secret1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := doRequest(s, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Username already registered", decodeBody(t, w)["detail"])
}

func TestHandleRegisterBadRequest(t *testing.T) {
	s := newTestServer(t, nil, &stubUsers{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"username":"alice"}`))
	req.Header.Set("Content-Type", "application/json")
	w := doRequest(s, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleLogin(t *testing.T) {
	us := &stubUsers{
		loginFn: func(ctx context.Context, username, password string, extended bool) (*services.Session, error) {
			assert.True(t, extended)
			return &services.Session{AccessToken: "jwt-token", ExpiresIn: 2592000, User: testUser()}, nil
		},
	}
	s := newTestServer(t, nil, us, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"alice","password":"secret1","extended_session":true}`))
	req.Header.Set("Content-Type", "application/json")
	w := doRequest(s, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "jwt-token", body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, float64(2592000), body["expires_in"])
}

func TestHandleLoginInvalidCredentials(t *testing.T) {
	us := &stubUsers{
		loginFn: func(ctx context.Context, username, password string, extended bool) (*services.Session, error) {
			return nil, common.ErrorInvalidCredentials
		},
	}
	s := newTestServer(t, nil, us, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"alice","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	w := doRequest(s, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Incorrect username or password", decodeBody(t, w)["detail"])
}

func TestHandleMe(t *testing.T) {
	us := &stubUsers{
		authenticateFn: func(ctx context.Context, token string) (*models.User, error) {
			assert.Equal(t, "good-token", token)
			return testUser(), nil
		},
	}
	s := newTestServer(t, nil, us, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := doRequest(s, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decodeBody(t, w)["username"])
}

func TestRequireAuthMissingHeader(t *testing.T) {
	s := newTestServer(t, nil, nil, nil, nil)

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authenticated", decodeBody(t, w)["detail"])
}

func TestRequireAuthBadToken(t *testing.T) {
	us := &stubUsers{
		authenticateFn: func(ctx context.Context, token string) (*models.User, error) {
			return nil, common.ErrorUnauthorized
		},
	}
	s := newTestServer(t, nil, us, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	w := doRequest(s, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandleUpload(t *testing.T) {
	us := &stubUsers{
		authenticateFn: func(ctx context.Context, token string) (*models.User, error) {
			return testUser(), nil
		},
	}
	fs := &stubFiles{
		uploadFn: func(ctx context.Context, owner, filename string, content []byte) (*models.File, error) {
			assert.Equal(t, "u1", owner)
			assert.Equal(t, "report.pdf", filename)
			assert.Equal(t, []byte("content"), content)
			return testFile(), nil
		},
	}
	s := newTestServer(t, nil, us, fs, nil)

	body, contentType := multipartBody(t, "file", "report.pdf", []byte("content"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer good-token")
	w := doRequest(s, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, "report.pdf", resp["original_filename"])
	assert.Equal(t, "http://example.com/api/download/tok123", resp["download_link"])
}

func TestHandleUploadNoFilePart(t *testing.T) {
	us := &stubUsers{
		authenticateFn: func(ctx context.Context, token string) (*models.User, error) {
			return testUser(), nil
		},
	}
	s := newTestServer(t, nil, us, &stubFiles{}, nil)

	body, contentType := multipartBody(t, "wrongfield", "report.pdf", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer good-token")
	w := doRequest(s, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file provided", decodeBody(t, w)["detail"])
}

func TestHandleUploadUnauthenticated(t *testing.T) {
	s := newTestServer(t, nil, nil, nil, nil)

	body, contentType := multipartBody(t, "file", "report.pdf", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := doRequest(s, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleUploadTooLarge(t *testing.T) {
	cfg := &config.Config{EndpointAddr: ":0", MaxUploadSize: 16, AnonymousMode: true}
	s := newTestServer(t, cfg, nil, &stubFiles{}, nil)

	body, contentType := multipartBody(t, "file", "big.bin", bytes.Repeat([]byte("a"), 1024))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := doRequest(s, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "File too large", decodeBody(t, w)["detail"])
}

func TestAnonymousModeUploadWithoutToken(t *testing.T) {
	cfg := &config.Config{EndpointAddr: ":0", MaxUploadSize: 10 << 20, AnonymousMode: true}
	fs := &stubFiles{
		uploadFn: func(ctx context.Context, owner, filename string, content []byte) (*models.File, error) {
			assert.Equal(t, "", owner)
			return testFile(), nil
		},
	}
	s := newTestServer(t, cfg, nil, fs, nil)

	body, contentType := multipartBody(t, "file", "report.pdf", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := doRequest(s, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleListFiles(t *testing.T) {
	us := &stubUsers{
		authenticateFn: func(ctx context.Context, token string) (*models.User, error) {
			return testUser(), nil
		},
	}
	fs := &stubFiles{
		listFn: func(ctx context.Context, owner string, limit int) ([]*models.File, error) {
			assert.Equal(t, "u1", owner)
			assert.Equal(t, 5, limit)
			return []*models.File{testFile()}, nil
		},
	}
	s := newTestServer(t, nil, us, fs, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/files?limit=5", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := doRequest(s, req)

	assert.Equal(t, http.StatusOK, w.Code)
	files := decodeBody(t, w)["files"].([]any)
	require.Len(t, files, 1)
}

func TestHandleDeleteFile(t *testing.T) {
	us := &stubUsers{
		authenticateFn: func(ctx context.Context, token string) (*models.User, error) {
			return testUser(), nil
		},
	}
	fs := &stubFiles{
		deleteFn: func(ctx context.Context, owner, fileID string) error {
			assert.Equal(t, "u1", owner)
			assert.Equal(t, "f1", fileID)
			return nil
		},
	}
	s := newTestServer(t, nil, us, fs, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/files/f1", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := doRequest(s, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "File deleted successfully", decodeBody(t, w)["message"])
}

func TestHandleDeleteFileNotFound(t *testing.T) {
	us := &stubUsers{
		authenticateFn: func(ctx context.Context, token string) (*models.User, error) {
			return testUser(), nil
		},
	}
	fs := &stubFiles{
		deleteFn: func(ctx context.Context, owner, fileID string) error {
			return common.ErrorNotFound
		},
	}
	s := newTestServer(t, nil, us, fs, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/files/other", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := doRequest(s, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDownload(t *testing.T) {
	fs := &stubFiles{
		downloadFn: func(ctx context.Context, token string) (*models.File, []byte, error) {
			assert.Equal(t, "tok123", token)
			return testFile(), []byte("pdf bytes"), nil
		},
	}
	s := newTestServer(t, nil, nil, fs, nil)

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/download/tok123", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pdf bytes", w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename*=UTF-8''report.pdf", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
}

func TestHandleDownloadNotFound(t *testing.T) {
	fs := &stubFiles{
		downloadFn: func(ctx context.Context, token string) (*models.File, []byte, error) {
			return nil, nil, common.ErrorNotFound
		},
	}
	s := newTestServer(t, nil, nil, fs, nil)

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/download/unknown", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "File not found", decodeBody(t, w)["detail"])
}

func TestHandleFileInfo(t *testing.T) {
	fs := &stubFiles{
		infoFn: func(ctx context.Context, token string) (*models.File, error) {
			return testFile(), nil
		},
	}
	s := newTestServer(t, nil, nil, fs, nil)

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/file-info/tok123", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "report.pdf", body["filename"])
	assert.Equal(t, float64(2048), body["size"])
	assert.Equal(t, "2.0KB", body["size_formatted"])
	assert.Equal(t, "application/pdf", body["type"])
	assert.Equal(t, float64(4), body["download_count"])
}

func TestDownloadLinkUsesBaseURL(t *testing.T) {
	cfg := &config.Config{EndpointAddr: ":0", MaxUploadSize: 10 << 20, BaseURL: "https://files.example.org"}
	fs := &stubFiles{
		downloadFn: func(ctx context.Context, token string) (*models.File, []byte, error) {
			return testFile(), []byte("x"), nil
		},
		infoFn: func(ctx context.Context, token string) (*models.File, error) {
			return testFile(), nil
		},
		listFn: func(ctx context.Context, owner string, limit int) ([]*models.File, error) {
			return []*models.File{testFile()}, nil
		},
	}
	cfg.AnonymousMode = true
	s := newTestServer(t, cfg, nil, fs, nil)

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/files", nil))

	require.Equal(t, http.StatusOK, w.Code)
	files := decodeBody(t, w)["files"].([]any)
	entry := files[0].(map[string]any)
	assert.Equal(t, "https://files.example.org/api/download/tok123", entry["download_link"])
}

func TestHandleStatus(t *testing.T) {
	ss := &stubStatus{
		createFn: func(ctx context.Context, clientName string) (*models.StatusCheck, error) {
			assert.Equal(t, "edge-probe-1", clientName)
			return &models.StatusCheck{ID: "s1", ClientName: clientName, Timestamp: time.Now().UTC()}, nil
		},
		listFn: func(ctx context.Context) ([]*models.StatusCheck, error) {
			return []*models.StatusCheck{{ID: "s1", ClientName: "edge-probe-1", Timestamp: time.Now().UTC()}}, nil
		},
	}
	s := newTestServer(t, nil, nil, nil, ss)

	req := httptest.NewRequest(http.MethodPost, "/api/status",
		strings.NewReader(`{"client_name":"edge-probe-1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := doRequest(s, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "edge-probe-1", decodeBody(t, w)["client_name"])

	w = doRequest(s, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	checks := decodeBody(t, w)["status_checks"].([]any)
	require.Len(t, checks, 1)
}
