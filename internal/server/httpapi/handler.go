package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/filebeam/filebeam/internal/common"
	"github.com/filebeam/filebeam/internal/server/models"
)

type credentialsRequest struct {
	Username        string `json:"username" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ExtendedSession bool   `json:"extended_session"`
}

type statusRequest struct {
	ClientName string `json:"client_name" binding:"required"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

type fileResponse struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `json:"mime_type"`
	UploadDate       time.Time `json:"upload_date"`
	DownloadCount    int64     `json:"download_count"`
	DownloadLink     string    `json:"download_link"`
}

type statusResponse struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt, IsActive: u.IsActive}
}

func (s *Server) toFileResponse(c *gin.Context, f *models.File) fileResponse {
	return fileResponse{
		ID:               f.ID,
		OriginalFilename: f.OriginalFilename,
		FileSize:         f.FileSize,
		MimeType:         f.MimeType,
		UploadDate:       f.UploadDate,
		DownloadCount:    f.DownloadCount,
		DownloadLink:     s.downloadLink(c, f.DownloadToken),
	}
}

// downloadLink builds the public retrieval URL for a token, preferring the
// configured base URL and falling back to the incoming request's host.
func (s *Server) downloadLink(c *gin.Context, token string) string {
	base := s.baseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/api/download/" + token
}

// writeError maps service errors to HTTP responses. Internal details are
// logged, never serialized.
func (s *Server) writeError(c *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "File too large"})
	case errors.Is(err, common.ErrorNoFile):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "No file provided"})
	case errors.Is(err, common.ErrorValidation):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
	case errors.Is(err, common.ErrorInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect username or password"})
	case errors.Is(err, common.ErrorUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "File not found"})
	case errors.Is(err, common.ErrorUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"detail": "Username already registered"})
	default:
		s.logger.Error(c.Request.Context(), "internal error", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	}
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "File Sharing API - Ready to upload!"})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}

	user, err := s.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "user registered", "username", user.Username)
	c.JSON(http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}

	session, err := s.users.Login(c.Request.Context(), req.Username, req.Password, req.ExtendedSession)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": session.AccessToken,
		"token_type":   "bearer",
		"expires_in":   session.ExpiresIn,
		"user":         toUserResponse(session.User),
	})
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, toUserResponse(currentUser(c)))
}

func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadSize)

	// the size cap usually trips inside the multipart parse, so the limit
	// error must be told apart from a genuinely absent file part
	header, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.writeError(c, err)
			return
		}
		s.writeError(c, common.ErrorNoFile)
		return
	}

	f, err := header.Open()
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		s.writeError(c, err)
		return
	}

	file, err := s.files.Upload(c.Request.Context(), ownerID(c), header.Filename, content)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "file uploaded",
		"filename", file.OriginalFilename, "size", common.FormatFileSize(file.FileSize))
	c.JSON(http.StatusOK, s.toFileResponse(c, file))
}

func (s *Server) handleListFiles(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := s.files.List(c.Request.Context(), ownerID(c), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]fileResponse, 0, len(result))
	for _, f := range result {
		out = append(out, s.toFileResponse(c, f))
	}
	c.JSON(http.StatusOK, gin.H{"files": out})
}

func (s *Server) handleDeleteFile(c *gin.Context) {
	id := c.Param("id")

	if err := s.files.Delete(c.Request.Context(), ownerID(c), id); err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "file deleted", "id", id)
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

func (s *Server) handleDownload(c *gin.Context) {
	file, content, err := s.files.DownloadByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(file.OriginalFilename)))
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, file.MimeType, content)
}

func (s *Server) handleFileInfo(c *gin.Context) {
	file, err := s.files.GetInfoByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filename":       file.OriginalFilename,
		"size":           file.FileSize,
		"size_formatted": common.FormatFileSize(file.FileSize),
		"type":           file.MimeType,
		"upload_date":    file.UploadDate,
		"download_count": file.DownloadCount,
	})
}

func (s *Server) handleStatusCreate(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}

	check, err := s.status.Create(c.Request.Context(), req.ClientName)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, statusResponse{ID: check.ID, ClientName: check.ClientName, Timestamp: check.Timestamp})
}

func (s *Server) handleStatusList(c *gin.Context) {
	checks, err := s.status.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]statusResponse, 0, len(checks))
	for _, check := range checks {
		out = append(out, statusResponse{ID: check.ID, ClientName: check.ClientName, Timestamp: check.Timestamp})
	}
	c.JSON(http.StatusOK, gin.H{"status_checks": out})
}
