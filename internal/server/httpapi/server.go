// Package httpapi exposes the file-sharing service over REST. It wires gin
// routes to the service layer and owns request/response shapes, auth
// middleware, and error-to-status mapping.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/filebeam/filebeam/internal/logging"
	"github.com/filebeam/filebeam/internal/server/config"
	"github.com/filebeam/filebeam/internal/server/models"
	"github.com/filebeam/filebeam/internal/server/services"
)

// UserProvider is the slice of the user service the transport needs.
type UserProvider interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string, extended bool) (*services.Session, error)
	AuthenticateToken(ctx context.Context, token string) (*models.User, error)
}

// FileProvider is the slice of the file service the transport needs.
type FileProvider interface {
	Upload(ctx context.Context, ownerID, filename string, content []byte) (*models.File, error)
	DownloadByToken(ctx context.Context, token string) (*models.File, []byte, error)
	GetInfoByToken(ctx context.Context, token string) (*models.File, error)
	List(ctx context.Context, ownerID string, limit int) ([]*models.File, error)
	Delete(ctx context.Context, ownerID, fileID string) error
}

// StatusProvider records and lists client check-ins.
type StatusProvider interface {
	Create(ctx context.Context, clientName string) (*models.StatusCheck, error)
	List(ctx context.Context) ([]*models.StatusCheck, error)
}

type Server struct {
	address       string
	baseURL       string
	anonymousMode bool
	maxUploadSize int64
	logger        logging.Logger
	users         UserProvider
	files         FileProvider
	status        StatusProvider
	router        *gin.Engine
}

func NewServer(cfg *config.Config, l logging.Logger, us UserProvider, fs FileProvider, ss StatusProvider) *Server {
	s := &Server{
		address:       cfg.EndpointAddr,
		baseURL:       cfg.BaseURL,
		anonymousMode: cfg.AnonymousMode,
		maxUploadSize: cfg.MaxUploadSize,
		logger:        l.With("module", "httpapi"),
		users:         us,
		files:         fs,
		status:        ss,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig()))

	api := r.Group("/api")

	api.GET("/", s.handleRoot)

	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.GET("/auth/me", s.requireAuth(), s.handleMe)

	// token possession is the only credential for retrieval
	api.GET("/download/:token", s.handleDownload)
	api.GET("/file-info/:token", s.handleFileInfo)

	owned := api.Group("")
	if !s.anonymousMode {
		owned.Use(s.requireAuth())
	}
	owned.POST("/upload", s.handleUpload)
	owned.GET("/files", s.handleListFiles)
	owned.DELETE("/files/:id", s.handleDeleteFile)

	api.POST("/status", s.handleStatusCreate)
	api.GET("/status", s.handleStatusList)

	return r
}

// corsConfig allows any origin while still permitting credentialed
// requests, so browser clients hosted anywhere can talk to the API.
// AllowAllOrigins cannot be combined with AllowCredentials, hence the func.
func corsConfig() cors.Config {
	c := cors.DefaultConfig()
	c.AllowOriginFunc = func(origin string) bool { return true }
	c.AllowCredentials = true
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	c.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	return c
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
