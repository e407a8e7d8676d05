// Package services contains server-side business logic. This file implements
// UserService, which handles registration, credential verification, and
// issuing/verifying stateless session tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/filebeam/filebeam/internal/common"
	"github.com/filebeam/filebeam/internal/server/auth"
	"github.com/filebeam/filebeam/internal/server/config"
	"github.com/filebeam/filebeam/internal/server/models"
	"github.com/filebeam/filebeam/internal/server/repositories/repomanager"
)

// Session bundles an issued access token with its lifetime and subject.
type Session struct {
	AccessToken string
	ExpiresIn   int64
	User        *models.User
}

// UserService provides authentication-related operations:
//   - Register: create users
//   - Login: verify credentials and mint session tokens
//   - AuthenticateToken: resolve a bearer token back to a live user
type UserService struct {
	db               *sql.DB
	repomanager      repomanager.RepositoryManager
	jwtSecret        []byte
	sessionValidity  time.Duration
	extendedValidity time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:               db,
		repomanager:      m,
		jwtSecret:        []byte(cfg.SecretKey),
		sessionValidity:  cfg.SessionTokenValidity,
		extendedValidity: cfg.ExtendedTokenValidity,
	}
}

// Register creates a new user with a bcrypt-hashed password. A taken
// username yields common.ErrorUsernameTaken without mutating state.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, common.ErrorValidation
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.Create(ctx, &models.User{Username: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

// Login verifies the credentials and, on success, issues a session token.
// Unknown usernames and wrong passwords produce the same
// common.ErrorInvalidCredentials so callers cannot enumerate accounts.
func (s *UserService) Login(ctx context.Context, username, password string, extended bool) (*Session, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, common.ErrorInternal
	}
	if !user.IsActive || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, common.ErrorInvalidCredentials
	}

	validity := s.sessionValidity
	if extended {
		validity = s.extendedValidity
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, validity)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &Session{
		AccessToken: token,
		ExpiresIn:   int64(validity.Seconds()),
		User:        user,
	}, nil
}

// AuthenticateToken verifies a bearer token and returns the user it belongs
// to. Any verification failure, as well as a subject that no longer maps to
// a live user, yields common.ErrorUnauthorized.
func (s *UserService) AuthenticateToken(ctx context.Context, token string) (*models.User, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !user.IsActive {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}
