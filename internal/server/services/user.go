package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/dmitrijs2005/photovault/internal/server/auth"
	"github.com/dmitrijs2005/photovault/internal/server/config"
	"github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/photovault/internal/shared"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult is returned on signup and login.
type AuthResult struct {
	User   *models.User
	Tokens *TokenPair
}

// UserService provides authentication-related operations:
// - Register: create users (audited)
// - Login: verify credentials and mint tokens (success and failure audited)
// - RefreshToken: rotate refresh tokens and mint new access tokens
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	audit                        Recorder
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, audit Recorder, logger logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		audit:                        audit,
		logger:                       logger.With("module", "users"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates a new active user with a bcrypt-hashed credential. A
// duplicate email yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, name, password string, clientIP *string) (*AuthResult, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, user, tx)
		return genErr
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.audit.Record(&models.AuditEntry{
		UserID:     &user.ID,
		UserEmail:  &user.Email,
		Action:     models.AuditSignup,
		TargetType: "user",
		TargetID:   &user.ID,
		Detail:     "New user registered",
		IPAddress:  clientIP,
	})

	s.logger.Info(ctx, "new user registered", "user_id", user.ID)
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Login verifies the credentials and, on success, returns the user plus a
// fresh token pair. Unknown email and wrong password are both reported as
// Unauthorized; a deactivated account as Forbidden. Every outcome is
// audited.
func (s *UserService) Login(ctx context.Context, email, password string, clientIP *string) (*AuthResult, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.recordLoginFailure(nil, &email, nil, "User not found", clientIP)
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		s.recordLoginFailure(&user.ID, &user.Email, &user.ID, "Invalid password", clientIP)
		return nil, common.ErrorUnauthorized
	}

	if !user.IsActive {
		s.recordLoginFailure(&user.ID, &user.Email, &user.ID, "Account deactivated", clientIP)
		return nil, fmt.Errorf("%w: account is deactivated", common.ErrorForbidden)
	}

	pair, err := s.generateTokenPair(ctx, user, s.db)
	if err != nil {
		return nil, err
	}

	s.audit.Record(&models.AuditEntry{
		UserID:     &user.ID,
		UserEmail:  &user.Email,
		Action:     models.AuditLoginSuccess,
		TargetType: "user",
		TargetID:   &user.ID,
		Detail:     "Login successful",
		IPAddress:  clientIP,
	})

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &AuthResult{User: user, Tokens: pair}, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, token.UserID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, user, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// --- helpers below ---

func (s *UserService) recordLoginFailure(userID *int64, email *string, targetID *int64, reason string, clientIP *string) {
	s.audit.Record(&models.AuditEntry{
		UserID:     userID,
		UserEmail:  email,
		Action:     models.AuditLoginFailure,
		TargetType: "user",
		TargetID:   targetID,
		Detail:     reason,
		IPAddress:  clientIP,
	})
}

func (s *UserService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(user.ID, user.Email, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := shared.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, user.ID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
