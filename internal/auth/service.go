package auth

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/rbac-service/internal"
	"github.com/frahmantamala/rbac-service/internal/core/common/validation"
)

var (
	compareHash = bcrypt.CompareHashAndPassword

	// dummyHash is compared against when no account matches so an unknown
	// identifier costs the same bcrypt round as a wrong password.
	dummyHash = sync.OnceValue(func() []byte {
		hash, err := bcrypt.GenerateFromPassword([]byte("rbac-service-dummy"), bcrypt.DefaultCost)
		if err != nil {
			panic(err)
		}
		return hash
	})
)

type RepositoryAPI interface {
	// FindCredentials looks an active user up by email or by name.
	FindCredentials(ctx context.Context, identifier string) (*Credentials, error)
	FindAccount(ctx context.Context, userID int64) (*Account, error)
}

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (string, error)
	Authorize(ctx context.Context, token string) (int64, error)
	Me(ctx context.Context, userID int64) (*Account, error)
}

// Service is the main auth service with dependencies
type Service struct {
	repo   RepositoryAPI
	tokens TokenGenerator
	logger *slog.Logger
}

// NewService creates a new auth service
func NewService(repo RepositoryAPI, tokens TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		logger: logger,
	}
}

// Authenticate validates credentials and returns a signed token.
// An unknown account and a wrong password fail with the same error.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (string, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return "", appErr
	}

	identifier := strings.TrimSpace(dto.Email)
	creds, err := s.repo.FindCredentials(ctx, identifier)
	if err != nil {
		s.logger.Error("failed to load credentials", "error", err)
		return "", internal.NewInternalError("failed to authenticate", err)
	}
	if creds == nil {
		_ = compareHash(dummyHash(), []byte(dto.Password))
		s.logger.Warn("login rejected: unknown identifier")
		return "", internal.ErrIncorrectCredentials
	}

	if err := compareHash([]byte(creds.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login rejected: wrong password", "user_id", creds.UserID)
		return "", internal.ErrIncorrectCredentials
	}

	token, err := s.tokens.Issue(creds.UserID)
	if err != nil {
		return "", internal.NewInternalError("failed to issue token", err)
	}

	s.logger.Info("user logged in", "user_id", creds.UserID)
	return token, nil
}

// Authorize verifies a bearer token and makes sure its user still exists.
func (s *Service) Authorize(ctx context.Context, token string) (int64, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return 0, err
	}

	account, err := s.repo.FindAccount(ctx, userID)
	if err != nil {
		return 0, internal.NewInternalError("failed to load user", err)
	}
	if account == nil || !account.Active {
		return 0, internal.ErrUnauthorized
	}
	return userID, nil
}

func (s *Service) Me(ctx context.Context, userID int64) (*Account, error) {
	account, err := s.repo.FindAccount(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load account", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if account == nil {
		return nil, internal.ErrUserNotExist
	}
	return account, nil
}
