// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, not concrete types, so tests can
// inject in-memory mocks and the storage backend can be swapped without
// touching business rules.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/code-snippets/internal/apperror"
	"github.com/sakif/code-snippets/internal/auth"
	"github.com/sakif/code-snippets/internal/model"
	"github.com/sakif/code-snippets/internal/repository"
)

// Credential validation limits. MaxPasswordLength is bcrypt's 72-byte
// input limit — anything longer must be rejected here as the client's
// mistake, not surface later as a hashing failure.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
	MaxUsernameLength = 50
	MaxEmailLength    = 254
)

// AuthService handles registration, login, and identity lookup.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users  repository.UserRepository → read/write user records
//   - tokens *auth.TokenService        → issue/validate JWTs
//   - hashes *auth.HashPool            → bcrypt work, off the request path
//   - logger *slog.Logger              → structured logging
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	hashes *auth.HashPool
	logger *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	hashes *auth.HashPool,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		hashes: hashes,
		logger: logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account and issues a token for it.
//
// Fails with apperror.ErrDuplicate when the email is already registered
// (detected by the repository's unique constraint, not a pre-check).
// The plaintext password exists only on the stack of this call — it is
// hashed on the pool and never stored or logged.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", MaxPasswordLength))
	}

	hash, err := s.hashes.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a token.
//
// ENUMERATION RESISTANCE:
// An unknown email and a wrong password both return the exact same
// apperror.ErrInvalidCredentials — no caller can tell which one happened,
// so the endpoint can't be used to discover registered emails. On the
// unknown-email path we still burn a bcrypt comparison against a dummy
// hash so the two failures take comparable time.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.InvalidCredentials()
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFoundOrForbidden) {
			_ = s.hashes.Verify(ctx, dummyHash, password)
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.hashes.Verify(ctx, user.PasswordHash, password); err != nil {
		return nil, apperror.InvalidCredentials()
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given internal ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}

// dummyHash is a bcrypt hash of a throwaway string, compared against when
// the email is unknown so both login failure paths cost roughly the same.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > MaxEmailLength {
		return apperror.ValidationFailed("email",
			fmt.Sprintf("email must be %d characters or less", MaxEmailLength))
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperror.ValidationFailed("email", "invalid email address")
	}
	return nil
}
