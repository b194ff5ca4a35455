// Package auth provides the password and bearer-token building blocks for
// the snippet API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. Client POSTs credentials to /api/auth/register or /api/auth/login
// 2. Server verifies them (bcrypt) and issues a JWT access token
// 3. Client resends the token on every request: Authorization: Bearer <jwt>
// 4. Middleware validates the JWT, resolves the user record, and sets it
//    in the request context
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server doesn't need to store
// session data. All the information needed (userID, expiry) is inside the
// signed token. The signature ensures nobody can tamper with it without
// the secret key, and verification is a pure cryptographic check with no
// I/O.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long an issued token stays valid. There is no refresh
// flow and no revocation list — expiry is the only way a token dies.
const TokenTTL = 7 * 24 * time.Hour

const issuer = "code-snippets"

// Sentinel errors so the access guard can tell WHY validation failed.
// Expired and malformed are different conditions (a valid signature past
// its expiry vs. a token that never verified at all), even though the
// HTTP layer maps both to 401.
var (
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenMalformed = errors.New("auth: malformed token")
)

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens.
// The same secret must be used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims which includes
// standard fields like Issuer, Subject, ExpiresAt, IssuedAt.
//
// We use "sub" (Subject) to store the internal user ID — the standard JWT
// claim for identifying who the token belongs to.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a new JWT access token for the given userID,
// valid for TokenTTL (7 days).
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, same key signs and
// verifies. Fine for a single-server deployment.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, TokenTTL)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// A negative duration produces an already-expired token — used in tests.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string.
// Returns the userID (stored in the "sub" claim) if the token is valid.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches (prevents tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks — without
//     jwt.WithValidMethods an attacker could try alg "none")
//
// Error contract:
//   - ErrTokenExpired   — signature verified, expiry in the past
//   - ErrTokenMalformed — anything else (bad signature, garbage input,
//     wrong issuer, missing subject)
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", ErrTokenMalformed
	}

	if c.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrTokenMalformed)
	}

	return c.Subject, nil
}
