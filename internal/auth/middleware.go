package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/code-snippets/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "user", u), ANY package that knows the string "user"
// can read or shadow your value. A package-private type prevents collisions:
// only THIS package can create a key of type contextKey.
type contextKey string

const userKey contextKey = "user"

// UserResolver looks up a user record by internal ID. Satisfied by
// repository.UserRepository — the middleware only needs this one method,
// so it asks for exactly that.
type UserResolver interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth is the access guard for protected routes.
//
// It reads the Authorization header, validates the bearer token, resolves
// the user record, and stores it in the request context. Every failure —
// missing header, malformed header, bad signature, expired token, or a
// token whose subject no longer exists — short-circuits with 401 before
// any handler runs.
//
// RESOLVING THE USER HERE (not just the ID):
// A token outlives the account it was issued for. If the user row has been
// deleted, the signature still verifies — so a pure cryptographic check is
// not enough. Resolving the record on every request guarantees downstream
// code only ever sees identities that exist right now, and handlers get
// the full user without a second lookup.
func RequireAuth(tokens *TokenService, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeUnauthenticated(w, "authorization required")
				return
			}

			userID, err := tokens.Validate(raw)
			if err != nil {
				// Expired vs malformed both end in 401; the distinction
				// only matters for the message.
				if errors.Is(err, ErrTokenExpired) {
					writeUnauthenticated(w, "token expired")
				} else {
					writeUnauthenticated(w, "invalid token")
				}
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				// Covers deleted accounts holding an otherwise-valid token.
				// Same response as a bad token — no hint that the ID was
				// once real.
				writeUnauthenticated(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the authenticated user from the request context.
//
// Returns (nil, false) if the request is anonymous. On a route behind
// RequireAuth it always returns (user, true).
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// writeUnauthenticated sends the guard's single 401 response shape.
// This package can't use handler's response helpers (handler imports auth),
// so it carries its own minimal writer.
func writeUnauthenticated(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthenticated",
		"message": message,
	})
}
