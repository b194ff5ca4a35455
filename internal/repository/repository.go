// Package repository declares the storage interfaces the service layer
// programs against. The sqlite subpackage provides the implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/code-snippets/internal/model"
)

// UserRepository persists user accounts.
type UserRepository interface {
	// CreateUser inserts a new user. Returns an error wrapping
	// apperror.ErrDuplicate if the email is already registered.
	CreateUser(ctx context.Context, user *model.User) error

	// GetUserByEmail returns the user with the given email, or an error
	// wrapping apperror.ErrNotFoundOrForbidden if none exists.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// GetUserByID returns the user with the given internal ID.
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// DeleteUser removes a user account. There is no public endpoint for
	// this yet, but the access guard must tolerate identities vanishing
	// under live tokens, so deletion is part of the storage contract.
	DeleteUser(ctx context.Context, id string) error
}

// SnippetRepository persists snippets.
//
// OWNER-FILTERED MUTATIONS:
// GetOwned, UpdateOwned and DeleteOwned match on BOTH id and owner in a
// single statement. There is deliberately no "check if it exists, then
// act" pair — the combined filter is atomic, so two concurrent requests
// can't race between the ownership check and the mutation, and a zero-row
// result means "not found or not yours" without revealing which.
type SnippetRepository interface {
	// Create inserts a new snippet. ID and timestamps are filled in by
	// the repository; UserID must already be set by the caller.
	Create(ctx context.Context, snippet *model.Snippet) error

	// GetOwned returns the snippet only if it exists AND belongs to
	// ownerID; otherwise an error wrapping apperror.ErrNotFoundOrForbidden.
	GetOwned(ctx context.Context, id, ownerID string) (*model.Snippet, error)

	// ListByOwner returns all snippets owned by ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Snippet, error)

	// ListPublic returns all public snippets regardless of owner, newest
	// first.
	ListPublic(ctx context.Context) ([]model.Snippet, error)

	// ListPublicByOwner returns ownerID's public snippets, newest first.
	ListPublicByOwner(ctx context.Context, ownerID string) ([]model.Snippet, error)

	// ListVisible returns the de-duplicated union of ownerID's snippets
	// and all public snippets: owned first, then public-minus-owned, each
	// group newest first. Computed in one query — callers never merge two
	// lists themselves.
	ListVisible(ctx context.Context, ownerID string) ([]model.Snippet, error)

	// UpdateOwned applies the set fields of patch to the snippet, matching
	// on id AND ownerID in one statement. Fields the patch leaves nil keep
	// their stored values; owner and created_at are never touched.
	UpdateOwned(ctx context.Context, id, ownerID string, patch model.SnippetPatch) error

	// DeleteOwned removes the snippet, matching on id AND ownerID in one
	// statement.
	DeleteOwned(ctx context.Context, id, ownerID string) error
}
