package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/code-snippets/internal/apperror"
	"github.com/sakif/code-snippets/internal/model"
	"github.com/sakif/code-snippets/internal/repository"
)

// Snippet validation limits.
const (
	MaxTitleLength       = 200
	MaxCodeLength        = 100000 // ~100KB of code
	MaxLanguageLength    = 50
	MaxTagLength         = 50
	MaxTags              = 20
	MaxDescriptionLength = 2000
)

// SnippetInput carries the client-settable fields of a snippet.
//
// There is deliberately no owner field: the owner is always the
// authenticated requester, forced by the service. A client cannot create
// or move a snippet on someone else's behalf.
type SnippetInput struct {
	Title       string
	Code        string
	Language    string
	Tags        []string
	Description string
	IsPublic    bool
}

// SnippetService enforces the ownership and visibility rules.
//
// Every method that touches a specific snippet takes the requester's ID
// and passes it into an owner-filtered repository call — the service never
// fetches a snippet first to "check" ownership, because the check and the
// action must be one atomic statement.
type SnippetService struct {
	repo   repository.SnippetRepository
	logger *slog.Logger
}

// NewSnippetService creates a new SnippetService.
func NewSnippetService(repo repository.SnippetRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates and saves a new snippet owned by ownerID.
func (s *SnippetService) Create(ctx context.Context, ownerID string, in SnippetInput) (*model.Snippet, error) {
	if ownerID == "" {
		return nil, apperror.Unauthenticated("authentication required")
	}
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		UserID:      ownerID,
		Title:       in.Title,
		Code:        in.Code,
		Language:    in.Language,
		Tags:        in.Tags,
		Description: in.Description,
		IsPublic:    in.IsPublic,
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("ownerID", ownerID),
	)

	return snippet, nil
}

// GetByID returns a snippet only to its owner.
//
// Public visibility does NOT grant read-by-id: this endpoint backs the
// private dashboard, and public discovery happens only through ListPublic.
// A non-owner asking for a real ID gets the same collapsed "not found" as
// anyone asking for a bogus one.
func (s *SnippetService) GetByID(ctx context.Context, requesterID, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	return s.repo.GetOwned(ctx, id, requesterID)
}

// ListOwn returns all snippets owned by the requester, newest first.
func (s *SnippetService) ListOwn(ctx context.Context, requesterID string) ([]model.Snippet, error) {
	snippets, err := s.repo.ListByOwner(ctx, requesterID)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, nil
}

// ListPublic returns every public snippet, newest first. No authentication
// involved — this is the anonymous discovery surface.
func (s *SnippetService) ListPublic(ctx context.Context) ([]model.Snippet, error) {
	snippets, err := s.repo.ListPublic(ctx)
	if err != nil {
		s.logger.Error("failed to list public snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing public snippets: %w", err)
	}
	return snippets, nil
}

// ListOwnPublic returns the requester's public snippets, newest first.
func (s *SnippetService) ListOwnPublic(ctx context.Context, requesterID string) ([]model.Snippet, error) {
	snippets, err := s.repo.ListPublicByOwner(ctx, requesterID)
	if err != nil {
		s.logger.Error("failed to list own public snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing own public snippets: %w", err)
	}
	return snippets, nil
}

// ListVisible computes the requester's dashboard view: owned snippets
// followed by public snippets from other users, de-duplicated by ID, each
// group newest first. The repository computes the whole union in one
// query — this method never merges two lists.
func (s *SnippetService) ListVisible(ctx context.Context, requesterID string) ([]model.Snippet, error) {
	snippets, err := s.repo.ListVisible(ctx, requesterID)
	if err != nil {
		s.logger.Error("failed to list visible snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing visible snippets: %w", err)
	}
	return snippets, nil
}

// Update merges the patch into a snippet's mutable fields, owner only.
// Fields the patch leaves out keep their stored values — a client sending
// only a new title never blanks the language or flips visibility. Owner
// and creation time never change.
func (s *SnippetService) Update(ctx context.Context, requesterID, id string, patch model.SnippetPatch) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}
	if err := validatePatch(&patch); err != nil {
		return nil, err
	}

	// An empty patch is still an owner-filtered read: the caller learns
	// nothing a GET wouldn't tell them, and nothing is written.
	if patch.IsEmpty() {
		return s.repo.GetOwned(ctx, id, requesterID)
	}

	if err := s.repo.UpdateOwned(ctx, id, requesterID, patch); err != nil {
		return nil, err
	}

	s.logger.Info("snippet updated",
		slog.String("id", id),
		slog.String("ownerID", requesterID),
	)

	// Read the row back so the response carries the merged fields and the
	// authoritative created_at/updated_at values.
	return s.repo.GetOwned(ctx, id, requesterID)
}

// Delete removes a snippet, owner only.
func (s *SnippetService) Delete(ctx context.Context, requesterID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "snippet ID is required")
	}

	if err := s.repo.DeleteOwned(ctx, id, requesterID); err != nil {
		return err
	}

	s.logger.Info("snippet deleted",
		slog.String("id", id),
		slog.String("ownerID", requesterID),
	)
	return nil
}

// validateInput normalizes and checks the client-settable fields.
// It mutates in place (trimming) so the caller persists what was checked.
func validateInput(in *SnippetInput) error {
	in.Title = strings.TrimSpace(in.Title)

	if in.Title == "" {
		return apperror.ValidationFailed("title", "snippet title is required")
	}
	if len(in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("snippet title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Code) > MaxCodeLength {
		return apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	if len(in.Language) > MaxLanguageLength {
		return apperror.ValidationFailed("language",
			fmt.Sprintf("language must be %d characters or less", MaxLanguageLength))
	}
	if len(in.Description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	return validateTags(in.Tags)
}

// validatePatch checks only the fields the patch sets, with the same
// rules validateInput applies on create. It trims in place so the caller
// persists what was checked.
func validatePatch(p *model.SnippetPatch) error {
	if p.Title != nil {
		*p.Title = strings.TrimSpace(*p.Title)
		if *p.Title == "" {
			return apperror.ValidationFailed("title", "snippet title is required")
		}
		if len(*p.Title) > MaxTitleLength {
			return apperror.ValidationFailed("title",
				fmt.Sprintf("snippet title must be %d characters or less", MaxTitleLength))
		}
	}
	if p.Code != nil && len(*p.Code) > MaxCodeLength {
		return apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	if p.Language != nil && len(*p.Language) > MaxLanguageLength {
		return apperror.ValidationFailed("language",
			fmt.Sprintf("language must be %d characters or less", MaxLanguageLength))
	}
	if p.Description != nil && len(*p.Description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if p.Tags != nil {
		return validateTags(*p.Tags)
	}
	return nil
}

// validateTags trims each tag in place and enforces the count and length
// limits.
func validateTags(tags []string) error {
	if len(tags) > MaxTags {
		return apperror.ValidationFailed("tags",
			fmt.Sprintf("at most %d tags allowed", MaxTags))
	}
	for i, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return apperror.ValidationFailed("tags", "tags must not be empty")
		}
		if len(tag) > MaxTagLength {
			return apperror.ValidationFailed("tags",
				fmt.Sprintf("tags must be %d characters or less", MaxTagLength))
		}
		tags[i] = tag
	}
	return nil
}
