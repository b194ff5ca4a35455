package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/code-snippets/internal/auth"
	"github.com/sakif/code-snippets/internal/model"
	"github.com/sakif/code-snippets/internal/service"
)

// SnippetHandler exposes the snippet CRUD and listing endpoints.
//
// Every handler behind RequireAuth reads the resolved user from the
// request context; the guard guarantees it is present, but we still check
// so a mis-wired route fails loudly as a 401 instead of a panic.
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewSnippetHandler creates a SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

// snippetRequest is the create/update body. Note there is no owner field —
// the owner is always the authenticated requester. IsPublic defaults to
// false when omitted (Go's zero value, which is exactly the contract).
type snippetRequest struct {
	Title       string   `json:"title"`
	Code        string   `json:"code"`
	Language    string   `json:"language"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	IsPublic    bool     `json:"isPublic"`
}

func (req snippetRequest) input() service.SnippetInput {
	return service.SnippetInput{
		Title:       req.Title,
		Code:        req.Code,
		Language:    req.Language,
		Tags:        req.Tags,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	}
}

// snippetPatchRequest is the update body. Every field is a pointer so an
// omitted key can be told apart from an explicit zero: updates MERGE into
// the stored snippet, and only the keys the client actually sent change.
type snippetPatchRequest struct {
	Title       *string   `json:"title"`
	Code        *string   `json:"code"`
	Language    *string   `json:"language"`
	Tags        *[]string `json:"tags"`
	Description *string   `json:"description"`
	IsPublic    *bool     `json:"isPublic"`
}

func (req snippetPatchRequest) patch() model.SnippetPatch {
	return model.SnippetPatch{
		Title:       req.Title,
		Code:        req.Code,
		Language:    req.Language,
		Tags:        req.Tags,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	}
}

// HandleCreate saves a new snippet owned by the requester.
//
// HTTP: POST /api/snippets (auth required)
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req snippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	snippet, err := h.snippets.Create(r.Context(), user.ID, req.input())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleListOwn returns all of the requester's snippets, newest first.
//
// HTTP: GET /api/snippets (auth required)
func (h *SnippetHandler) HandleListOwn(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	snippets, err := h.snippets.ListOwn(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleListPublic returns every public snippet, newest first.
//
// HTTP: GET /api/snippets/public — the ONLY snippet route without auth.
func (h *SnippetHandler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.snippets.ListPublic(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleListOwnPublic returns the requester's public snippets.
//
// HTTP: GET /api/snippets/public/mine (auth required)
func (h *SnippetHandler) HandleListOwnPublic(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	snippets, err := h.snippets.ListOwnPublic(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleDashboard returns everything the requester may see: their own
// snippets first, then public snippets from other users, de-duplicated.
// The union is computed server-side in one query — clients never merge
// two lists.
//
// HTTP: GET /api/snippets/dashboard (auth required)
func (h *SnippetHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	snippets, err := h.snippets.ListVisible(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleGetByID returns one snippet, owner only. Public snippets are NOT
// readable by ID by non-owners — discovery happens through the public
// list. Anyone else gets the collapsed 404.
//
// HTTP: GET /api/snippets/{id} (auth required)
func (h *SnippetHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	snippet, err := h.snippets.GetByID(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleUpdate merges the supplied fields into a snippet, owner only.
// Omitted fields keep their stored values.
//
// HTTP: PUT /api/snippets/{id} (auth required)
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req snippetPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	snippet, err := h.snippets.Update(r.Context(), user.ID, chi.URLParam(r, "id"), req.patch())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet, owner only.
//
// HTTP: DELETE /api/snippets/{id} (auth required)
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	if err := h.snippets.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted successfully"})
}

// writeUnauthenticated is the fallback for a protected handler reached
// without a resolved user. Should never fire behind RequireAuth.
func writeUnauthenticated(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthenticated",
		Message: "authorization required",
	})
}
