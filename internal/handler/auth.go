package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/code-snippets/internal/model"
	"github.com/sakif/code-snippets/internal/service"
)

// AuthHandler exposes the registration and login endpoints.
//
// Request bodies are decoded into explicit schema structs and validated
// before anything reaches the service layer — the handlers own parsing,
// the service owns the rules.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// registerRequest is the POST /api/auth/register body.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest is the POST /api/auth/login body.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is the success shape of both auth endpoints:
// {token, user:{id, username}}.
type authResponse struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /api/auth/register
// 200 {token, user} | 400 validation_error | 400 duplicate_identity
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token: result.Token,
		User:  result.User.Public(),
	})
}

// HandleLogin authenticates an existing account.
//
// HTTP: POST /api/auth/login
// 200 {token, user} | 400 invalid_credentials
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token: result.Token,
		User:  result.User.Public(),
	})
}
