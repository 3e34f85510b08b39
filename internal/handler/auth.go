package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/choreify/internal/auth"
	"github.com/dukerupert/choreify/internal/store"
)

type AuthHandler struct {
	userStore *store.UserStore
	tokens    *auth.Tokens
	logger    *slog.Logger
}

func NewAuthHandler(us *store.UserStore, tokens *auth.Tokens, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{userStore: us, tokens: tokens, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  auth.User `json:"user"`
}

// Login exchanges an email and password for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		badRequest(w, "email and password are required")
		return
	}

	u, err := h.userStore.Authenticate(email, req.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("login", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to log in"})
		return
	}

	user := auth.User{ID: u.ID, Name: u.Name, Avatar: u.Avatar, HouseholdID: u.HouseholdID}
	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to log in"})
		return
	}

	h.logger.Info("user logged in", "user_id", u.ID)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Me returns the user carried by the request's token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authorization required"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}
