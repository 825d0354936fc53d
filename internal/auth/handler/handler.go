package handler

import (
	"encoding/json"
	"net/http"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/auth"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/middleware"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/apperr"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/logger"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthHandler struct {
	Provider auth.Provider
}

func NewAuthHandler(provider auth.Provider) *AuthHandler {
	return &AuthHandler{Provider: provider}
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (Credentials, bool) {
	var req Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := h.Provider.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		logger.Sugar.Warnf("Handler: Sign up failed for %s: %v", req.Email, err)
		apperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	sess, err := h.Provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		logger.Sugar.Infof("Handler: Sign in rejected for %s: %v", req.Email, err)
		apperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess)
}

// SignOut must run behind the auth middleware, which supplies the session id.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := middleware.SessionIDFrom(r.Context())
	if err := h.Provider.SignOut(r.Context(), sessionID); err != nil {
		logger.Sugar.Errorf("Handler: Sign out failed for session %s: %v", sessionID, err)
		apperr.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signed out successfully"))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess := middleware.SessionFrom(r.Context())
	if sess == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	user, ok := sess.CurrentUser()
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
