package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vitrinelabs/vitrine/internal/auth"
	"github.com/vitrinelabs/vitrine/internal/models"
	"github.com/vitrinelabs/vitrine/internal/security"
	"github.com/vitrinelabs/vitrine/internal/services"
	pkghttp "github.com/vitrinelabs/vitrine/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string, rc services.RequestContext) (*services.AuthResponse, error)
	Register(ctx context.Context, email, password, name string, rc services.RequestContext) (*services.AuthResponse, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
	tokens  *security.CSRFTokenManager
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, tokens *security.CSRFTokenManager) *AuthHandler {
	return &AuthHandler{
		service: service,
		tokens:  tokens,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
}

// CSRFTokenResponse represents the response for a token request
type CSRFTokenResponse struct {
	Token string `json:"token"`
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), req.Email, req.Password, requestContext(r))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrClientBlocked):
			pkghttp.WriteRateLimited(w, "Too many failed login attempts. Try again in 15 minutes.", int(security.DefaultBruteForceWindow.Seconds()))
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Invalid email or password")
		default:
			pkghttp.WriteInternalError(w, "Login failed")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Register handles account creation
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name, requestContext(r))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "An account with this email already exists")
		default:
			pkghttp.WriteInternalError(w, "Registration failed")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, resp)
}

// CSRFToken issues a fresh token for the authenticated caller. Issuing a
// new token replaces any earlier one for the same identity.
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	token, err := h.tokens.Issue(claims.UserID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to issue token")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, CSRFTokenResponse{Token: token})
}

func requestContext(r *http.Request) services.RequestContext {
	return services.RequestContext{
		IP:        pkghttp.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}
