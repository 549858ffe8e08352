package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/orchestrate/internal/domain"
	"github.com/yourorg/orchestrate/internal/security/ratelimit"
	"github.com/yourorg/orchestrate/internal/service"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	auth    *service.AuthService
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth handler. The limiter guards the
// login endpoint against credential stuffing and may be nil in tests.
func NewAuthHandler(auth *service.AuthService, limiter *ratelimit.Limiter, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{auth: auth, limiter: limiter, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password, domain.Role(req.Role))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": newUserView(user)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login. Attempts are throttled per email
// on top of the global rate limit.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if h.limiter != nil && req.Email != "" {
		if !h.limiter.AllowStrict("login:"+req.Email, 10, time.Minute) {
			h.logger.Warn("login throttled", slog.String("email", req.Email))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"message": "Too many login attempts"})
			return
		}
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token: result.Token,
		User:  newUserView(result.User),
	})
}
