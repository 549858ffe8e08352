package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/yourorg/orchestrate/internal/domain"
	"github.com/yourorg/orchestrate/internal/security/audit"
	"github.com/yourorg/orchestrate/internal/security/auth"
	"github.com/yourorg/orchestrate/internal/security/ratelimit"
)

type principalContextKey struct{}

// PrincipalLoader revalidates the token subject against current user
// state: tokens of deleted or disabled users are rejected even before
// they expire.
type PrincipalLoader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// RequireAuth rejects requests without a valid bearer token for an
// existing ACTIVE user and stores the Principal in the request context.
func RequireAuth(tm *auth.TokenManager, users PrincipalLoader, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := resolvePrincipal(r, tm, users)
			if err != nil {
				log.Debug("authentication rejected",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				http.Error(w, `{"message":"Invalid or expired token"}`, http.StatusUnauthorized)
				return
			}
			if p == nil {
				http.Error(w, `{"message":"Access token required"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// OptionalAuth resolves a Principal when a bearer token is supplied and
// otherwise lets the request through anonymously. Used on the booking
// endpoints that accept guests.
func OptionalAuth(tm *auth.TokenManager, users PrincipalLoader, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			p, err := resolvePrincipal(r, tm, users)
			if err != nil {
				log.Debug("authentication rejected",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				http.Error(w, `{"message":"Invalid or expired token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func resolvePrincipal(r *http.Request, tm *auth.TokenManager, users PrincipalLoader) (*domain.Principal, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, nil
	}
	tokenString, err := auth.ExtractToken(authHeader)
	if err != nil {
		return nil, err
	}
	claims, err := tm.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	// Token subject must still exist and be active.
	user, err := users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		return nil, domain.Unauthorizedf("user not found")
	}
	if user.Status != domain.UserActive {
		return nil, domain.Unauthorizedf("user disabled")
	}
	return &domain.Principal{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		Name:   user.Name,
	}, nil
}

// WithPrincipal stores the principal in the context.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// GetPrincipal returns the authenticated principal, or nil for anonymous
// requests.
func GetPrincipal(ctx context.Context) *domain.Principal {
	if p, ok := ctx.Value(principalContextKey{}).(*domain.Principal); ok {
		return p
	}
	return nil
}

// RateLimitMiddleware limits request rates per authenticated user, or per
// remote address for anonymous callers. Ops endpoints are exempt.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			key := ""
			if p := GetPrincipal(r.Context()); p != nil {
				key = p.UserID
			} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				key = host
			}

			if !limiter.Allow(key) {
				log.Warn("rate limit exceeded", slog.String("key", key), slog.String("path", r.URL.Path))
				http.Error(w, `{"message":"Rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records mutating requests with the acting principal.
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
				userID := ""
				role := ""
				if p := GetPrincipal(r.Context()); p != nil {
					userID = p.UserID
					role = string(p.Role)
				}
				auditLog.LogRequest(r.Context(), userID, role, r.Method, r.URL.Path)
			}
			next.ServeHTTP(w, r)
		})
	}
}
