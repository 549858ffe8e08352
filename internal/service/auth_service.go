package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/orchestrate/internal/domain"
	"github.com/yourorg/orchestrate/internal/security/auth"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenLifetime = 24 * time.Hour

// AuthService handles registration and login.
type AuthService struct {
	userRepo      domain.UserRepository
	tokenManager  *auth.TokenManager
	tokenLifetime time.Duration
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service. A zero lifetime
// falls back to 24 hours.
func NewAuthService(userRepo domain.UserRepository, tm *auth.TokenManager, tokenLifetime time.Duration, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if tokenLifetime <= 0 {
		tokenLifetime = defaultTokenLifetime
	}

	return &AuthService{
		userRepo:      userRepo,
		tokenManager:  tm,
		tokenLifetime: tokenLifetime,
		logger:        logger,
	}
}

// LoginResult represents a successful login.
type LoginResult struct {
	Token string
	User  *domain.User
}

// Register creates a new user account. Role defaults to DEVELOPER; a
// duplicate email is a conflict. The returned user carries its password
// hash, which the transport layer must never serialize.
func (s *AuthService) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, domain.Validationf("Missing required fields")
	}
	if role == "" {
		role = domain.RoleDeveloper
	}
	if !role.Valid() {
		return nil, domain.Validationf("invalid role: %s", role)
	}

	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, domain.Conflictf("User already exists")
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       domain.UserActive,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// Login authenticates a user and returns a signed token. Disabled users
// are rejected even with valid credentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, domain.Validationf("Missing fields")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Info("login attempt with non-existent email", slog.String("email", email))
		return nil, domain.Unauthorizedf("Invalid credentials")
	}

	if user.Status != domain.UserActive {
		return nil, domain.Forbiddenf("User is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("email", email))
		return nil, domain.Unauthorizedf("Invalid credentials")
	}

	token, err := s.tokenManager.GenerateToken(user, s.tokenLifetime)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, errors.New("failed to generate token")
	}

	s.logger.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return &LoginResult{Token: token, User: user}, nil
}
