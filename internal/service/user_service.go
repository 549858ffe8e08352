package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/yourorg/orchestrate/internal/domain"
	"github.com/yourorg/orchestrate/internal/security"
	"golang.org/x/crypto/bcrypt"
)

// UserService owns admin user management: listing, provisioning,
// enable/disable, and removal.
type UserService struct {
	users  domain.UserRepository
	authz  *security.AuthorizationService
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(users domain.UserRepository, authz *security.AuthorizationService, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, authz: authz, logger: logger}
}

// List returns all users. Admin only.
func (s *UserService) List(ctx context.Context, principal *domain.Principal) ([]*domain.User, error) {
	if err := s.authz.Require(principal.Role, security.PermManageUsers); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// CreateUserInput carries an admin user-provisioning request.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Create provisions a new user with an explicit role. Admin only.
func (s *UserService) Create(ctx context.Context, principal *domain.Principal, in CreateUserInput) (*domain.User, error) {
	if err := s.authz.Require(principal.Role, security.PermManageUsers); err != nil {
		return nil, err
	}
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, domain.Validationf("name, email and password are required")
	}
	if !in.Role.Valid() {
		return nil, domain.Validationf("invalid role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Status:       domain.UserActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user provisioned",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// UpdateStatus enables or disables a user. Admin only. Admins cannot
// disable themselves, that would lock the last key in the safe.
func (s *UserService) UpdateStatus(ctx context.Context, principal *domain.Principal, id string, status domain.UserStatus) (*domain.User, error) {
	if err := s.authz.Require(principal.Role, security.PermManageUsers); err != nil {
		return nil, err
	}
	if status != domain.UserActive && status != domain.UserDisabled {
		return nil, domain.Validationf("invalid status")
	}
	if id == principal.UserID && status == domain.UserDisabled {
		return nil, domain.Validationf("cannot disable your own account")
	}

	user, err := s.users.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user status changed",
		slog.String("user_id", id),
		slog.String("status", string(status)),
	)
	return user, nil
}

// Delete removes a user. Admin only; self-deletion is rejected.
func (s *UserService) Delete(ctx context.Context, principal *domain.Principal, id string) error {
	if err := s.authz.Require(principal.Role, security.PermManageUsers); err != nil {
		return err
	}
	if id == principal.UserID {
		return domain.Validationf("cannot delete your own account")
	}
	return s.users.Delete(ctx, id)
}
