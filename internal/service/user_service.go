package service

import (
	"context"
	"crypto/subtle"
	"strings"

	"go.uber.org/zap"

	"github.com/Divyaanshvats/intern-management-system/internal/core/auth"
	"github.com/Divyaanshvats/intern-management-system/internal/domain"
	"github.com/Divyaanshvats/intern-management-system/pkg/utils"
)

type UserService struct {
	repo       domain.UserRepository
	gate       *auth.Gate
	inviteCode string
	log        *zap.Logger
}

// NewUserService wires registration and login. An empty inviteCode
// closes self-registration for privileged roles.
func NewUserService(repo domain.UserRepository, gate *auth.Gate, inviteCode string, l *zap.Logger) *UserService {
	return &UserService{repo: repo, gate: gate, inviteCode: inviteCode, log: l}
}

type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Role       domain.Role
	InviteCode string
}

func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Role.Privileged() && !s.inviteMatches(in.InviteCode) {
		return nil, domain.Unauthorized("Invalid invite code for Manager/HR")
	}
	return s.Provision(ctx, in)
}

func (s *UserService) inviteMatches(code string) bool {
	if s.inviteCode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(code), []byte(s.inviteCode)) == 1
}

// Provision creates an account without the invite check; used by
// operators.
func (s *UserService) Provision(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if !in.Role.IsValid() {
		return nil, domain.Validation("Invalid role")
	}
	email := NormalizeEmail(in.Email)
	if email == "" || strings.TrimSpace(in.Name) == "" || in.Password == "" {
		return nil, domain.Validation("Name, email and password are required")
	}
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Conflict("Email already registered")
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("email", u.Email), zap.String("role", string(u.Role)))
	return u, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (auth.Token, error) {
	u, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return auth.Token{}, err
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return auth.Token{}, domain.Validation("Invalid credentials")
	}
	if !u.IsActive {
		return auth.Token{}, domain.Forbidden("Account is deactivated. Contact HR.")
	}
	return s.gate.Issue(u.Email, u.Role)
}

func (s *UserService) List(ctx context.Context, actor auth.Identity) ([]domain.User, error) {
	if _, err := auth.RequireRole(actor, domain.RoleHR); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// ToggleActive flips the account flag. Tokens already issued stay valid
// until they expire.
func (s *UserService) ToggleActive(ctx context.Context, actor auth.Identity, email string) (*domain.User, error) {
	if _, err := auth.RequireRole(actor, domain.RoleHR); err != nil {
		return nil, err
	}
	u, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("User not found")
	}
	u.IsActive = !u.IsActive
	if err := s.repo.SetActive(ctx, u.Email, u.IsActive); err != nil {
		return nil, err
	}
	s.log.Info("user status changed",
		zap.String("email", u.Email),
		zap.Bool("is_active", u.IsActive),
		zap.String("by", actor.Email))
	return u, nil
}
