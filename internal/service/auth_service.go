package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/hostres/internal/auth"
	"github.com/spec-kit/hostres/internal/config"
	"github.com/spec-kit/hostres/internal/domain"
	"github.com/spec-kit/hostres/internal/repository"
	apperrors "github.com/spec-kit/hostres/pkg/util"
)

const minPasswordLength = 6

// bcrypt rejects longer input.
const maxPasswordBytes = 72

// SummaryCache caches user summaries by id.
type SummaryCache interface {
	Get(ctx context.Context, id string, load func(context.Context) (*domain.UserSummary, error)) (*domain.UserSummary, error)
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User      domain.UserSummary `json:"user"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// RegisterInput carries registration fields.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	Role        domain.Role
	Designation *string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	cache      SummaryCache
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, tokenMgr *auth.TokenManager, cache SummaryCache) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   tokenMgr,
		cache:      cache,
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates an account and signs a token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	var designation *string
	if in.Role == domain.RoleResolver && in.Designation != nil {
		if d := strings.TrimSpace(*in.Designation); d != "" {
			designation = &d
		}
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Designation:  designation,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.NewValidationError(
				"Duplicate value entered for email field, please choose another value",
				map[string]any{"email": "already registered"},
			)
		}
		return nil, err
	}
	return s.issue(user)
}

// Login authenticates by (email, role). Every mismatch yields the same error.
func (s *AuthService) Login(ctx context.Context, email, password string, role domain.Role) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("Please provide email and password", nil)
	}

	invalid := apperrors.NewUnauthorized("Invalid Credentials")
	if !role.Valid() {
		return nil, invalid
	}

	user, err := s.users.GetByEmailAndRole(ctx, email, role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invalid
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, invalid
	}
	return s.issue(user)
}

// GetUser returns the user summary, or nil when the id is unknown.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.UserSummary, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	load := func(ctx context.Context) (*domain.UserSummary, error) {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, err
		}
		summary := user.Summary()
		return &summary, nil
	}
	if s.cache == nil {
		return load(ctx)
	}
	return s.cache.Get(ctx, id, load)
}

// CheckToken verifies a raw bearer token and returns its claims.
func (s *AuthService) CheckToken(token string) (*auth.Claims, error) {
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("Unauthorized access")
	}
	return claims, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user.Summary(), Token: token, ExpiresAt: exp}, nil
}

func validateRegistration(in RegisterInput) error {
	details := map[string]any{}
	if in.Name == "" {
		details["name"] = "Please provide name"
	}
	if in.Email == "" {
		details["email"] = "Please provide email"
	} else if _, err := mail.ParseAddress(in.Email); err != nil {
		details["email"] = "Please provide a valid email"
	}
	if len(in.Password) < minPasswordLength {
		details["password"] = "Please provide a password of at least 6 characters"
	} else if len(in.Password) > maxPasswordBytes {
		details["password"] = "Password cannot be longer than 72 bytes"
	}
	if !in.Role.Valid() {
		details["type"] = "must be student or resolver"
	}
	if len(details) == 0 {
		return nil
	}
	for _, key := range []string{"name", "email", "password", "type"} {
		if msg, ok := details[key]; ok {
			return apperrors.NewValidationError(msg.(string), details)
		}
	}
	return nil
}
