package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/saeid-a/CoachBookingBack/internal/repository"
	"github.com/saeid-a/CoachBookingBack/pkg/utils"
)

const minPasswordLength = 8

type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminPassword string
}

type RegisterInput struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	AdminPassword string `json:"admin_password"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService struct {
	deps Deps
	cfg  AuthConfig
}

func NewAuthService(deps Deps, cfg AuthConfig) *AuthService {
	return &AuthService{deps: deps.withDefaults(), cfg: cfg}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	return s.register(ctx, input, models.RoleStudent)
}

// RegisterCoach requires the configured admin password. With none configured
// coach registration is closed.
func (s *AuthService) RegisterCoach(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if s.cfg.AdminPassword == "" ||
		subtle.ConstantTimeCompare([]byte(input.AdminPassword), []byte(s.cfg.AdminPassword)) != 1 {
		return nil, ErrForbidden
	}
	return s.register(ctx, input, models.RoleCoach)
}

func (s *AuthService) register(ctx context.Context, input RegisterInput, role models.Role) (*AuthResult, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" || lastName == "" || strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, ErrMissingField
	}
	parsed, err := mail.ParseAddress(strings.TrimSpace(input.Email))
	if err != nil {
		return nil, ErrInvalidInput
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrInvalidInput
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		UID:          uuid.NewString(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        strings.ToLower(parsed.Address),
		PasswordHash: hashed,
		Role:         role,
	}
	if err := s.deps.Store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrMissingField
	}

	user, err := s.deps.Store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, identity models.Identity) (*models.User, error) {
	user, err := s.deps.Store.Users().GetByUID(ctx, identity.UID)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := utils.GenerateToken(user.UID, string(user.Role), s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}
