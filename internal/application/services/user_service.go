package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/codershubham350/discover-places-backend/internal/domain/entities"
	"github.com/codershubham350/discover-places-backend/internal/domain/repositories"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/observability"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/security"
	apperrors "github.com/codershubham350/discover-places-backend/pkg/errors"
)

const invalidCredentialsMessage = "Invalid credentials, could not log you in."

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	Generate(userID, email string) (string, error)
}

// SignupInput is the payload for a new account. Image is the stored upload path.
type SignupInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	Image    string
}

// AuthResult is returned by signup and login
type AuthResult struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

// UserService handles accounts and credentials
type UserService struct {
	users  repositories.UserRepository
	tokens TokenIssuer
}

// NewUserService creates a new user service
func NewUserService(users repositories.UserRepository, tokens TokenIssuer) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
	}
}

// ListUsers returns all users. Passwords never leave the entity's JSON form.
func (s *UserService) ListUsers(ctx context.Context) ([]*entities.User, error) {
	return s.users.List(ctx)
}

// Signup creates an account and issues its first token
func (s *UserService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return nil, apperrors.NewInternalError("Signing up failed, please try again later.", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("User exists already, please login instead.")
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.NewInternalError("Could not create user, please try again.", err)
	}

	user := &entities.User{
		ID:       uuid.New().String(),
		Name:     input.Name,
		Email:    input.Email,
		Password: hash,
		Image:    input.Image,
		Places:   []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.NewInternalError("Signing up failed, please try again later.", err)
	}

	observability.LoggerFromContext(ctx).Info().Str("user_id", user.ID).Msg("user signed up")
	return &AuthResult{UserID: user.ID, Email: user.Email, Token: token}, nil
}

// Login checks credentials and issues a token
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewUnauthorizedError(invalidCredentialsMessage)
		}
		return nil, apperrors.NewInternalError("Logging in failed, please try again later.", err)
	}

	if !security.CheckPassword(user.Password, password) {
		return nil, apperrors.NewUnauthorizedError(invalidCredentialsMessage)
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.NewInternalError("Logging in failed, please try again later.", err)
	}
	return &AuthResult{UserID: user.ID, Email: user.Email, Token: token}, nil
}
