package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/filmchain/track-shorts/internal/apperror"
	"github.com/filmchain/track-shorts/internal/models"
	"github.com/filmchain/track-shorts/internal/store"
)

const TokenType = "bearer"

type AuthResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

type SignupInput struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Username *string `json:"username" validate:"omitempty,max=100"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleProfile is the subset of Google's userinfo response we keep.
type GoogleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Accounts handles sign-up, password login, Google login and bearer token
// checks on top of the user store.
type Accounts struct {
	users     store.UserStore
	tokens    *TokenService
	passwords *PasswordService
	logger    *zap.Logger
}

func NewAccounts(users store.UserStore, tokens *TokenService, passwords *PasswordService, logger *zap.Logger) *Accounts {
	return &Accounts{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

func (a *Accounts) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email := strings.TrimSpace(in.Email)

	_, err := a.users.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, apperror.Conflict("Email already registered")
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, err
	}

	hash, err := a.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	user := &models.User{
		Email:        email,
		Username:     in.Username,
		PasswordHash: &hash,
		Provider:     models.ProviderLocal,
	}
	if err := a.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	a.logger.Info("user signed up", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (a *Accounts) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	invalid := apperror.Unauthorized("Incorrect email or password")

	user, err := a.users.GetUserByEmail(ctx, strings.TrimSpace(in.Email))
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}

	if user.PasswordHash == nil || !a.passwords.Matches(*user.PasswordHash, in.Password) {
		return nil, invalid
	}

	return a.issue(user)
}

// LoginWithGoogle finds the user by email, creating a google account on
// first login, and issues a token for it.
func (a *Accounts) LoginWithGoogle(ctx context.Context, profile GoogleProfile) (*AuthResult, error) {
	if profile.Email == "" {
		return nil, apperror.Validation("Email not found in Google account")
	}

	user, err := a.users.GetUserByEmail(ctx, profile.Email)
	if errors.Is(err, store.ErrUserNotFound) {
		user = &models.User{
			Email:    profile.Email,
			Provider: models.ProviderGoogle,
		}
		if profile.Name != "" {
			user.Username = &profile.Name
		}
		if profile.Picture != "" {
			user.Picture = &profile.Picture
		}
		if profile.ID != "" {
			user.GoogleID = &profile.ID
		}

		if err := a.users.CreateUser(ctx, user); err != nil {
			return nil, err
		}
		a.logger.Info("user created from google login", zap.String("user_id", user.ID.String()))
	} else if err != nil {
		return nil, err
	}

	return a.issue(user)
}

// Authenticate resolves a bearer token to its user.
func (a *Accounts) Authenticate(ctx context.Context, token string) (*models.User, error) {
	invalid := apperror.Unauthorized("Could not validate credentials")

	email, err := a.tokens.Validate(token)
	if err != nil {
		return nil, invalid
	}

	user, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *Accounts) issue(user *models.User) (*AuthResult, error) {
	token, err := a.tokens.Generate(user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token for user %s: %w", user.ID, err)
	}
	return &AuthResult{AccessToken: token, TokenType: TokenType, User: user}, nil
}
