package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/parks/internal/apperror"
	"github.com/sakif/parks/internal/auth"
	"github.com/sakif/parks/internal/form"
	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/repository"
)

// Login failure messages. They are deliberately distinct.
const (
	UnknownEmailMessage  = "No user found with that email."
	WrongPasswordMessage = "Incorrect password, please try again."
)

// AuthService checks credentials. Establishing the session is the
// handler's job; this layer only answers "who is this?".
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	validator *form.Validator
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	validator *form.Validator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		validator: validator,
		logger:    logger,
	}
}

// Login returns the user for a matching email and password.
//
// An unknown email and a wrong password are both apperror.ErrUnauthorized;
// the Field ("email" or "password") and message tell them apart.
func (s *AuthService) Login(ctx context.Context, in form.LoginInput) (*model.User, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	user, err := s.lookup(ctx, in.Email)
	if err != nil {
		return nil, err
	}

	if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login failed: wrong password", slog.Int64("userID", user.ID))
			return nil, apperror.Unauthorized("password", WrongPasswordMessage)
		}
		return nil, fmt.Errorf("service/auth: verifying password for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return user, nil
}

// LoginWithGitHub maps a GitHub profile onto an existing user by email.
// GitHub sign-in never creates users.
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*model.User, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user, err := s.lookup(ctx, ghUser.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in via GitHub",
		slog.Int64("userID", user.ID),
		slog.String("login", ghUser.Login),
	)
	return user, nil
}

// CreateUser provisions an administrator. There is no sign-up page; the
// create-user command is the only caller.
func (s *AuthService) CreateUser(ctx context.Context, in form.UserInput) (*model.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", slog.Int64("userID", user.ID), slog.String("email", user.Email))
	return user, nil
}

func (s *AuthService) lookup(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Info("login failed: unknown email")
			return nil, apperror.Unauthorized("email", UnknownEmailMessage)
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}
	return user, nil
}
