package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rollcall-hq/rollcall/internal/auth/domain"
	"github.com/rollcall-hq/rollcall/internal/auth/store"
	"github.com/rollcall-hq/rollcall/pkg/cryptox"
	"github.com/rollcall-hq/rollcall/pkg/idx"
)

var (
	ErrUserNotFound = errors.New("service: user not found")
	ErrEmailTaken   = errors.New("service: email already registered")
	ErrWeakPassword = errors.New("service: password too short")
)

// minPasswordLength applies to new and changed passwords. Imported legacy
// passwords are exempt until their owner changes them.
const minPasswordLength = 8

// UserService manages accounts.
type UserService struct {
	Store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{Store: st}
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("service: get user: %w", err)
	}
	return user, nil
}

// CreateUser registers a new account with a hashed credential and returns it.
func (s *UserService) CreateUser(
	ctx context.Context,
	email, displayName, password string,
	role domain.Role,
) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.User{}, errors.New("service: email required")
	}
	if len(password) < minPasswordLength {
		return domain.User{}, ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("service: hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		DisplayName:  displayName,
		Role:         role,
		PasswordHash: hash,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("service: create user: %w", err)
	}

	return user, nil
}

// ChangePassword verifies the current credential before writing the new one.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < minPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !cryptox.VerifyPassword(current, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(next)
	if err != nil {
		return fmt.Errorf("service: hash password: %w", err)
	}

	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("service: update password: %w", err)
	}
	return nil
}
