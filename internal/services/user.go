package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/imago3d/apiserver/internal/auth"
	"github.com/imago3d/apiserver/internal/store"
	"github.com/imago3d/apiserver/types"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Delete(ctx context.Context, id int) error
}

// UserService implements the registration and login flows.
type UserService struct {
	repo     UserRepository
	secret   []byte
	tokenTTL time.Duration
}

func NewUserService(repo UserRepository, jwtSecret []byte) *UserService {
	return &UserService{
		repo:     repo,
		secret:   jwtSecret,
		tokenTTL: auth.TokenTTL,
	}
}

// Register creates a new account: uniqueness check, hash, insert.
// The returned user carries no password hash in its JSON form.
//
// The pre-check on email is a fast path only; the store's unique index
// is what actually prevents two concurrent registrations of the same
// email, and its violation maps to ErrEmailTaken as well.
func (s *UserService) Register(ctx context.Context, email, password, name string) (types.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" {
		return types.User{}, ErrMissingField
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return types.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, fmt.Errorf("check existing user: %w", err)
	}

	digest, err := auth.HashPassword(password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Email:        email,
		Name:         name,
		PasswordHash: digest,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, ErrEmailTaken
		}
		return types.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues a bearer token. An unknown
// email and a wrong password produce the identical error.
func (s *UserService) Login(ctx context.Context, email, password string) (string, types.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", types.User{}, ErrMissingField
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", types.User{}, ErrInvalidCredentials
		}
		return "", types.User{}, fmt.Errorf("look up user: %w", err)
	}

	if err := auth.CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return "", types.User{}, ErrInvalidCredentials
		}
		return "", types.User{}, fmt.Errorf("check password: %w", err)
	}

	token, err := auth.IssueToken(user.ID, user.Email, s.secret, s.tokenTTL)
	if err != nil {
		return "", types.User{}, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns every account, for the admin table.
func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
