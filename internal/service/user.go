package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/forgo/herald/internal/model"
)

// UserRepository defines the user persistence the service needs
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	TouchLogin(ctx context.Context, id, name, providerID string) error
}

// UserService records members who connect a publishing account
type UserService struct {
	repo UserRepository
}

// NewUserService creates a new user service
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// UpsertOAuthUser finds the user by email or creates one. Existing users get
// their login time refreshed.
func (s *UserService) UpsertOAuthUser(ctx context.Context, email, name string, provider model.AuthProvider, providerID string) (*model.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, false, ErrInvalidEmail
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if err := s.repo.TouchLogin(ctx, existing.ID, name, providerID); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	user := &model.User{
		Email:      email,
		Name:       strings.TrimSpace(name),
		Provider:   provider,
		ProviderID: providerID,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// GetByEmail returns the user with the given email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
