package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/herald/internal/database"
	"github.com/forgo/herald/internal/model"
)

// UserRepository handles user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user and fills in its ID and timestamps. A second user
// with the same email returns database.ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		CREATE user CONTENT {
			email: $email,
			name: IF $name IS NOT NULL THEN $name ELSE NONE END,
			provider: $provider,
			provider_id: IF $provider_id IS NOT NULL THEN $provider_id ELSE NONE END,
			created_on: time::now(),
			updated_on: time::now(),
			login_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"email":       user.Email,
		"name":        optionalString(user.Name),
		"provider":    string(user.Provider),
		"provider_id": optionalString(user.ProviderID),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("%w: email already exists", database.ErrDuplicate)
		}
		return err
	}

	data, ok := firstRecord(result)
	if !ok {
		return errors.New("create user: no record returned")
	}
	created := parseUser(data)
	user.ID = created.ID
	user.CreatedOn = created.CreatedOn
	user.UpdatedOn = created.UpdatedOn
	user.LoginOn = created.LoginOn
	return nil
}

// GetByID retrieves a user by record ID. A missing user is (nil, nil).
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
}

// GetByEmail retrieves a user by email. A missing user is (nil, nil).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT * FROM user WHERE email = $email LIMIT 1`, map[string]interface{}{"email": email})
}

func (r *UserRepository) getOne(ctx context.Context, query string, vars map[string]interface{}) (*model.User, error) {
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected user result %T", result)
	}
	return parseUser(data), nil
}

// TouchLogin records a login and refreshes the provider profile fields
func (r *UserRepository) TouchLogin(ctx context.Context, id, name, providerID string) error {
	query := `
		UPDATE type::record($id) SET
			name = IF $name IS NOT NULL THEN $name ELSE name END,
			provider_id = IF $provider_id IS NOT NULL THEN $provider_id ELSE provider_id END,
			login_on = time::now(),
			updated_on = time::now()
	`
	vars := map[string]interface{}{
		"id":          id,
		"name":        optionalString(name),
		"provider_id": optionalString(providerID),
	}
	return r.db.Execute(ctx, query, vars)
}

func parseUser(data map[string]interface{}) *model.User {
	return &model.User{
		ID:         extractRecordID(data["id"]),
		Email:      getString(data, "email"),
		Name:       getString(data, "name"),
		Provider:   model.AuthProvider(getString(data, "provider")),
		ProviderID: getString(data, "provider_id"),
		CreatedOn:  getTimeValue(data, "created_on"),
		UpdatedOn:  getTimeValue(data, "updated_on"),
		LoginOn:    getTime(data, "login_on"),
	}
}
