package farm

import (
	"context"
	"strings"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
	"github.com/Aleph-Alpha/farmstore/v1/store"
)

// UserRepository stores user accounts.
type UserRepository struct {
	Repository
}

// NewUserRepository creates the users repository.
func NewUserRepository(f *store.Facade) *UserRepository {
	return &UserRepository{Repository: NewRepository(f, TableUsers)}
}

// Create stores the user with a normalized email.
func (r *UserRepository) Create(ctx context.Context, data map[string]any) (engine.Row, error) {
	payload := copyPayload(data)
	if email, ok := payload["email"].(string); ok {
		payload["email"] = normalizeEmail(email)
	}
	return r.Repository.Create(ctx, payload)
}

// FindByEmail returns the user with email, case insensitively, or nil.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (engine.Row, error) {
	found, err := r.FindMany(ctx, store.Filters{"email": normalizeEmail(email)}, store.FindOptions{Limit: 1})
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
