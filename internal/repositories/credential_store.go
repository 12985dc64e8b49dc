package repositories

import (
	"context"
	"errors"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/models"
)

// credentialStore adapts the user repository to the session manager's
// contract, translating repository sentinels into the auth vocabulary.
type credentialStore struct {
	users *PostgresUserRepository
}

// NewCredentialStore exposes the user repository as an auth.CredentialStore.
func NewCredentialStore(users *PostgresUserRepository) auth.CredentialStore {
	return credentialStore{users: users}
}

func (s credentialStore) FindByID(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, auth.ErrUserGone
	}
	return user, err
}

func (s credentialStore) SaveRefreshToken(ctx context.Context, userID, token string) error {
	return s.users.SaveRefreshToken(ctx, userID, token)
}

func (s credentialStore) SwapRefreshToken(ctx context.Context, userID, current, next string) error {
	return s.users.SwapRefreshToken(ctx, userID, current, next)
}

func (s credentialStore) ClearRefreshToken(ctx context.Context, userID string) error {
	return s.users.ClearRefreshToken(ctx, userID)
}
