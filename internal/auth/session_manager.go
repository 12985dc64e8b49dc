package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/clipstream/backend/internal/models"
)

// ErrUserGone indicates a token's subject no longer resolves to a stored user.
var ErrUserGone = errors.New("user for token not found")

// CredentialStore is the slice of user persistence the session manager needs.
// The refresh token column on the user row is the single source of truth for
// which refresh token is currently valid.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	// SaveRefreshToken overwrites the stored refresh token unconditionally.
	SaveRefreshToken(ctx context.Context, userID, token string) error
	// SwapRefreshToken replaces the stored token only when it still equals
	// current. Implementations must perform the compare-and-set as a single
	// atomic statement and return ErrTokenReuse when nothing matched.
	SwapRefreshToken(ctx context.Context, userID, current, next string) error
	// ClearRefreshToken revokes the active session.
	ClearRefreshToken(ctx context.Context, userID string) error
}

// SessionManager drives the refresh-token lifecycle:
// no session -> active (token A) -> active (token B, on rotation) -> revoked.
// A presented token that does not match the stored value is rejected without
// mutating stored state.
type SessionManager struct {
	tokens *TokenService
	users  CredentialStore
}

// NewSessionManager constructs a SessionManager over the provided collaborators.
func NewSessionManager(tokens *TokenService, users CredentialStore) *SessionManager {
	if tokens == nil || users == nil {
		panic("auth: session manager requires a token service and a credential store")
	}
	return &SessionManager{tokens: tokens, users: users}
}

// Issue mints a token pair for the user and persists the refresh token,
// invalidating whatever was stored before.
func (m *SessionManager) Issue(ctx context.Context, user models.User) (models.SessionTokens, error) {
	pair, err := m.tokens.IssuePair(user)
	if err != nil {
		return models.SessionTokens{}, err
	}
	if err := m.users.SaveRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return models.SessionTokens{}, fmt.Errorf("persist refresh token: %w", err)
	}
	return pair, nil
}

// Rotate exchanges a presented refresh token for a fresh pair. A stale token
// (well-formed but no longer the stored one) fails with ErrTokenReuse.
func (m *SessionManager) Rotate(ctx context.Context, presented string) (models.SessionTokens, error) {
	if presented == "" {
		return models.SessionTokens{}, ErrNoToken
	}

	userID, err := m.tokens.VerifyRefresh(presented)
	if err != nil {
		return models.SessionTokens{}, err
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserGone) {
			return models.SessionTokens{}, ErrInvalidToken
		}
		return models.SessionTokens{}, fmt.Errorf("load user for rotation: %w", err)
	}

	if user.RefreshToken != presented {
		return models.SessionTokens{}, ErrTokenReuse
	}

	pair, err := m.tokens.IssuePair(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	// The compare-and-set closes the window between the equality check above
	// and the write: of two concurrent rotations only one can win.
	if err := m.users.SwapRefreshToken(ctx, user.ID, presented, pair.RefreshToken); err != nil {
		return models.SessionTokens{}, err
	}

	return pair, nil
}

// Revoke clears the stored refresh token, ending the user's session.
func (m *SessionManager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return m.users.ClearRefreshToken(ctx, userID)
}

// VerifyAccess exposes access-token verification for the session middleware.
func (m *SessionManager) VerifyAccess(token string) (AccessClaims, error) {
	return m.tokens.VerifyAccess(token)
}
