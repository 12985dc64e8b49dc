package auth

import (
	"testing"
	"time"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/models"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(config.TokenConfig{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return svc
}

func TestTokenServiceIssueAndVerify(t *testing.T) {
	svc := newTestTokenService(t)

	user := models.User{ID: "user-1", Email: "ada@example.com", Username: "ada", FullName: "Ada Lovelace"}
	tokens, err := svc.IssuePair(user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", tokens)
	}
	if !tokens.RefreshExpiresAt.After(tokens.AccessExpiresAt) {
		t.Fatalf("refresh expiry %v should outlast access expiry %v", tokens.RefreshExpiresAt, tokens.AccessExpiresAt)
	}

	claims, err := svc.VerifyAccess(tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.Subject != user.ID {
		t.Fatalf("expected subject %q got %q", user.ID, claims.Subject)
	}
	if claims.Email != user.Email || claims.Username != user.Username {
		t.Fatalf("claims do not carry the profile: %+v", claims)
	}

	subject, err := svc.VerifyRefresh(tokens.RefreshToken)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if subject != user.ID {
		t.Fatalf("expected refresh subject %q got %q", user.ID, subject)
	}
}

func TestTokenServiceMintsDistinctTokensWithinOneSecond(t *testing.T) {
	svc := newTestTokenService(t)
	user := models.User{ID: "user-1", Username: "ada"}

	// Claim timestamps only carry second precision, so back-to-back issuance
	// lands on identical iat/exp. The jti must still make each token unique or
	// rotation would swap the stored token for the same string and replay
	// detection could never trip.
	first, err := svc.IssuePair(user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	second, err := svc.IssuePair(user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if first.RefreshToken == second.RefreshToken {
		t.Fatal("two refresh tokens for the same user must not be identical")
	}
	if first.AccessToken == second.AccessToken {
		t.Fatal("two access tokens for the same user must not be identical")
	}
}

func TestTokenServiceRejectsCrossedTokens(t *testing.T) {
	svc := newTestTokenService(t)

	tokens, err := svc.IssuePair(models.User{ID: "user-2"})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	// The two token kinds are signed with distinct secrets, so one must not
	// validate as the other.
	if _, err := svc.VerifyAccess(tokens.RefreshToken); err == nil {
		t.Fatal("refresh token should not verify as access token")
	}
	if _, err := svc.VerifyRefresh(tokens.AccessToken); err == nil {
		t.Fatal("access token should not verify as refresh token")
	}
}

func TestTokenServiceRejectsForeignSignature(t *testing.T) {
	svc := newTestTokenService(t)
	other, err := NewTokenService(config.TokenConfig{
		AccessSecret:  "a-completely-different-secret",
		RefreshSecret: "another-different-secret-too",
	})
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}

	tokens, err := other.IssuePair(models.User{ID: "user-3"})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := svc.VerifyAccess(tokens.AccessToken); err == nil {
		t.Fatal("token signed with a foreign secret should not verify")
	}
}

func TestNewTokenServiceRejectsShortSecrets(t *testing.T) {
	if _, err := NewTokenService(config.TokenConfig{AccessSecret: "short", RefreshSecret: "short"}); err == nil {
		t.Fatal("expected an error for short secrets")
	}
}
