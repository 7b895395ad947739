package auth

import (
	"context"
	"testing"
	"time"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	authn := NewAuthenticator(f.issuer, f.repos.Users, zap.NewNop())

	u := f.seedStudent(t, "1234567890", model.UserStatusActive)
	s := f.loginStudent(t, "1234567890")

	t.Run("valid token", func(t *testing.T) {
		p, err := authn.Authenticate(ctx, s.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, u.ID, p.UserID)
		assert.Equal(t, model.RoleStudent, p.Role)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := authn.Authenticate(ctx, "not-a-jwt")
		assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		_, err := authn.Authenticate(ctx, s.RefreshToken)
		assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
	})

	t.Run("suspended after issue", func(t *testing.T) {
		require.NoError(t, f.repos.Users.UpdateStatus(ctx, u.ID, model.UserStatusSuspended))
		defer func() {
			require.NoError(t, f.repos.Users.UpdateStatus(ctx, u.ID, model.UserStatusActive))
		}()

		_, err := authn.Authenticate(ctx, s.AccessToken)
		require.Error(t, err)
		ae, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, "Akun tidak aktif", ae.Message)
	})

	t.Run("deleted after issue", func(t *testing.T) {
		other := f.seedStudent(t, "1000000009", model.UserStatusActive)
		os := f.loginStudent(t, "1000000009")
		require.NoError(t, f.repos.Users.Delete(ctx, other.ID))

		_, err := authn.Authenticate(ctx, os.AccessToken)
		assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
	})
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "1234567890", model.UserStatusActive)

	// 発行側の時計を過去にずらして期限切れトークンを作る
	past := &testClock{now: time.Now().Add(-2 * time.Hour)}
	issuer := NewJWTIssuer("test-secret", time.Hour, past)
	stale, err := issuer.Issue("whoever", "x@sekolah.test", model.RoleStudent)
	require.NoError(t, err)

	authn := NewAuthenticator(f.issuer, f.repos.Users, zap.NewNop())
	_, err = authn.Authenticate(context.Background(), stale.AccessToken)
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "Token tidak valid atau sudah kedaluwarsa", ae.Message)
}

func TestAuthenticate_RoleComesFromStore(t *testing.T) {
	f := newFixture(t)
	u := f.seedAdmin(t, false)

	// トークン上はstudentでもDBのroleを使う
	forged, err := f.issuer.Issue(u.ID, u.Email, model.RoleStudent)
	require.NoError(t, err)

	authn := NewAuthenticator(f.issuer, f.repos.Users, zap.NewNop())
	p, err := authn.Authenticate(context.Background(), forged.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, p.Role)
}
