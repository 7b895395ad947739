package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_IssuesSession(t *testing.T) {
	f := newFixture(t)
	u := f.seedStudent(t, "1234567890", model.UserStatusActive)

	s := f.loginStudent(t, "1234567890")

	assert.NotEmpty(t, s.AccessToken)
	assert.NotEmpty(t, s.RefreshToken)
	assert.NotEmpty(t, s.SessionID)
	assert.Equal(t, f.clock.Now().Add(time.Hour).UnixMilli(), s.ExpiresAt)
	assert.Equal(t, u.ID, s.User.ID)

	claims, err := f.issuer.Parse(s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, model.RoleStudent, claims.Role)

	list := f.activeSessions(t, u.ID)
	require.Len(t, list, 1)
	assert.Equal(t, s.SessionID, list[0].ID)
	assert.Equal(t, "Chrome", list[0].DeviceName)

	stored, err := f.tokens.Find(context.Background(), s.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, stored.SessionID)
	assert.Equal(t, s.SessionID, *stored.SessionID)
}

func TestRefresh_RotatesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedStudent(t, "1234567890", model.UserStatusActive)
	first := f.loginStudent(t, "1234567890")

	second, err := f.refresh.Execute(ctx, first.RefreshToken, model.DeviceInfo{Name: "Chrome"})
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	ok, err := f.tokens.Validate(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.False(t, ok)

	// 古いセッションは閉じられ、新しいものだけ残る
	list := f.activeSessions(t, first.User.ID)
	require.Len(t, list, 1)
	assert.Equal(t, second.SessionID, list[0].ID)
}

func TestRefresh_ReusedTokenIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedStudent(t, "1234567890", model.UserStatusActive)
	s := f.loginStudent(t, "1234567890")

	_, err := f.refresh.Execute(ctx, s.RefreshToken, model.DeviceInfo{})
	require.NoError(t, err)

	_, err = f.refresh.Execute(ctx, s.RefreshToken, model.DeviceInfo{})
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindUnauthorized, ae.Kind)
	assert.Equal(t, "Invalid or expired refresh token", ae.Message)
}

func TestRefresh_ConcurrentUseOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "1234567890", model.UserStatusActive)
	s := f.loginStudent(t, "1234567890")

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.refresh.Execute(context.Background(), s.RefreshToken, model.DeviceInfo{})
		}(i)
	}
	wg.Wait()

	success := 0
	for _, err := range errs {
		if err == nil {
			success++
			continue
		}
		assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
	}
	assert.Equal(t, 1, success)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "1234567890", model.UserStatusActive)
	s := f.loginStudent(t, "1234567890")

	f.clock.Advance(8 * 24 * time.Hour)

	_, err := f.refresh.Execute(context.Background(), s.RefreshToken, model.DeviceInfo{})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestRefresh_SuspendedUserIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedStudent(t, "1234567890", model.UserStatusActive)
	s := f.loginStudent(t, "1234567890")

	require.NoError(t, f.repos.Users.UpdateStatus(ctx, u.ID, model.UserStatusSuspended))

	_, err := f.refresh.Execute(ctx, s.RefreshToken, model.DeviceInfo{})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestLogout_WithTokenEndsOnlyThatSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedStudent(t, "1234567890", model.UserStatusActive)
	a := f.loginStudent(t, "1234567890")
	b := f.loginStudent(t, "1234567890")

	require.NoError(t, f.logout.Execute(ctx, a.User.ID, a.RefreshToken))

	list := f.activeSessions(t, a.User.ID)
	require.Len(t, list, 1)
	assert.Equal(t, b.SessionID, list[0].ID)

	_, err := f.refresh.Execute(ctx, a.RefreshToken, model.DeviceInfo{})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	assert.Len(t, f.activityOf(t, a.User.ID, model.ActivityLogout), 1)

	// 2回目は何もしない
	assert.NoError(t, f.logout.Execute(ctx, a.User.ID, a.RefreshToken))
}

func TestLogout_WithoutTokenEndsEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedStudent(t, "1234567890", model.UserStatusActive)
	a := f.loginStudent(t, "1234567890")
	b := f.loginStudent(t, "1234567890")

	require.NoError(t, f.logout.Execute(ctx, a.User.ID, ""))

	assert.Empty(t, f.activeSessions(t, a.User.ID))
	for _, s := range []*Session{a, b} {
		ok, err := f.tokens.Validate(ctx, s.RefreshToken)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestLogout_CannotRevokeSomeoneElsesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedStudent(t, "1000000001", model.UserStatusActive)
	f.seedStudent(t, "1000000002", model.UserStatusActive)
	a := f.loginStudent(t, "1000000001")
	b := f.loginStudent(t, "1000000002")

	require.NoError(t, f.logout.Execute(ctx, a.User.ID, b.RefreshToken))

	ok, err := f.tokens.Validate(ctx, b.RefreshToken)
	require.NoError(t, err)
	assert.True(t, ok)
}
