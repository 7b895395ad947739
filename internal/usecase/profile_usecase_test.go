package usecase

import (
	"context"
	"testing"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileSecurity_Sessions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.seedStudent(t, "1000000001")
	other := e.seedStudent(t, "1000000002")

	current, err := e.loginNISN("1000000001", testPassword)
	require.NoError(t, err)
	second, err := e.loginNISN("1000000001", testPassword)
	require.NoError(t, err)
	third, err := e.loginNISN("1000000001", testPassword)
	require.NoError(t, err)
	foreign, err := e.loginNISN("1000000002", testPassword)
	require.NoError(t, err)

	sessions, err := e.profile.Sessions(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)

	err = e.profile.RevokeSession(ctx, u.ID, foreign.SessionID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	require.NoError(t, e.profile.RevokeSession(ctx, u.ID, second.SessionID))
	_, err = e.refresh.Execute(ctx, second.RefreshToken, model.DeviceInfo{})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	n, err := e.profile.LogoutAll(ctx, u.ID, current.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sessions, err = e.profile.Sessions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, current.SessionID, sessions[0].ID)

	_, err = e.refresh.Execute(ctx, third.RefreshToken, model.DeviceInfo{})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	// 他のユーザーには影響しない
	sessions, err = e.profile.Sessions(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestProfileSecurity_Activity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.seedStudent(t, "1000000001")

	s, err := e.loginNISN("1000000001", testPassword)
	require.NoError(t, err)
	require.NoError(t, e.profile.RevokeSession(ctx, u.ID, s.SessionID))

	logs, err := e.profile.Activity(ctx, u.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, model.ActivityRevokeSession, logs[0].Action)
	assert.Equal(t, model.ActivityLogin, logs[1].Action)

	_, err = e.profile.Activity(ctx, u.ID, -1, 10)
	assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))
}
