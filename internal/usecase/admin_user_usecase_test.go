package usecase

import (
	"context"
	"testing"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	auth "sekolah/internal/usecase/auth_usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuspend_RevokesSessionsAndBlocksLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.seedAdmin(t, false)
	u := e.seedStudent(t, "1234567890")

	s, err := e.loginNISN("1234567890", testPassword)
	require.NoError(t, err)

	require.NoError(t, e.adminUsers.Suspend(ctx, u.ID, admin.ID, "Melanggar aturan"))

	sessions, err := e.sessions.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	_, err = e.refresh.Execute(ctx, s.RefreshToken, model.DeviceInfo{})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	_, err = e.loginNISN("1234567890", testPassword)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	unread, err := e.notifications.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	// 再開すればログインできる
	require.NoError(t, e.adminUsers.Reactivate(ctx, u.ID, admin.ID))
	_, err = e.loginNISN("1234567890", testPassword)
	assert.NoError(t, err)
}

func TestSuspend_SuperAdminIsProtected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.seedAdmin(t, false)
	super := e.seedAdmin(t, true)

	err := e.adminUsers.Suspend(ctx, super.ID, admin.ID, "")
	assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))

	err = e.adminUsers.Delete(ctx, super.ID, admin.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))

	got, err := e.repos.Users.FindByID(ctx, super.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, got.Status)
}

func TestReactivate_RequiresSuspended(t *testing.T) {
	e := newEnv(t)
	admin := e.seedAdmin(t, false)
	u := e.seedStudent(t, "1234567890")

	err := e.adminUsers.Reactivate(context.Background(), u.ID, admin.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))
}

func TestDeleteUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.seedAdmin(t, false)
	u := e.seedStudent(t, "1234567890")

	require.NoError(t, e.adminUsers.Delete(ctx, u.ID, admin.ID))

	_, err := e.adminUsers.Get(ctx, u.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	err = e.adminUsers.Delete(ctx, u.ID, admin.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestGetUser_IncludesProfile(t *testing.T) {
	e := newEnv(t)
	u := e.seedStudent(t, "1234567890")

	got, err := e.adminUsers.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.User.ID)
	assert.IsType(t, &model.Student{}, got.Profile)
}

func TestListUsers_Filters(t *testing.T) {
	e := newEnv(t)
	e.seedAdmin(t, false)
	e.seedStudent(t, "1000000001")
	e.seedStudent(t, "1000000002")
	e.seedUser(t, model.RoleParent, model.UserStatusSuspended)

	out, err := e.adminUsers.List(context.Background(), ListUsersInput{Role: "student"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Total)

	out, err = e.adminUsers.List(context.Background(), ListUsersInput{Status: "suspended"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)

	out, err = e.adminUsers.List(context.Background(), ListUsersInput{Search: "ADMIN"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
}

func TestCreateAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.seedAdmin(t, false)
	super := e.seedAdmin(t, true)

	_, err := e.adminUsers.CreateAdmin(ctx, admin.ID, CreateAdminInput{Email: "new@sekolah.test", FullName: "Baru"})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	out, err := e.adminUsers.CreateAdmin(ctx, super.ID, CreateAdminInput{Email: " New@Sekolah.test ", FullName: "Baru"})
	require.NoError(t, err)
	assert.Equal(t, "new@sekolah.test", out.Admin.Email)
	assert.Len(t, out.GeneratedPassword, auth.AdminPasswordLength)

	s, err := e.login.Execute(ctx, auth.LoginInput{
		Identity: auth.LoginIdentity{Field: auth.FieldAdminEmail, Key: "new@sekolah.test", Password: out.GeneratedPassword},
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, s.User.Role)
	assert.True(t, s.User.MustChangePassword)

	_, err = e.adminUsers.CreateAdmin(ctx, super.ID, CreateAdminInput{Email: "new@sekolah.test", FullName: "Lagi"})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestDashboardStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.seedAdmin(t, false)
	e.seedStudent(t, "1000000001")
	e.seedUser(t, model.RoleTeacher, model.UserStatusActive)
	e.seedUser(t, model.RoleParent, model.UserStatusActive)
	e.submitStudent(t, "1000000002", "pending@example.com")

	u := e.seedStudent(t, "1000000003")
	require.NoError(t, e.adminUsers.Suspend(ctx, u.ID, admin.ID, ""))

	out, err := e.adminUsers.DashboardStats(ctx)
	require.NoError(t, err)

	// 生徒: 有効1 + 停止1 + 承認待ち1
	assert.Equal(t, int64(3), out.Stats.TotalStudents)
	assert.Equal(t, int64(1), out.Stats.TotalTeachers)
	assert.Equal(t, int64(1), out.Stats.TotalParents)
	assert.Equal(t, int64(4), out.Stats.TotalUsers)
	assert.Equal(t, int64(1), out.Stats.PendingRegistrations)
	assert.NotEmpty(t, out.RecentActivity)
}
