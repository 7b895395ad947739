package usecase

import (
	"context"
	"testing"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	repo "sekolah/internal/repository"
	auth "sekolah/internal/usecase/auth_usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *env) studentProfile(t *testing.T, u *model.User) *model.Student {
	t.Helper()
	st, err := e.repos.Students.FindByUserID(context.Background(), u.ID)
	require.NoError(t, err)
	return st
}

func (e *env) inbox(t *testing.T, userID string) []model.Notification {
	t.Helper()
	ns, _, err := e.repos.Notifications.List(context.Background(), repo.NotificationFilter{RecipientID: userID})
	require.NoError(t, err)
	return ns
}

func TestParentLink_RequestAndApprove(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	studentUser := e.seedStudent(t, "2000000001")
	student := e.studentProfile(t, studentUser)
	parentUser, parent := e.seedParent(t, "Siti")

	out, err := e.links.RequestLink(ctx, parentUser.ID, "2000000001")
	require.NoError(t, err)
	assert.Equal(t, "Budi", out.StudentName)

	inbox := e.inbox(t, studentUser.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, model.NotificationParentLink, inbox[0].Type)
	assert.Equal(t, parent.ID, inbox[0].Metadata["parentId"])

	status, err := e.links.Status(ctx, parentUser.ID)
	require.NoError(t, err)
	assert.False(t, status.Linked)
	require.NotNil(t, status.Status)
	assert.Equal(t, model.LinkStatusPending, *status.Status)
	require.NotNil(t, status.Student)
	assert.Equal(t, "2000000001", status.Student.NISN)

	pending, err := e.links.PendingRequests(ctx, studentUser.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, parent.ID, pending[0].ParentID)
	assert.Equal(t, parentUser.Email, pending[0].Email)

	require.NoError(t, e.links.Approve(ctx, studentUser.ID, parent.ID))

	status, err = e.links.Status(ctx, parentUser.ID)
	require.NoError(t, err)
	assert.True(t, status.Linked)
	assert.NotNil(t, status.ApprovedAt)
	assert.Equal(t, student.ID, status.Student.ID)

	notified := e.inbox(t, parentUser.ID)
	require.Len(t, notified, 1)
	assert.Equal(t, "Tautan Disetujui", notified[0].Title)

	pending, err = e.links.PendingRequests(ctx, studentUser.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// 2回目の承認・却下は処理済み扱い
	err = e.links.Approve(ctx, studentUser.ID, parent.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))
	err = e.links.Reject(ctx, studentUser.ID, parent.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))

	// 承認済みの保護者は再申請できない
	_, err = e.links.RequestLink(ctx, parentUser.ID, "2000000001")
	assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))

	// 他の保護者はこの生徒に申請できない
	otherUser, _ := e.seedParent(t, "Agus")
	_, err = e.links.RequestLink(ctx, otherUser.ID, "2000000001")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))
	assert.Contains(t, err.Error(), "orang tua lain")
}

func TestParentLink_RejectClearsStudent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	studentUser := e.seedStudent(t, "2000000001")
	parentUser, parent := e.seedParent(t, "Siti")

	_, err := e.links.RequestLink(ctx, parentUser.ID, "2000000001")
	require.NoError(t, err)
	require.NoError(t, e.links.Reject(ctx, studentUser.ID, parent.ID))

	status, err := e.links.Status(ctx, parentUser.ID)
	require.NoError(t, err)
	assert.False(t, status.Linked)
	require.NotNil(t, status.Status)
	assert.Equal(t, model.LinkStatusRejected, *status.Status)
	assert.Nil(t, status.Student)

	notified := e.inbox(t, parentUser.ID)
	require.Len(t, notified, 1)
	assert.Equal(t, "Tautan Ditolak", notified[0].Title)

	// 却下後はもう生徒宛ての申請ではない
	err = e.links.Reject(ctx, studentUser.ID, parent.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	// 却下されたら申請し直せる
	_, err = e.links.RequestLink(ctx, parentUser.ID, "2000000001")
	require.NoError(t, err)
	pending, err := e.links.PendingRequests(ctx, studentUser.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestParentLink_OtherStudentsRequestIsNotFound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	target := e.seedStudent(t, "2000000001")
	other := e.seedStudent(t, "2000000002")
	parentUser, parent := e.seedParent(t, "Siti")

	_, err := e.links.RequestLink(ctx, parentUser.ID, "2000000001")
	require.NoError(t, err)

	err = e.links.Approve(ctx, other.ID, parent.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	err = e.links.Reject(ctx, other.ID, parent.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	err = e.links.Approve(ctx, target.ID, auth.UUIDGenerator{}.NewID())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	// 他人の操作では状態は変わらない
	status, err := e.links.Status(ctx, parentUser.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LinkStatusPending, *status.Status)
}

func TestParentLink_SecondApprovalBlocked(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	studentUser := e.seedStudent(t, "2000000001")
	firstUser, first := e.seedParent(t, "Siti")
	secondUser, second := e.seedParent(t, "Agus")

	_, err := e.links.RequestLink(ctx, firstUser.ID, "2000000001")
	require.NoError(t, err)
	_, err = e.links.RequestLink(ctx, secondUser.ID, "2000000001")
	require.NoError(t, err)

	require.NoError(t, e.links.Approve(ctx, studentUser.ID, first.ID))
	err = e.links.Approve(ctx, studentUser.ID, second.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))

	// 却下はできる
	require.NoError(t, e.links.Reject(ctx, studentUser.ID, second.ID))
}

func TestParentLink_RequestValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	parentUser, _ := e.seedParent(t, "Siti")

	unverified := e.seedUser(t, model.RoleStudent, model.UserStatusActive)
	require.NoError(t, e.repos.Students.Create(ctx, &model.Student{
		ID: auth.UUIDGenerator{}.NewID(), UserID: unverified.ID, NISN: "3000000001", FullName: "Dewi",
	}))

	tests := []struct {
		name   string
		userID string
		nisn   string
		kind   apperr.Kind
	}{
		{"unknown nisn", parentUser.ID, "9999999999", apperr.KindNotFound},
		{"unverified student", parentUser.ID, "3000000001", apperr.KindBadRequest},
		{"caller without parent profile", unverified.ID, "3000000001", apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.links.RequestLink(ctx, tt.userID, tt.nisn)
			assert.True(t, apperr.IsKind(err, tt.kind), "got %v", err)
		})
	}

	_, err := e.links.PendingRequests(ctx, parentUser.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	_, err = e.links.Status(ctx, unverified.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
