package repository_test

import (
	"context"
	"testing"
	"time"

	"sekolah/internal/domain/model"
	gormrepo "sekolah/internal/infra/repository"
	repo "sekolah/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DBなしで、組み立てたSQLの形と引数だけを見る
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return gdb, mock
}

func countRows(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestRegistrationExistsPending_MatchesKeyOrEmailInFormData(t *testing.T) {
	gdb, mock := newMockDB(t)
	regs := gormrepo.NewRegistrationGormRepository(gdb)

	mock.ExpectQuery(
		`SELECT count\(\*\) FROM "registration_requests" WHERE status = \$1 AND ` +
			`\(json_extract_path_text\("form_data"::json,\$2\) = \$3 OR json_extract_path_text\("form_data"::json,\$4\) = \$5\) LIMIT \$6`,
	).
		WithArgs("pending", "nisn", "1234567890", "email", "budi@example.com", 1).
		WillReturnRows(countRows(1))

	ok, err := regs.ExistsPending(context.Background(), model.RegistrationTypeStudent, "1234567890", "budi@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegistrationExistsPending_TeacherUsesNIPKey(t *testing.T) {
	gdb, mock := newMockDB(t)
	regs := gormrepo.NewRegistrationGormRepository(gdb)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "registration_requests" WHERE status = \$1 AND`).
		WithArgs("pending", "nip", "198001012010", "email", "guru@example.com", 1).
		WillReturnRows(countRows(0))

	ok, err := regs.ExistsPending(context.Background(), model.RegistrationTypeTeacher, "198001012010", "guru@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshTokenRevokeAllByUser_QueryShape(t *testing.T) {
	t.Run("all sessions", func(t *testing.T) {
		gdb, mock := newMockDB(t)
		tokens := gormrepo.NewRefreshTokenRepository(gdb)

		mock.ExpectExec(`UPDATE "refresh_tokens" SET "revoked"=\$1,"updated_at"=\$2 WHERE user_id = \$3 AND revoked = \$4$`).
			WithArgs(true, sqlmock.AnyArg(), "u1", false).
			WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := tokens.RevokeAllByUser(context.Background(), "u1", "")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("keeps current session", func(t *testing.T) {
		gdb, mock := newMockDB(t)
		tokens := gormrepo.NewRefreshTokenRepository(gdb)

		// 除外条件はORを含むので括弧で閉じる
		mock.ExpectExec(
			`UPDATE "refresh_tokens" SET "revoked"=\$1,"updated_at"=\$2 ` +
				`WHERE \(user_id = \$3 AND revoked = \$4\) AND \(session_id IS NULL OR session_id <> \$5\)`,
		).
			WithArgs(true, sqlmock.AnyArg(), "u1", false, "s1").
			WillReturnResult(sqlmock.NewResult(0, 2))

		n, err := tokens.RevokeAllByUser(context.Background(), "u1", "s1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}

func TestUserList_FiltersCountAndPage(t *testing.T) {
	gdb, mock := newMockDB(t)
	users := gormrepo.NewUserGormRepository(gdb)
	role := model.RoleStudent

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE role = \$1 AND email ILIKE \$2$`).
		WithArgs("student", "%budi%").
		WillReturnRows(countRows(41))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE role = \$1 AND email ILIKE \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("student", "%budi%", 20, 40).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "status"}).
			AddRow("u41", "budi41@example.com", "student", "active"))

	list, total, err := users.List(context.Background(), repo.UserFilter{
		Role:   &role,
		Search: "budi",
		Page:   repo.Page{Offset: 40},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(41), total)
	require.Len(t, list, 1)
	assert.Equal(t, "budi41@example.com", list[0].Email)
}

func TestUserCount_StatusFilter(t *testing.T) {
	gdb, mock := newMockDB(t)
	users := gormrepo.NewUserGormRepository(gdb)
	status := model.UserStatusPending

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE status = \$1$`).
		WithArgs("pending").
		WillReturnRows(countRows(5))

	n, err := users.Count(context.Background(), repo.UserFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestParentRequestLink_GuardsApprovedRow(t *testing.T) {
	gdb, mock := newMockDB(t)
	parents := gormrepo.NewParentGormRepository(gdb)
	at := time.Date(2025, 7, 14, 7, 0, 0, 0, time.UTC)

	query := `UPDATE "parents" SET "link_approved_at"=\$1,"link_requested_at"=\$2,"link_status"=\$3,"student_id"=\$4,"updated_at"=\$5 ` +
		`WHERE id = \$6 AND \(link_status IS NULL OR link_status <> \$7\)`
	mock.ExpectExec(query).
		WithArgs(nil, at, "pending", "s1", sqlmock.AnyArg(), "p1", "approved").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, parents.RequestLink(context.Background(), "p1", "s1", at))
	// 承認済みの行には当たらない
	assert.ErrorIs(t, parents.RequestLink(context.Background(), "p1", "s1", at), repo.ErrStateChanged)
}

func TestParentResolveLink_RejectClearsStudent(t *testing.T) {
	gdb, mock := newMockDB(t)
	parents := gormrepo.NewParentGormRepository(gdb)
	at := time.Date(2025, 7, 14, 7, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE "parents" SET "link_status"=\$1,"student_id"=\$2,"updated_at"=\$3 WHERE id = \$4 AND student_id = \$5 AND link_status = \$6`).
		WithArgs("rejected", nil, sqlmock.AnyArg(), "p1", "s1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "parents" SET "link_approved_at"=\$1,"link_status"=\$2,"updated_at"=\$3 WHERE id = \$4 AND student_id = \$5 AND link_status = \$6`).
		WithArgs(at, "approved", sqlmock.AnyArg(), "p2", "s1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, parents.ResolveLink(context.Background(), "p1", "s1", model.LinkStatusRejected, at))
	assert.ErrorIs(t, parents.ResolveLink(context.Background(), "p2", "s1", model.LinkStatusApproved, at), repo.ErrStateChanged)
}

func TestParentExistsApprovedLink_QueryShape(t *testing.T) {
	gdb, mock := newMockDB(t)
	parents := gormrepo.NewParentGormRepository(gdb)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "parents" WHERE student_id = \$1 AND link_status = \$2 LIMIT \$3`).
		WithArgs("s1", "approved", 1).
		WillReturnRows(countRows(1))

	ok, err := parents.ExistsApprovedLink(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAttendanceUpdates_ScopedToCreator(t *testing.T) {
	gdb, mock := newMockDB(t)
	attendance := gormrepo.NewAttendanceGormRepository(gdb)
	until := time.Date(2025, 7, 14, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE "attendance_sessions" SET "is_active"=\$1,"updated_at"=\$2 WHERE id = \$3 AND creator_id = \$4`).
		WithArgs(false, sqlmock.AnyArg(), "a1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE "attendance_sessions" SET "is_active"=\$1,"qr_token"=\$2,"updated_at"=\$3,"valid_until"=\$4 WHERE id = \$5 AND creator_id = \$6`).
		WithArgs(true, "tok2", sqlmock.AnyArg(), until, "a1", "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.ErrorIs(t, attendance.CloseSession(context.Background(), "a1", "intruder"), repo.ErrNotFound)
	require.NoError(t, attendance.RotateToken(context.Background(), "a1", "t1", "tok2", until))
}

func TestParentListPendingLinks_JoinsUserNewestFirst(t *testing.T) {
	gdb, mock := newMockDB(t)
	parents := gormrepo.NewParentGormRepository(gdb)

	mock.ExpectQuery(`FROM "parents" INNER JOIN "users" "User" ON .* WHERE parents.student_id = \$1 AND parents.link_status = \$2 ORDER BY parents.link_requested_at DESC`).
		WithArgs("s1", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ps, err := parents.ListPendingLinks(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, ps)
}
