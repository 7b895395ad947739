package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"sekolah/internal/domain/model"
	"sekolah/internal/infra/memory"
	"sekolah/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Rahasia@123"

// テスト用の時計（進められる）
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 7, 14, 7, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	repos       repository.Repositories
	clock       *testClock
	hasher      PasswordHasher
	verifier    PasswordVerifier
	issuer      *JWTIssuer
	tokens      *RefreshTokenStore
	sessions    *DeviceSessionRegistry
	credentials *CredentialVerifier
	activity    *ActivityRecorder
	notifier    *Notifier
	login       *LoginUsecase
	refresh     *RefreshUsecase
	logout      *LogoutUsecase
	signup      *SignupUsecase

	seq int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, memory.NewStore().Repositories())
}

// reposを差し替えたいテスト用（障害注入など）
func newFixtureWith(t *testing.T, repos repository.Repositories) *fixture {
	t.Helper()

	log := zap.NewNop()
	clock := newTestClock()
	idGen := UUIDGenerator{}
	hasher := NewBcryptPasswordHasher(bcrypt.MinCost)
	verifier := NewBcryptPasswordVerifier()
	issuer := NewJWTIssuer("test-secret", time.Hour, clock)

	profiles := Profiles{
		Students: repos.Students,
		Teachers: repos.Teachers,
		Parents:  repos.Parents,
		Admins:   repos.Admins,
	}
	activity := NewActivityRecorder(repos.ActivityLogs, idGen, clock, log)
	notifier := NewNotifier(repos.Notifications, idGen, clock, log)
	tokens := NewRefreshTokenStore(repos.RefreshTokens, hasher, verifier, idGen, clock, 7*24*time.Hour)
	sessions := NewDeviceSessionRegistry(repos.Sessions, tokens, hasher, idGen, clock, 30*24*time.Hour)
	credentials := NewCredentialVerifier(repos.Users, profiles, verifier, activity, clock, log)
	login := NewLoginUsecase(credentials, issuer, tokens, sessions, nil, log)

	return &fixture{
		repos:       repos,
		clock:       clock,
		hasher:      hasher,
		verifier:    verifier,
		issuer:      issuer,
		tokens:      tokens,
		sessions:    sessions,
		credentials: credentials,
		activity:    activity,
		notifier:    notifier,
		login:       login,
		refresh:     NewRefreshUsecase(credentials, issuer, tokens, sessions, nil, log),
		logout:      NewLogoutUsecase(tokens, sessions, activity, log),
		signup:      NewSignupUsecase(repos.Users, profiles, repos.Registrations, hasher, idGen, clock, notifier, activity, login, log),
	}
}

func (f *fixture) seedUser(t *testing.T, role model.Role, status model.UserStatus, password string) *model.User {
	t.Helper()
	f.seq++

	u := &model.User{
		ID:     UUIDGenerator{}.NewID(),
		Email:  fmt.Sprintf("%s%d@sekolah.test", role, f.seq),
		Role:   role,
		Status: status,
	}
	if password != "" {
		hash, err := f.hasher.Hash(password)
		require.NoError(t, err)
		u.PasswordHash = &hash
	}
	require.NoError(t, f.repos.Users.Create(context.Background(), u))
	return u
}

func (f *fixture) seedStudent(t *testing.T, nisn string, status model.UserStatus) *model.User {
	t.Helper()
	u := f.seedUser(t, model.RoleStudent, status, testPassword)
	require.NoError(t, f.repos.Students.Create(context.Background(), &model.Student{
		ID:         UUIDGenerator{}.NewID(),
		UserID:     u.ID,
		NISN:       nisn,
		FullName:   "Budi Santoso",
		Kelas:      "XI",
		Jurusan:    "IPA",
		IsVerified: true,
	}))
	return u
}

func (f *fixture) seedTeacher(t *testing.T, nip string) *model.User {
	t.Helper()
	u := f.seedUser(t, model.RoleTeacher, model.UserStatusActive, testPassword)
	require.NoError(t, f.repos.Teachers.Create(context.Background(), &model.Teacher{
		ID:       UUIDGenerator{}.NewID(),
		UserID:   u.ID,
		NIP:      nip,
		FullName: "Siti Aminah",
		Subject:  "Matematika",
	}))
	return u
}

func (f *fixture) seedAdmin(t *testing.T, super bool) *model.User {
	t.Helper()
	role := model.RoleAdmin
	if super {
		role = model.RoleSuperAdmin
	}
	u := f.seedUser(t, role, model.UserStatusActive, testPassword)
	require.NoError(t, f.repos.Admins.Create(context.Background(), &model.Admin{
		ID:           UUIDGenerator{}.NewID(),
		UserID:       u.ID,
		FullName:     "Admin Sekolah",
		IsSuperAdmin: super,
	}))
	return u
}

func (f *fixture) loginStudent(t *testing.T, nisn string) *Session {
	t.Helper()
	s, err := f.login.Execute(context.Background(), LoginInput{
		Identity: LoginIdentity{Field: FieldNISN, Key: nisn, Password: testPassword},
		Device:   model.DeviceInfo{Name: "Chrome", Type: "web"},
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) activeSessions(t *testing.T, userID string) []model.DeviceSession {
	t.Helper()
	list, err := f.sessions.List(context.Background(), userID)
	require.NoError(t, err)
	return list
}

func (f *fixture) seedParent(t *testing.T) *model.User {
	t.Helper()
	u := f.seedUser(t, model.RoleParent, model.UserStatusActive, testPassword)
	require.NoError(t, f.repos.Parents.Create(context.Background(), &model.Parent{
		ID:           UUIDGenerator{}.NewID(),
		UserID:       u.ID,
		FullName:     "Ahmad Santoso",
		Relationship: model.RelationshipAyah,
	}))
	return u
}

func (f *fixture) activityOf(t *testing.T, userID string, action model.ActivityAction) []model.ActivityLog {
	t.Helper()
	logs, err := f.repos.ActivityLogs.List(context.Background(), repository.ActivityLogFilter{
		UserID: &userID,
		Action: &action,
	})
	require.NoError(t, err)
	return logs
}
