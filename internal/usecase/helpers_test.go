package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sekolah/internal/domain/model"
	"sekolah/internal/infra/memory"
	repo "sekolah/internal/repository"
	auth "sekolah/internal/usecase/auth_usecase"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Rahasia@123"

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type env struct {
	repos         repo.Repositories
	hasher        auth.PasswordHasher
	verifier      auth.PasswordVerifier
	credentials   *auth.CredentialVerifier
	sessions      *auth.DeviceSessionRegistry
	tokens        *auth.RefreshTokenStore
	login         *auth.LoginUsecase
	refresh       *auth.RefreshUsecase
	signup        *auth.SignupUsecase
	registrations *RegistrationUsecase
	adminUsers    *AdminUserUsecase
	notifications *NotificationUsecase
	profile       *ProfileSecurityUsecase
	account       *AccountUsecase
	links         *ParentLinkUsecase

	seq int
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWith(t, memory.NewStore().Repositories())
}

func newEnvWith(t *testing.T, repos repo.Repositories) *env {
	t.Helper()

	log := zap.NewNop()
	clock := fixedClock{now: time.Date(2025, 7, 14, 7, 0, 0, 0, time.UTC)}
	idGen := auth.UUIDGenerator{}
	hasher := auth.NewBcryptPasswordHasher(bcrypt.MinCost)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer("test-secret", time.Hour, auth.SystemClock{})

	profiles := auth.Profiles{
		Students: repos.Students,
		Teachers: repos.Teachers,
		Parents:  repos.Parents,
		Admins:   repos.Admins,
	}
	activity := auth.NewActivityRecorder(repos.ActivityLogs, idGen, clock, log)
	notifier := auth.NewNotifier(repos.Notifications, idGen, clock, log)
	tokens := auth.NewRefreshTokenStore(repos.RefreshTokens, hasher, verifier, idGen, clock, 7*24*time.Hour)
	sessions := auth.NewDeviceSessionRegistry(repos.Sessions, tokens, hasher, idGen, clock, 30*24*time.Hour)
	credentials := auth.NewCredentialVerifier(repos.Users, profiles, verifier, activity, clock, log)
	login := auth.NewLoginUsecase(credentials, issuer, tokens, sessions, nil, log)

	return &env{
		repos:       repos,
		hasher:      hasher,
		verifier:    verifier,
		credentials: credentials,
		sessions:    sessions,
		tokens:      tokens,
		login:       login,
		refresh:     auth.NewRefreshUsecase(credentials, issuer, tokens, sessions, nil, log),
		signup:      auth.NewSignupUsecase(repos.Users, profiles, repos.Registrations, hasher, idGen, clock, notifier, activity, login, log),
		registrations: NewRegistrationUsecase(
			repos.Registrations, repos.Users, profiles, hasher, idGen, clock, notifier, activity, 0, log,
		),
		adminUsers: NewAdminUserUsecase(
			repos.Users, profiles, repos.Registrations, repos.ActivityLogs, sessions, credentials,
			hasher, idGen, clock, notifier, activity, log,
		),
		notifications: NewNotificationUsecase(repos.Notifications, repos.Users, notifier, activity, clock, log),
		profile:       NewProfileSecurityUsecase(sessions, repos.ActivityLogs, activity, log),
		account:       NewAccountUsecase(repos.Users, profiles, credentials, verifier, sessions, activity, log),
		links:         NewParentLinkUsecase(repos.Parents, repos.Students, notifier, activity, clock, log),
	}
}

func (e *env) seedUser(t *testing.T, role model.Role, status model.UserStatus) *model.User {
	t.Helper()
	e.seq++

	hash, err := e.hasher.Hash(testPassword)
	require.NoError(t, err)
	u := &model.User{
		ID:           auth.UUIDGenerator{}.NewID(),
		Email:        fmt.Sprintf("%s%d@sekolah.test", role, e.seq),
		PasswordHash: &hash,
		Role:         role,
		Status:       status,
	}
	require.NoError(t, e.repos.Users.Create(context.Background(), u))
	return u
}

func (e *env) seedAdmin(t *testing.T, super bool) *model.User {
	t.Helper()
	role := model.RoleAdmin
	if super {
		role = model.RoleSuperAdmin
	}
	u := e.seedUser(t, role, model.UserStatusActive)
	require.NoError(t, e.repos.Admins.Create(context.Background(), &model.Admin{
		ID: auth.UUIDGenerator{}.NewID(), UserID: u.ID, FullName: "Admin", IsSuperAdmin: super,
	}))
	return u
}

func (e *env) seedStudent(t *testing.T, nisn string) *model.User {
	t.Helper()
	u := e.seedUser(t, model.RoleStudent, model.UserStatusActive)
	require.NoError(t, e.repos.Students.Create(context.Background(), &model.Student{
		ID: auth.UUIDGenerator{}.NewID(), UserID: u.ID, NISN: nisn, FullName: "Budi", IsVerified: true,
	}))
	return u
}

func (e *env) seedParent(t *testing.T, name string) (*model.User, *model.Parent) {
	t.Helper()
	u := e.seedUser(t, model.RoleParent, model.UserStatusActive)
	p := &model.Parent{
		ID: auth.UUIDGenerator{}.NewID(), UserID: u.ID, FullName: name, Relationship: model.RelationshipIbu,
	}
	require.NoError(t, e.repos.Parents.Create(context.Background(), p))
	return u, p
}

func (e *env) submitStudent(t *testing.T, nisn, email string) string {
	t.Helper()
	res, err := e.signup.SubmitStudent(context.Background(), auth.StudentSignupInput{
		NISN: nisn, FullName: "Budi Santoso", Email: email, Phone: "0812", Kelas: "X", Jurusan: "IPA",
		DateOfBirth: "2008-05-17",
	})
	require.NoError(t, err)
	return res.RequestID
}

func (e *env) loginNISN(nisn, password string) (*auth.Session, error) {
	return e.login.Execute(context.Background(), auth.LoginInput{
		Identity: auth.LoginIdentity{Field: auth.FieldNISN, Key: nisn, Password: password},
	})
}

func (e *env) loginAs(t *testing.T, u *model.User) *auth.Session {
	t.Helper()
	s, err := e.login.Execute(context.Background(), auth.LoginInput{
		Identity: auth.LoginIdentity{Field: auth.FieldEmail, Key: u.Email, Password: testPassword},
	})
	require.NoError(t, err)
	return s
}
