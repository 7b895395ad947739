package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	"sekolah/internal/repository"

	"go.uber.org/zap"
)

// ログインIDの種類
type IdentityField string

const (
	FieldEmail       IdentityField = "email"
	FieldNISN        IdentityField = "nisn"
	FieldNIPOrEmail  IdentityField = "nip_or_email"
	FieldAdminEmail  IdentityField = "admin_email"
	FieldParentEmail IdentityField = "parent_email"
)

// 種類ごとに1つの文言。「いない」と「違う」を区別しない。
var invalidCredentialMessages = map[IdentityField]string{
	FieldEmail:       "Email atau password salah",
	FieldNISN:        "NISN atau password salah",
	FieldNIPOrEmail:  "NIP/Email atau password salah",
	FieldAdminEmail:  "Email atau password salah",
	FieldParentEmail: "Email atau password salah",
}

type LoginIdentity struct {
	Field    IdentityField
	Key      string
	Password string
}

// レスポンスに載せるユーザー（パスワードハッシュは持たない）
type AuthenticatedUser struct {
	ID                 string           `json:"id"`
	Email              string           `json:"email"`
	Role               model.Role       `json:"role"`
	Status             model.UserStatus `json:"status"`
	EmailVerified      bool             `json:"emailVerified"`
	MustChangePassword bool             `json:"mustChangePassword"`
	LastLogin          *time.Time       `json:"lastLogin,omitempty"`
	FullName           string           `json:"fullName,omitempty"`
	Profile            any              `json:"profile,omitempty"`
}

type Profiles struct {
	Students repository.StudentRepository
	Teachers repository.TeacherRepository
	Parents  repository.ParentRepository
	Admins   repository.AdminRepository
}

// CredentialVerifierはログインIDとパスワードからユーザーを1人に決める。
type CredentialVerifier struct {
	users    repository.UserRepository
	profiles Profiles
	verifier PasswordVerifier
	activity *ActivityRecorder
	clock    Clock
	log      *zap.Logger
}

func NewCredentialVerifier(
	users repository.UserRepository,
	profiles Profiles,
	verifier PasswordVerifier,
	activity *ActivityRecorder,
	clock Clock,
	log *zap.Logger,
) *CredentialVerifier {
	return &CredentialVerifier{
		users:    users,
		profiles: profiles,
		verifier: verifier,
		activity: activity,
		clock:    clock,
		log:      log,
	}
}

func (v *CredentialVerifier) Verify(ctx context.Context, id LoginIdentity) (*AuthenticatedUser, error) {
	msg, ok := invalidCredentialMessages[id.Field]
	if !ok {
		return nil, apperr.BadRequest("Jenis login tidak didukung")
	}
	key := strings.TrimSpace(id.Key)
	if key == "" || id.Password == "" {
		return nil, apperr.Unauthorized(msg)
	}

	user, profile, err := v.lookup(ctx, id.Field, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Unauthorized(msg)
	}
	if err != nil {
		return nil, StoreError(v.log, "Gagal memverifikasi kredensial", err)
	}

	// status確認 → ハッシュ有無 → 照合 の順。どれで落ちても同じ応答。
	if !user.IsActive() || !user.HasPassword() {
		return nil, apperr.Unauthorized(msg)
	}
	if !v.verifier.Verify(id.Password, *user.PasswordHash) {
		return nil, apperr.Unauthorized(msg)
	}

	now := v.clock.Now()
	if err := v.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		v.log.Warn("last_login update failed", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &now
	}
	v.activity.Record(ctx, user.ID, model.ActivityLogin, "User logged in", map[string]any{
		"identity": string(id.Field),
	})

	return project(user, profile), nil
}

// ユーザーIDから組み立て直す（/me・リフレッシュ用）
func (v *CredentialVerifier) Resolve(ctx context.Context, userID string) (*AuthenticatedUser, error) {
	user, err := v.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := v.profileFor(ctx, user)
	if err != nil {
		return nil, err
	}
	return project(user, profile), nil
}

func (v *CredentialVerifier) lookup(ctx context.Context, field IdentityField, key string) (*model.User, any, error) {
	switch field {
	case FieldNISN:
		s, err := v.profiles.Students.FindByNISN(ctx, key)
		if err != nil {
			return nil, nil, err
		}
		return joined(s.User, s)
	case FieldNIPOrEmail:
		// @があればemail（role=teacherに限る）、なければNIP
		var t *model.Teacher
		var err error
		if strings.Contains(key, "@") {
			t, err = v.profiles.Teachers.FindByEmail(ctx, strings.ToLower(key))
		} else {
			t, err = v.profiles.Teachers.FindByNIP(ctx, key)
		}
		if err != nil {
			return nil, nil, err
		}
		return joined(t.User, t)
	case FieldAdminEmail:
		a, err := v.profiles.Admins.FindByEmail(ctx, strings.ToLower(key))
		if err != nil {
			return nil, nil, err
		}
		return joined(a.User, a)
	case FieldParentEmail:
		p, err := v.profiles.Parents.FindByEmail(ctx, strings.ToLower(key))
		if err != nil {
			return nil, nil, err
		}
		return joined(p.User, p)
	default:
		u, err := v.users.FindByEmail(ctx, strings.ToLower(key))
		if err != nil {
			return nil, nil, err
		}
		profile, err := v.profileFor(ctx, u)
		if err != nil {
			return nil, nil, err
		}
		return u, profile, nil
	}
}

// プロフィールがなければnil（oauth_userなど）
func (v *CredentialVerifier) profileFor(ctx context.Context, u *model.User) (any, error) {
	var profile any
	var err error
	switch u.Role {
	case model.RoleStudent:
		profile, err = v.profiles.Students.FindByUserID(ctx, u.ID)
	case model.RoleTeacher:
		profile, err = v.profiles.Teachers.FindByUserID(ctx, u.ID)
	case model.RoleParent:
		profile, err = v.profiles.Parents.FindByUserID(ctx, u.ID)
	case model.RoleAdmin, model.RoleSuperAdmin:
		profile, err = v.profiles.Admins.FindByUserID(ctx, u.ID)
	default:
		return nil, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func joined(u *model.User, profile any) (*model.User, any, error) {
	if u == nil {
		return nil, nil, repository.ErrNotFound
	}
	return u, profile, nil
}

func project(u *model.User, profile any) *AuthenticatedUser {
	out := &AuthenticatedUser{
		ID:                 u.ID,
		Email:              u.Email,
		Role:               u.Role,
		Status:             u.Status,
		EmailVerified:      u.EmailVerified,
		MustChangePassword: u.MustChangePassword,
		LastLogin:          u.LastLogin,
	}
	switch p := profile.(type) {
	case *model.Student:
		out.FullName, out.Profile = p.FullName, p
	case *model.Teacher:
		out.FullName, out.Profile = p.FullName, p
	case *model.Parent:
		out.FullName, out.Profile = p.FullName, p
	case *model.Admin:
		out.FullName, out.Profile = p.FullName, p
	}
	return out
}
