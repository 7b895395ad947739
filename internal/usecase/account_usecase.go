package usecase

import (
	"context"
	"errors"
	"time"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	repo "sekolah/internal/repository"
	auth "sekolah/internal/usecase/auth_usecase"

	"go.uber.org/zap"
)

type MyProfile struct {
	*auth.AuthenticatedUser
	CreatedAt time.Time `json:"createdAt"`
}

// 本人のプロフィール閲覧/更新と退会
type AccountUsecase struct {
	users       repo.UserRepository
	profiles    auth.Profiles
	credentials *auth.CredentialVerifier
	verifier    auth.PasswordVerifier
	sessions    *auth.DeviceSessionRegistry
	activity    *auth.ActivityRecorder
	log         *zap.Logger
}

func NewAccountUsecase(
	users repo.UserRepository,
	profiles auth.Profiles,
	credentials *auth.CredentialVerifier,
	verifier auth.PasswordVerifier,
	sessions *auth.DeviceSessionRegistry,
	activity *auth.ActivityRecorder,
	log *zap.Logger,
) *AccountUsecase {
	return &AccountUsecase{
		users:       users,
		profiles:    profiles,
		credentials: credentials,
		verifier:    verifier,
		sessions:    sessions,
		activity:    activity,
		log:         log,
	}
}

func (u *AccountUsecase) Profile(ctx context.Context, userID string) (*MyProfile, error) {
	user, err := u.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	resolved, err := u.credentials.Resolve(ctx, user.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengambil profil", err)
	}
	return &MyProfile{AuthenticatedUser: resolved, CreatedAt: user.CreatedAt}, nil
}

// ロールごとのプロフィール表に書く。表にないカラムは無視される。
func (u *AccountUsecase) UpdateProfile(ctx context.Context, userID string, f model.ProfileUpdate) error {
	if f.Empty() {
		return apperr.BadRequest("Tidak ada data yang diubah")
	}
	user, err := u.find(ctx, userID)
	if err != nil {
		return err
	}

	switch user.Role {
	case model.RoleStudent:
		err = u.profiles.Students.UpdateContact(ctx, userID, f)
	case model.RoleTeacher:
		err = u.profiles.Teachers.UpdateContact(ctx, userID, f)
	case model.RoleParent:
		err = u.profiles.Parents.UpdateContact(ctx, userID, f)
	case model.RoleAdmin, model.RoleSuperAdmin:
		err = u.profiles.Admins.UpdateContact(ctx, userID, f)
	default:
		return apperr.BadRequest("Role tidak valid")
	}
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound("Profil tidak ditemukan")
	}
	if err != nil {
		return auth.StoreError(u.log, "Gagal update profil", err)
	}

	u.activity.Record(ctx, userID, model.ActivityUpdateProfile, "Profile updated", nil)
	return nil
}

// パスワードのないアカウント（OAuth）は確認なしで消せる
func (u *AccountUsecase) DeleteAccount(ctx context.Context, userID, password string) error {
	user, err := u.find(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == model.RoleSuperAdmin {
		return apperr.BadRequest("Super Admin tidak dapat menghapus akun sendiri")
	}
	if user.HasPassword() && !u.verifier.Verify(password, *user.PasswordHash) {
		return apperr.BadRequest("Password salah")
	}

	if _, err := u.sessions.RevokeAll(ctx, userID); err != nil {
		return auth.StoreError(u.log, "Gagal menghapus akun", err)
	}
	if err := u.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return auth.StoreError(u.log, "Gagal menghapus akun", err)
	}
	u.log.Info("account deleted by owner", zap.String("user_id", userID), zap.String("role", string(user.Role)))
	return nil
}

func (u *AccountUsecase) find(ctx context.Context, id string) (*model.User, error) {
	user, err := u.users.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengambil data user", err)
	}
	return user, nil
}
