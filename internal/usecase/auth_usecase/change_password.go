package auth

import (
	"context"
	"errors"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	"sekolah/internal/repository"

	"go.uber.org/zap"
)

type ChangePasswordInput struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// 初回ログイン時（must_change_password）にも使う
type ChangePasswordUsecase struct {
	users    repository.UserRepository
	hasher   PasswordHasher
	verifier PasswordVerifier
	activity *ActivityRecorder
	log      *zap.Logger
}

func NewChangePasswordUsecase(
	users repository.UserRepository,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	activity *ActivityRecorder,
	log *zap.Logger,
) *ChangePasswordUsecase {
	return &ChangePasswordUsecase{users: users, hasher: hasher, verifier: verifier, activity: activity, log: log}
}

func (u *ChangePasswordUsecase) Execute(ctx context.Context, in ChangePasswordInput) error {
	if in.NewPassword != in.ConfirmPassword {
		return apperr.BadRequest("Password baru dan konfirmasi tidak cocok")
	}

	user, err := u.users.FindByID(ctx, in.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("User tidak ditemukan")
	}
	if err != nil {
		return StoreError(u.log, "Gagal mengubah password", err)
	}

	if !user.HasPassword() || !u.verifier.Verify(in.CurrentPassword, *user.PasswordHash) {
		return apperr.Unauthorized("Password lama salah")
	}

	hash, err := u.hasher.Hash(in.NewPassword)
	if err != nil {
		return StoreError(u.log, "Gagal mengubah password", err)
	}
	if err := u.users.UpdatePassword(ctx, user.ID, hash, false); err != nil {
		return StoreError(u.log, "Gagal mengubah password", err)
	}

	u.activity.Record(ctx, user.ID, model.ActivityChangePassword, "Password changed", nil)
	return nil
}
