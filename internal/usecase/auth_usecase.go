package usecase

import (
	"context"
	"errors"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	"sekolah/internal/repository"
	auth "sekolah/internal/usecase/auth_usecase"
)

// AuthUsecaseはhandlerから見た認証まわりの入口
type AuthUsecase struct {
	login          *auth.LoginUsecase
	refresh        *auth.RefreshUsecase
	logout         *auth.LogoutUsecase
	changePassword *auth.ChangePasswordUsecase
	signup         *auth.SignupUsecase
	verifier       *auth.CredentialVerifier
}

func NewAuthUsecase(
	login *auth.LoginUsecase,
	refresh *auth.RefreshUsecase,
	logout *auth.LogoutUsecase,
	changePassword *auth.ChangePasswordUsecase,
	signup *auth.SignupUsecase,
	verifier *auth.CredentialVerifier,
) *AuthUsecase {
	return &AuthUsecase{
		login:          login,
		refresh:        refresh,
		logout:         logout,
		changePassword: changePassword,
		signup:         signup,
		verifier:       verifier,
	}
}

func (u *AuthUsecase) SignupStudent(ctx context.Context, in auth.StudentSignupInput) (*auth.SignupResult, error) {
	return u.signup.SubmitStudent(ctx, in)
}

func (u *AuthUsecase) SignupTeacher(ctx context.Context, in auth.TeacherSignupInput) (*auth.SignupResult, error) {
	return u.signup.SubmitTeacher(ctx, in)
}

func (u *AuthUsecase) SignupParent(ctx context.Context, in auth.ParentSignupInput) (*auth.Session, error) {
	return u.signup.SignupParent(ctx, in)
}

func (u *AuthUsecase) Login(ctx context.Context, field auth.IdentityField, key, password string, device model.DeviceInfo) (*auth.Session, error) {
	return u.login.Execute(ctx, auth.LoginInput{
		Identity: auth.LoginIdentity{Field: field, Key: key, Password: password},
		Device:   device,
	})
}

func (u *AuthUsecase) Refresh(ctx context.Context, refreshToken string, device model.DeviceInfo) (*auth.Session, error) {
	return u.refresh.Execute(ctx, refreshToken, device)
}

func (u *AuthUsecase) Logout(ctx context.Context, userID, refreshToken string) error {
	return u.logout.Execute(ctx, userID, refreshToken)
}

func (u *AuthUsecase) Me(ctx context.Context, userID string) (*auth.AuthenticatedUser, error) {
	user, err := u.verifier.Resolve(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("User tidak ditemukan")
	}
	if err != nil {
		return nil, apperr.Internal("Gagal memuat user", err)
	}
	return user, nil
}

func (u *AuthUsecase) ChangePassword(ctx context.Context, in auth.ChangePasswordInput) error {
	return u.changePassword.Execute(ctx, in)
}
