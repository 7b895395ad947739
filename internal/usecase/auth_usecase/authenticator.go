package auth

import (
	"context"
	"errors"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	"sekolah/internal/repository"

	"go.uber.org/zap"
)

// Authenticatorはbearerトークンの検証。
// 署名と期限を見たあと、DBからユーザーを引き直して削除・停止を弾く。
type Authenticator struct {
	issuer AccessTokenIssuer
	users  repository.UserRepository
	log    *zap.Logger
}

func NewAuthenticator(issuer AccessTokenIssuer, users repository.UserRepository, log *zap.Logger) *Authenticator {
	return &Authenticator{issuer: issuer, users: users, log: log}
}

// contextに載せる認証済みの主体
type Principal struct {
	UserID string
	Email  string
	Role   model.Role
}

func (a *Authenticator) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := a.issuer.Parse(accessToken)
	if err != nil {
		return nil, apperr.Unauthorized("Token tidak valid atau sudah kedaluwarsa")
	}

	user, err := a.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Unauthorized("User tidak ditemukan")
	}
	if err != nil {
		return nil, StoreError(a.log, "Gagal memverifikasi token", err)
	}
	if !user.IsActive() {
		return nil, apperr.Unauthorized("Akun tidak aktif")
	}

	// roleはトークンではなくDBの値を使う
	return &Principal{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}
