package repository

import (
	"context"
	"time"

	"sekolah/internal/domain/model"
)

// リフレッシュトークンの保存・取得・失効。削除はしない。
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	// revoked=false かつ expires_at > now（全ユーザー）
	ListActive(ctx context.Context, now time.Time) ([]model.RefreshToken, error)
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]model.RefreshToken, error)

	// 未失効のものだけ失効。0件ならErrNotFound。
	Revoke(ctx context.Context, tokenID string) error
	// exceptSessionIDが空でなければそのセッションのトークンは残す
	RevokeAllByUser(ctx context.Context, userID string, exceptSessionID string) (int64, error)
	RevokeBySession(ctx context.Context, sessionID string) error
}
