package repository

import (
	"context"
	"time"

	"sekolah/internal/domain/model"
	repo "sekolah/internal/repository"

	"gorm.io/gorm"
)

type refreshTokenGormRepository struct {
	db *gorm.DB //DB接続（GORM）
}

// GORM実装
func NewRefreshTokenRepository(db *gorm.DB) repo.RefreshTokenRepository {
	return &refreshTokenGormRepository{db: db}
}

// リフレッシュトークンを保存し。
func (r *refreshTokenGormRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	//タイムアウトやキャンセルをDB処理に伝える
	return mapError(r.db.WithContext(ctx).Create(token).Error)
}

// ハッシュ照合はbcryptなのでDB側では絞れない。有効なものを全部返す。
func (r *refreshTokenGormRepository) ListActive(ctx context.Context, now time.Time) ([]model.RefreshToken, error) {
	var tokens []model.RefreshToken
	err := r.db.WithContext(ctx).
		Where("revoked = ? AND expires_at > ?", false, now).
		Order("created_at DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *refreshTokenGormRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]model.RefreshToken, error) {
	var tokens []model.RefreshToken
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, now).
		Order("created_at DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// revoked=trueにして無効。
func (r *refreshTokenGormRepository) Revoke(ctx context.Context, tokenID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("id = ? AND revoked = ?", tokenID, false).
		Updates(map[string]any{"revoked": true, "updated_at": time.Now()})

	if result.Error != nil {
		return result.Error
	}
	// 更新件数が0なら「すでに失効/存在しない」
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *refreshTokenGormRepository) RevokeAllByUser(ctx context.Context, userID string, exceptSessionID string) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false)
	if exceptSessionID != "" {
		q = q.Where("session_id IS NULL OR session_id <> ?", exceptSessionID)
	}

	result := q.Updates(map[string]any{"revoked": true, "updated_at": time.Now()})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *refreshTokenGormRepository) RevokeBySession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("session_id = ? AND revoked = ?", sessionID, false).
		Updates(map[string]any{"revoked": true, "updated_at": time.Now()}).Error
}
