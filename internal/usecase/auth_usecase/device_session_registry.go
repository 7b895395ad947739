package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	"sekolah/internal/repository"
)

// DeviceSessionRegistryはログイン毎の端末セッションを管理する。
// セッションを無効化するとき、紐づくリフレッシュトークンも失効させる。
type DeviceSessionRegistry struct {
	repo   repository.DeviceSessionRepository
	tokens *RefreshTokenStore
	hasher PasswordHasher
	idGen  IDGenerator
	clock  Clock
	ttl    time.Duration
}

func NewDeviceSessionRegistry(
	repo repository.DeviceSessionRepository,
	tokens *RefreshTokenStore,
	hasher PasswordHasher,
	idGen IDGenerator,
	clock Clock,
	ttl time.Duration,
) *DeviceSessionRegistry {
	return &DeviceSessionRegistry{
		repo:   repo,
		tokens: tokens,
		hasher: hasher,
		idGen:  idGen,
		clock:  clock,
		ttl:    ttl,
	}
}

// ログイン/リフレッシュのたびに1行（端末で重複排除しない）
func (r *DeviceSessionRegistry) Register(ctx context.Context, userID, raw string, device model.DeviceInfo) (*model.DeviceSession, error) {
	hash, err := r.hasher.Hash(raw)
	if err != nil {
		return nil, fmt.Errorf("hash session token: %w", err)
	}

	now := r.clock.Now()
	s := &model.DeviceSession{
		ID:               r.idGen.NewID(),
		UserID:           userID,
		DeviceName:       orDefault(device.Name, "Unknown Device"),
		DeviceType:       orDefault(device.Type, "web"),
		UserAgent:        device.UserAgent,
		IPAddress:        device.IP,
		RefreshTokenHash: hash,
		IsActive:         true,
		ExpiresAt:        now.Add(r.ttl),
		LastActivity:     now,
		CreatedAt:        now,
	}
	if err := r.repo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create device session: %w", err)
	}
	return s, nil
}

func (r *DeviceSessionRegistry) List(ctx context.Context, userID string) ([]model.DeviceSession, error) {
	return r.repo.ListActiveByUser(ctx, userID)
}

// 本人のセッション以外はNotFound
func (r *DeviceSessionRegistry) Revoke(ctx context.Context, userID, sessionID string) error {
	s, err := r.repo.FindByIDForUser(ctx, sessionID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("Session not found")
	}
	if err != nil {
		return err
	}
	return r.End(ctx, s.ID)
}

// currentSessionIDが空なら全部
func (r *DeviceSessionRegistry) RevokeAllOthers(ctx context.Context, userID, currentSessionID string) (int64, error) {
	n, err := r.repo.DeactivateAllByUser(ctx, userID, currentSessionID)
	if err != nil {
		return 0, err
	}
	if _, err := r.tokens.RevokeAllExcept(ctx, userID, currentSessionID); err != nil {
		return n, err
	}
	return n, nil
}

// 停止時など。トークンも全失効。
func (r *DeviceSessionRegistry) RevokeAll(ctx context.Context, userID string) (int64, error) {
	return r.RevokeAllOthers(ctx, userID, "")
}

// リフレッシュ/ログアウトで使う（所有者チェック済みの前提）
func (r *DeviceSessionRegistry) End(ctx context.Context, sessionID string) error {
	if err := r.repo.Deactivate(ctx, sessionID); err != nil {
		return err
	}
	return r.tokens.RevokeBySession(ctx, sessionID)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
