package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sekolah/internal/domain/model"
	"sekolah/internal/repository"
)

// RefreshTokenStoreはリフレッシュトークンのハッシュを保存・照合する。
// 照合はbcryptなので有効トークン全件を走査する（件数に比例して遅くなる）。
// cost=10だと有効トークン1件ごとに /auth/refresh が約50〜80ms遅くなる。
type RefreshTokenStore struct {
	repo     repository.RefreshTokenRepository
	hasher   PasswordHasher
	verifier PasswordVerifier
	idGen    IDGenerator
	clock    Clock
	ttl      time.Duration
}

func NewRefreshTokenStore(
	repo repository.RefreshTokenRepository,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	idGen IDGenerator,
	clock Clock,
	ttl time.Duration,
) *RefreshTokenStore {
	return &RefreshTokenStore{
		repo:     repo,
		hasher:   hasher,
		verifier: verifier,
		idGen:    idGen,
		clock:    clock,
		ttl:      ttl,
	}
}

// 平文は保存しない。sessionIDは空でもよい。
func (s *RefreshTokenStore) Store(ctx context.Context, userID, sessionID, raw string) (*model.RefreshToken, error) {
	hash, err := s.hasher.Hash(raw)
	if err != nil {
		return nil, fmt.Errorf("hash refresh token: %w", err)
	}

	now := s.clock.Now()
	token := &model.RefreshToken{
		ID:        s.idGen.NewID(),
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: now.Add(s.ttl),
		Revoked:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if sessionID != "" {
		token.SessionID = &sessionID
	}

	if err := s.repo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}
	return token, nil
}

// 有効（未失効・期限内）なレコードから一致するものを探す。なければErrNotFound。
func (s *RefreshTokenStore) Find(ctx context.Context, raw string) (*model.RefreshToken, error) {
	if raw == "" {
		return nil, repository.ErrNotFound
	}
	tokens, err := s.repo.ListActive(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("list refresh tokens: %w", err)
	}
	return s.match(tokens, raw)
}

func (s *RefreshTokenStore) Validate(ctx context.Context, raw string) (bool, error) {
	_, err := s.Find(ctx, raw)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// 一致したものを失効。見つからなければ何もしない。
func (s *RefreshTokenStore) RevokeByToken(ctx context.Context, raw string) error {
	token, err := s.Find(ctx, raw)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.revoke(ctx, token.ID)
}

// そのユーザーのトークンの中だけで探す
func (s *RefreshTokenStore) FindForUser(ctx context.Context, userID, raw string) (*model.RefreshToken, error) {
	if raw == "" {
		return nil, repository.ErrNotFound
	}
	tokens, err := s.repo.ListActiveByUser(ctx, userID, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("list refresh tokens: %w", err)
	}
	return s.match(tokens, raw)
}

func (s *RefreshTokenStore) RevokeForUser(ctx context.Context, userID, raw string) error {
	token, err := s.FindForUser(ctx, userID, raw)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.revoke(ctx, token.ID)
}

// 使用済みにする。すでに失効済みならErrNotFound（二重使用）。
func (s *RefreshTokenStore) Consume(ctx context.Context, tokenID string) error {
	return s.repo.Revoke(ctx, tokenID)
}

func (s *RefreshTokenStore) RevokeAll(ctx context.Context, userID string) (int64, error) {
	return s.repo.RevokeAllByUser(ctx, userID, "")
}

// currentSessionIDのトークンは残す
func (s *RefreshTokenStore) RevokeAllExcept(ctx context.Context, userID, currentSessionID string) (int64, error) {
	return s.repo.RevokeAllByUser(ctx, userID, currentSessionID)
}

func (s *RefreshTokenStore) RevokeBySession(ctx context.Context, sessionID string) error {
	return s.repo.RevokeBySession(ctx, sessionID)
}

func (s *RefreshTokenStore) match(tokens []model.RefreshToken, raw string) (*model.RefreshToken, error) {
	for i := range tokens {
		if s.verifier.Verify(raw, tokens[i].TokenHash) {
			return &tokens[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *RefreshTokenStore) revoke(ctx context.Context, tokenID string) error {
	err := s.repo.Revoke(ctx, tokenID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}
