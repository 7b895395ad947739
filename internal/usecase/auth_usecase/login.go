package auth

import (
	"context"
	"errors"
	"fmt"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	"sekolah/internal/metrics"
	"sekolah/internal/repository"

	"go.uber.org/zap"
)

const msgInvalidRefresh = "Invalid or expired refresh token"

// handlerがJSONにして返すログイン結果
type Session struct {
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
	ExpiresAt    int64              `json:"expiresAt"` // epoch ms
	SessionID    string             `json:"sessionId"`
	User         *AuthenticatedUser `json:"user"`
}

// sessionStarterはトークン発行 → 端末セッション登録 → リフレッシュトークン保存 をまとめる
type sessionStarter struct {
	issuer   AccessTokenIssuer
	tokens   *RefreshTokenStore
	sessions *DeviceSessionRegistry
	log      *zap.Logger
}

func (s *sessionStarter) start(ctx context.Context, user *AuthenticatedUser, device model.DeviceInfo) (*Session, error) {
	pair, err := s.issuer.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, StoreError(s.log, "Failed to issue tokens", err)
	}

	ds, err := s.sessions.Register(ctx, user.ID, pair.RefreshToken, device)
	if err != nil {
		return nil, StoreError(s.log, "Failed to create session", err)
	}

	// トークン保存に失敗したらセッションを無効に戻す
	err = Compensate(ctx, s.log, "store refresh token",
		func(ctx context.Context) error {
			_, err := s.tokens.Store(ctx, user.ID, ds.ID, pair.RefreshToken)
			return err
		},
		func(ctx context.Context) error {
			return s.sessions.End(ctx, ds.ID)
		},
	)
	if err != nil {
		return nil, StoreError(s.log, "Failed to create session", err)
	}

	return &Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt.UnixMilli(),
		SessionID:    ds.ID,
		User:         user,
	}, nil
}

// handlerからusecaseに渡す入力
type LoginInput struct {
	Identity LoginIdentity
	Device   model.DeviceInfo
}

type LoginUsecase struct {
	verifier *CredentialVerifier
	starter  *sessionStarter
	metrics  *metrics.Metrics
}

func NewLoginUsecase(
	verifier *CredentialVerifier,
	issuer AccessTokenIssuer,
	tokens *RefreshTokenStore,
	sessions *DeviceSessionRegistry,
	m *metrics.Metrics,
	log *zap.Logger,
) *LoginUsecase {
	return &LoginUsecase{
		verifier: verifier,
		starter:  &sessionStarter{issuer: issuer, tokens: tokens, sessions: sessions, log: log},
		metrics:  m,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (*Session, error) {
	session, err := u.execute(ctx, in)
	u.metrics.ObserveLogin(string(in.Identity.Field), err)
	return session, err
}

func (u *LoginUsecase) execute(ctx context.Context, in LoginInput) (*Session, error) {
	user, err := u.verifier.Verify(ctx, in.Identity)
	if err != nil {
		return nil, err
	}
	return u.starter.start(ctx, user, in.Device)
}

// 認証済みユーザーでそのままセッションを開始する（保護者サインアップ直後）
func (u *LoginUsecase) StartFor(ctx context.Context, userID string, device model.DeviceInfo) (*Session, error) {
	user, err := u.verifier.Resolve(ctx, userID)
	if err != nil {
		return nil, StoreError(u.starter.log, "Failed to start session", err)
	}
	return u.starter.start(ctx, user, device)
}

// リフレッシュ（ローテーション）。使ったトークンは二度と使えない。
type RefreshUsecase struct {
	verifier *CredentialVerifier
	tokens   *RefreshTokenStore
	sessions *DeviceSessionRegistry
	starter  *sessionStarter
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewRefreshUsecase(
	verifier *CredentialVerifier,
	issuer AccessTokenIssuer,
	tokens *RefreshTokenStore,
	sessions *DeviceSessionRegistry,
	m *metrics.Metrics,
	log *zap.Logger,
) *RefreshUsecase {
	return &RefreshUsecase{
		verifier: verifier,
		tokens:   tokens,
		sessions: sessions,
		starter:  &sessionStarter{issuer: issuer, tokens: tokens, sessions: sessions, log: log},
		metrics:  m,
		log:      log,
	}
}

func (u *RefreshUsecase) Execute(ctx context.Context, raw string, device model.DeviceInfo) (*Session, error) {
	session, err := u.execute(ctx, raw, device)
	u.metrics.ObserveRefresh(err)
	return session, err
}

func (u *RefreshUsecase) execute(ctx context.Context, raw string, device model.DeviceInfo) (*Session, error) {
	token, err := u.tokens.Find(ctx, raw)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Unauthorized(msgInvalidRefresh)
	}
	if err != nil {
		return nil, StoreError(u.log, "Failed to refresh session", err)
	}

	// 条件付き更新で使用済みに。同時リクエストは片方だけ通る。
	if err := u.tokens.Consume(ctx, token.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized(msgInvalidRefresh)
		}
		return nil, StoreError(u.log, "Failed to refresh session", err)
	}

	if token.SessionID != nil {
		if err := u.sessions.End(ctx, *token.SessionID); err != nil {
			u.log.Warn("old session deactivate failed", zap.String("session_id", *token.SessionID), zap.Error(err))
		}
	}

	// 発行後に停止・削除されたユーザーを弾く
	user, err := u.verifier.Resolve(ctx, token.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Unauthorized(msgInvalidRefresh)
	}
	if err != nil {
		return nil, StoreError(u.log, "Failed to refresh session", err)
	}
	if user.Status != model.UserStatusActive {
		return nil, apperr.Unauthorized(msgInvalidRefresh)
	}

	return u.starter.start(ctx, user, device)
}

type LogoutUsecase struct {
	tokens   *RefreshTokenStore
	sessions *DeviceSessionRegistry
	activity *ActivityRecorder
	log      *zap.Logger
}

func NewLogoutUsecase(tokens *RefreshTokenStore, sessions *DeviceSessionRegistry, activity *ActivityRecorder, log *zap.Logger) *LogoutUsecase {
	return &LogoutUsecase{tokens: tokens, sessions: sessions, activity: activity, log: log}
}

// rawがあればそのトークン（とセッション）だけ、なければ全端末
func (u *LogoutUsecase) Execute(ctx context.Context, userID, raw string) error {
	if raw == "" {
		if _, err := u.sessions.RevokeAll(ctx, userID); err != nil {
			return StoreError(u.log, "Failed to logout", err)
		}
		u.activity.Record(ctx, userID, model.ActivityLogout, "Logged out from all devices", nil)
		return nil
	}

	token, err := u.tokens.FindForUser(ctx, userID, raw)
	if errors.Is(err, repository.ErrNotFound) {
		// すでに無効なトークン。ログアウト済みとして扱う。
		return nil
	}
	if err != nil {
		return StoreError(u.log, "Failed to logout", err)
	}

	if err := u.tokens.Consume(ctx, token.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return StoreError(u.log, "Failed to logout", err)
	}
	if token.SessionID != nil {
		if err := u.sessions.End(ctx, *token.SessionID); err != nil {
			return StoreError(u.log, "Failed to logout", fmt.Errorf("end session: %w", err))
		}
	}
	u.activity.Record(ctx, userID, model.ActivityLogout, "Logged out", nil)
	return nil
}
