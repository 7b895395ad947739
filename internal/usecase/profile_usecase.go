package usecase

import (
	"context"
	"fmt"

	"sekolah/internal/domain/model"
	repo "sekolah/internal/repository"
	auth "sekolah/internal/usecase/auth_usecase"

	"go.uber.org/zap"
)

// プロフィール画面の「セキュリティ」タブ
type ProfileSecurityUsecase struct {
	sessions     *auth.DeviceSessionRegistry
	activityLogs repo.ActivityLogRepository
	activity     *auth.ActivityRecorder
	log          *zap.Logger
}

func NewProfileSecurityUsecase(
	sessions *auth.DeviceSessionRegistry,
	activityLogs repo.ActivityLogRepository,
	activity *auth.ActivityRecorder,
	log *zap.Logger,
) *ProfileSecurityUsecase {
	return &ProfileSecurityUsecase{sessions: sessions, activityLogs: activityLogs, activity: activity, log: log}
}

func (u *ProfileSecurityUsecase) Sessions(ctx context.Context, userID string) ([]model.DeviceSession, error) {
	sessions, err := u.sessions.List(ctx, userID)
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengambil sesi", err)
	}
	return sessions, nil
}

// 他人のセッションIDはNotFound
func (u *ProfileSecurityUsecase) RevokeSession(ctx context.Context, userID, sessionID string) error {
	if err := u.sessions.Revoke(ctx, userID, sessionID); err != nil {
		return auth.StoreError(u.log, "Gagal mencabut sesi", err)
	}
	u.activity.Record(ctx, userID, model.ActivityRevokeSession, fmt.Sprintf("Revoked session %s", sessionID), map[string]any{
		"sessionId": sessionID,
	})
	return nil
}

func (u *ProfileSecurityUsecase) LogoutAll(ctx context.Context, userID, currentSessionID string) (int64, error) {
	n, err := u.sessions.RevokeAllOthers(ctx, userID, currentSessionID)
	if err != nil {
		return 0, auth.StoreError(u.log, "Gagal mencabut sesi", err)
	}
	u.activity.Record(ctx, userID, model.ActivityRevokeAllSessions, "Logged out from other devices", map[string]any{
		"revokedCount": n,
	})
	return n, nil
}

func (u *ProfileSecurityUsecase) Activity(ctx context.Context, userID string, page, limit int) ([]model.ActivityLog, error) {
	page, limit, err := pageParams(page, limit)
	if err != nil {
		return nil, err
	}
	logs, err := u.activityLogs.List(ctx, repo.ActivityLogFilter{
		UserID: &userID,
		Page:   repo.Page{Limit: limit, Offset: (page - 1) * limit},
	})
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengambil aktivitas", err)
	}
	return logs, nil
}
