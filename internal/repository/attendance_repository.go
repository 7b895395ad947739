package repository

import (
	"context"
	"time"

	"sekolah/internal/domain/model"
)

type AttendanceRepository interface {
	CreateSession(ctx context.Context, s *model.AttendanceSession) error
	FindSession(ctx context.Context, id string) (*model.AttendanceSession, error)
	// 作成者のものだけ。他人のものはErrNotFound。
	FindOwnedSession(ctx context.Context, id, creatorID string) (*model.AttendanceSession, error)
	// 新しい順
	ListSessionsByCreator(ctx context.Context, creatorID string) ([]model.AttendanceSession, error)
	CloseSession(ctx context.Context, id, creatorID string) error
	// トークンと期限を差し替えて再開する
	RotateToken(ctx context.Context, id, creatorID, token string, validUntil time.Time) error

	// 同じセッションに2回目はErrConflict
	CreateRecord(ctx context.Context, r *model.AttendanceRecord) error
	// Userをjoin、チェックイン順
	ListRecordsBySession(ctx context.Context, sessionID string) ([]model.AttendanceRecord, error)
	// Sessionをjoin、新しい順
	ListRecordsByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error)
}
