package usecase

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	repo "sekolah/internal/repository"
	auth "sekolah/internal/usecase/auth_usecase"

	"go.uber.org/zap"
)

const (
	defaultQRValidity      = 30 * time.Minute
	msgSessionAccessDenied = "Session not found or access denied"
)

type CreateSessionInput struct {
	Title           string
	Description     string
	Location        string
	Latitude        *float64
	Longitude       *float64
	ValidityMinutes int
}

type CheckInInput struct {
	SessionID string
	QRToken   string
	Latitude  *float64
	Longitude *float64
}

// QRPayloadはQR画像に埋め込むJSON文字列（画像化はクライアント側）
type SessionQR struct {
	Session   *model.AttendanceSession `json:"session"`
	QRPayload string                   `json:"qrPayload"`
}

type qrContent struct {
	SessionID  string    `json:"sessionId"`
	Token      string    `json:"token"`
	ValidUntil time.Time `json:"validUntil"`
}

// QR出席
type AttendanceUsecase struct {
	repo     repo.AttendanceRepository
	idGen    auth.IDGenerator
	clock    auth.Clock
	activity *auth.ActivityRecorder
	log      *zap.Logger
}

func NewAttendanceUsecase(
	attendance repo.AttendanceRepository,
	idGen auth.IDGenerator,
	clock auth.Clock,
	activity *auth.ActivityRecorder,
	log *zap.Logger,
) *AttendanceUsecase {
	return &AttendanceUsecase{repo: attendance, idGen: idGen, clock: clock, activity: activity, log: log}
}

func (u *AttendanceUsecase) CreateSession(ctx context.Context, creatorID string, in CreateSessionInput) (*SessionQR, error) {
	now := u.clock.Now()
	sess := &model.AttendanceSession{
		ID:          u.idGen.NewID(),
		CreatorID:   creatorID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		QRToken:     u.idGen.NewID(),
		ValidUntil:  now.Add(validity(in.ValidityMinutes)),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.repo.CreateSession(ctx, sess); err != nil {
		return nil, auth.StoreError(u.log, "Failed to create attendance session", err)
	}
	u.log.Info("attendance session created", zap.String("session_id", sess.ID), zap.String("creator_id", creatorID))
	return u.withQR(sess)
}

// 期限切れのQRは再表示しない（regenerateを使う）
func (u *AttendanceUsecase) SessionQR(ctx context.Context, sessionID, creatorID string) (*SessionQR, error) {
	sess, err := u.repo.FindOwnedSession(ctx, sessionID, creatorID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound("Session not found")
	}
	if err != nil {
		return nil, auth.StoreError(u.log, "Failed to get session", err)
	}
	if sess.Expired(u.clock.Now()) {
		return nil, apperr.BadRequest("Session has expired")
	}
	return u.withQR(sess)
}

func (u *AttendanceUsecase) CheckIn(ctx context.Context, userID string, in CheckInInput) (*model.AttendanceRecord, error) {
	sess, err := u.repo.FindSession(ctx, in.SessionID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound("Attendance session not found")
	}
	if err != nil {
		return nil, auth.StoreError(u.log, "Failed to check in", err)
	}

	now := u.clock.Now()
	if subtle.ConstantTimeCompare([]byte(sess.QRToken), []byte(in.QRToken)) != 1 {
		return nil, apperr.BadRequest("Invalid QR code")
	}
	if !sess.IsActive {
		return nil, apperr.BadRequest("Session is no longer active")
	}
	if sess.Expired(now) {
		return nil, apperr.BadRequest("Session has expired")
	}

	rec := &model.AttendanceRecord{
		ID:          u.idGen.NewID(),
		SessionID:   sess.ID,
		UserID:      userID,
		CheckInTime: now,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Status:      model.AttendancePresent,
		CreatedAt:   now,
	}
	if err := u.repo.CreateRecord(ctx, rec); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, apperr.BadRequest("You have already checked in to this session")
		}
		return nil, auth.StoreError(u.log, "Failed to check in", err)
	}

	u.activity.Record(ctx, userID, model.ActivityCheckIn, fmt.Sprintf("Checked in to %s", sess.Title), map[string]any{
		"sessionId": sess.ID,
	})
	return rec, nil
}

func (u *AttendanceUsecase) MySessions(ctx context.Context, creatorID string) ([]model.AttendanceSession, error) {
	sessions, err := u.repo.ListSessionsByCreator(ctx, creatorID)
	if err != nil {
		return nil, auth.StoreError(u.log, "Failed to get sessions", err)
	}
	return sessions, nil
}

func (u *AttendanceUsecase) SessionRecords(ctx context.Context, sessionID, creatorID string) ([]model.AttendanceRecord, error) {
	if _, err := u.owned(ctx, sessionID, creatorID); err != nil {
		return nil, err
	}
	records, err := u.repo.ListRecordsBySession(ctx, sessionID)
	if err != nil {
		return nil, auth.StoreError(u.log, "Failed to get attendance records", err)
	}
	return records, nil
}

func (u *AttendanceUsecase) MyAttendance(ctx context.Context, userID string) ([]model.AttendanceRecord, error) {
	records, err := u.repo.ListRecordsByUser(ctx, userID)
	if err != nil {
		return nil, auth.StoreError(u.log, "Failed to get attendance history", err)
	}
	return records, nil
}

func (u *AttendanceUsecase) CloseSession(ctx context.Context, sessionID, creatorID string) (*model.AttendanceSession, error) {
	if err := u.ownedErr(u.repo.CloseSession(ctx, sessionID, creatorID), "Failed to close session"); err != nil {
		return nil, err
	}
	u.log.Info("attendance session closed", zap.String("session_id", sessionID))
	return u.owned(ctx, sessionID, creatorID)
}

// 新しいトークンで再開。古いQRは使えなくなる。
func (u *AttendanceUsecase) RegenerateQR(ctx context.Context, sessionID, creatorID string, validityMinutes int) (*SessionQR, error) {
	token := u.idGen.NewID()
	until := u.clock.Now().Add(validity(validityMinutes))
	err := u.repo.RotateToken(ctx, sessionID, creatorID, token, until)
	if err := u.ownedErr(err, "Failed to regenerate QR code"); err != nil {
		return nil, err
	}

	sess, err := u.owned(ctx, sessionID, creatorID)
	if err != nil {
		return nil, err
	}
	u.log.Info("attendance qr regenerated", zap.String("session_id", sessionID))
	return u.withQR(sess)
}

func (u *AttendanceUsecase) owned(ctx context.Context, sessionID, creatorID string) (*model.AttendanceSession, error) {
	sess, err := u.repo.FindOwnedSession(ctx, sessionID, creatorID)
	if err := u.ownedErr(err, "Failed to get session"); err != nil {
		return nil, err
	}
	return sess, nil
}

func (u *AttendanceUsecase) ownedErr(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound(msgSessionAccessDenied)
	}
	if err != nil {
		return auth.StoreError(u.log, msg, err)
	}
	return nil
}

func (u *AttendanceUsecase) withQR(sess *model.AttendanceSession) (*SessionQR, error) {
	b, err := json.Marshal(qrContent{SessionID: sess.ID, Token: sess.QRToken, ValidUntil: sess.ValidUntil})
	if err != nil {
		return nil, apperr.Internal("Failed to generate QR code", err)
	}
	return &SessionQR{Session: sess, QRPayload: string(b)}, nil
}

func validity(minutes int) time.Duration {
	if minutes <= 0 {
		return defaultQRValidity
	}
	return time.Duration(minutes) * time.Minute
}
