package auth

import (
	"context"
	"fmt"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	"sekolah/internal/repository"

	"go.uber.org/zap"
)

// 活動ログの書き込み。失敗しても本処理は止めない（ログだけ）。
type ActivityRecorder struct {
	repo  repository.ActivityLogRepository
	idGen IDGenerator
	clock Clock
	log   *zap.Logger
}

func NewActivityRecorder(repo repository.ActivityLogRepository, idGen IDGenerator, clock Clock, log *zap.Logger) *ActivityRecorder {
	return &ActivityRecorder{repo: repo, idGen: idGen, clock: clock, log: log}
}

func (r *ActivityRecorder) Record(ctx context.Context, userID string, action model.ActivityAction, description string, meta map[string]any) {
	entry := model.ActivityLog{
		ID:          r.idGen.NewID(),
		UserID:      userID,
		Action:      action,
		Description: description,
		Metadata:    meta,
		CreatedAt:   r.clock.Now(),
	}
	if err := r.repo.Create(ctx, entry); err != nil {
		r.log.Warn("activity log write failed",
			zap.String("user_id", userID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

// 通知1件分の中身
type Message struct {
	SenderID string
	Type     model.NotificationType
	Title    string
	Body     string
	Metadata map[string]any
}

// 通知行を書くだけ（メール/プッシュはしない）
type Notifier struct {
	repo  repository.NotificationRepository
	idGen IDGenerator
	clock Clock
	log   *zap.Logger
}

func NewNotifier(repo repository.NotificationRepository, idGen IDGenerator, clock Clock, log *zap.Logger) *Notifier {
	return &Notifier{repo: repo, idGen: idGen, clock: clock, log: log}
}

func (n *Notifier) Send(ctx context.Context, recipientID string, msg Message) (*model.Notification, error) {
	row := n.build(recipientID, msg)
	if err := n.repo.Create(ctx, &row); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return &row, nil
}

func (n *Notifier) SendMany(ctx context.Context, recipientIDs []string, msg Message) (int, error) {
	if len(recipientIDs) == 0 {
		return 0, nil
	}
	rows := make([]model.Notification, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		rows = append(rows, n.build(id, msg))
	}
	if err := n.repo.CreateBatch(ctx, rows); err != nil {
		return 0, fmt.Errorf("create notifications: %w", err)
	}
	return len(rows), nil
}

// 状態遷移の副作用として送る。失敗はログのみ。
func (n *Notifier) SendQuietly(ctx context.Context, recipientID string, msg Message) {
	if _, err := n.Send(ctx, recipientID, msg); err != nil {
		n.log.Warn("notification write failed", zap.String("recipient_id", recipientID), zap.Error(err))
	}
}

func (n *Notifier) build(recipientID string, msg Message) model.Notification {
	row := model.Notification{
		ID:          n.idGen.NewID(),
		RecipientID: recipientID,
		Type:        msg.Type,
		Title:       msg.Title,
		Message:     msg.Body,
		Metadata:    msg.Metadata,
		CreatedAt:   n.clock.Now(),
	}
	if msg.SenderID != "" {
		sender := msg.SenderID
		row.SenderID = &sender
	}
	return row
}

// ストアの生エラーはログに出して、呼び出し元には汎用メッセージだけ返す
func StoreError(log *zap.Logger, msg string, err error) error {
	if ae, ok := apperr.As(err); ok {
		return ae
	}
	log.Error(msg, zap.Error(err))
	return apperr.Internal(msg, err)
}
