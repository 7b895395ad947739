package repository

import (
	"context"
	"time"

	"sekolah/internal/domain/model"
)

type NotificationFilter struct {
	RecipientID string
	UnreadOnly  bool
	Page
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	CreateBatch(ctx context.Context, ns []model.Notification) error
	List(ctx context.Context, filter NotificationFilter) ([]model.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)

	// 宛先本人のものだけ更新・削除。該当なしはErrNotFound。
	MarkRead(ctx context.Context, id, recipientID string, at time.Time) error
	MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error)
	Delete(ctx context.Context, id, recipientID string) error
}
