package repository

import (
	"context"
	"time"

	"sekolah/internal/domain/model"
)

//活動ログの絞り込み条件。
type ActivityLogFilter struct {
	UserID      *string
	Action      *model.ActivityAction
	CreatedFrom *time.Time
	Page
}

// 活動ログの保存・一覧取得の約束。
type ActivityLogRepository interface {
	//1件保存
	Create(ctx context.Context, log model.ActivityLog) error

	//条件で一覧取得（新しい順）。
	List(ctx context.Context, filter ActivityLogFilter) ([]model.ActivityLog, error)
}
