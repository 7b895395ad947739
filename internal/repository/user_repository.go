package repository

import (
	"context"
	"time"

	"sekolah/internal/domain/model"
)

// 一覧・件数の絞り込み条件
type UserFilter struct {
	Role   *model.Role
	Status *model.UserStatus
	Search string // emailの部分一致
	Page
}

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID string) (*model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
	UpdatePassword(ctx context.Context, userID string, hash string, mustChange bool) error
	UpdateStatus(ctx context.Context, userID string, status model.UserStatus) error
	// 承認: active + パスワード設定 + 初回変更必須
	Activate(ctx context.Context, userID string, hash string) error
	// Activateの取り消し（pending・パスワードなしに戻す）
	ResetToPending(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string) error

	List(ctx context.Context, filter UserFilter) ([]model.User, int64, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
	// 通知の宛先用
	ListIDsByRoles(ctx context.Context, roles []model.Role, status *model.UserStatus) ([]string, error)
}
