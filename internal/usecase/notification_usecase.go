package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	repo "sekolah/internal/repository"
	auth "sekolah/internal/usecase/auth_usecase"

	"go.uber.org/zap"
)

const msgNotificationNotFound = "Notifikasi tidak ditemukan"

type ListNotificationsInput struct {
	UserID     string
	UnreadOnly bool
	Page       int
	Limit      int
}

type SendNotificationInput struct {
	RecipientID string
	Title       string
	Message     string
}

type BroadcastInput struct {
	Title       string
	Message     string
	TargetRoles []model.Role // 空なら全員
}

type BroadcastOutput struct {
	Message        string         `json:"message"`
	RecipientCount int            `json:"recipientCount"`
	RoleCount      map[string]int `json:"roleCount,omitempty"`
}

// 自分宛ての通知だけ操作できる。他人のものはNotFound。
type NotificationUsecase struct {
	notifications repo.NotificationRepository
	users         repo.UserRepository
	notifier      *auth.Notifier
	activity      *auth.ActivityRecorder
	clock         auth.Clock
	log           *zap.Logger
}

func NewNotificationUsecase(
	notifications repo.NotificationRepository,
	users repo.UserRepository,
	notifier *auth.Notifier,
	activity *auth.ActivityRecorder,
	clock auth.Clock,
	log *zap.Logger,
) *NotificationUsecase {
	return &NotificationUsecase{
		notifications: notifications,
		users:         users,
		notifier:      notifier,
		activity:      activity,
		clock:         clock,
		log:           log,
	}
}

func (u *NotificationUsecase) List(ctx context.Context, in ListNotificationsInput) (PageOutput[model.Notification], error) {
	page, limit, err := pageParams(in.Page, in.Limit)
	if err != nil {
		return PageOutput[model.Notification]{}, err
	}
	items, total, err := u.notifications.List(ctx, repo.NotificationFilter{
		RecipientID: in.UserID,
		UnreadOnly:  in.UnreadOnly,
		Page:        repo.Page{Limit: limit, Offset: (page - 1) * limit},
	})
	if err != nil {
		return PageOutput[model.Notification]{}, auth.StoreError(u.log, "Gagal mengambil notifikasi", err)
	}
	return PageOutput[model.Notification]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (u *NotificationUsecase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := u.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, auth.StoreError(u.log, "Gagal mengambil notifikasi", err)
	}
	return n, nil
}

func (u *NotificationUsecase) MarkRead(ctx context.Context, userID, id string) error {
	err := u.notifications.MarkRead(ctx, id, userID, u.clock.Now())
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound(msgNotificationNotFound)
	}
	if err != nil {
		return auth.StoreError(u.log, "Gagal memperbarui notifikasi", err)
	}
	return nil
}

func (u *NotificationUsecase) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := u.notifications.MarkAllRead(ctx, userID, u.clock.Now())
	if err != nil {
		return 0, auth.StoreError(u.log, "Gagal memperbarui notifikasi", err)
	}
	return n, nil
}

func (u *NotificationUsecase) Delete(ctx context.Context, userID, id string) error {
	err := u.notifications.Delete(ctx, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound(msgNotificationNotFound)
	}
	if err != nil {
		return auth.StoreError(u.log, "Gagal menghapus notifikasi", err)
	}
	return nil
}

// ---- 管理者から送る ----

func (u *NotificationUsecase) Send(ctx context.Context, adminID string, in SendNotificationInput) error {
	if _, err := u.users.FindByID(ctx, in.RecipientID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("Penerima tidak ditemukan")
		}
		return auth.StoreError(u.log, "Gagal mengirim notifikasi", err)
	}

	_, err := u.notifier.Send(ctx, in.RecipientID, auth.Message{
		SenderID: adminID,
		Type:     model.NotificationTargeted,
		Title:    in.Title,
		Body:     in.Message,
	})
	if err != nil {
		return auth.StoreError(u.log, "Gagal mengirim notifikasi", err)
	}

	u.activity.Record(ctx, adminID, model.ActivitySendNotification, fmt.Sprintf("Sent: %s", in.Title), map[string]any{
		"recipientId": in.RecipientID,
	})
	return nil
}

// TargetRolesが空なら有効な全ユーザー、あればそのロールだけ
func (u *NotificationUsecase) Broadcast(ctx context.Context, adminID string, in BroadcastInput) (*BroadcastOutput, error) {
	active := model.UserStatusActive

	recipients, err := u.users.ListIDsByRoles(ctx, in.TargetRoles, &active)
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengambil data user", err)
	}
	if len(recipients) == 0 {
		if len(in.TargetRoles) > 0 {
			return nil, apperr.BadRequest(fmt.Sprintf("Tidak ada user aktif dengan role: %s", joinRoles(in.TargetRoles)))
		}
		return nil, apperr.BadRequest("Tidak ada user aktif")
	}

	msg := auth.Message{
		SenderID: adminID,
		Type:     model.NotificationBroadcast,
		Title:    in.Title,
		Body:     in.Message,
	}
	action := model.ActivityBroadcast
	out := &BroadcastOutput{Message: "Broadcast berhasil dikirim"}

	if len(in.TargetRoles) > 0 {
		msg.Metadata = map[string]any{"targetRoles": roleStrings(in.TargetRoles)}
		action = model.ActivityRoleBroadcast
		out.Message = "Broadcast per role berhasil dikirim"
		out.RoleCount, err = u.countByRole(ctx, in.TargetRoles, &active)
		if err != nil {
			return nil, auth.StoreError(u.log, "Gagal mengambil data user", err)
		}
	}

	n, err := u.notifier.SendMany(ctx, recipients, msg)
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengirim broadcast", err)
	}
	out.RecipientCount = n

	u.activity.Record(ctx, adminID, action, fmt.Sprintf("Broadcast: %s", in.Title), map[string]any{
		"recipientCount": n,
		"targetRoles":    roleStrings(in.TargetRoles),
	})
	return out, nil
}

func (u *NotificationUsecase) countByRole(ctx context.Context, roles []model.Role, status *model.UserStatus) (map[string]int, error) {
	counts := make(map[string]int, len(roles))
	for _, r := range roles {
		ids, err := u.users.ListIDsByRoles(ctx, []model.Role{r}, status)
		if err != nil {
			return nil, err
		}
		counts[string(r)] = len(ids)
	}
	return counts, nil
}

func roleStrings(roles []model.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func joinRoles(roles []model.Role) string {
	return strings.Join(roleStrings(roles), ", ")
}
