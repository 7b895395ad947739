package model

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationBroadcast  NotificationType = "broadcast"
	NotificationTargeted   NotificationType = "targeted"
	NotificationSystem     NotificationType = "system"
	NotificationParentLink NotificationType = "parent_link"
)

// 通知行。配信（メール/プッシュ）はしない。
type Notification struct {
	ID          string            `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID    *string           `gorm:"type:uuid" json:"senderId,omitempty"`
	RecipientID string            `gorm:"type:uuid;not null;index" json:"recipientId"`
	Type        NotificationType  `gorm:"type:varchar(20);not null" json:"type"`
	Title       string            `gorm:"not null" json:"title"`
	Message     string            `gorm:"type:text;not null" json:"message"`
	Metadata    datatypes.JSONMap `json:"metadata"`
	IsRead      bool              `gorm:"not null;default:false;index" json:"isRead"`
	ReadAt      *time.Time        `json:"readAt,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;index" json:"createdAt"`
}
