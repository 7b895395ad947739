package model

import "time"

// 出席セッション。作成者がQRを配り、参加者がトークン付きでチェックインする。
type AttendanceSession struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID   string    `gorm:"type:uuid;not null;index" json:"creatorId"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	QRToken     string    `gorm:"column:qr_token;type:uuid;not null" json:"-"`
	ValidUntil  time.Time `gorm:"not null" json:"validUntil"`
	IsActive    bool      `gorm:"not null;default:true;index" json:"isActive"`
	CreatedAt   time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Creator *User `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"-"`
}

func (s *AttendanceSession) Expired(now time.Time) bool {
	return now.After(s.ValidUntil)
}

const AttendancePresent = "present"

// 1セッション1ユーザー1行（uniqueで二重チェックインを防ぐ）
type AttendanceRecord struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_session_user" json:"sessionId"`
	UserID      string    `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_session_user;index" json:"userId"`
	CheckInTime time.Time `gorm:"not null" json:"checkInTime"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Status      string    `gorm:"type:varchar(20);not null;default:'present'" json:"status"`
	CreatedAt   time.Time `json:"createdAt"`

	Session *AttendanceSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"session,omitempty"`
	User    *User              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}
