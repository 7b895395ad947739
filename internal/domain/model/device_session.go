package model

import "time"

// ログイン1回につき1行。ユーザーに見せる「接続中の端末」。
type DeviceSession struct {
	ID               string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID           string    `json:"-" gorm:"type:uuid;not null;index"`
	DeviceName       string    `json:"deviceName"`
	DeviceType       string    `json:"deviceType"`
	UserAgent        string    `json:"userAgent,omitempty"`
	IPAddress        string    `json:"ipAddress,omitempty"`
	RefreshTokenHash string    `json:"-" gorm:"not null"`
	IsActive         bool      `json:"isActive" gorm:"not null;default:true;index"`
	ExpiresAt        time.Time `json:"expiresAt" gorm:"not null"`
	LastActivity     time.Time `json:"lastActivity" gorm:"not null;index"`
	CreatedAt        time.Time `json:"createdAt"`
}

// 端末情報（handlerでリクエストから組み立てる）
type DeviceInfo struct {
	Name      string
	Type      string
	UserAgent string
	IP        string
}
