package model

import "time"

// リフレッシュトークン。平文は保存せずbcryptハッシュだけ持つ。
// 失効してもレコードは消さない（監査用）。
type RefreshToken struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"userId" gorm:"type:uuid;not null;index"`
	SessionID *string   `json:"sessionId,omitempty" gorm:"type:uuid;index"`
	TokenHash string    `json:"-" gorm:"not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
	Revoked   bool      `json:"revoked" gorm:"not null;default:false;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}
