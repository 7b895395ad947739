package model

import "time"

type Role string

const (
	RoleStudent    Role = "student"
	RoleTeacher    Role = "teacher"
	RoleParent     Role = "parent"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
	RoleOAuthUser  Role = "oauth_user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleParent, RoleAdmin, RoleSuperAdmin, RoleOAuthUser:
		return true
	}
	return false
}

// 管理画面に入れるロール
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type UserStatus string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusRejected  UserStatus = "rejected"
)

// usersテーブル。
// PasswordHashは承認されるまでnil（nilのままではログインできない）。
type User struct {
	ID                 string     `gorm:"type:uuid;primaryKey" json:"id"`
	Email              string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash       *string    `gorm:"column:password_hash" json:"-"`
	Role               Role       `gorm:"type:varchar(20);not null;index" json:"role"`
	Status             UserStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	EmailVerified      bool       `gorm:"not null;default:false" json:"emailVerified"`
	MustChangePassword bool       `gorm:"not null;default:false" json:"mustChangePassword"`
	OAuthProvider      *string    `gorm:"column:oauth_provider" json:"oauthProvider,omitempty"`
	LastLogin          *time.Time `json:"lastLogin,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
