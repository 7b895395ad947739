package model

import (
	"time"

	"gorm.io/datatypes"
)

// 生徒プロフィール（NISNでログイン）
type Student struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string     `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	NISN        string     `gorm:"column:nisn;type:varchar(10);uniqueIndex;not null" json:"nisn"`
	FullName    string     `gorm:"not null" json:"fullName"`
	Kelas       string     `json:"kelas"`
	Jurusan     string     `json:"jurusan"`
	WaliKelas   string     `json:"waliKelas,omitempty"`
	TahunAjaran string     `json:"tahunAjaran"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Address     string     `json:"address,omitempty"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	IsVerified  bool       `gorm:"not null;default:false" json:"isVerified"`
	VerifiedAt  *time.Time `json:"verifiedAt,omitempty"`
	VerifiedBy  *string    `gorm:"type:uuid" json:"verifiedBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// 教員プロフィール（NIPまたはemailでログイン）
type Teacher struct {
	ID         string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string     `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	NIP        string     `gorm:"column:nip;uniqueIndex;not null" json:"nip"`
	FullName   string     `gorm:"not null" json:"fullName"`
	Subject    string     `json:"subject"`
	Phone      string     `json:"phone,omitempty"`
	Address    string     `json:"address,omitempty"`
	AvatarURL  string     `json:"avatarUrl,omitempty"`
	IsVerified bool       `gorm:"not null;default:false" json:"isVerified"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
	VerifiedBy *string    `gorm:"type:uuid" json:"verifiedBy,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

type ParentRelationship string

const (
	RelationshipAyah ParentRelationship = "ayah"
	RelationshipIbu  ParentRelationship = "ibu"
	RelationshipWali ParentRelationship = "wali"
)

type LinkStatus string

const (
	LinkStatusPending  LinkStatus = "pending"
	LinkStatusApproved LinkStatus = "approved"
	LinkStatusRejected LinkStatus = "rejected"
)

// 保護者プロフィール
type Parent struct {
	ID              string             `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          string             `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	StudentID       *string            `gorm:"type:uuid;index" json:"studentId,omitempty"`
	FullName        string             `gorm:"not null" json:"fullName"`
	Phone           string             `json:"phone,omitempty"`
	Address         string             `json:"address,omitempty"`
	Relationship    ParentRelationship `gorm:"type:varchar(10)" json:"relationship"`
	LinkStatus      *LinkStatus        `gorm:"type:varchar(10)" json:"linkStatus,omitempty"`
	LinkRequestedAt *time.Time         `json:"linkRequestedAt,omitempty"`
	LinkApprovedAt  *time.Time         `json:"linkApprovedAt,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// 管理者プロフィール
type Admin struct {
	ID           string         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string         `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	FullName     string         `gorm:"not null" json:"fullName"`
	Phone        string         `json:"phone,omitempty"`
	IsSuperAdmin bool           `gorm:"not null;default:false" json:"isSuperAdmin"`
	Permissions  datatypes.JSON `json:"permissions"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// 本人が変更できる項目だけ。nilは変更しない。
type ProfileUpdate struct {
	FullName  *string
	Phone     *string
	Address   *string
	AvatarURL *string
}

func (p ProfileUpdate) Empty() bool {
	return p.FullName == nil && p.Phone == nil && p.Address == nil && p.AvatarURL == nil
}
