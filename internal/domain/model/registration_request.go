package model

import (
	"time"

	"gorm.io/datatypes"
)

type RegistrationType string

const (
	RegistrationTypeStudent RegistrationType = "student"
	RegistrationTypeTeacher RegistrationType = "teacher"
)

type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
	// 予約済み。ここへ遷移する処理はまだない。
	RegistrationNeedsInfo RegistrationStatus = "needs_info"
)

// 申請時に入力されたフォーム内容（生徒/教員で使う項目が違う）
type RegistrationForm struct {
	NISN        string `json:"nisn,omitempty"`
	NIP         string `json:"nip,omitempty"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Kelas       string `json:"kelas,omitempty"`
	Jurusan     string `json:"jurusan,omitempty"`
	TahunAjaran string `json:"tahunAjaran,omitempty"`
	Subject     string `json:"subject,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Address     string `json:"address,omitempty"`
}

// 生徒/教員の登録申請。pending → approved | rejected で終端。
type RegistrationRequest struct {
	ID                string                              `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            string                              `gorm:"type:uuid;not null;index" json:"userId"`
	Type              RegistrationType                    `gorm:"type:varchar(10);not null;index" json:"type"`
	FormData          datatypes.JSONType[RegistrationForm] `json:"formData"`
	Status            RegistrationStatus                  `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	SubmittedAt       time.Time                           `gorm:"not null;index" json:"submittedAt"`
	ReviewedBy        *string                             `gorm:"type:uuid" json:"reviewedBy,omitempty"`
	ReviewedAt        *time.Time                          `json:"reviewedAt,omitempty"`
	ReviewNotes       string                              `json:"reviewNotes,omitempty"`
	RejectionReason   string                              `json:"rejectionReason,omitempty"`
	GeneratedPassword string                              `json:"-"`
	CreatedAt         time.Time                           `json:"createdAt"`
	UpdatedAt         time.Time                           `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (r *RegistrationRequest) Form() RegistrationForm {
	return r.FormData.Data()
}

// 審査結果として書き込む値
type RegistrationReview struct {
	ReviewedBy        string
	ReviewedAt        time.Time
	Notes             string
	RejectionReason   string
	GeneratedPassword string
}
