package repository

import (
	"context"
	"time"

	"sekolah/internal/domain/model"
)

// ロール別プロフィール。Find系はUserをjoinして返す。
type StudentRepository interface {
	Create(ctx context.Context, s *model.Student) error
	FindByNISN(ctx context.Context, nisn string) (*model.Student, error)
	FindByUserID(ctx context.Context, userID string) (*model.Student, error)
	FindByID(ctx context.Context, id string) (*model.Student, error)
	ExistsByNISN(ctx context.Context, nisn string) (bool, error)
	// 0件ならErrNotFound
	UpdateContact(ctx context.Context, userID string, f model.ProfileUpdate) error
}

type TeacherRepository interface {
	Create(ctx context.Context, t *model.Teacher) error
	FindByNIP(ctx context.Context, nip string) (*model.Teacher, error)
	// users.email で引く（role=teacherに限る）
	FindByEmail(ctx context.Context, email string) (*model.Teacher, error)
	FindByUserID(ctx context.Context, userID string) (*model.Teacher, error)
	ExistsByNIP(ctx context.Context, nip string) (bool, error)
	UpdateContact(ctx context.Context, userID string, f model.ProfileUpdate) error
}

type ParentRepository interface {
	Create(ctx context.Context, p *model.Parent) error
	FindByEmail(ctx context.Context, email string) (*model.Parent, error)
	FindByUserID(ctx context.Context, userID string) (*model.Parent, error)
	FindByID(ctx context.Context, id string) (*model.Parent, error)
	// AvatarURLは持たないので無視
	UpdateContact(ctx context.Context, userID string, f model.ProfileUpdate) error

	// 生徒宛てのpending申請。Userをjoin、申請の新しい順。
	ListPendingLinks(ctx context.Context, studentID string) ([]model.Parent, error)
	ExistsApprovedLink(ctx context.Context, studentID string) (bool, error)
	// approved以外 → pending。承認済みならErrStateChanged。
	RequestLink(ctx context.Context, parentID, studentID string, at time.Time) error
	// pending（かつ同じ生徒宛て）→ to。違えばErrStateChanged。
	// rejectedにするときはstudent_idを外す。
	ResolveLink(ctx context.Context, parentID, studentID string, to model.LinkStatus, at time.Time) error
}

type AdminRepository interface {
	Create(ctx context.Context, a *model.Admin) error
	// role=admin/super_admin
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
	FindByUserID(ctx context.Context, userID string) (*model.Admin, error)
	// FullName/Phoneだけ
	UpdateContact(ctx context.Context, userID string, f model.ProfileUpdate) error
}
