package repository

import (
	"context"
	"time"

	"sekolah/internal/domain/model"
	domainrepo "sekolah/internal/repository"

	"gorm.io/gorm"
)

// joinしたusersのカラム（gormのエイリアスは "User"）
const (
	joinedUserEmail = `"User"."email" = ?`
	joinedUserRole  = `"User"."role" IN ?`
)

// ---- 生徒 ----

type studentGormRepository struct {
	db *gorm.DB
}

func NewStudentGormRepository(db *gorm.DB) domainrepo.StudentRepository {
	return &studentGormRepository{db: db}
}

func (r *studentGormRepository) Create(ctx context.Context, s *model.Student) error {
	return mapError(r.db.WithContext(ctx).Omit("User").Create(s).Error)
}

func (r *studentGormRepository) FindByNISN(ctx context.Context, nisn string) (*model.Student, error) {
	var s model.Student
	err := r.db.WithContext(ctx).
		InnerJoins("User").
		Where("students.nisn = ?", nisn).
		First(&s).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

func (r *studentGormRepository) FindByUserID(ctx context.Context, userID string) (*model.Student, error) {
	var s model.Student
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

func (r *studentGormRepository) FindByID(ctx context.Context, id string) (*model.Student, error) {
	var s model.Student
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

func (r *studentGormRepository) ExistsByNISN(ctx context.Context, nisn string) (bool, error) {
	return exists(r.db.WithContext(ctx).Model(&model.Student{}).Where("nisn = ?", nisn))
}

func (r *studentGormRepository) UpdateContact(ctx context.Context, userID string, f model.ProfileUpdate) error {
	return updateContact(r.db.WithContext(ctx).Model(&model.Student{}), userID, contactColumns(f, true, true))
}

// ---- 教員 ----

type teacherGormRepository struct {
	db *gorm.DB
}

func NewTeacherGormRepository(db *gorm.DB) domainrepo.TeacherRepository {
	return &teacherGormRepository{db: db}
}

func (r *teacherGormRepository) Create(ctx context.Context, t *model.Teacher) error {
	return mapError(r.db.WithContext(ctx).Omit("User").Create(t).Error)
}

func (r *teacherGormRepository) FindByNIP(ctx context.Context, nip string) (*model.Teacher, error) {
	var t model.Teacher
	err := r.db.WithContext(ctx).
		InnerJoins("User").
		Where("teachers.nip = ?", nip).
		First(&t).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

func (r *teacherGormRepository) FindByEmail(ctx context.Context, email string) (*model.Teacher, error) {
	var t model.Teacher
	err := r.db.WithContext(ctx).
		InnerJoins("User").
		Where(joinedUserEmail, email).
		Where(joinedUserRole, []model.Role{model.RoleTeacher}).
		First(&t).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

func (r *teacherGormRepository) FindByUserID(ctx context.Context, userID string) (*model.Teacher, error) {
	var t model.Teacher
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&t).Error; err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

func (r *teacherGormRepository) ExistsByNIP(ctx context.Context, nip string) (bool, error) {
	return exists(r.db.WithContext(ctx).Model(&model.Teacher{}).Where("nip = ?", nip))
}

func (r *teacherGormRepository) UpdateContact(ctx context.Context, userID string, f model.ProfileUpdate) error {
	return updateContact(r.db.WithContext(ctx).Model(&model.Teacher{}), userID, contactColumns(f, true, true))
}

// ---- 保護者 ----

type parentGormRepository struct {
	db *gorm.DB
}

func NewParentGormRepository(db *gorm.DB) domainrepo.ParentRepository {
	return &parentGormRepository{db: db}
}

func (r *parentGormRepository) Create(ctx context.Context, p *model.Parent) error {
	return mapError(r.db.WithContext(ctx).Omit("User").Create(p).Error)
}

func (r *parentGormRepository) FindByEmail(ctx context.Context, email string) (*model.Parent, error) {
	var p model.Parent
	err := r.db.WithContext(ctx).
		InnerJoins("User").
		Where(joinedUserEmail, email).
		Where(joinedUserRole, []model.Role{model.RoleParent}).
		First(&p).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *parentGormRepository) FindByUserID(ctx context.Context, userID string) (*model.Parent, error) {
	var p model.Parent
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *parentGormRepository) FindByID(ctx context.Context, id string) (*model.Parent, error) {
	var p model.Parent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *parentGormRepository) UpdateContact(ctx context.Context, userID string, f model.ProfileUpdate) error {
	return updateContact(r.db.WithContext(ctx).Model(&model.Parent{}), userID, contactColumns(f, false, true))
}

func (r *parentGormRepository) ListPendingLinks(ctx context.Context, studentID string) ([]model.Parent, error) {
	var ps []model.Parent
	err := r.db.WithContext(ctx).
		InnerJoins("User").
		Where("parents.student_id = ? AND parents.link_status = ?", studentID, model.LinkStatusPending).
		Order("parents.link_requested_at DESC").
		Find(&ps).Error
	if err != nil {
		return nil, err
	}
	return ps, nil
}

func (r *parentGormRepository) ExistsApprovedLink(ctx context.Context, studentID string) (bool, error) {
	return exists(r.db.WithContext(ctx).Model(&model.Parent{}).
		Where("student_id = ? AND link_status = ?", studentID, model.LinkStatusApproved))
}

func (r *parentGormRepository) RequestLink(ctx context.Context, parentID, studentID string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.Parent{}).
		Where("id = ?", parentID).
		Where("link_status IS NULL OR link_status <> ?", model.LinkStatusApproved).
		Updates(map[string]any{
			"student_id":        studentID,
			"link_status":       model.LinkStatusPending,
			"link_requested_at": at,
			"link_approved_at":  nil,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrStateChanged
	}
	return nil
}

// 先に処理した方だけが成功する（registrationのTransitionと同じ形）
func (r *parentGormRepository) ResolveLink(ctx context.Context, parentID, studentID string, to model.LinkStatus, at time.Time) error {
	cols := map[string]any{
		"link_status": to,
		"updated_at":  time.Now(),
	}
	if to == model.LinkStatusApproved {
		cols["link_approved_at"] = at
	} else {
		cols["student_id"] = nil
	}

	res := r.db.WithContext(ctx).
		Model(&model.Parent{}).
		Where("id = ? AND student_id = ? AND link_status = ?", parentID, studentID, model.LinkStatusPending).
		Updates(cols)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrStateChanged
	}
	return nil
}

// ---- 管理者 ----

type adminGormRepository struct {
	db *gorm.DB
}

func NewAdminGormRepository(db *gorm.DB) domainrepo.AdminRepository {
	return &adminGormRepository{db: db}
}

func (r *adminGormRepository) Create(ctx context.Context, a *model.Admin) error {
	return mapError(r.db.WithContext(ctx).Omit("User").Create(a).Error)
}

func (r *adminGormRepository) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var a model.Admin
	err := r.db.WithContext(ctx).
		InnerJoins("User").
		Where(joinedUserEmail, email).
		Where(joinedUserRole, []model.Role{model.RoleAdmin, model.RoleSuperAdmin}).
		First(&a).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (r *adminGormRepository) FindByUserID(ctx context.Context, userID string) (*model.Admin, error) {
	var a model.Admin
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&a).Error; err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (r *adminGormRepository) UpdateContact(ctx context.Context, userID string, f model.ProfileUpdate) error {
	return updateContact(r.db.WithContext(ctx).Model(&model.Admin{}), userID, contactColumns(model.ProfileUpdate{
		FullName: f.FullName,
		Phone:    f.Phone,
	}, false, false))
}

// ---- 共通 ----

// テーブルにないカラムは落とす
func contactColumns(f model.ProfileUpdate, avatar, address bool) map[string]any {
	cols := map[string]any{}
	if f.FullName != nil {
		cols["full_name"] = *f.FullName
	}
	if f.Phone != nil {
		cols["phone"] = *f.Phone
	}
	if address && f.Address != nil {
		cols["address"] = *f.Address
	}
	if avatar && f.AvatarURL != nil {
		cols["avatar_url"] = *f.AvatarURL
	}
	return cols
}

func updateContact(q *gorm.DB, userID string, cols map[string]any) error {
	cols["updated_at"] = time.Now()
	res := q.Where("user_id = ?", userID).Updates(cols)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}
