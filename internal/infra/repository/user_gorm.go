package repository

import (
	"context"
	"time"

	"sekolah/internal/domain/model"
	domainrepo "sekolah/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	return mapError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userGormRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// emailでユーザーを1件取得
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *userGormRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return exists(r.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email))
}

func (r *userGormRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]any{"last_login": at})
}

func (r *userGormRepository) UpdatePassword(ctx context.Context, id string, hash string, mustChange bool) error {
	return r.updateColumns(ctx, id, map[string]any{
		"password_hash":        hash,
		"must_change_password": mustChange,
	})
}

func (r *userGormRepository) UpdateStatus(ctx context.Context, id string, status model.UserStatus) error {
	return r.updateColumns(ctx, id, map[string]any{"status": status})
}

func (r *userGormRepository) Activate(ctx context.Context, id string, hash string) error {
	return r.updateColumns(ctx, id, map[string]any{
		"status":               model.UserStatusActive,
		"password_hash":        hash,
		"must_change_password": true,
	})
}

func (r *userGormRepository) ResetToPending(ctx context.Context, id string) error {
	return r.updateColumns(ctx, id, map[string]any{
		"status":               model.UserStatusPending,
		"password_hash":        nil,
		"must_change_password": false,
	})
}

// プロフィール等はFKのON DELETE CASCADEで消える
func (r *userGormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}

func (r *userGormRepository) List(ctx context.Context, filter domainrepo.UserFilter) ([]model.User, int64, error) {
	q := r.filtered(ctx, filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	p := filter.Page.Normalize(20, 100)
	var users []model.User
	if err := q.Order("created_at DESC").Limit(p.Limit).Offset(p.Offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userGormRepository) Count(ctx context.Context, filter domainrepo.UserFilter) (int64, error) {
	var n int64
	if err := r.filtered(ctx, filter).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *userGormRepository) ListIDsByRoles(ctx context.Context, roles []model.Role, status *model.UserStatus) ([]string, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var ids []string
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *userGormRepository) filtered(ctx context.Context, filter domainrepo.UserFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != nil {
		q = q.Where("role = ?", *filter.Role)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		q = q.Where("email ILIKE ?", "%"+filter.Search+"%")
	}
	return q
}

// 0件更新は「対象がない」
func (r *userGormRepository) updateColumns(ctx context.Context, id string, cols map[string]any) error {
	cols["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}
