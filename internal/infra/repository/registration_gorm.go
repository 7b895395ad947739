package repository

import (
	"context"
	"time"

	"sekolah/internal/domain/model"
	domainrepo "sekolah/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type registrationGormRepository struct {
	db *gorm.DB
}

func NewRegistrationGormRepository(db *gorm.DB) domainrepo.RegistrationRepository {
	return &registrationGormRepository{db: db}
}

func (r *registrationGormRepository) Create(ctx context.Context, req *model.RegistrationRequest) error {
	return mapError(r.db.WithContext(ctx).Omit("User").Create(req).Error)
}

func (r *registrationGormRepository) FindByID(ctx context.Context, id string) (*model.RegistrationRequest, error) {
	var req model.RegistrationRequest
	err := r.db.WithContext(ctx).
		Joins("User").
		Where("registration_requests.id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &req, nil
}

func (r *registrationGormRepository) List(ctx context.Context, filter domainrepo.RegistrationFilter) ([]model.RegistrationRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.RegistrationRequest{})
	if filter.Status != nil {
		q = q.Where("registration_requests.status = ?", *filter.Status)
	}
	if filter.Type != nil {
		q = q.Where("registration_requests.type = ?", *filter.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	p := filter.Page.Normalize(20, 100)
	var reqs []model.RegistrationRequest
	err := q.Joins("User").
		Order("registration_requests.submitted_at DESC").
		Limit(p.Limit).Offset(p.Offset).
		Find(&reqs).Error
	if err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

func (r *registrationGormRepository) Count(ctx context.Context, status *model.RegistrationStatus) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.RegistrationRequest{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *registrationGormRepository) ExistsPending(ctx context.Context, typ model.RegistrationType, naturalKey string, email string) (bool, error) {
	keyField := "nisn"
	if typ == model.RegistrationTypeTeacher {
		keyField = "nip"
	}

	q := r.db.WithContext(ctx).Model(&model.RegistrationRequest{}).
		Where("status = ?", model.RegistrationPending).
		Where(
			r.db.Where(datatypes.JSONQuery("form_data").Equals(naturalKey, keyField)).
				Or(datatypes.JSONQuery("form_data").Equals(email, "email")),
		)
	return exists(q)
}

// WHERE status = from の条件付き更新（先に取った方だけが成功する）
func (r *registrationGormRepository) Transition(
	ctx context.Context,
	id string,
	from, to model.RegistrationStatus,
	review model.RegistrationReview,
) error {
	cols := map[string]any{
		"status":             to,
		"review_notes":       review.Notes,
		"rejection_reason":   review.RejectionReason,
		"generated_password": review.GeneratedPassword,
		"updated_at":         time.Now(),
	}
	if review.ReviewedBy != "" {
		cols["reviewed_by"] = review.ReviewedBy
		cols["reviewed_at"] = review.ReviewedAt
	} else {
		cols["reviewed_by"] = nil
		cols["reviewed_at"] = nil
	}

	res := r.db.WithContext(ctx).
		Model(&model.RegistrationRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(cols)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrStateChanged
	}
	return nil
}
