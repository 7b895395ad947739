package repository

import (
	"context"

	"sekolah/internal/domain/model"
)

type RegistrationFilter struct {
	Status *model.RegistrationStatus
	Type   *model.RegistrationType
	Page
}

type RegistrationRepository interface {
	Create(ctx context.Context, req *model.RegistrationRequest) error
	// Userを一緒に読む
	FindByID(ctx context.Context, id string) (*model.RegistrationRequest, error)
	// 新しい申請順
	List(ctx context.Context, filter RegistrationFilter) ([]model.RegistrationRequest, int64, error)
	Count(ctx context.Context, status *model.RegistrationStatus) (int64, error)

	// 同じNISN/NIP（form_data）またはemailのpending申請があるか
	ExistsPending(ctx context.Context, typ model.RegistrationType, naturalKey string, email string) (bool, error)

	// from → to の条件付き更新。0件ならErrStateChanged。
	Transition(ctx context.Context, id string, from, to model.RegistrationStatus, review model.RegistrationReview) error
}
