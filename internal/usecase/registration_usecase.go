package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	repo "sekolah/internal/repository"
	auth "sekolah/internal/usecase/auth_usecase"

	"go.uber.org/zap"
)

const (
	msgRegistrationNotFound  = "Pendaftaran tidak ditemukan"
	msgRegistrationProcessed = "Pendaftaran sudah diproses sebelumnya"
)

type ListRegistrationsInput struct {
	Status string
	Type   string
	Page   int
	Limit  int
}

type PageOutput[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

type ApproveOutput struct {
	Message           string `json:"message"`
	GeneratedPassword string `json:"generatedPassword"`
	UserEmail         string `json:"userEmail"`
}

// RegistrationUsecaseは管理者側の申請審査。pending → approved | rejected。
type RegistrationUsecase struct {
	registrations repo.RegistrationRepository
	users         repo.UserRepository
	profiles      auth.Profiles
	hasher        auth.PasswordHasher
	idGen         auth.IDGenerator
	clock         auth.Clock
	notifier      *auth.Notifier
	activity      *auth.ActivityRecorder
	passwordLen   int
	log           *zap.Logger
}

func NewRegistrationUsecase(
	registrations repo.RegistrationRepository,
	users repo.UserRepository,
	profiles auth.Profiles,
	hasher auth.PasswordHasher,
	idGen auth.IDGenerator,
	clock auth.Clock,
	notifier *auth.Notifier,
	activity *auth.ActivityRecorder,
	passwordLen int,
	log *zap.Logger,
) *RegistrationUsecase {
	if passwordLen < auth.ApprovalPasswordLength {
		passwordLen = auth.ApprovalPasswordLength
	}
	return &RegistrationUsecase{
		registrations: registrations,
		users:         users,
		profiles:      profiles,
		hasher:        hasher,
		idGen:         idGen,
		clock:         clock,
		notifier:      notifier,
		activity:      activity,
		passwordLen:   passwordLen,
		log:           log,
	}
}

func (u *RegistrationUsecase) List(ctx context.Context, in ListRegistrationsInput) (PageOutput[model.RegistrationRequest], error) {
	page, limit, err := pageParams(in.Page, in.Limit)
	if err != nil {
		return PageOutput[model.RegistrationRequest]{}, err
	}

	filter := repo.RegistrationFilter{Page: repo.Page{Limit: limit, Offset: (page - 1) * limit}}
	if in.Status != "" {
		s := model.RegistrationStatus(in.Status)
		filter.Status = &s
	}
	if in.Type != "" {
		t := model.RegistrationType(in.Type)
		filter.Type = &t
	}

	items, total, err := u.registrations.List(ctx, filter)
	if err != nil {
		return PageOutput[model.RegistrationRequest]{}, auth.StoreError(u.log, "Gagal mengambil data pendaftaran", err)
	}
	return PageOutput[model.RegistrationRequest]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (u *RegistrationUsecase) ListPending(ctx context.Context, page, limit int) (PageOutput[model.RegistrationRequest], error) {
	return u.List(ctx, ListRegistrationsInput{Status: string(model.RegistrationPending), Page: page, Limit: limit})
}

func (u *RegistrationUsecase) Get(ctx context.Context, id string) (*model.RegistrationRequest, error) {
	req, err := u.registrations.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound(msgRegistrationNotFound)
	}
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengambil data pendaftaran", err)
	}
	return req, nil
}

// Approveは申請を承認してアカウントを有効化する。
// 先にpending→approvedを条件付き更新で確保するので、同時に2回承認されても片方はBadRequest。
// 後続の書き込みに失敗したら申請とユーザーを元に戻す。
func (u *RegistrationUsecase) Approve(ctx context.Context, id, adminID, notes string) (*ApproveOutput, error) {
	req, err := u.pendingRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	password, err := auth.GeneratePassword(u.passwordLen)
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengaktifkan akun", err)
	}
	hash, err := u.hasher.Hash(password)
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengaktifkan akun", err)
	}

	now := u.clock.Now()
	review := model.RegistrationReview{
		ReviewedBy:        adminID,
		ReviewedAt:        now,
		Notes:             notes,
		GeneratedPassword: password,
	}
	if err := u.claim(ctx, req.ID, model.RegistrationApproved, review); err != nil {
		return nil, err
	}

	// 確保を取り消す
	unclaim := func(ctx context.Context) error {
		return u.registrations.Transition(ctx, req.ID, model.RegistrationApproved, model.RegistrationPending, model.RegistrationReview{})
	}

	err = auth.Compensate(ctx, u.log, "activate user",
		func(ctx context.Context) error { return u.users.Activate(ctx, req.UserID, hash) },
		unclaim,
	)
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengaktifkan akun", err)
	}

	err = auth.Compensate(ctx, u.log, "create role profile",
		func(ctx context.Context) error { return u.createProfile(ctx, req, adminID, now) },
		func(ctx context.Context) error {
			return errors.Join(u.users.ResetToPending(ctx, req.UserID), unclaim(ctx))
		},
	)
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, apperr.Conflict(naturalKeyConflict(req.Type))
		}
		return nil, auth.StoreError(u.log, profileFailure(req.Type), err)
	}

	u.notifier.SendQuietly(ctx, req.UserID, auth.Message{
		SenderID: adminID,
		Type:     model.NotificationSystem,
		Title:    "Pendaftaran Disetujui",
		Body:     "Selamat! Pendaftaran Anda telah disetujui. Password sementara akan diberikan oleh admin. Silakan ganti password setelah login.",
		Metadata: map[string]any{"requestId": req.ID},
	})

	email := userEmail(req)
	u.activity.Record(ctx, adminID, model.ActivityApproveRegistration, fmt.Sprintf("Approved registration %s", req.ID), map[string]any{
		"requestId": req.ID,
		"type":      string(req.Type),
		"email":     email,
	})
	u.log.Info("registration approved", zap.String("request_id", req.ID), zap.String("admin_id", adminID))

	return &ApproveOutput{
		Message:           "Pendaftaran berhasil disetujui",
		GeneratedPassword: password,
		UserEmail:         email,
	}, nil
}

func (u *RegistrationUsecase) Reject(ctx context.Context, id, adminID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperr.BadRequest("Alasan penolakan wajib diisi")
	}

	req, err := u.pendingRequest(ctx, id)
	if err != nil {
		return err
	}

	review := model.RegistrationReview{
		ReviewedBy:      adminID,
		ReviewedAt:      u.clock.Now(),
		RejectionReason: reason,
	}
	if err := u.claim(ctx, req.ID, model.RegistrationRejected, review); err != nil {
		return err
	}

	if err := u.users.UpdateStatus(ctx, req.UserID, model.UserStatusRejected); err != nil {
		// pendingのユーザーはパスワードがないのでログインはできない。ログだけ残す。
		u.log.Error("user status update after rejection failed", zap.String("user_id", req.UserID), zap.Error(err))
	}

	u.notifier.SendQuietly(ctx, req.UserID, auth.Message{
		SenderID: adminID,
		Type:     model.NotificationSystem,
		Title:    "Pendaftaran Ditolak",
		Body:     fmt.Sprintf("Maaf, pendaftaran Anda ditolak. Alasan: %s", reason),
		Metadata: map[string]any{"requestId": req.ID},
	})
	u.activity.Record(ctx, adminID, model.ActivityRejectRegistration, fmt.Sprintf("Rejected registration %s", req.ID), map[string]any{
		"requestId": req.ID,
		"reason":    reason,
		"email":     userEmail(req),
	})
	return nil
}

func (u *RegistrationUsecase) pendingRequest(ctx context.Context, id string) (*model.RegistrationRequest, error) {
	req, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != model.RegistrationPending {
		return nil, apperr.BadRequest(msgRegistrationProcessed)
	}
	return req, nil
}

// pending → to の条件付き更新。負けた方はBadRequest。
func (u *RegistrationUsecase) claim(ctx context.Context, id string, to model.RegistrationStatus, review model.RegistrationReview) error {
	err := u.registrations.Transition(ctx, id, model.RegistrationPending, to, review)
	if errors.Is(err, repo.ErrStateChanged) {
		return apperr.BadRequest(msgRegistrationProcessed)
	}
	if err != nil {
		return auth.StoreError(u.log, "Gagal memproses pendaftaran", err)
	}
	return nil
}

func (u *RegistrationUsecase) createProfile(ctx context.Context, req *model.RegistrationRequest, adminID string, now time.Time) error {
	form := req.Form()
	verifiedBy := adminID

	switch req.Type {
	case model.RegistrationTypeStudent:
		return u.profiles.Students.Create(ctx, &model.Student{
			ID:          u.idGen.NewID(),
			UserID:      req.UserID,
			NISN:        form.NISN,
			FullName:    form.FullName,
			Kelas:       form.Kelas,
			Jurusan:     form.Jurusan,
			TahunAjaran: form.TahunAjaran,
			DateOfBirth: parseDate(form.DateOfBirth),
			Phone:       form.Phone,
			Address:     form.Address,
			IsVerified:  true,
			VerifiedAt:  &now,
			VerifiedBy:  &verifiedBy,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	case model.RegistrationTypeTeacher:
		return u.profiles.Teachers.Create(ctx, &model.Teacher{
			ID:         u.idGen.NewID(),
			UserID:     req.UserID,
			NIP:        form.NIP,
			FullName:   form.FullName,
			Subject:    form.Subject,
			Phone:      form.Phone,
			Address:    form.Address,
			IsVerified: true,
			VerifiedAt: &now,
			VerifiedBy: &verifiedBy,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	default:
		return fmt.Errorf("unknown registration type %q", req.Type)
	}
}

func naturalKeyConflict(t model.RegistrationType) string {
	if t == model.RegistrationTypeTeacher {
		return "NIP sudah terdaftar"
	}
	return "NISN sudah terdaftar"
}

func profileFailure(t model.RegistrationType) string {
	if t == model.RegistrationTypeTeacher {
		return "Gagal membuat profil guru"
	}
	return "Gagal membuat profil siswa"
}

func userEmail(req *model.RegistrationRequest) string {
	if req.User != nil {
		return req.User.Email
	}
	return req.Form().Email
}

// YYYY-MM-DD または RFC3339。読めなければnil。
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// page>=1, 1<=limit<=100
func pageParams(page, limit int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 20
	}
	if page < 1 {
		return 0, 0, apperr.BadRequest("invalid page")
	}
	if limit < 1 || limit > 100 {
		return 0, 0, apperr.BadRequest("invalid limit")
	}
	return page, limit, nil
}
