package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	"sekolah/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	msgEmailTaken      = "Email sudah terdaftar"
	msgCreateAccount   = "Gagal membuat akun"
	msgCreateRequest   = "Gagal membuat permintaan pendaftaran"
	msgRequestAccepted = "Pendaftaran berhasil dikirim. Silakan tunggu persetujuan admin."
)

type StudentSignupInput struct {
	NISN        string
	FullName    string
	Email       string
	Phone       string
	Kelas       string
	Jurusan     string
	TahunAjaran string
	DateOfBirth string
	Address     string
}

type TeacherSignupInput struct {
	NIP      string
	FullName string
	Email    string
	Phone    string
	Subject  string
	Address  string
}

type ParentSignupInput struct {
	Email        string
	Password     string
	FullName     string
	Phone        string
	Relationship model.ParentRelationship
	Address      string
	ChildNISN    string
	Device       model.DeviceInfo
}

type SignupResult struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

// SignupUsecaseは自己登録。生徒/教員は承認待ち、保護者は即時有効。
type SignupUsecase struct {
	users         repository.UserRepository
	profiles      Profiles
	registrations repository.RegistrationRepository
	hasher        PasswordHasher
	idGen         IDGenerator
	clock         Clock
	notifier      *Notifier
	activity      *ActivityRecorder
	login         *LoginUsecase
	log           *zap.Logger
}

func NewSignupUsecase(
	users repository.UserRepository,
	profiles Profiles,
	registrations repository.RegistrationRepository,
	hasher PasswordHasher,
	idGen IDGenerator,
	clock Clock,
	notifier *Notifier,
	activity *ActivityRecorder,
	login *LoginUsecase,
	log *zap.Logger,
) *SignupUsecase {
	return &SignupUsecase{
		users:         users,
		profiles:      profiles,
		registrations: registrations,
		hasher:        hasher,
		idGen:         idGen,
		clock:         clock,
		notifier:      notifier,
		activity:      activity,
		login:         login,
		log:           log,
	}
}

func (u *SignupUsecase) SubmitStudent(ctx context.Context, in StudentSignupInput) (*SignupResult, error) {
	email := normalizeEmail(in.Email)

	taken, err := u.profiles.Students.ExistsByNISN(ctx, in.NISN)
	if err != nil {
		return nil, StoreError(u.log, msgCreateAccount, err)
	}
	if taken {
		return nil, apperr.Conflict("NISN sudah terdaftar")
	}

	form := model.RegistrationForm{
		NISN:        in.NISN,
		FullName:    in.FullName,
		Email:       email,
		Phone:       in.Phone,
		Kelas:       in.Kelas,
		Jurusan:     in.Jurusan,
		TahunAjaran: in.TahunAjaran,
		DateOfBirth: in.DateOfBirth,
		Address:     in.Address,
	}
	return u.submit(ctx, model.RegistrationTypeStudent, in.NISN, form,
		"Sudah ada pendaftaran dengan NISN atau email yang sama yang sedang diproses",
	)
}

func (u *SignupUsecase) SubmitTeacher(ctx context.Context, in TeacherSignupInput) (*SignupResult, error) {
	email := normalizeEmail(in.Email)

	taken, err := u.profiles.Teachers.ExistsByNIP(ctx, in.NIP)
	if err != nil {
		return nil, StoreError(u.log, msgCreateAccount, err)
	}
	if taken {
		return nil, apperr.Conflict("NIP sudah terdaftar")
	}

	form := model.RegistrationForm{
		NIP:      in.NIP,
		FullName: in.FullName,
		Email:    email,
		Phone:    in.Phone,
		Subject:  in.Subject,
		Address:  in.Address,
	}
	return u.submit(ctx, model.RegistrationTypeTeacher, in.NIP, form,
		"Sudah ada pendaftaran dengan NIP atau email yang sama yang sedang diproses",
	)
}

// 申請の共通部分: 重複チェック → pendingユーザー作成 → 申請作成（失敗時はユーザー削除）
func (u *SignupUsecase) submit(
	ctx context.Context,
	typ model.RegistrationType,
	naturalKey string,
	form model.RegistrationForm,
	pendingConflictMsg string,
) (*SignupResult, error) {
	taken, err := u.users.ExistsByEmail(ctx, form.Email)
	if err != nil {
		return nil, StoreError(u.log, msgCreateAccount, err)
	}
	if taken {
		return nil, apperr.Conflict(msgEmailTaken)
	}

	pending, err := u.registrations.ExistsPending(ctx, typ, naturalKey, form.Email)
	if err != nil {
		return nil, StoreError(u.log, msgCreateAccount, err)
	}
	if pending {
		return nil, apperr.Conflict(pendingConflictMsg)
	}

	now := u.clock.Now()
	user := &model.User{
		ID:                 u.idGen.NewID(),
		Email:              form.Email,
		PasswordHash:       nil, // 承認時に設定
		Role:               model.Role(typ),
		Status:             model.UserStatusPending,
		MustChangePassword: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := u.createUser(ctx, user); err != nil {
		return nil, err
	}

	req := &model.RegistrationRequest{
		ID:          u.idGen.NewID(),
		UserID:      user.ID,
		Type:        typ,
		FormData:    datatypes.NewJSONType(form),
		Status:      model.RegistrationPending,
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = Compensate(ctx, u.log, "create registration request",
		func(ctx context.Context) error { return u.registrations.Create(ctx, req) },
		func(ctx context.Context) error { return u.users.Delete(ctx, user.ID) },
	)
	if err != nil {
		return nil, StoreError(u.log, msgCreateRequest, err)
	}

	u.notifyAdmins(ctx, typ, naturalKey, form.FullName, req.ID)
	u.activity.Record(ctx, user.ID, model.ActivityRegister, "Registration request submitted", map[string]any{
		"requestId": req.ID,
		"type":      string(typ),
	})
	u.log.Info("registration request created", zap.String("request_id", req.ID), zap.String("type", string(typ)))

	return &SignupResult{Message: msgRequestAccepted, RequestID: req.ID}, nil
}

func (u *SignupUsecase) notifyAdmins(ctx context.Context, typ model.RegistrationType, naturalKey, fullName, requestID string) {
	active := model.UserStatusActive
	adminIDs, err := u.users.ListIDsByRoles(ctx, []model.Role{model.RoleAdmin, model.RoleSuperAdmin}, &active)
	if err != nil {
		u.log.Warn("admin lookup for notification failed", zap.Error(err))
		return
	}

	msg := Message{
		Type:     model.NotificationSystem,
		Title:    "Pendaftaran Siswa Baru",
		Body:     fmt.Sprintf("%s (NISN: %s) mendaftar sebagai siswa baru", fullName, naturalKey),
		Metadata: map[string]any{"requestId": requestID, "type": "student_registration"},
	}
	if typ == model.RegistrationTypeTeacher {
		msg.Title = "Pendaftaran Guru Baru"
		msg.Body = fmt.Sprintf("%s (NIP: %s) mendaftar sebagai guru baru", fullName, naturalKey)
		msg.Metadata["type"] = "teacher_registration"
	}
	if _, err := u.notifier.SendMany(ctx, adminIDs, msg); err != nil {
		u.log.Warn("admin notification failed", zap.String("request_id", requestID), zap.Error(err))
	}
}

// 保護者は承認なしで有効。パスワードは本人が決める。
func (u *SignupUsecase) SignupParent(ctx context.Context, in ParentSignupInput) (*Session, error) {
	email := normalizeEmail(in.Email)

	taken, err := u.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, StoreError(u.log, msgCreateAccount, err)
	}
	if taken {
		return nil, apperr.Conflict(msgEmailTaken)
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, StoreError(u.log, msgCreateAccount, err)
	}

	now := u.clock.Now()
	user := &model.User{
		ID:           u.idGen.NewID(),
		Email:        email,
		PasswordHash: &hash,
		Role:         model.RoleParent,
		Status:       model.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.createUser(ctx, user); err != nil {
		return nil, err
	}

	parent := &model.Parent{
		ID:           u.idGen.NewID(),
		UserID:       user.ID,
		FullName:     in.FullName,
		Phone:        in.Phone,
		Address:      in.Address,
		Relationship: in.Relationship,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 子のNISNが認証済み生徒なら連携申請（pending）。なければ後で連携。
	child := u.findVerifiedChild(ctx, in.ChildNISN)
	if child != nil {
		status := model.LinkStatusPending
		parent.StudentID = &child.ID
		parent.LinkStatus = &status
		parent.LinkRequestedAt = &now
	}

	err = Compensate(ctx, u.log, "create parent profile",
		func(ctx context.Context) error { return u.profiles.Parents.Create(ctx, parent) },
		func(ctx context.Context) error { return u.users.Delete(ctx, user.ID) },
	)
	if err != nil {
		return nil, StoreError(u.log, "Gagal membuat profil orang tua", err)
	}

	if child != nil {
		u.notifier.SendQuietly(ctx, child.UserID, Message{
			Type:  model.NotificationParentLink,
			Title: "Permintaan Akses Orang Tua",
			Body: fmt.Sprintf("%s (%s) meminta akses sebagai orang tua Anda. Apakah Anda menyetujui?",
				in.FullName, in.Relationship),
			Metadata: map[string]any{
				"parentId":     parent.ID,
				"parentUserId": user.ID,
				"parentName":   in.FullName,
				"relationship": string(in.Relationship),
			},
		})
	}
	u.activity.Record(ctx, user.ID, model.ActivityRegister, "Parent registered successfully", nil)

	return u.login.StartFor(ctx, user.ID, in.Device)
}

func (u *SignupUsecase) findVerifiedChild(ctx context.Context, nisn string) *model.Student {
	if nisn == "" {
		return nil
	}
	s, err := u.profiles.Students.FindByNISN(ctx, nisn)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			u.log.Warn("child lookup failed", zap.Error(err))
		}
		return nil
	}
	if !s.IsVerified {
		u.log.Info("child not verified yet, link skipped", zap.String("student_id", s.ID))
		return nil
	}
	return s
}

func (u *SignupUsecase) createUser(ctx context.Context, user *model.User) error {
	err := u.users.Create(ctx, user)
	if errors.Is(err, repository.ErrConflict) {
		return apperr.Conflict(msgEmailTaken)
	}
	if err != nil {
		return StoreError(u.log, msgCreateAccount, err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
