package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	repo "sekolah/internal/repository"
	auth "sekolah/internal/usecase/auth_usecase"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const msgUserNotFound = "User tidak ditemukan"

type ListUsersInput struct {
	Role   string
	Status string
	Search string
	Page   int
	Limit  int
}

type UserDetail struct {
	User    *model.User `json:"user"`
	Profile any         `json:"profile"`
}

type CreateAdminInput struct {
	Email        string
	FullName     string
	Phone        string
	IsSuperAdmin bool
}

type CreatedAdmin struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

type CreateAdminOutput struct {
	Message           string       `json:"message"`
	Admin             CreatedAdmin `json:"admin"`
	GeneratedPassword string       `json:"generatedPassword"`
}

type DashboardStats struct {
	TotalStudents        int64 `json:"totalStudents"`
	TotalTeachers        int64 `json:"totalTeachers"`
	TotalParents         int64 `json:"totalParents"`
	TotalUsers           int64 `json:"totalUsers"`
	PendingRegistrations int64 `json:"pendingRegistrations"`
}

type DashboardOutput struct {
	Stats          DashboardStats      `json:"stats"`
	RecentActivity []model.ActivityLog `json:"recentActivity"`
}

// AdminUserUsecaseは管理者によるユーザー管理
type AdminUserUsecase struct {
	users         repo.UserRepository
	profiles      auth.Profiles
	registrations repo.RegistrationRepository
	activityLogs  repo.ActivityLogRepository
	sessions      *auth.DeviceSessionRegistry
	verifier      *auth.CredentialVerifier
	hasher        auth.PasswordHasher
	idGen         auth.IDGenerator
	clock         auth.Clock
	notifier      *auth.Notifier
	activity      *auth.ActivityRecorder
	log           *zap.Logger
}

func NewAdminUserUsecase(
	users repo.UserRepository,
	profiles auth.Profiles,
	registrations repo.RegistrationRepository,
	activityLogs repo.ActivityLogRepository,
	sessions *auth.DeviceSessionRegistry,
	verifier *auth.CredentialVerifier,
	hasher auth.PasswordHasher,
	idGen auth.IDGenerator,
	clock auth.Clock,
	notifier *auth.Notifier,
	activity *auth.ActivityRecorder,
	log *zap.Logger,
) *AdminUserUsecase {
	return &AdminUserUsecase{
		users:         users,
		profiles:      profiles,
		registrations: registrations,
		activityLogs:  activityLogs,
		sessions:      sessions,
		verifier:      verifier,
		hasher:        hasher,
		idGen:         idGen,
		clock:         clock,
		notifier:      notifier,
		activity:      activity,
		log:           log,
	}
}

func (u *AdminUserUsecase) List(ctx context.Context, in ListUsersInput) (PageOutput[model.User], error) {
	page, limit, err := pageParams(in.Page, in.Limit)
	if err != nil {
		return PageOutput[model.User]{}, err
	}

	filter := repo.UserFilter{
		Search: strings.TrimSpace(in.Search),
		Page:   repo.Page{Limit: limit, Offset: (page - 1) * limit},
	}
	if in.Role != "" {
		r := model.Role(in.Role)
		filter.Role = &r
	}
	if in.Status != "" {
		s := model.UserStatus(in.Status)
		filter.Status = &s
	}

	users, total, err := u.users.List(ctx, filter)
	if err != nil {
		return PageOutput[model.User]{}, auth.StoreError(u.log, "Gagal mengambil data user", err)
	}
	return PageOutput[model.User]{Items: users, Total: total, Page: page, Limit: limit}, nil
}

func (u *AdminUserUsecase) Get(ctx context.Context, id string) (*UserDetail, error) {
	resolved, err := u.verifier.Resolve(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengambil data user", err)
	}
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengambil data user", err)
	}
	return &UserDetail{User: user, Profile: resolved.Profile}, nil
}

// 停止: 全端末セッション無効化 + 全リフレッシュトークン失効
func (u *AdminUserUsecase) Suspend(ctx context.Context, userID, adminID, reason string) error {
	user, err := u.find(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == model.RoleSuperAdmin {
		return apperr.BadRequest("Tidak dapat menonaktifkan Super Admin")
	}

	if err := u.users.UpdateStatus(ctx, userID, model.UserStatusSuspended); err != nil {
		return auth.StoreError(u.log, "Gagal menonaktifkan user", err)
	}
	revoked, err := u.sessions.RevokeAll(ctx, userID)
	if err != nil {
		return auth.StoreError(u.log, "Gagal menonaktifkan user", err)
	}

	body := "Akun Anda telah dinonaktifkan."
	if reason != "" {
		body += " Alasan: " + reason
	}
	u.notifier.SendQuietly(ctx, userID, auth.Message{
		SenderID: adminID,
		Type:     model.NotificationSystem,
		Title:    "Akun Dinonaktifkan",
		Body:     body,
	})
	u.activity.Record(ctx, adminID, model.ActivitySuspendUser, fmt.Sprintf("Suspended user %s", userID), map[string]any{
		"userId":          userID,
		"reason":          reason,
		"revokedSessions": revoked,
	})
	return nil
}

func (u *AdminUserUsecase) Reactivate(ctx context.Context, userID, adminID string) error {
	user, err := u.find(ctx, userID)
	if err != nil {
		return err
	}
	if user.Status != model.UserStatusSuspended {
		return apperr.BadRequest("User tidak dalam status suspended")
	}

	if err := u.users.UpdateStatus(ctx, userID, model.UserStatusActive); err != nil {
		return auth.StoreError(u.log, "Gagal mengaktifkan user", err)
	}

	u.notifier.SendQuietly(ctx, userID, auth.Message{
		SenderID: adminID,
		Type:     model.NotificationSystem,
		Title:    "Akun Diaktifkan Kembali",
		Body:     "Akun Anda telah diaktifkan kembali. Anda dapat login seperti biasa.",
	})
	u.activity.Record(ctx, adminID, model.ActivityReactivateUser, fmt.Sprintf("Reactivated user %s", userID), map[string]any{
		"userId": userID,
	})
	return nil
}

// プロフィールや申請はFKのCASCADEで消える
func (u *AdminUserUsecase) Delete(ctx context.Context, userID, adminID string) error {
	user, err := u.find(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == model.RoleSuperAdmin {
		return apperr.BadRequest("Tidak dapat menghapus Super Admin")
	}

	if err := u.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return auth.StoreError(u.log, "Gagal menghapus user", err)
	}
	u.activity.Record(ctx, adminID, model.ActivityDeleteUser, fmt.Sprintf("Deleted user %s", userID), map[string]any{
		"userId": userID,
	})
	return nil
}

// super_adminだけが管理者を作れる
func (u *AdminUserUsecase) CreateAdmin(ctx context.Context, creatorID string, in CreateAdminInput) (*CreateAdminOutput, error) {
	creator, err := u.users.FindByID(ctx, creatorID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, auth.StoreError(u.log, "Gagal membuat admin", err)
	}
	if creator == nil || creator.Role != model.RoleSuperAdmin {
		return nil, apperr.Forbidden("Hanya Super Admin yang dapat membuat admin baru")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	taken, err := u.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal membuat admin", err)
	}
	if taken {
		return nil, apperr.Conflict("Email sudah terdaftar")
	}

	password, err := auth.GeneratePassword(auth.AdminPasswordLength)
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal membuat admin", err)
	}
	hash, err := u.hasher.Hash(password)
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal membuat admin", err)
	}

	role := model.RoleAdmin
	permissions := datatypes.JSON(`{}`)
	if in.IsSuperAdmin {
		role = model.RoleSuperAdmin
		permissions = datatypes.JSON(`{"all":true}`)
	}

	now := u.clock.Now()
	user := &model.User{
		ID:                 u.idGen.NewID(),
		Email:              email,
		PasswordHash:       &hash,
		Role:               role,
		Status:             model.UserStatusActive,
		EmailVerified:      true,
		MustChangePassword: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, apperr.Conflict("Email sudah terdaftar")
		}
		return nil, auth.StoreError(u.log, "Gagal membuat admin", err)
	}

	err = auth.Compensate(ctx, u.log, "create admin profile",
		func(ctx context.Context) error {
			return u.profiles.Admins.Create(ctx, &model.Admin{
				ID:           u.idGen.NewID(),
				UserID:       user.ID,
				FullName:     in.FullName,
				Phone:        in.Phone,
				IsSuperAdmin: in.IsSuperAdmin,
				Permissions:  permissions,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
		},
		func(ctx context.Context) error { return u.users.Delete(ctx, user.ID) },
	)
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal membuat profil admin", err)
	}

	u.activity.Record(ctx, creatorID, model.ActivityCreateAdmin, fmt.Sprintf("Created admin %s", email), map[string]any{
		"newAdminId":   user.ID,
		"email":        email,
		"isSuperAdmin": in.IsSuperAdmin,
	})

	return &CreateAdminOutput{
		Message:           "Admin berhasil dibuat",
		Admin:             CreatedAdmin{ID: user.ID, Email: email, FullName: in.FullName},
		GeneratedPassword: password,
	}, nil
}

// 件数は並列に取って合流する（読み取りのみ）
func (u *AdminUserUsecase) DashboardStats(ctx context.Context) (*DashboardOutput, error) {
	var stats DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	countRole := func(role model.Role, dst *int64) func() error {
		return func() error {
			n, err := u.users.Count(gctx, repo.UserFilter{Role: &role})
			*dst = n
			return err
		}
	}
	g.Go(countRole(model.RoleStudent, &stats.TotalStudents))
	g.Go(countRole(model.RoleTeacher, &stats.TotalTeachers))
	g.Go(countRole(model.RoleParent, &stats.TotalParents))
	g.Go(func() error {
		active := model.UserStatusActive
		n, err := u.users.Count(gctx, repo.UserFilter{Status: &active})
		stats.TotalUsers = n
		return err
	})
	g.Go(func() error {
		pending := model.RegistrationPending
		n, err := u.registrations.Count(gctx, &pending)
		stats.PendingRegistrations = n
		return err
	})

	var recent []model.ActivityLog
	g.Go(func() error {
		logs, err := u.activityLogs.List(gctx, repo.ActivityLogFilter{Page: repo.Page{Limit: 10}})
		recent = logs
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengambil statistik", err)
	}
	return &DashboardOutput{Stats: stats, RecentActivity: recent}, nil
}

func (u *AdminUserUsecase) find(ctx context.Context, id string) (*model.User, error) {
	user, err := u.users.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengambil data user", err)
	}
	return user, nil
}
