// Package app はコンストラクタ注入で全部品を組み立てる。
// グローバルなシングルトンは持たない。
package app

import (
	"sekolah/internal/config"
	"sekolah/internal/handler"
	"sekolah/internal/metrics"
	"sekolah/internal/repository"
	"sekolah/internal/server"
	"sekolah/internal/usecase"
	auth "sekolah/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Deps struct {
	Config   config.Config
	Repos    repository.Repositories
	Log      *zap.Logger
	Registry *prometheus.Registry // nilならメトリクスなし

	// 省略時はUUIDとシステム時刻
	IDGen auth.IDGenerator
	Clock auth.Clock
}

func Build(d Deps) *echo.Echo {
	cfg, r, log := d.Config, d.Repos, d.Log

	idGen := d.IDGen
	if idGen == nil {
		idGen = auth.UUIDGenerator{}
	}
	clock := d.Clock
	if clock == nil {
		clock = auth.SystemClock{}
	}

	var m *metrics.Metrics
	var gatherer prometheus.Gatherer
	if d.Registry != nil {
		m = metrics.New(d.Registry)
		gatherer = d.Registry
	}

	//bcrypt（パスワードとトークンの両方）
	hasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	verifier := auth.NewBcryptPasswordVerifier()

	issuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, clock)

	profiles := auth.Profiles{
		Students: r.Students,
		Teachers: r.Teachers,
		Parents:  r.Parents,
		Admins:   r.Admins,
	}

	activity := auth.NewActivityRecorder(r.ActivityLogs, idGen, clock, log)
	notifier := auth.NewNotifier(r.Notifications, idGen, clock, log)

	tokens := auth.NewRefreshTokenStore(r.RefreshTokens, hasher, verifier, idGen, clock, cfg.RefreshTokenTTL)
	sessions := auth.NewDeviceSessionRegistry(r.Sessions, tokens, hasher, idGen, clock, cfg.DeviceSessionTTL)
	credentials := auth.NewCredentialVerifier(r.Users, profiles, verifier, activity, clock, log)

	//Usecase生成
	loginUC := auth.NewLoginUsecase(credentials, issuer, tokens, sessions, m, log)
	refreshUC := auth.NewRefreshUsecase(credentials, issuer, tokens, sessions, m, log)
	logoutUC := auth.NewLogoutUsecase(tokens, sessions, activity, log)
	changePasswordUC := auth.NewChangePasswordUsecase(r.Users, hasher, verifier, activity, log)
	signupUC := auth.NewSignupUsecase(r.Users, profiles, r.Registrations, hasher, idGen, clock, notifier, activity, loginUC, log)

	authUC := usecase.NewAuthUsecase(loginUC, refreshUC, logoutUC, changePasswordUC, signupUC, credentials)
	registrationUC := usecase.NewRegistrationUsecase(
		r.Registrations, r.Users, profiles, hasher, idGen, clock, notifier, activity, cfg.GeneratedPasswordN, log,
	)
	adminUserUC := usecase.NewAdminUserUsecase(
		r.Users, profiles, r.Registrations, r.ActivityLogs, sessions, credentials, hasher, idGen, clock, notifier, activity, log,
	)
	notificationUC := usecase.NewNotificationUsecase(r.Notifications, r.Users, notifier, activity, clock, log)
	profileUC := usecase.NewProfileSecurityUsecase(sessions, r.ActivityLogs, activity, log)
	accountUC := usecase.NewAccountUsecase(r.Users, profiles, credentials, verifier, sessions, activity, log)
	parentLinkUC := usecase.NewParentLinkUsecase(r.Parents, r.Students, notifier, activity, clock, log)
	attendanceUC := usecase.NewAttendanceUsecase(r.Attendance, idGen, clock, activity, log)

	//Handler生成
	h := server.Handlers{
		Authenticator: auth.NewAuthenticator(issuer, r.Users, log),
		Gatherer:      gatherer,
		Auth:          handler.NewAuthHandler(authUC),
		Registrations: handler.NewAdminRegistrationHandler(registrationUC),
		AdminUsers:    handler.NewAdminUserHandler(adminUserUC),
		Notifications: handler.NewNotificationHandler(notificationUC),
		Profile:       handler.NewProfileHandler(accountUC, profileUC),
		ParentLink:    handler.NewParentLinkHandler(parentLinkUC),
		Attendance:    handler.NewAttendanceHandler(attendanceUC),
	}

	return server.New(cfg, log, m, h)
}
