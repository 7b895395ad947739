package server

import (
	"net/http"

	"sekolah/internal/handler"
	"sekolah/internal/middleware"
	auth "sekolah/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// main.goで組み立てたhandler群
type Handlers struct {
	Authenticator *auth.Authenticator
	Gatherer      prometheus.Gatherer

	Auth          *handler.AuthHandler
	Registrations *handler.AdminRegistrationHandler
	AdminUsers    *handler.AdminUserHandler
	Notifications *handler.NotificationHandler
	Profile       *handler.ProfileHandler
	ParentLink    *handler.ParentLinkHandler
	Attendance    *handler.AttendanceHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{})))
	}

	requireAuth := middleware.AuthJWT(h.Authenticator)
	api := e.Group("/api/v1")

	h.Auth.RegisterRoutes(api.Group("/auth"), requireAuth)

	// /admin 配下は「JWT必須 + 管理者限定」
	admin := api.Group("/admin", requireAuth, middleware.AdminRoleGuard())
	h.Registrations.RegisterRoutes(admin)
	h.AdminUsers.RegisterRoutes(admin)
	h.Notifications.RegisterAdminRoutes(admin)

	h.Notifications.RegisterRoutes(api.Group("/notifications", requireAuth))
	h.Profile.RegisterRoutes(api.Group("/profile", requireAuth))
	h.ParentLink.RegisterRoutes(api.Group("/parent-link", requireAuth))
	h.Attendance.RegisterRoutes(api.Group("/attendance", requireAuth))
}
