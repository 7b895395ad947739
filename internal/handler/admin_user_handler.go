package handler

import (
	"net/http"

	"sekolah/internal/domain/model"
	"sekolah/internal/middleware"
	"sekolah/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	uc *usecase.AdminUserUsecase
}

func NewAdminUserHandler(uc *usecase.AdminUserUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc}
}

type suspendRequest struct {
	Reason string `json:"reason"`
}

type createAdminRequest struct {
	Email        string `json:"email" validate:"required,email"`
	FullName     string `json:"fullName" validate:"required"`
	Phone        string `json:"phone"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
}

// gは /admin（認証 + 管理者ガード済み）
func (h *AdminUserHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/users", h.list)
	g.GET("/users/:id", h.detail)
	g.PATCH("/users/:id/suspend", h.suspend)
	g.PATCH("/users/:id/reactivate", h.reactivate)
	g.DELETE("/users/:id", h.delete)

	g.POST("/admins", h.createAdmin, middleware.RoleGuard(model.RoleSuperAdmin))
	g.GET("/dashboard/stats", h.dashboard)
}

func (h *AdminUserHandler) list(c echo.Context) error {
	page, limit, err := pageQuery(c)
	if err != nil {
		return err
	}

	out, err := h.uc.List(c.Request().Context(), usecase.ListUsersInput{
		Role:   c.QueryParam("role"),
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{
		Success:    true,
		Data:       out.Items,
		Pagination: newPagination(out.Page, out.Limit, out.Total),
	})
}

func (h *AdminUserHandler) detail(c echo.Context) error {
	out, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", out)
}

func (h *AdminUserHandler) suspend(c echo.Context) error {
	var req suspendRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.uc.Suspend(c.Request().Context(), c.Param("id"), middleware.UserID(c), req.Reason); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "User berhasil dinonaktifkan", nil)
}

func (h *AdminUserHandler) reactivate(c echo.Context) error {
	if err := h.uc.Reactivate(c.Request().Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "User berhasil diaktifkan kembali", nil)
}

func (h *AdminUserHandler) delete(c echo.Context) error {
	if err := h.uc.Delete(c.Request().Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "User berhasil dihapus", nil)
}

func (h *AdminUserHandler) createAdmin(c echo.Context) error {
	var req createAdminRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.CreateAdmin(c.Request().Context(), middleware.UserID(c), usecase.CreateAdminInput{
		Email:        req.Email,
		FullName:     req.FullName,
		Phone:        req.Phone,
		IsSuperAdmin: req.IsSuperAdmin,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, out.Message, map[string]any{
		"admin":             out.Admin,
		"generatedPassword": out.GeneratedPassword,
	})
}

func (h *AdminUserHandler) dashboard(c echo.Context) error {
	out, err := h.uc.DashboardStats(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", out)
}
