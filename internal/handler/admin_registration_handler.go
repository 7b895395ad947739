package handler

import (
	"net/http"

	"sekolah/internal/middleware"
	"sekolah/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminRegistrationHandler struct {
	uc *usecase.RegistrationUsecase
}

func NewAdminRegistrationHandler(uc *usecase.RegistrationUsecase) *AdminRegistrationHandler {
	return &AdminRegistrationHandler{uc: uc}
}

type approveRequest struct {
	Notes string `json:"notes"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// gは /admin（認証 + 管理者ガード済み）
func (h *AdminRegistrationHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/registrations", h.list)
	g.GET("/registrations/pending", h.pending)
	g.GET("/registrations/:id", h.detail)
	g.POST("/registrations/:id/approve", h.approve)
	g.POST("/registrations/:id/reject", h.reject)
}

func (h *AdminRegistrationHandler) list(c echo.Context) error {
	page, limit, err := pageQuery(c)
	if err != nil {
		return err
	}

	out, err := h.uc.List(c.Request().Context(), usecase.ListRegistrationsInput{
		Status: c.QueryParam("status"),
		Type:   c.QueryParam("type"),
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

func (h *AdminRegistrationHandler) pending(c echo.Context) error {
	page, limit, err := pageQuery(c)
	if err != nil {
		return err
	}

	out, err := h.uc.ListPending(c.Request().Context(), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{
		Success:    true,
		Data:       out.Items,
		Pagination: newPagination(out.Page, out.Limit, out.Total),
	})
}

func (h *AdminRegistrationHandler) detail(c echo.Context) error {
	req, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", req)
}

func (h *AdminRegistrationHandler) approve(c echo.Context) error {
	var req approveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.Approve(c.Request().Context(), c.Param("id"), middleware.UserID(c), req.Notes)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out.Message, map[string]string{
		"generatedPassword": out.GeneratedPassword,
		"userEmail":         out.UserEmail,
	})
}

func (h *AdminRegistrationHandler) reject(c echo.Context) error {
	var req rejectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.uc.Reject(c.Request().Context(), c.Param("id"), middleware.UserID(c), req.Reason); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Pendaftaran ditolak", nil)
}
