package handler

import (
	"net/http"

	"sekolah/internal/domain/model"
	"sekolah/internal/middleware"
	"sekolah/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ParentLinkHandler struct {
	uc *usecase.ParentLinkUsecase
}

func NewParentLinkHandler(uc *usecase.ParentLinkUsecase) *ParentLinkHandler {
	return &ParentLinkHandler{uc: uc}
}

type requestLinkRequest struct {
	NISN string `json:"nisn" validate:"required,nisn"`
}

// gは /parent-link（認証済み）
func (h *ParentLinkHandler) RegisterRoutes(g *echo.Group) {
	parent := middleware.RoleGuard(model.RoleParent)
	student := middleware.RoleGuard(model.RoleStudent)

	g.POST("/request", h.request, parent)
	g.GET("/status", h.status, parent)

	g.GET("/pending", h.pending, student)
	g.POST("/:id/approve", h.approve, student)
	g.POST("/:id/reject", h.reject, student)
}

func (h *ParentLinkHandler) request(c echo.Context) error {
	var req requestLinkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.RequestLink(c.Request().Context(), middleware.UserID(c), req.NISN)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, out.Message, out)
}

func (h *ParentLinkHandler) status(c echo.Context) error {
	out, err := h.uc.Status(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", out)
}

func (h *ParentLinkHandler) pending(c echo.Context) error {
	out, err := h.uc.PendingRequests(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", out)
}

func (h *ParentLinkHandler) approve(c echo.Context) error {
	if err := h.uc.Approve(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Tautan berhasil disetujui", nil)
}

func (h *ParentLinkHandler) reject(c echo.Context) error {
	if err := h.uc.Reject(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Tautan berhasil ditolak", nil)
}
