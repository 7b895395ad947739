package handler

import (
	"net/http"

	"sekolah/internal/domain/model"
	"sekolah/internal/middleware"
	"sekolah/internal/usecase"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	uc *usecase.NotificationUsecase
}

func NewNotificationHandler(uc *usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

type sendNotificationRequest struct {
	RecipientID string `json:"recipientId" validate:"required,uuid"`
	Title       string `json:"title" validate:"required"`
	Message     string `json:"message" validate:"required"`
}

type broadcastRequest struct {
	Title   string `json:"title" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type roleBroadcastRequest struct {
	Title       string   `json:"title" validate:"required"`
	Message     string   `json:"message" validate:"required"`
	TargetRoles []string `json:"targetRoles" validate:"required,min=1,dive,role"`
}

// gは /notifications（認証済み）
func (h *NotificationHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/unread-count", h.unreadCount)
	g.PATCH("/read-all", h.markAllRead)
	g.PATCH("/:id/read", h.markRead)
	g.DELETE("/:id", h.delete)
}

// gは /admin（認証 + 管理者ガード済み）
func (h *NotificationHandler) RegisterAdminRoutes(g *echo.Group) {
	g.POST("/notifications/send", h.send)
	g.POST("/notifications/broadcast", h.broadcast)
	g.POST("/notifications/role-broadcast", h.roleBroadcast)
}

func (h *NotificationHandler) list(c echo.Context) error {
	page, limit, err := pageQuery(c)
	if err != nil {
		return err
	}

	out, err := h.uc.List(c.Request().Context(), usecase.ListNotificationsInput{
		UserID:     middleware.UserID(c),
		UnreadOnly: c.QueryParam("unreadOnly") == "true",
		Page:       page,
		Limit:      limit,
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

func (h *NotificationHandler) unreadCount(c echo.Context) error {
	n, err := h.uc.UnreadCount(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", map[string]int64{"count": n})
}

func (h *NotificationHandler) markRead(c echo.Context) error {
	if err := h.uc.MarkRead(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Notifikasi ditandai sudah dibaca", nil)
}

func (h *NotificationHandler) markAllRead(c echo.Context) error {
	n, err := h.uc.MarkAllRead(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Semua notifikasi ditandai sudah dibaca", map[string]int64{"updated": n})
}

func (h *NotificationHandler) delete(c echo.Context) error {
	if err := h.uc.Delete(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Notifikasi dihapus", nil)
}

func (h *NotificationHandler) send(c echo.Context) error {
	var req sendNotificationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.uc.Send(c.Request().Context(), middleware.UserID(c), usecase.SendNotificationInput{
		RecipientID: req.RecipientID,
		Title:       req.Title,
		Message:     req.Message,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, "Notifikasi berhasil dikirim", nil)
}

func (h *NotificationHandler) broadcast(c echo.Context) error {
	var req broadcastRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.Broadcast(c.Request().Context(), middleware.UserID(c), usecase.BroadcastInput{
		Title:   req.Title,
		Message: req.Message,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, out.Message, out)
}

func (h *NotificationHandler) roleBroadcast(c echo.Context) error {
	var req roleBroadcastRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	roles := make([]model.Role, 0, len(req.TargetRoles))
	for _, r := range req.TargetRoles {
		roles = append(roles, model.Role(r))
	}

	out, err := h.uc.Broadcast(c.Request().Context(), middleware.UserID(c), usecase.BroadcastInput{
		Title:       req.Title,
		Message:     req.Message,
		TargetRoles: roles,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, out.Message, out)
}
