package handler

import (
	"net/http"

	"sekolah/internal/domain/model"
	"sekolah/internal/middleware"
	"sekolah/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AttendanceHandler struct {
	uc *usecase.AttendanceUsecase
}

func NewAttendanceHandler(uc *usecase.AttendanceUsecase) *AttendanceHandler {
	return &AttendanceHandler{uc: uc}
}

type createSessionRequest struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Description     string   `json:"description"`
	Location        string   `json:"location"`
	Latitude        *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude       *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	ValidityMinutes int      `json:"validityMinutes" validate:"omitempty,min=1,max=1440"`
}

type regenerateQRRequest struct {
	ValidityMinutes int `json:"validityMinutes" validate:"omitempty,min=1,max=1440"`
}

type checkInRequest struct {
	SessionID string   `json:"sessionId" validate:"required,uuid"`
	QRToken   string   `json:"qrToken" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

// gは /attendance（認証済み）。セッション管理は教員と管理者。
func (h *AttendanceHandler) RegisterRoutes(g *echo.Group) {
	sessions := g.Group("/sessions", middleware.RoleGuard(model.RoleTeacher, model.RoleAdmin))
	sessions.POST("", h.createSession)
	sessions.GET("", h.mySessions)
	sessions.GET("/:id/qr", h.sessionQR)
	sessions.GET("/:id/records", h.records)
	sessions.PATCH("/:id/close", h.close)
	sessions.POST("/:id/regenerate", h.regenerate)

	g.POST("/check-in", h.checkIn)
	g.GET("/my-attendance", h.myAttendance)
}

func (h *AttendanceHandler) createSession(c echo.Context) error {
	var req createSessionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.CreateSession(c.Request().Context(), middleware.UserID(c), usecase.CreateSessionInput{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		ValidityMinutes: req.ValidityMinutes,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, "Attendance session created", out)
}

func (h *AttendanceHandler) mySessions(c echo.Context) error {
	sessions, err := h.uc.MySessions(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", map[string]any{"sessions": sessions})
}

func (h *AttendanceHandler) sessionQR(c echo.Context) error {
	out, err := h.uc.SessionQR(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", out)
}

func (h *AttendanceHandler) records(c echo.Context) error {
	records, err := h.uc.SessionRecords(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", map[string]any{"records": records})
}

func (h *AttendanceHandler) close(c echo.Context) error {
	sess, err := h.uc.CloseSession(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Session closed", sess)
}

func (h *AttendanceHandler) regenerate(c echo.Context) error {
	var req regenerateQRRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.RegenerateQR(c.Request().Context(), c.Param("id"), middleware.UserID(c), req.ValidityMinutes)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "QR code regenerated", out)
}

func (h *AttendanceHandler) checkIn(c echo.Context) error {
	var req checkInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	rec, err := h.uc.CheckIn(c.Request().Context(), middleware.UserID(c), usecase.CheckInInput{
		SessionID: req.SessionID,
		QRToken:   req.QRToken,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, "Check-in successful", rec)
}

func (h *AttendanceHandler) myAttendance(c echo.Context) error {
	records, err := h.uc.MyAttendance(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", map[string]any{"records": records})
}
