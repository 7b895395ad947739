package handler

import (
	"net/http"

	"sekolah/internal/domain/model"
	"sekolah/internal/middleware"
	"sekolah/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ProfileHandler struct {
	account *usecase.AccountUsecase
	uc      *usecase.ProfileSecurityUsecase
}

func NewProfileHandler(account *usecase.AccountUsecase, uc *usecase.ProfileSecurityUsecase) *ProfileHandler {
	return &ProfileHandler{account: account, uc: uc}
}

// 省略したフィールドは変更しない
type updateProfileRequest struct {
	FullName  *string `json:"fullName" validate:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,url"`
}

type deleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

type logoutAllRequest struct {
	CurrentSessionID string `json:"currentSessionId" validate:"omitempty,uuid"`
}

// gは /profile（認証済み）
func (h *ProfileHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.me)
	g.PATCH("", h.update)
	g.DELETE("/account", h.deleteAccount)

	g.GET("/security/sessions", h.sessions)
	g.DELETE("/security/sessions/:id", h.revokeSession)
	g.POST("/security/sessions/logout-all", h.logoutAll)
	g.GET("/security/activity", h.activity)
}

func (h *ProfileHandler) me(c echo.Context) error {
	out, err := h.account.Profile(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", out)
}

func (h *ProfileHandler) update(c echo.Context) error {
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.account.UpdateProfile(c.Request().Context(), middleware.UserID(c), model.ProfileUpdate{
		FullName:  req.FullName,
		Phone:     req.Phone,
		Address:   req.Address,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Profil berhasil diupdate", nil)
}

func (h *ProfileHandler) deleteAccount(c echo.Context) error {
	var req deleteAccountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.account.DeleteAccount(c.Request().Context(), middleware.UserID(c), req.Password); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Akun berhasil dihapus", nil)
}

func (h *ProfileHandler) sessions(c echo.Context) error {
	sessions, err := h.uc.Sessions(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", sessions)
}

func (h *ProfileHandler) revokeSession(c echo.Context) error {
	if err := h.uc.RevokeSession(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Sesi berhasil dicabut", nil)
}

func (h *ProfileHandler) logoutAll(c echo.Context) error {
	var req logoutAllRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	n, err := h.uc.LogoutAll(c.Request().Context(), middleware.UserID(c), req.CurrentSessionID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Berhasil logout dari semua perangkat lain", map[string]int64{"revokedCount": n})
}

func (h *ProfileHandler) activity(c echo.Context) error {
	page, limit, err := pageQuery(c)
	if err != nil {
		return err
	}

	logs, err := h.uc.Activity(c.Request().Context(), middleware.UserID(c), page, limit)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", logs)
}
