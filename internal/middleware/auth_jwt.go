package middleware

import (
	"strings"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	auth "sekolah/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey    = "user_id"    // string
	CtxUserRoleKey  = "user_role"  // model.Role
	CtxUserEmailKey = "user_email" // string
)

// bearerトークンの検証。
// 署名と期限のあとDBからユーザーを引き直す（停止・削除済みは401）。
func AuthJWT(a *auth.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return apperr.Unauthorized("Token tidak ditemukan")
			}

			p, err := a.Authenticate(c.Request().Context(), raw)
			if err != nil {
				return err
			}

			c.Set(CtxUserIDKey, p.UserID)
			c.Set(CtxUserRoleKey, p.Role)
			c.Set(CtxUserEmailKey, p.Email)

			return next(c)
		}
	}
}

// "Bearer xxx" からトークン部分を取り出す
func bearerToken(authz string) (string, bool) {
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}

func UserID(c echo.Context) string {
	id, _ := c.Get(CtxUserIDKey).(string)
	return id
}

func UserRole(c echo.Context) model.Role {
	role, _ := c.Get(CtxUserRoleKey).(model.Role)
	return role
}
