package middleware

import (
	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// AuthJWTの後ろに置く。contextのroleが許可リストに入っているか確認する。
// super_adminはどのルートも通す。
func RoleGuard(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := UserRole(c)
			if role == "" {
				return apperr.Unauthorized("Unauthorized")
			}
			if role == model.RoleSuperAdmin {
				return next(c)
			}
			if _, ok := allowed[role]; !ok {
				return apperr.Forbidden("Akses ditolak")
			}
			return next(c)
		}
	}
}

// /admin 配下
func AdminRoleGuard() echo.MiddlewareFunc {
	return RoleGuard(model.RoleAdmin)
}
