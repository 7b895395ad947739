package handler

import (
	"net/http"

	"sekolah/internal/domain/model"
	"sekolah/internal/middleware"
	"sekolah/internal/usecase"
	auth "sekolah/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	uc *usecase.AuthUsecase
}

// DIコンストラクタ
func NewAuthHandler(uc *usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

type signupStudentRequest struct {
	NISN        string `json:"nisn" validate:"required,nisn"`
	FullName    string `json:"fullName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required"`
	Kelas       string `json:"kelas" validate:"required"`
	Jurusan     string `json:"jurusan" validate:"required"`
	TahunAjaran string `json:"tahunAjaran" validate:"required"`
	DateOfBirth string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Address     string `json:"address"`
}

type signupTeacherRequest struct {
	NIP      string `json:"nip" validate:"required"`
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Subject  string `json:"subject" validate:"required"`
	Address  string `json:"address"`
}

type signupParentRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,strongpw"`
	FullName     string `json:"fullName" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	Relationship string `json:"relationship" validate:"required,relationship"`
	Address      string `json:"address"`
	ChildNISN    string `json:"childNisn" validate:"omitempty,nisn"`
}

type loginStudentRequest struct {
	NISN     string `json:"nisn" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginTeacherRequest struct {
	NIPOrEmail string `json:"nipOrEmail" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type loginEmailRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,strongpw"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// /auth 配下。requireAuthはbearer必須ルートにだけ付ける。
func (h *AuthHandler) RegisterRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/signup/student", h.signupStudent)
	g.POST("/signup/teacher", h.signupTeacher)
	g.POST("/signup/parent", h.signupParent)

	g.POST("/login/student", h.loginStudent)
	g.POST("/login/teacher", h.loginTeacher)
	g.POST("/login/parent", h.loginParent)
	g.POST("/login/admin", h.loginAdmin)

	g.POST("/refresh", h.refresh)
	g.POST("/logout", h.logout, requireAuth)
	g.GET("/me", h.me, requireAuth)
	g.PATCH("/change-password", h.changePassword, requireAuth)
}

func (h *AuthHandler) signupStudent(c echo.Context) error {
	var req signupStudentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.SignupStudent(c.Request().Context(), auth.StudentSignupInput{
		NISN:        req.NISN,
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		Kelas:       req.Kelas,
		Jurusan:     req.Jurusan,
		TahunAjaran: req.TahunAjaran,
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, out.Message, map[string]string{"requestId": out.RequestID})
}

func (h *AuthHandler) signupTeacher(c echo.Context) error {
	var req signupTeacherRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.SignupTeacher(c.Request().Context(), auth.TeacherSignupInput{
		NIP:      req.NIP,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Subject:  req.Subject,
		Address:  req.Address,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, out.Message, map[string]string{"requestId": out.RequestID})
}

func (h *AuthHandler) signupParent(c echo.Context) error {
	var req signupParentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.uc.SignupParent(c.Request().Context(), auth.ParentSignupInput{
		Email:        req.Email,
		Password:     req.Password,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Relationship: model.ParentRelationship(req.Relationship),
		Address:      req.Address,
		ChildNISN:    req.ChildNISN,
		Device:       deviceInfo(c),
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, "Registrasi berhasil", session)
}

func (h *AuthHandler) loginStudent(c echo.Context) error {
	var req loginStudentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.login(c, auth.FieldNISN, req.NISN, req.Password)
}

func (h *AuthHandler) loginTeacher(c echo.Context) error {
	var req loginTeacherRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.login(c, auth.FieldNIPOrEmail, req.NIPOrEmail, req.Password)
}

func (h *AuthHandler) loginParent(c echo.Context) error {
	var req loginEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.login(c, auth.FieldParentEmail, req.Email, req.Password)
}

func (h *AuthHandler) loginAdmin(c echo.Context) error {
	var req loginEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.login(c, auth.FieldAdminEmail, req.Email, req.Password)
}

func (h *AuthHandler) login(c echo.Context, field auth.IdentityField, key, password string) error {
	session, err := h.uc.Login(c.Request().Context(), field, key, password, deviceInfo(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Login berhasil", session)
}

func (h *AuthHandler) refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.uc.Refresh(c.Request().Context(), req.RefreshToken, deviceInfo(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Token berhasil diperbarui", session)
}

// refreshTokenなしなら全端末からログアウト
func (h *AuthHandler) logout(c echo.Context) error {
	var req logoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.uc.Logout(c.Request().Context(), middleware.UserID(c), req.RefreshToken); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Logout berhasil", nil)
}

func (h *AuthHandler) me(c echo.Context) error {
	user, err := h.uc.Me(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", user)
}

func (h *AuthHandler) changePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.uc.ChangePassword(c.Request().Context(), auth.ChangePasswordInput{
		UserID:          middleware.UserID(c),
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Password berhasil diubah", nil)
}
