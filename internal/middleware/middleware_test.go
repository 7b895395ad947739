package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sekolah/internal/domain/model"
	"sekolah/internal/handler"
	"sekolah/internal/infra/memory"
	"sekolah/internal/metrics"
	"sekolah/internal/middleware"
	auth "sekolah/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// =====================
// helper
// =====================

type okBody struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type mwEnv struct {
	e      *echo.Echo
	store  *memory.Store
	issuer *auth.JWTIssuer
	authn  *auth.Authenticator
}

func newMWEnv(t *testing.T) *mwEnv {
	t.Helper()

	store := memory.NewStore()
	issuer := auth.NewJWTIssuer("test-secret", time.Hour, auth.SystemClock{})
	authn := auth.NewAuthenticator(issuer, store.Repositories().Users, zap.NewNop())

	e := echo.New()
	e.HTTPErrorHandler = handler.NewErrorHandler(zap.NewNop())

	return &mwEnv{e: e, store: store, issuer: issuer, authn: authn}
}

func (m *mwEnv) seed(t *testing.T, role model.Role, status model.UserStatus) (*model.User, string) {
	t.Helper()
	u := &model.User{
		ID:     auth.UUIDGenerator{}.NewID(),
		Email:  string(role) + "@sekolah.test",
		Role:   role,
		Status: status,
	}
	require.NoError(t, m.store.Repositories().Users.Create(context.Background(), u))

	pair, err := m.issuer.Issue(u.ID, u.Email, u.Role)
	require.NoError(t, err)
	return u, pair.AccessToken
}

func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, okBody{
		UserID: middleware.UserID(c),
		Role:   string(middleware.UserRole(c)),
	})
}

func runRequest(t *testing.T, e *echo.Echo, method, path, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var r handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&r))
	return r
}

// =====================
// AuthJWT
// =====================

func TestAuthJWT_Unauthorized(t *testing.T) {
	m := newMWEnv(t)
	_, token := m.seed(t, model.RoleStudent, model.UserStatusActive)
	m.e.GET("/protected", whoami, middleware.AuthJWT(m.authn))

	other := auth.NewJWTIssuer("other-secret", time.Hour, auth.SystemClock{})
	forged, err := other.Issue("someone", "x@sekolah.test", model.RoleAdmin)
	require.NoError(t, err)

	cases := map[string]struct {
		header  string
		message string
	}{
		"no header":       {"", "Token tidak ditemukan"},
		"wrong scheme":    {"Token " + token, "Token tidak ditemukan"},
		"empty bearer":    {"Bearer   ", "Token tidak ditemukan"},
		"garbage":         {"Bearer abc.def.ghi", "Token tidak valid atau sudah kedaluwarsa"},
		"wrong signature": {"Bearer " + forged.AccessToken, "Token tidak valid atau sudah kedaluwarsa"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := runRequest(t, m.e, http.MethodGet, "/protected", tc.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			body := decodeError(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, http.StatusUnauthorized, body.StatusCode)
			assert.Equal(t, "Unauthorized", body.Error)
			assert.Equal(t, tc.message, body.Message)
			assert.Equal(t, "/protected", body.Path)
			assert.NotEmpty(t, body.Timestamp)
		})
	}
}

func TestAuthJWT_SetsContext(t *testing.T) {
	m := newMWEnv(t)
	u, token := m.seed(t, model.RoleTeacher, model.UserStatusActive)
	m.e.GET("/protected", whoami, middleware.AuthJWT(m.authn))

	rec := runRequest(t, m.e, http.MethodGet, "/protected", "bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)

	var body okBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, u.ID, body.UserID)
	assert.Equal(t, "teacher", body.Role)
}

func TestAuthJWT_SuspendedUser(t *testing.T) {
	m := newMWEnv(t)
	_, token := m.seed(t, model.RoleStudent, model.UserStatusSuspended)
	m.e.GET("/protected", whoami, middleware.AuthJWT(m.authn))

	rec := runRequest(t, m.e, http.MethodGet, "/protected", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Akun tidak aktif", decodeError(t, rec).Message)
}

// =====================
// RoleGuard
// =====================

func TestRoleGuard(t *testing.T) {
	m := newMWEnv(t)
	_, student := m.seed(t, model.RoleStudent, model.UserStatusActive)
	_, admin := m.seed(t, model.RoleAdmin, model.UserStatusActive)
	_, super := m.seed(t, model.RoleSuperAdmin, model.UserStatusActive)

	requireAuth := middleware.AuthJWT(m.authn)
	m.e.GET("/admin", whoami, requireAuth, middleware.AdminRoleGuard())
	m.e.GET("/super", whoami, requireAuth, middleware.RoleGuard(model.RoleSuperAdmin))

	cases := []struct {
		path   string
		token  string
		status int
	}{
		{"/admin", student, http.StatusForbidden},
		{"/admin", admin, http.StatusOK},
		{"/admin", super, http.StatusOK},
		{"/super", admin, http.StatusForbidden},
		{"/super", super, http.StatusOK},
	}
	for _, tc := range cases {
		rec := runRequest(t, m.e, http.MethodGet, tc.path, "Bearer "+tc.token)
		assert.Equal(t, tc.status, rec.Code, tc.path)
		if tc.status == http.StatusForbidden {
			assert.Equal(t, "Akses ditolak", decodeError(t, rec).Message)
		}
	}
}

func TestRoleGuard_WithoutAuth(t *testing.T) {
	m := newMWEnv(t)
	m.e.GET("/admin", whoami, middleware.AdminRoleGuard())

	rec := runRequest(t, m.e, http.MethodGet, "/admin", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =====================
// RequestLogger / Metrics
// =====================

func TestRequestLogger_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	e := echo.New()
	e.HTTPErrorHandler = handler.NewErrorHandler(zap.NewNop())
	e.Use(middleware.RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/missing", func(c echo.Context) error { return echo.ErrNotFound })
	e.GET("/boom", func(c echo.Context) error { return assert.AnError })

	runRequest(t, e, http.MethodGet, "/ok", "")
	runRequest(t, e, http.MethodGet, "/missing", "")
	rec := runRequest(t, e, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, int64(http.StatusNotFound), entries[1].ContextMap()["status"])
}

func TestMetrics_RecordsRouteAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	mt := metrics.New(reg)

	e := echo.New()
	e.HTTPErrorHandler = handler.NewErrorHandler(zap.NewNop())
	e.Use(middleware.Metrics(mt))
	e.GET("/items/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/denied", func(c echo.Context) error { return echo.ErrForbidden })

	runRequest(t, e, http.MethodGet, "/items/1", "")
	runRequest(t, e, http.MethodGet, "/items/2", "")
	rec := runRequest(t, e, http.MethodGet, "/denied", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			counts[labels["route"]+" "+labels["status"]] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(2), counts["/items/:id 204"])
	assert.Equal(t, float64(1), counts["/denied 403"])
}
