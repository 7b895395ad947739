package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Success    bool     `json:"success"`
	StatusCode int      `json:"statusCode"`
	Error      string   `json:"error"`
	Message    string   `json:"message"`
	Details    []string `json:"details,omitempty"`
	Timestamp  string   `json:"timestamp"`
	Path       string   `json:"path"`
}

type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func newPagination(page, limit int, total int64) *Pagination {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

func ok(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, Response{Success: true, Message: msg, Data: data})
}

// NewErrorHandlerはecho.HTTPErrorHandler。
// handlerやmiddlewareが返したエラーはすべてここでレスポンスになる。
func NewErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if werr := writeError(c, log, err); werr != nil {
			log.Warn("write error response failed", zap.Error(werr))
		}
	}
}

func writeError(c echo.Context, log *zap.Logger, err error) error {
	status := http.StatusInternalServerError
	message := "internal server error"
	var details []string

	var he *echo.HTTPError
	switch ae, isApp := apperr.As(err); {
	case isApp && ae.Kind != apperr.KindInternal:
		status = ae.Status()
		message = ae.Message
		details = ae.Details
	case isApp:
		// 内部原因はログだけ。メッセージは汎用のもの。
		log.Error("internal error", zap.String("path", c.Request().URL.Path), zap.Error(err))
		message = ae.Message
	case errors.As(err, &he):
		status = he.Code
		message = fmt.Sprint(he.Message)
	default:
		log.Error("unhandled error", zap.String("path", c.Request().URL.Path), zap.Error(err))
	}

	body := ErrorResponse{
		Success:    false,
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
		Details:    details,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       c.Request().URL.Path,
	}
	if c.Request().Method == http.MethodHead {
		return c.NoContent(status)
	}
	return c.JSON(status, body)
}

// Bind + Validate。bindの失敗も400にそろえる。
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	return c.Validate(dst)
}

// 省略時は0（usecase側で既定値）
func queryInt(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.BadRequest("invalid " + name)
	}
	return n, nil
}

func pageQuery(c echo.Context) (int, int, error) {
	page, err := queryInt(c, "page")
	if err != nil {
		return 0, 0, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

// 端末情報はヘッダから。X-Device-* がなければUser-Agentで推測する。
func deviceInfo(c echo.Context) model.DeviceInfo {
	req := c.Request()
	ua := req.UserAgent()

	d := model.DeviceInfo{
		Name:      req.Header.Get("X-Device-Name"),
		Type:      req.Header.Get("X-Device-Type"),
		UserAgent: ua,
		IP:        c.RealIP(),
	}
	if d.Type == "" {
		d.Type = deviceType(ua)
	}
	return d
}

func deviceType(ua string) string {
	l := strings.ToLower(ua)
	switch {
	case strings.Contains(l, "ipad"), strings.Contains(l, "tablet"):
		return "tablet"
	case strings.Contains(l, "mobile"), strings.Contains(l, "android"), strings.Contains(l, "iphone"):
		return "mobile"
	default:
		return "web"
	}
}
