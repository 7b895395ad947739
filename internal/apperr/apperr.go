package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// エラー種別（レスポンスのstatusCodeと1対1）
type Kind string

const (
	KindBadRequest   Kind = "Bad Request"
	KindUnauthorized Kind = "Unauthorized"
	KindForbidden    Kind = "Forbidden"
	KindNotFound     Kind = "Not Found"
	KindConflict     Kind = "Conflict"
	KindInternal     Kind = "Internal Server Error"
)

// Errorは呼び出し元に返してよいエラー。
// Messageはそのままクライアントに見せる。Errは内部原因でログ専用。
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind → HTTPステータス
func (e *Error) Status() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func BadRequest(msg string) error   { return New(KindBadRequest, msg) }
func Unauthorized(msg string) error { return New(KindUnauthorized, msg) }
func Forbidden(msg string) error    { return New(KindForbidden, msg) }
func NotFound(msg string) error     { return New(KindNotFound, msg) }
func Conflict(msg string) error     { return New(KindConflict, msg) }

// Internalはストアエラーなどを包む。causeはクライアントに出さない。
func Internal(msg string, cause error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: cause}
}

// 入力検証エラー（全フィールド分まとめて返す）
func Validation(details []string) error {
	return &Error{Kind: KindBadRequest, Message: "Validation failed", Details: details}
}

func As(err error) (*Error, bool) {
	var ae *Error
	ok := errors.As(err, &ae)
	return ae, ok
}

func IsKind(err error, kind Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == kind
}
