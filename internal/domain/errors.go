package domain

import (
	"errors"
	"fmt"
)

// Kind 业务错误分类，HTTP 层据此映射状态码，领域层只关心分类本身
type Kind int

const (
	KindValidation Kind = iota + 1 // 参数缺失/格式不对
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict // 唯一键冲突、重复借阅、状态不允许等
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error // 可选的底层错误，不对外暴露
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "domain error"
}

func (e *Error) Unwrap() error { return e.Err }

func Validationf(format string, a ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, a...)}
}

func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &Error{Kind: KindForbidden, Msg: msg} }
func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Msg: msg} }
func Conflict(msg string) error     { return &Error{Kind: KindConflict, Msg: msg} }

// IsKind 判断 err 是否为指定分类的业务错误
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
