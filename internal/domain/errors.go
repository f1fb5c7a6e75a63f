package domain

import "errors"

// 错误分类：transport 层按 errors.Is 映射为 HTTP 状态码
var (
	ErrValidation         = errors.New("validation error")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("email already registered")
	ErrNotFound           = errors.New("user not found")
)

// ValidationError 携带面向调用方的具体原因
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func Invalid(msg string) error { return &ValidationError{Msg: msg} }
