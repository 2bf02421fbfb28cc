package errors

import (
	"errors"
	"fmt"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误
	ErrCodeInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrCodeInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"

	// 管道错误
	ErrCodeContentNotFound ErrorCode = "CONTENT_NOT_FOUND"
	ErrCodeNotPublished    ErrorCode = "NOT_PUBLISHED"
	ErrCodeNoContent       ErrorCode = "NO_CONTENT"
	ErrCodeEmbeddingFailed ErrorCode = "EMBEDDING_FAILED"
	ErrCodeSearchFailed    ErrorCode = "SEARCH_FAILED"
	ErrCodeInvalidVector   ErrorCode = "INVALID_VECTOR"

	// 数据库错误
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"

	// 外部服务错误
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT"

	// 缓存错误
	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
)

// ErrorType 错误类型
type ErrorType int

const (
	ErrorTypeSystem ErrorType = iota
	ErrorTypeBusiness
	ErrorTypeValidation
	ErrorTypeExternal
)

// AppError 应用错误结构体
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Type    ErrorType `json:"type"`
	Cause   error     `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New 创建应用错误
func New(code ErrorCode, message string, errType ErrorType) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Type:    errType,
	}
}

// Wrap 包装底层错误
func Wrap(cause error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Type:    classifyType(code),
		Cause:   cause,
	}
}

func classifyType(code ErrorCode) ErrorType {
	switch code {
	case ErrCodeExternalService, ErrCodeTimeout, ErrCodeCacheUnavailable:
		return ErrorTypeExternal
	case ErrCodeInvalidInput, ErrCodeInvalidVector:
		return ErrorTypeValidation
	case ErrCodeContentNotFound, ErrCodeNotPublished, ErrCodeNoContent:
		return ErrorTypeBusiness
	default:
		return ErrorTypeSystem
	}
}

// IsRetryable 判断错误是否值得重试。
// 外部服务和数据库竞争属于瞬时故障，业务上的"不适用"不重试。
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case ErrCodeExternalService, ErrCodeTimeout, ErrCodeDatabaseError:
			return true
		default:
			return false
		}
	}
	// 未分类的错误按瞬时故障处理，交给重试预算兜底
	return true
}

// Is 判断错误码
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
