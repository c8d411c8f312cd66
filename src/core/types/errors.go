package types

import "fmt"

// ErrorCode 操作错误的封闭分类
type ErrorCode string

const (
	ErrAuthentication ErrorCode = "AUTHENTICATION" // 凭证无效或过期
	ErrRateLimit      ErrorCode = "RATE_LIMIT"     // 提供者限流
	ErrValidation     ErrorCode = "VALIDATION"     // 调用方输入不合法
	ErrService        ErrorCode = "SERVICE_ERROR"  // 提供者侧错误，带HTTP状态码
	ErrUnknown        ErrorCode = "UNKNOWN"        // 未分类错误，包装底层原因
)

// Error 操作错误。所有能力调用和音频预处理的失败都以该类型返回，
// 不通过panic传播；底层库抛出的异常必须在适配器边界转换为本类型。
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code,omitempty"` // 仅SERVICE_ERROR有意义
	Cause      error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("[%s] %s (HTTP %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewAuthenticationError 创建认证错误
func NewAuthenticationError(message string) *Error {
	return &Error{Code: ErrAuthentication, Message: message}
}

// NewRateLimitError 创建限流错误
func NewRateLimitError(message string) *Error {
	return &Error{Code: ErrRateLimit, Message: message}
}

// NewValidationError 创建输入校验错误
func NewValidationError(format string, args ...interface{}) *Error {
	return &Error{Code: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NewServiceError 创建提供者侧错误
func NewServiceError(statusCode int, message string) *Error {
	return &Error{Code: ErrService, Message: message, StatusCode: statusCode}
}

// WrapUnknown 包装未分类错误
func WrapUnknown(message string, cause error) *Error {
	return &Error{Code: ErrUnknown, Message: message, Cause: cause}
}

// FromHTTPStatus 将HTTP状态码映射为操作错误。
// 适配器在收到非2xx响应时统一走这里，保证错误分类一致。
func FromHTTPStatus(statusCode int, message string) *Error {
	switch {
	case statusCode == 401 || statusCode == 403:
		return &Error{Code: ErrAuthentication, Message: message, StatusCode: statusCode}
	case statusCode == 429:
		return &Error{Code: ErrRateLimit, Message: message, StatusCode: statusCode}
	case statusCode == 400 || statusCode == 413 || statusCode == 422:
		return &Error{Code: ErrValidation, Message: message, StatusCode: statusCode}
	case statusCode >= 500:
		return &Error{Code: ErrService, Message: message, StatusCode: statusCode}
	default:
		return &Error{Code: ErrUnknown, Message: message, StatusCode: statusCode}
	}
}

// ConfigError 配置错误。与操作错误分属两层：配置错误在启动/解析阶段
// 同步暴露，不重试、不降级；Variable为缺失或非法的环境变量名(可为空)。
type ConfigError struct {
	Variable string
	Message  string
}

func (e *ConfigError) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("配置错误 [%s]: %s", e.Variable, e.Message)
	}
	return fmt.Sprintf("配置错误: %s", e.Message)
}

// NewConfigError 创建配置错误
func NewConfigError(variable, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Variable: variable, Message: fmt.Sprintf(format, args...)}
}
