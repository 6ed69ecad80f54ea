// Package errors 定义排班服务的错误码及其 HTTP 映射
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code 错误码
type Code string

const (
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeTimeout      Code = "TIMEOUT"
	CodeUnavailable  Code = "SERVICE_UNAVAILABLE"
	CodeRateLimited  Code = "RATE_LIMITED"

	// 求解结果
	CodeInvalidConfig      Code = "INVALID_CONFIG"
	CodeNoFeasibleSolution Code = "NO_FEASIBLE_SOLUTION"

	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeValidationFail Code = "VALIDATION_FAILED"
)

// 未列出的错误码一律按 500 处理
var httpStatus = map[Code]int{
	CodeInvalidInput:       http.StatusBadRequest,
	CodeValidationFail:     http.StatusBadRequest,
	CodeInvalidConfig:      http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodeRateLimited:        http.StatusTooManyRequests,
	CodeUnavailable:        http.StatusServiceUnavailable,
	CodeTimeout:            http.StatusGatewayTimeout,
	CodeNoFeasibleSolution: http.StatusUnprocessableEntity,
}

// Status 返回错误码对应的 HTTP 状态码
func (c Code) Status() int {
	if s, ok := httpStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// AppError 应用错误
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 附加说明，通常是底层错误文本
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithField 附加结构化字段，例如出错的配置项
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New 创建错误
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: code.Status(),
	}
}

// Wrap 包装底层错误
func Wrap(err error, code Code, message string) *AppError {
	e := New(code, message)
	e.Cause = err
	return e
}

// Is 判断错误链中是否有指定错误码的 AppError
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode 获取错误码，非 AppError 返回 CodeUnknown
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus 获取HTTP状态码
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// InvalidInput 排班输入不合法
func InvalidInput(field, reason string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("字段 '%s' 无效: %s", field, reason)).
		WithField("field", field)
}

// InvalidConfig 求解选项不合法，属于调用方编程错误
func InvalidConfig(option string, value interface{}, reason string) *AppError {
	return New(CodeInvalidConfig, fmt.Sprintf("配置项 '%s' = %v 无效: %s", option, value, reason)).
		WithField("option", option)
}

// NotFound 引用的科室等资源不存在
func NotFound(resource, id string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s '%s' 不存在", resource, id))
}

// NoFeasibleSolution 硬约束无法同时满足
func NoFeasibleSolution(reason string) *AppError {
	return New(CodeNoFeasibleSolution, reason)
}

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors 按出现顺序收集的字段校验错误
type FieldErrors []FieldError

// Add 追加一条校验错误
func (fe *FieldErrors) Add(field, message string) {
	*fe = append(*fe, FieldError{Field: field, Message: message})
}

func (fe FieldErrors) Error() string {
	msgs := make([]string, len(fe))
	for i, e := range fe {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// AppError 转换为 VALIDATION_FAILED，消息取第一条，
// Fields["field"] 为第一个出错字段，Fields["errors"] 为全部错误
func (fe FieldErrors) AppError() *AppError {
	if len(fe) == 0 {
		return New(CodeValidationFail, "验证失败")
	}
	return New(CodeValidationFail, fe[0].Message).
		WithField("field", fe[0].Field).
		WithField("errors", []FieldError(fe))
}
