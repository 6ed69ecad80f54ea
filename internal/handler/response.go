package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/Simon6088/Doctor-Scheduling-System/pkg/errors"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/logger"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error   bool                   `json:"error"`
	Code    apperrors.Code         `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeAndValidate 解析并校验请求体，失败时已写出 400 响应
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := h.readJSON(r, v); err != nil {
		h.respondError(w, r, apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败").WithDetails(err.Error()))
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		h.badRequest(w, r, err)
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("写出响应失败")
	}
}

// toErrorResponse 非 AppError 视为内部错误
func toErrorResponse(err error) *ErrorResponse {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(err, apperrors.CodeInternal, "服务器内部错误")
	}
	return &ErrorResponse{
		Error:   true,
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
		Fields:  appErr.Fields,
	}
}

// respondError 按错误码输出错误
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.GetHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.WithContext(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("服务器内部错误")
	}

	respondJSON(w, r, status, toErrorResponse(err))
}

// badRequest 校验错误逐条翻译为中文，消息取第一条
func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		h.respondError(w, r, apperrors.Wrap(err, apperrors.CodeValidationFail, err.Error()))
		return
	}

	var fields apperrors.FieldErrors
	for _, fe := range validationErrors {
		fields.Add(fe.Field(), fe.Translate(h.translator))
	}
	h.respondError(w, r, fields.AppError())
}
