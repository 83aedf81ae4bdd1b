// Package apperr 定义引擎对外暴露的错误分类
package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound 资源不存在
var ErrNotFound = errors.New("not found")

// ValidationError 输入校验失败（直接返回调用方，不重试）
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// NewValidation 创建 ValidationError
func NewValidation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// RuleCheckError 单条规则检查失败（记录日志后按"未违规"处理）
type RuleCheckError struct {
	RuleID string
	Cause  error
}

func (e *RuleCheckError) Error() string {
	return fmt.Sprintf("rule %s check failed: %v", e.RuleID, e.Cause)
}

func (e *RuleCheckError) Unwrap() error { return e.Cause }

// DispatchFailure 通知发送失败（记录为 failed 历史，不向上抛出）
type DispatchFailure struct {
	AlertID string
	Cause   error
}

func (e *DispatchFailure) Error() string {
	return fmt.Sprintf("alert %s dispatch failed: %v", e.AlertID, e.Cause)
}

func (e *DispatchFailure) Unwrap() error { return e.Cause }

// AuthorizationError 能力检查失败（在任何状态修改前中止）
type AuthorizationError struct {
	Capability string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("unauthorized: %s capability required", e.Capability)
}

// IsValidation 判断是否为 ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsAuthorization 判断是否为 AuthorizationError
func IsAuthorization(err error) bool {
	var a *AuthorizationError
	return errors.As(err, &a)
}
