package types

import (
	"errors"
	"strings"
	"testing"
)

func TestFromHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected ErrorCode
	}{
		{name: "401映射为认证错误", status: 401, expected: ErrAuthentication},
		{name: "403映射为认证错误", status: 403, expected: ErrAuthentication},
		{name: "429映射为限流错误", status: 429, expected: ErrRateLimit},
		{name: "400映射为校验错误", status: 400, expected: ErrValidation},
		{name: "422映射为校验错误", status: 422, expected: ErrValidation},
		{name: "500映射为服务错误", status: 500, expected: ErrService},
		{name: "503映射为服务错误", status: 503, expected: ErrService},
		{name: "404映射为未知错误", status: 404, expected: ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromHTTPStatus(tt.status, "test")
			if err.Code != tt.expected {
				t.Errorf("FromHTTPStatus(%d) code = %s, want %s", tt.status, err.Code, tt.expected)
			}
			if err.StatusCode != tt.status {
				t.Errorf("FromHTTPStatus(%d) status = %d, want %d", tt.status, err.StatusCode, tt.status)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("底层错误")
	err := WrapUnknown("包装", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is 应能找到被包装的底层错误")
	}
	if err.Code != ErrUnknown {
		t.Errorf("code = %s, want %s", err.Code, ErrUnknown)
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := NewConfigError("LLM_MODEL", "环境变量未设置")
	if err.Variable != "LLM_MODEL" {
		t.Errorf("variable = %s, want LLM_MODEL", err.Variable)
	}
	msg := err.Error()
	if msg == "" {
		t.Fatal("错误消息不应为空")
	}
	// 错误消息必须点名缺失的变量
	if !strings.Contains(msg, "LLM_MODEL") {
		t.Errorf("错误消息未包含变量名: %s", msg)
	}
}
