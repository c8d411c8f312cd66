package auth

import (
	"strings"
	"testing"
)

func Test签发与校验往返(t *testing.T) {
	at, err := NewAuthToken("test-secret")
	if err != nil {
		t.Fatalf("创建认证工具失败: %v", err)
	}

	token, err := at.GenerateToken("client-42")
	if err != nil {
		t.Fatalf("签发token失败: %v", err)
	}
	if token == "" {
		t.Fatal("期望非空token")
	}

	clientID, err := at.VerifyToken(token)
	if err != nil {
		t.Fatalf("校验token失败: %v", err)
	}
	if clientID != "client-42" {
		t.Errorf("clientID = %q, 期望 %q", clientID, "client-42")
	}
}

func Test空密钥拒绝创建(t *testing.T) {
	if _, err := NewAuthToken(""); err == nil {
		t.Fatal("空密钥应返回错误")
	}
}

func Test错误密钥校验失败(t *testing.T) {
	at1, _ := NewAuthToken("secret-a")
	at2, _ := NewAuthToken("secret-b")

	token, err := at1.GenerateToken("client-1")
	if err != nil {
		t.Fatalf("签发token失败: %v", err)
	}

	if _, err := at2.VerifyToken(token); err == nil {
		t.Fatal("不同密钥签发的token应校验失败")
	}
}

func Test篡改token校验失败(t *testing.T) {
	at, _ := NewAuthToken("test-secret")
	token, err := at.GenerateToken("client-1")
	if err != nil {
		t.Fatalf("签发token失败: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if tampered == token {
		tampered = token[:len(token)-2] + "yy"
	}
	if _, err := at.VerifyToken(tampered); err == nil {
		t.Fatal("被篡改的token应校验失败")
	}

	if _, err := at.VerifyToken(strings.Repeat("a", 20)); err == nil {
		t.Fatal("非JWT字符串应校验失败")
	}
}
