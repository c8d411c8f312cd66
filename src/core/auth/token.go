package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 默认令牌有效期
const defaultTokenTTL = 24 * time.Hour

// AuthToken 网关的JWT签发与校验工具
type AuthToken struct {
	secretKey []byte
	ttl       time.Duration
}

// NewAuthToken 创建认证工具，secretKey为空时返回错误
func NewAuthToken(secretKey string) (*AuthToken, error) {
	if secretKey == "" {
		return nil, errors.New("JWT签名密钥不能为空")
	}
	return &AuthToken{
		secretKey: []byte(secretKey),
		ttl:       defaultTokenTTL,
	}, nil
}

// GenerateToken 为客户端签发访问令牌
func (at *AuthToken) GenerateToken(clientID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"client_id": clientID,
		"exp":       now.Add(at.ttl).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(at.secretKey)
	if err != nil {
		return "", fmt.Errorf("签名token失败: %w", err)
	}

	return tokenString, nil
}

// VerifyToken 校验令牌并返回其中的客户端ID
func (at *AuthToken) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("意外的签名方法: %v", token.Header["alg"])
		}
		return at.secretKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("解析token失败: %w", err)
	}

	if !token.Valid {
		return "", errors.New("token无效")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("claims格式无效")
	}

	clientID, ok := claims["client_id"].(string)
	if !ok {
		return "", errors.New("claims中缺少client_id")
	}

	return clientID, nil
}
