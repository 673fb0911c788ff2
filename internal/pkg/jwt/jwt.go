package jwt

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoBearer     = errors.New("authorization is not a bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// 依次尝试的调用方标识字段 (Cognito 优先)
var callerClaimKeys = []string{"email", "cognito:username", "username", "sub"}

// PeekClaims 解析 Bearer token 中的 claims，不校验签名
// 鉴权由网关负责，这里的结果只能用于日志
func PeekClaims(authorization string) (map[string]any, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return nil, ErrNoBearer
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Caller 从 claims 中取调用方标识，不存在时返回空字符串
func Caller(claims map[string]any) string {
	for _, key := range callerClaimKeys {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
