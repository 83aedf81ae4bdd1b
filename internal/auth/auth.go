// Package auth 管理端能力检查（JWT 角色声明）
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"firesafe-engine/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
)

// CapabilityAdmin 传感器管理需要的能力
const CapabilityAdmin = "admin"

type contextKey string

const contextKeyPrincipal contextKey = "principal"

// Principal 调用方身份
type Principal struct {
	Subject string   `json:"subject"`
	Roles   []string `json:"roles,omitempty"`
}

// Anonymous 未认证调用方
var Anonymous = Principal{Subject: "anonymous"}

// SystemAdmin 内部数据源（MQTT、模拟器）使用的身份
var SystemAdmin = Principal{Subject: "system", Roles: []string{CapabilityAdmin}}

// HasCapability 是否具备某项能力
func (p Principal) HasCapability(capability string) bool {
	for _, r := range p.Roles {
		if r == capability {
			return true
		}
	}
	return false
}

// Require 能力检查，失败返回 AuthorizationError
func Require(p Principal, capability string) error {
	if !p.HasCapability(capability) {
		return &apperr.AuthorizationError{Capability: capability}
	}
	return nil
}

// WithPrincipal 写入上下文
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

// FromContext 读取调用方，没有时为 Anonymous
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(contextKeyPrincipal).(Principal); ok {
		return p
	}
	return Anonymous
}

// Claims 令牌声明
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier HS256 令牌签发与校验
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier 创建校验器
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// Issue 签发令牌（运维工具和测试使用）
func (v *TokenVerifier) Issue(subject string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify 校验令牌并返回调用方
func (v *TokenVerifier) Verify(tokenString string) (Principal, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("token validation failed: %w", err)
	}

	return Principal{Subject: claims.Subject, Roles: claims.Roles}, nil
}

// Middleware 解析 Bearer 令牌；没有令牌时为 Anonymous，令牌无效返回 401
// 浏览器 WebSocket 无法设置请求头，此时从 access_token 查询参数读取
func Middleware(v *TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if header := r.Header.Get("Authorization"); header != "" {
				if !strings.HasPrefix(header, "Bearer ") {
					writeUnauthorized(w, "invalid authorization header")
					return
				}
				token = strings.TrimPrefix(header, "Bearer ")
			} else {
				token = r.URL.Query().Get("access_token")
			}
			if token == "" {
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), Anonymous)))
				return
			}

			p, err := v.Verify(token)
			if err != nil {
				writeUnauthorized(w, "unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireCapability 要求上下文中的调用方具备能力，否则 403；需挂在 Middleware 之后
func RequireCapability(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := Require(FromContext(r.Context()), capability); err != nil {
				writeError(w, http.StatusForbidden, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"code":-1,"type":"error","message":%q}`, message)
}
