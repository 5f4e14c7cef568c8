// Package session 提供了基于签名 cookie 的会话管理功能。
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Data 是写入会话 cookie 的负载。
type Data struct {
	User       *UserInfo `json:"user,omitempty"`
	IsLoggedIn bool      `json:"isLoggedIn"`
}

// UserInfo 是会话中保存的用户摘要。
type UserInfo struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
}

// Manager 负责会话 cookie 的签发与验证。
// cookie 内容是 HS256 签名的 JWT，claims 中只携带非敏感的用户摘要。
type Manager struct {
	secretKey  []byte
	cookieName string
	dur        time.Duration
	secure     bool
}

// sessionClaims 定义了会话 token 中存储的自定义数据。
// 它嵌入了 jwt.RegisteredClaims 以包含标准的 JWT 声明（如过期时间）。
type sessionClaims struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
	jwt.RegisteredClaims
}

// NewManager 创建一个新的会话 Manager。
func NewManager(secret, cookieName string, expireHours int, secure bool) *Manager {
	return &Manager{
		secretKey:  []byte(secret),
		cookieName: cookieName,
		dur:        time.Duration(expireHours) * time.Hour,
		secure:     secure,
	}
}

// CookieName 返回会话 cookie 的名称。
func (m *Manager) CookieName() string { return m.cookieName }

// Secure 返回 cookie 是否仅通过 HTTPS 下发。
func (m *Manager) Secure() bool { return m.secure }

// MaxAge 返回 cookie 的有效期（秒）。
func (m *Manager) MaxAge() int { return int(m.dur.Seconds()) }

// Issue 根据用户摘要签发一个新的会话 token。
func (m *Manager) Issue(user UserInfo) (string, error) {
	claims := sessionClaims{
		UserID:     user.ID,
		Email:      user.Email,
		IsVerified: user.IsVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.dur)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Verify 验证会话 token 并还原会话数据。
// token 无效或已过期时返回错误。
func (m *Manager) Verify(tokenString string) (*Data, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return &Data{
		User: &UserInfo{
			ID:         claims.UserID,
			Email:      claims.Email,
			IsVerified: claims.IsVerified,
		},
		IsLoggedIn: true,
	}, nil
}

// GenerateRandomString generates a random hex string of a given length.
func GenerateRandomString(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a less random string on error
		return fmt.Sprintf("fallback%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
