// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"ai-studio-go/internal/middleware"
	"ai-studio-go/internal/model"
	"ai-studio-go/internal/repository"
	"ai-studio-go/internal/service"
	"ai-studio-go/pkg/log"
	"ai-studio-go/pkg/session"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责处理认证与会话相关的 API 请求。
type AuthHandler struct {
	authService    service.AuthService
	historyService service.HistoryService
	sessionManager *session.Manager
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(authService service.AuthService, historyService service.HistoryService, sessionManager *session.Manager) *AuthHandler {
	return &AuthHandler{authService: authService, historyService: historyService, sessionManager: sessionManager}
}

// SignupRequest 定义了注册 API 的请求体结构。
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Signup 处理邮箱加密码注册。邮箱已存在时返回 400。
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email and a password of at least 8 characters are required"})
		return
	}

	email := repository.NormalizeEmail(req.Email)
	user, err := h.authService.Signup(email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
			return
		}
		log.Errorf("Signup: failed for '%s', error: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	log.Infof("User '%s' signed up, awaiting verification", user.Email)
	c.JSON(http.StatusOK, gin.H{"message": "Signup successful, check your email for the verification code", "userId": user.ID})
}

// OTPRequest 定义了请求验证码 API 的请求体结构。
type OTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestOTP 为邮箱签发一枚验证码。邮箱不存在时静默创建用户，
// 响应不区分两种情况。
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email is required"})
		return
	}

	email := repository.NormalizeEmail(req.Email)
	if _, err := h.authService.RequestOTP(email); err != nil {
		log.Errorf("RequestOTP: failed for '%s', error: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent", "email": email})
}

// VerifyOTPRequest 定义了校验验证码 API 的请求体结构。
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

// VerifyOTP 校验验证码并建立登录会话。
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and a 6-digit code are required"})
		return
	}

	email := repository.NormalizeEmail(req.Email)
	user, err := h.authService.VerifyOTP(email, req.OTP)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrInvalidOTP) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired verification code"})
			return
		}
		log.Errorf("VerifyOTP: failed for '%s', error: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.setSessionCookie(c, user.ID, user.Email, user.IsVerified); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification successful", "user": gin.H{"id": user.ID, "email": user.Email, "isVerified": user.IsVerified}})
}

// LoginRequest 定义了登录 API 的请求体结构。
// 密码与验证码二选一。
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

// Login 处理密码或验证码登录。
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email is required"})
		return
	}
	if req.Password == "" && req.OTP == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A password or verification code is required"})
		return
	}

	email := repository.NormalizeEmail(req.Email)
	var (
		user *model.User
		err  error
	)
	if req.Password != "" {
		user, err = h.authService.LoginWithPassword(email, req.Password)
	} else {
		user, err = h.authService.LoginWithOTP(email, req.OTP)
	}
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrInvalidOTP) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		log.Errorf("Login: failed for '%s', error: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.setSessionCookie(c, user.ID, user.Email, user.IsVerified); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	log.Infof("User '%s' logged in", user.Email)
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user": gin.H{"id": user.ID, "email": user.Email, "isVerified": user.IsVerified}})
}

// Logout 清除会话 Cookie。
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(h.sessionManager.CookieName(), "", -1, "/", "", h.sessionManager.Secure(), true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Session 返回当前会话状态，供前端判断登录态。
func (h *AuthHandler) Session(c *gin.Context) {
	data := middleware.CurrentSession(c)
	if data == nil || !data.IsLoggedIn || data.User == nil {
		c.JSON(http.StatusOK, gin.H{"isLoggedIn": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"isLoggedIn": true,
		"user": gin.H{
			"id":         data.User.ID,
			"email":      data.User.Email,
			"isVerified": data.User.IsVerified,
		},
	})
}

// History 返回当前用户的全部历史记录。
func (h *AuthHandler) History(c *gin.Context) {
	user := middleware.CurrentUser(c)
	history, err := h.historyService.GetUserHistory(user.ID)
	if err != nil {
		log.Errorf("History: failed for user '%s', error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, id, email string, verified bool) error {
	token, err := h.sessionManager.Issue(session.UserInfo{ID: id, Email: email, IsVerified: verified})
	if err != nil {
		log.Errorf("setSessionCookie: failed to issue session, error: %v", err)
		return err
	}
	c.SetCookie(h.sessionManager.CookieName(), token, h.sessionManager.MaxAge(), "/", "", h.sessionManager.Secure(), true)
	return nil
}
