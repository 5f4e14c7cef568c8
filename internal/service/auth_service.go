// Package service 包含了应用的业务逻辑层。
package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"ai-studio-go/internal/config"
	"ai-studio-go/internal/model"
	"ai-studio-go/internal/repository"
	"ai-studio-go/pkg/hash"
	"ai-studio-go/pkg/log"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 认证相关的业务错误，由 handler 层映射为 HTTP 状态码。
var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
)

// AuthService 接口定义了所有与认证相关的业务操作。
type AuthService interface {
	Signup(email, password string) (*model.User, error)
	RequestOTP(email string) (*model.User, error)
	VerifyOTP(email, otp string) (*model.User, error)
	LoginWithPassword(email, password string) (*model.User, error)
	LoginWithOTP(email, otp string) (*model.User, error)
	GetUser(userID string) (*model.User, error)
}

// authService 是 AuthService 接口的实现。
type authService struct {
	userRepo repository.UserRepository
	otpRepo  repository.OTPRepository
}

// NewAuthService 创建一个新的 AuthService 实例。
func NewAuthService(userRepo repository.UserRepository, otpRepo repository.OTPRepository) AuthService {
	return &authService{userRepo: userRepo, otpRepo: otpRepo}
}

// Signup 处理邮箱加密码的注册流程。
// 注册成功后立即为用户签发一枚验证码用于邮箱验证。
func (s *authService) Signup(email, password string) (*model.User, error) {
	// 1. 检查邮箱是否已被占用
	_, err := s.userRepo.FindByEmail(email)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. 对密码进行哈希处理
	passwordHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 3. 创建未验证状态的新用户
	newUser := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		IsVerified:   false,
	}
	if err := s.userRepo.Create(newUser); err != nil {
		return nil, err
	}

	// 4. 签发验证码完成邮箱验证
	if err := s.issueOTP(newUser); err != nil {
		log.Errorf("[AuthService] 注册后签发验证码失败, email: %s, error: %v", email, err)
		return nil, fmt.Errorf("failed to issue OTP: %w", err)
	}
	return newUser, nil
}

// RequestOTP 为邮箱签发一枚新验证码。
// 用户不存在时创建一个未验证用户（作为注册起点）。
func (s *authService) RequestOTP(email string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &model.User{
			ID:         uuid.NewString(),
			Email:      email,
			IsVerified: false,
		}
		if err := s.userRepo.Create(user); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if err := s.issueOTP(user); err != nil {
		return nil, fmt.Errorf("failed to issue OTP: %w", err)
	}
	return user, nil
}

// VerifyOTP 校验验证码并完成登录前置动作：标记验证码已使用、标记用户已验证。
func (s *authService) VerifyOTP(email, otp string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.consumeOTP(user.ID, otp); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateVerification(email, true); err != nil {
		return nil, err
	}
	user.IsVerified = true
	return user, nil
}

// LoginWithPassword 处理密码登录。
func (s *authService) LoginWithPassword(email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !hash.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// LoginWithOTP 处理验证码登录。验证码严格单次有效。
func (s *authService) LoginWithOTP(email, otp string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := s.consumeOTP(user.ID, otp); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser 根据用户 ID 获取用户。
func (s *authService) GetUser(userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// issueOTP 生成 6 位验证码，哈希后替换用户既有记录。
// 明文验证码只写入服务端日志（开发通道），不进入任何响应。
func (s *authService) issueOTP(user *model.User) error {
	otp, err := generateOTP()
	if err != nil {
		return err
	}
	otpHash, err := hash.HashOTP(otp)
	if err != nil {
		return err
	}

	expiry := time.Duration(config.Conf.OTP.ExpiryMinutes) * time.Minute
	if expiry == 0 {
		expiry = 10 * time.Minute
	}
	record := &model.OTP{
		UserID:    user.ID,
		OTPHash:   otpHash,
		ExpiresAt: time.Now().Add(expiry),
		Used:      false,
	}
	if err := s.otpRepo.Save(record); err != nil {
		return err
	}

	log.Infof("[AUTH] OTP for %s: %s (expires in %d minutes)", user.Email, otp, int(expiry.Minutes()))
	return nil
}

// consumeOTP 校验并消费用户当前的验证码。
// 缺失、已用、过期、不匹配统一返回 ErrInvalidOTP，不向调用方泄露具体原因。
func (s *authService) consumeOTP(userID, otp string) error {
	stored, err := s.otpRepo.FindByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidOTP
	}
	if err != nil {
		return err
	}
	if stored.Used || time.Now().After(stored.ExpiresAt) {
		return ErrInvalidOTP
	}
	if !hash.CheckOTPHash(otp, stored.OTPHash) {
		return ErrInvalidOTP
	}
	return s.otpRepo.MarkUsed(userID)
}

// generateOTP 用 crypto/rand 生成一个 6 位数字验证码。
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
