// Package hash 提供密码与一次性验证码的哈希能力。
package hash

import "golang.org/x/crypto/bcrypt"

const (
	// passwordCost 对齐源项目注册时的 bcrypt 强度。
	passwordCost = 12
	// otpCost OTP 生命周期短，使用较低强度以降低请求开销。
	otpCost = 10
)

// HashPassword 对用户密码进行 bcrypt 哈希。
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPasswordHash 校验明文密码与哈希是否匹配。
func CheckPasswordHash(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// HashOTP 对 6 位验证码进行 bcrypt 哈希。
func HashOTP(otp string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(otp), otpCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckOTPHash 校验验证码与哈希是否匹配。
func CheckOTPHash(otp, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(otp)) == nil
}
