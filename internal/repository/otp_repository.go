package repository

import (
	"ai-studio-go/internal/model"

	"gorm.io/gorm"
)

// OTPRepository 接口定义了一次性验证码的持久化操作。
// 每个用户只保留最近一条验证码：Save 以替换语义写入。
type OTPRepository interface {
	Save(otp *model.OTP) error
	FindByUserID(userID string) (*model.OTP, error)
	MarkUsed(userID string) error
}

type otpRepository struct {
	db *gorm.DB
}

// NewOTPRepository 创建一个新的 OTPRepository 实例。
func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

// Save 写入用户的验证码记录，覆盖该用户既有的记录。
func (r *otpRepository) Save(otp *model.OTP) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", otp.UserID).Delete(&model.OTP{}).Error; err != nil {
			return err
		}
		return tx.Create(otp).Error
	})
}

// FindByUserID 查找用户当前的验证码记录。
func (r *otpRepository) FindByUserID(userID string) (*model.OTP, error) {
	var otp model.OTP
	err := r.db.Where("user_id = ?", userID).First(&otp).Error
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

// MarkUsed 将用户当前的验证码标记为已使用。
func (r *otpRepository) MarkUsed(userID string) error {
	return r.db.Model(&model.OTP{}).
		Where("user_id = ?", userID).
		Update("used", true).Error
}
