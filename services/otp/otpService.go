package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"event-ticketing/httpServices/sms"
	"event-ticketing/logger"
	otpModel "event-ticketing/models/otp"

	"gorm.io/gorm"
)

// Sender delivers a one-time code out of band.
type Sender interface {
	SendOTP(phone, code string) error
}

// Service handles OTP operations
type Service struct {
	DB  *gorm.DB
	SMS Sender
}

// NewService creates a new OTP service backed by the SMS gateway.
func NewService(db *gorm.DB) *Service {
	return &Service{
		DB:  db,
		SMS: sms.NewClient(),
	}
}

// GenerateCode generates a random 6-digit code.
func (s *Service) GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// RequestCode creates and stores a code for the given phone and purpose, then
// attempts SMS delivery. A delivery failure does not invalidate the stored
// code. Prior unused codes for the same phone and purpose are invalidated.
func (s *Service) RequestCode(phone string, purpose otpModel.Purpose) (*otpModel.OTP, error) {
	existing, err := s.latest(phone, purpose)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing OTP: %w", err)
	}

	if existing != nil && existing.IsCurrentlyBlocked() {
		return nil, fmt.Errorf("OTP requests are blocked until %s due to too many failed attempts",
			existing.BlockedUntil.Format("15:04:05"))
	}

	code, err := s.GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	err = s.DB.Model(&otpModel.OTP{}).
		Where("phone = ? AND purpose = ? AND is_used = false", phone, purpose).
		Update("is_used", true).Error
	if err != nil {
		return nil, fmt.Errorf("failed to invalidate existing OTPs: %w", err)
	}

	record := &otpModel.OTP{
		Phone:      phone,
		Code:       code,
		Purpose:    purpose,
		MaxRetries: 3,
		ExpiresAt:  time.Now().Add(5 * time.Minute),
	}
	if err := s.DB.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create OTP record: %w", err)
	}

	if err := s.SMS.SendOTP(phone, code); err != nil {
		logger.Error(fmt.Sprintf("Failed to send OTP SMS to %s", phone), err)
	}

	return record, nil
}

// VerifyCode checks the provided code for the given phone and purpose,
// consuming it on success. Failed attempts count toward the block threshold.
func (s *Service) VerifyCode(phone, code string, purpose otpModel.Purpose) (bool, error) {
	record, err := s.latest(phone, purpose)
	if err != nil {
		return false, fmt.Errorf("failed to find OTP record: %w", err)
	}
	if record == nil {
		return false, nil
	}

	if record.IsCurrentlyBlocked() {
		return false, fmt.Errorf("OTP verification is blocked due to too many failed attempts")
	}
	if record.IsExpired() {
		return false, nil
	}

	if record.Code != code {
		record.IncrementRetry()
		if err := s.DB.Save(record).Error; err != nil {
			return false, fmt.Errorf("failed to update retry count: %w", err)
		}
		return false, nil
	}

	record.IsUsed = true
	if err := s.DB.Save(record).Error; err != nil {
		return false, fmt.Errorf("failed to consume OTP: %w", err)
	}
	return true, nil
}

func (s *Service) latest(phone string, purpose otpModel.Purpose) (*otpModel.OTP, error) {
	var record otpModel.OTP
	err := s.DB.Where("phone = ? AND purpose = ? AND is_used = false", phone, purpose).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
