package utils

import (
	"errors"
	"regexp"
	"strings"

	"event-ticketing/apperrors"
	"event-ticketing/database"
	customerModel "event-ticketing/models/customer"

	"gorm.io/gorm"
)

var nonDigits = regexp.MustCompile(`[^0-9+]`)

// NormalizeMobile strips formatting characters so lookups by mobile number
// behave the same regardless of how the caller typed it.
func NormalizeMobile(mobile string) string {
	return nonDigits.ReplaceAllString(strings.TrimSpace(mobile), "")
}

// GetCustomerByID loads a customer by its opaque id.
func GetCustomerByID(id string) (*customerModel.Customer, error) {
	var c customerModel.Customer
	err := database.DB.Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("NOT_FOUND", "Customer not found")
		}
		return nil, apperrors.Internal("failed to load customer", err)
	}
	return &c, nil
}

// GetCustomerByMobile loads a customer by its unique mobile number.
func GetCustomerByMobile(mobile string) (*customerModel.Customer, error) {
	var c customerModel.Customer
	err := database.DB.Where("mobile_number = ?", NormalizeMobile(mobile)).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("NOT_FOUND", "Customer not found")
		}
		return nil, apperrors.Internal("failed to load customer", err)
	}
	return &c, nil
}
