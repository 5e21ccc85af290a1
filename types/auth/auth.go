package auth

// RegisterRequest starts the three-step registration: contact details are
// parked until the mobile number is verified.
type RegisterRequest struct {
	MobileNumber           string `json:"mobile_number"`
	Name                   string `json:"name"`
	Email                  string `json:"email"`
	EmergencyContactName   string `json:"emergency_contact_name"`
	EmergencyContactMobile string `json:"emergency_contact_mobile"`
}

// VerifyRequest carries the OTP for step two of registration.
type VerifyRequest struct {
	MobileNumber string `json:"mobile_number"`
	Code         string `json:"code"`
}

// CompleteRequest finishes registration by setting the password.
type CompleteRequest struct {
	MobileNumber string `json:"mobile_number"`
	Password     string `json:"password"`
}

// LoginRequest authenticates with mobile number and password.
type LoginRequest struct {
	MobileNumber string `json:"mobile_number"`
	Password     string `json:"password"`
}

// OTPLoginRequest requests or confirms a one-time login code.
type OTPLoginRequest struct {
	MobileNumber string `json:"mobile_number"`
	Code         string `json:"code,omitempty"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	MobileNumber string `json:"mobile_number"`
}

// ResetPasswordRequest completes a password reset with the OTP.
type ResetPasswordRequest struct {
	MobileNumber string `json:"mobile_number"`
	Code         string `json:"code"`
	NewPassword  string `json:"new_password"`
}

// OTPResponse reports when a freshly issued code expires.
type OTPResponse struct {
	Message   string `json:"message"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Success   bool   `json:"success"`
}
