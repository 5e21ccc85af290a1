package sms

// SendOTPRequest is the form payload the SMS gateway expects.
type SendOTPRequest struct {
	AppName string `json:"app_name"`
	OTPCode string `json:"otp_code"`
	Phone   string `json:"phone"`
}

// SendOTPResponse is the gateway's reply envelope.
type SendOTPResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}
