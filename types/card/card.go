package card

// AssignRequest starts assigning a card to a customer; the customer confirms
// with an OTP sent to their mobile.
type AssignRequest struct {
	SerialNumber   string `json:"serial_number"`
	CustomerMobile string `json:"customer_mobile"`
}

// ConfirmAssignRequest completes a card assignment with the OTP.
type ConfirmAssignRequest struct {
	SerialNumber   string `json:"serial_number"`
	CustomerMobile string `json:"customer_mobile"`
	Code           string `json:"code"`
}
