package ticket

// TransferRequest moves a ticket toward the given mobile number. The
// recipient does not need an account yet.
type TransferRequest struct {
	RecipientMobile string `json:"recipient_mobile"`
	RecipientName   string `json:"recipient_name,omitempty"`
	PaymentMethod   string `json:"payment_method,omitempty"`
}

// GiftRequest moves a ticket to an existing customer.
type GiftRequest struct {
	RecipientMobile string `json:"recipient_mobile"`
}
