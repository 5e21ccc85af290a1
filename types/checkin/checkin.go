package checkin

// CardScanRequest admits (or verifies) an attendee by NFC card serial.
type CardScanRequest struct {
	CardSerial string `json:"card_serial"`
	EventID    uint   `json:"event_id"`
}

// QRScanRequest admits an attendee by the ticket number from a QR payload.
type QRScanRequest struct {
	TicketNumber string `json:"ticket_number"`
	EventID      uint   `json:"event_id"`
}

// ScanLogQuery filters the scan trail shown on the usher portal.
type ScanLogQuery struct {
	EventID uint   `query:"event_id"`
	Result  string `query:"result"`
	Date    string `query:"date"`
	Search  string `query:"search"`
	Page    int    `query:"page"`
	PerPage int    `query:"per_page"`
}
