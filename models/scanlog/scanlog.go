package scanlog

import (
	"time"
)

// ScanType identifies which credential kind produced a scan attempt
type ScanType string

const (
	ScanTypeNFC ScanType = "nfc"
	ScanTypeQR  ScanType = "qr"
)

// Result classifies the outcome of a check-in attempt
type Result string

const (
	ResultSuccess   Result = "success"
	ResultDuplicate Result = "duplicate"
	ResultInvalid   Result = "invalid"
	ResultFailed    Result = "failed"
)

// ScanLog records every check-in attempt, successful or not. Rows are never
// updated or deleted; ticket and customer are nullable because an attempt may
// fail before either resolves.
type ScanLog struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	EventID    uint    `gorm:"not null;index" json:"event_id"`
	TicketID   *string `gorm:"type:uuid;index" json:"ticket_id,omitempty"`
	CustomerID *string `gorm:"type:uuid;index" json:"customer_id,omitempty"`

	CardSerial string   `gorm:"type:varchar(100);index" json:"card_serial"`
	ScanType   ScanType `gorm:"type:varchar(10);not null" json:"scan_type"`
	Result     Result   `gorm:"type:varchar(20);not null;index" json:"result"`

	OperatorID   string `gorm:"type:varchar(100);not null;index" json:"operator_id"`
	OperatorRole string `gorm:"type:varchar(50);not null" json:"operator_role"`
	Notes        string `gorm:"type:text" json:"notes"`

	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the ScanLog model
func (ScanLog) TableName() string {
	return "scan_logs"
}
