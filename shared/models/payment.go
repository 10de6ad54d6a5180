package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is a single collection event against a member
type Payment struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	GymID         uuid.UUID       `json:"gym_id" gorm:"type:uuid;not null;index:idx_payments_gym_date"`
	MemberID      uuid.UUID       `json:"member_id" gorm:"type:uuid;not null;index:idx_payments_member_date"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(10,2);not null"`
	Method        PaymentMethod   `json:"payment_method" gorm:"column:payment_method;type:varchar(20);not null"`
	PaymentDate   time.Time       `json:"payment_date" gorm:"type:date;not null;index:idx_payments_gym_date;index:idx_payments_member_date"`
	Month         string          `json:"month,omitempty" gorm:"type:varchar(20)"`
	Status        PaymentStatus   `json:"status" gorm:"type:varchar(20);not null"`
	TransactionID string          `json:"transaction_id,omitempty" gorm:"type:varchar(100)"`
	Notes         string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedBy     string          `json:"created_by,omitempty" gorm:"type:varchar(255)"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Member *Member `json:"member,omitempty" gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

// BeforeCreate assigns an id when the caller did not
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Receipt is the numbered proof of a payment. At most one exists per payment.
type Receipt struct {
	ID                  uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	PaymentID           uuid.UUID  `json:"payment_id" gorm:"type:uuid;not null;uniqueIndex"`
	GymID               uuid.UUID  `json:"gym_id" gorm:"type:uuid;not null;index"`
	MemberID            uuid.UUID  `json:"member_id" gorm:"type:uuid;not null;index"`
	ReceiptNumber       string     `json:"receipt_number" gorm:"type:varchar(50);not null;uniqueIndex"`
	SentViaNotification bool       `json:"sent_via_notification" gorm:"not null;default:false"`
	SentAt              *time.Time `json:"sent_at,omitempty"`
	DeliveryError       string     `json:"delivery_error,omitempty" gorm:"type:text"`
	CreatedAt           time.Time  `json:"created_at"`

	Payment *Payment `json:"payment,omitempty" gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the Receipt model
func (Receipt) TableName() string {
	return "receipts"
}

// BeforeCreate assigns an id when the caller did not
func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
