package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DeliveryStatusDelivered is recorded on a reminder the channel accepted
const DeliveryStatusDelivered = "Delivered"

// Reminder is a notification owed to a member
type Reminder struct {
	ID             uuid.UUID        `json:"id" gorm:"type:uuid;primary_key"`
	GymID          uuid.UUID        `json:"gym_id" gorm:"type:uuid;not null;index:idx_reminders_gym_status"`
	MemberID       uuid.UUID        `json:"member_id" gorm:"type:uuid;not null;index"`
	Type           ReminderType     `json:"reminder_type" gorm:"column:reminder_type;type:varchar(30);not null"`
	Message        string           `json:"message" gorm:"type:text;not null"`
	DueDate        time.Time        `json:"due_date" gorm:"type:date;not null"`
	Amount         *decimal.Decimal `json:"amount,omitempty" gorm:"type:numeric(10,2)"`
	Status         ReminderStatus   `json:"status" gorm:"type:varchar(20);not null;index:idx_reminders_gym_status"`
	SentAt         *time.Time       `json:"sent_at,omitempty"`
	DeliveryStatus string           `json:"delivery_status,omitempty" gorm:"type:varchar(100)"`
	ErrorMessage   string           `json:"error_message,omitempty" gorm:"type:text"`
	CreatedBy      string           `json:"created_by,omitempty" gorm:"type:varchar(255)"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	// ClaimID marks a delivery in flight; the claim lapses at ClaimedUntil
	ClaimID      *uuid.UUID `json:"-" gorm:"type:uuid"`
	ClaimedUntil *time.Time `json:"-"`

	Member *Member `json:"member,omitempty" gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the Reminder model
func (Reminder) TableName() string {
	return "reminders"
}

// BeforeCreate assigns an id when the caller did not
func (r *Reminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ExpiryReminderIndex keeps one pending or sent expiry reminder per member and end date
const ExpiryReminderIndex = "idx_reminders_active_expiry"

// HoldsExpirySlot reports whether r counts against ExpiryReminderIndex
func (r *Reminder) HoldsExpirySlot() bool {
	return r.Type == ReminderTypeMembershipExpiring &&
		(r.Status == ReminderStatusPending || r.Status == ReminderStatusSent)
}

// Claimable reports whether a delivery may start on the reminder at now
func (r *Reminder) Claimable(now time.Time) bool {
	if r.Status != ReminderStatusPending {
		return false
	}
	return r.ClaimedUntil == nil || !r.ClaimedUntil.After(now)
}

// MarkSent records a successful delivery
func (r *Reminder) MarkSent(at time.Time) {
	r.Status = ReminderStatusSent
	r.SentAt = &at
	r.DeliveryStatus = DeliveryStatusDelivered
	r.ErrorMessage = ""
}

// MarkFailed records a failed delivery with the raw transport error
func (r *Reminder) MarkFailed(reason string) {
	r.Status = ReminderStatusFailed
	r.ErrorMessage = reason
}

// Release drops a delivery claim
func (r *Reminder) Release() {
	r.ClaimID = nil
	r.ClaimedUntil = nil
}
