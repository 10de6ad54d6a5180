package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gym represents a tenant in the billing system
type Gym struct {
	ID                   uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name                 string    `json:"name" gorm:"not null"`
	Address              string    `json:"address"`
	City                 string    `json:"city"`
	State                string    `json:"state"`
	Pincode              string    `json:"pincode" gorm:"type:varchar(10)"`
	Phone                string    `json:"phone" gorm:"type:varchar(15)"`
	Email                string    `json:"email"`
	CountryCode          string    `json:"country_code" gorm:"type:varchar(4);not null;default:'91'"`
	WhatsAppEnabled      bool      `json:"whatsapp_enabled" gorm:"not null;default:true"`
	AutoRemindersEnabled bool      `json:"auto_reminders_enabled" gorm:"not null;default:true"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName returns the table name for the Gym model
func (Gym) TableName() string {
	return "gyms"
}

// BeforeCreate assigns an id when the caller did not
func (g *Gym) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// ShortID is the first eight hex characters of the gym id, upper-cased.
// It is embedded in receipt numbers.
func (g *Gym) ShortID() string {
	return ShortID(g.ID)
}

// ActivityLog is an append-only audit entry
type ActivityLog struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	GymID       uuid.UUID      `json:"gym_id" gorm:"type:uuid;not null;index"`
	Actor       string         `json:"actor" gorm:"type:varchar(255)"`
	Action      ActivityAction `json:"action" gorm:"type:varchar(50);not null"`
	Description string         `json:"description" gorm:"type:text"`
	IPAddress   string         `json:"ip_address,omitempty" gorm:"type:varchar(45)"`
	CreatedAt   time.Time      `json:"created_at" gorm:"index"`
}

// TableName returns the table name for the ActivityLog model
func (ActivityLog) TableName() string {
	return "activity_logs"
}

// BeforeCreate assigns an id when the caller did not
func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
