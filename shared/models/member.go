package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpiringWindowDays is how far ahead a membership counts as expiring soon
const ExpiringWindowDays = 7

// MembershipPlan is a priced, fixed-length membership offered by a gym
type MembershipPlan struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	GymID        uuid.UUID       `json:"gym_id" gorm:"type:uuid;not null;index"`
	Name         string          `json:"name" gorm:"type:varchar(100);not null"`
	Duration     PlanDuration    `json:"duration" gorm:"type:varchar(20);not null"`
	DurationDays int             `json:"duration_days" gorm:"not null"`
	Price        decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null"`
	Description  string          `json:"description,omitempty" gorm:"type:text"`
	IsActive     bool            `json:"is_active" gorm:"not null;default:true"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName returns the table name for the MembershipPlan model
func (MembershipPlan) TableName() string {
	return "membership_plans"
}

// BeforeCreate assigns an id when the caller did not
func (p *MembershipPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Member is a gym customer holding a membership period
type Member struct {
	ID                    uuid.UUID        `json:"id" gorm:"type:uuid;primary_key"`
	GymID                 uuid.UUID        `json:"gym_id" gorm:"type:uuid;not null;uniqueIndex:idx_members_gym_phone;index:idx_members_gym_active"`
	PlanID                *uuid.UUID       `json:"plan_id,omitempty" gorm:"type:uuid"`
	Name                  string           `json:"name" gorm:"type:varchar(200);not null"`
	Phone                 string           `json:"phone" gorm:"type:varchar(15);not null;uniqueIndex:idx_members_gym_phone"`
	Email                 string           `json:"email,omitempty"`
	Address               string           `json:"address,omitempty" gorm:"type:text"`
	Age                   int              `json:"age,omitempty"`
	Gender                Gender           `json:"gender,omitempty" gorm:"type:varchar(1)"`
	Height                *decimal.Decimal `json:"height,omitempty" gorm:"type:numeric(5,2)"`
	Weight                *decimal.Decimal `json:"weight,omitempty" gorm:"type:numeric(5,2)"`
	MembershipType        string           `json:"membership_type,omitempty" gorm:"type:varchar(50)"`
	MembershipFee         decimal.Decimal  `json:"membership_fee" gorm:"type:numeric(10,2);not null"`
	JoinDate              time.Time        `json:"join_date" gorm:"type:date;not null"`
	MembershipStartDate   time.Time        `json:"membership_start_date" gorm:"type:date;not null"`
	MembershipEndDate     time.Time        `json:"membership_end_date" gorm:"type:date;not null;index"`
	IsActive              bool             `json:"is_active" gorm:"not null;default:true;index:idx_members_gym_active"`
	EmergencyContactName  string           `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string           `json:"emergency_contact_phone,omitempty" gorm:"type:varchar(15)"`
	MedicalConditions     string           `json:"medical_conditions,omitempty" gorm:"type:text"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// TableName returns the table name for the Member model
func (Member) TableName() string {
	return "members"
}

// BeforeCreate assigns an id when the caller did not
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// DaysRemaining is the signed number of days from asOf to the membership end date
func (m *Member) DaysRemaining(asOf time.Time) int {
	return DaysBetween(asOf, m.MembershipEndDate)
}

// IsExpiringSoon reports whether the membership ends within the expiring window
func (m *Member) IsExpiringSoon(asOf time.Time) bool {
	days := m.DaysRemaining(asOf)
	return days >= 0 && days <= ExpiringWindowDays
}

// MemberAttendance is one check-in of a member at the gym
type MemberAttendance struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	GymID        uuid.UUID  `json:"gym_id" gorm:"type:uuid;not null;index:idx_attendances_gym_check_in"`
	MemberID     uuid.UUID  `json:"member_id" gorm:"type:uuid;not null;index"`
	CheckInTime  time.Time  `json:"check_in_time" gorm:"not null;index:idx_attendances_gym_check_in"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	Notes        string     `json:"notes,omitempty" gorm:"type:text"`

	Member *Member `json:"member,omitempty" gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the MemberAttendance model
func (MemberAttendance) TableName() string {
	return "member_attendances"
}

// BeforeCreate assigns an id when the caller did not
func (a *MemberAttendance) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
