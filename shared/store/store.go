// Package store persists the billing entities. Every read and write below the
// gym level takes the owning gym id and filters on it; a nil gym id is refused.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/models"
)

// MemberFilter narrows ListMembers. Zero values match everything.
type MemberFilter struct {
	ActiveOnly bool
	Search     string
	PlanID     *uuid.UUID
	EndFrom    *time.Time
	EndTo      *time.Time
	EndBefore  *time.Time
}

// PaymentFilter narrows ListPayments. Dates are inclusive.
type PaymentFilter struct {
	MemberID *uuid.UUID
	Status   models.PaymentStatus
	Method   models.PaymentMethod
	Month    string
	From     *time.Time
	To       *time.Time
}

// ReminderFilter narrows ListReminders and CountReminders
type ReminderFilter struct {
	MemberID *uuid.UUID
	Type     models.ReminderType
	DueDate  *time.Time
	Statuses []models.ReminderStatus
}

// AttendanceFilter narrows ListAttendance. CheckInFrom is inclusive and
// CheckInBefore exclusive.
type AttendanceFilter struct {
	MemberID      *uuid.UUID
	CheckInFrom   *time.Time
	CheckInBefore *time.Time
}

// ReceiptFilter narrows ListReceipts
type ReceiptFilter struct {
	MemberID *uuid.UUID
}

// PaymentTotal is the sum of PAID payments for one day and method
type PaymentTotal struct {
	Day    time.Time
	Method models.PaymentMethod
	Amount decimal.Decimal
	Count  int64
}

// Repository is the persistence contract of the billing core
type Repository interface {
	CreateGym(ctx context.Context, gym *models.Gym) error
	GetGym(ctx context.Context, gymID uuid.UUID) (*models.Gym, error)
	UpdateGym(ctx context.Context, gym *models.Gym) error
	ListGyms(ctx context.Context) ([]models.Gym, error)

	CreatePlan(ctx context.Context, plan *models.MembershipPlan) error
	GetPlan(ctx context.Context, gymID, planID uuid.UUID) (*models.MembershipPlan, error)
	UpdatePlan(ctx context.Context, plan *models.MembershipPlan) error
	DeletePlan(ctx context.Context, gymID, planID uuid.UUID) error
	ListPlans(ctx context.Context, gymID uuid.UUID, activeOnly bool) ([]models.MembershipPlan, error)

	CreateMember(ctx context.Context, member *models.Member) error
	GetMember(ctx context.Context, gymID, memberID uuid.UUID) (*models.Member, error)
	UpdateMember(ctx context.Context, member *models.Member) error
	// DeleteMember removes the member with its payments, receipts and reminders
	DeleteMember(ctx context.Context, gymID, memberID uuid.UUID) error
	ListMembers(ctx context.Context, gymID uuid.UUID, filter MemberFilter) ([]models.Member, error)

	// CreateAttendance fails with a not-found error when the member is not in the entry's gym
	CreateAttendance(ctx context.Context, attendance *models.MemberAttendance) error
	ListAttendance(ctx context.Context, gymID uuid.UUID, filter AttendanceFilter) ([]models.MemberAttendance, error)

	// CreatePayment fails with a not-found error when the member is not in the payment's gym
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, gymID, paymentID uuid.UUID) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, gymID, paymentID uuid.UUID, status models.PaymentStatus) error
	ListPayments(ctx context.Context, gymID uuid.UUID, filter PaymentFilter) ([]models.Payment, error)
	PaymentTotals(ctx context.Context, gymID uuid.UUID, from, to time.Time) ([]PaymentTotal, error)

	GetReceipt(ctx context.Context, gymID, receiptID uuid.UUID) (*models.Receipt, error)
	GetReceiptByPayment(ctx context.Context, gymID, paymentID uuid.UUID) (*models.Receipt, error)
	// CreateNumberedReceipt assigns the next sequence under prefix and inserts the
	// receipt as one atomic unit. Concurrent callers on the same prefix are serialized.
	CreateNumberedReceipt(ctx context.Context, receipt *models.Receipt, prefix string) error
	UpdateReceipt(ctx context.Context, receipt *models.Receipt) error
	ListReceipts(ctx context.Context, gymID uuid.UUID, filter ReceiptFilter) ([]models.Receipt, error)

	CreateReminder(ctx context.Context, reminder *models.Reminder) error
	GetReminder(ctx context.Context, gymID, reminderID uuid.UUID) (*models.Reminder, error)
	UpdateReminder(ctx context.Context, reminder *models.Reminder) error
	// ClaimReminder takes a pending reminder for delivery until the lease ends.
	// It fails with ErrConflict when the reminder is not pending or another
	// live claim holds it.
	ClaimReminder(ctx context.Context, gymID, reminderID, claimID uuid.UUID, now, until time.Time) (*models.Reminder, error)
	// FinishReminder writes a delivery outcome under claimID and drops the claim.
	// It fails with ErrConflict once the claim was lost.
	FinishReminder(ctx context.Context, reminder *models.Reminder, claimID uuid.UUID) error
	ListReminders(ctx context.Context, gymID uuid.UUID, filter ReminderFilter) ([]models.Reminder, error)
	CountReminders(ctx context.Context, gymID uuid.UUID, filter ReminderFilter) (int64, error)

	AppendActivity(ctx context.Context, entries ...models.ActivityLog) error
	// ListActivity returns the latest entries of a gym, newest first
	ListActivity(ctx context.Context, gymID uuid.UUID, limit int) ([]models.ActivityLog, error)
}

func requireGym(gymID uuid.UUID) error {
	if gymID == uuid.Nil {
		return errs.Invalid("gym_id", "is required")
	}
	return nil
}
