// Package payments records money received from members and issues their receipts.
package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/gym-billing-system/shared/audit"
	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/models"
	"github.com/pavitra93/gym-billing-system/shared/store"
	"github.com/pavitra93/gym-billing-system/shared/tenant"
)

// Ledger is the payment ledger
type Ledger struct {
	repo  store.Repository
	trail audit.Trail
	now   func() time.Time
	log   logrus.FieldLogger
}

func NewLedger(repo store.Repository, trail audit.Trail, now func() time.Time, log logrus.FieldLogger) *Ledger {
	if trail == nil {
		trail = audit.Discard{}
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Ledger{repo: repo, trail: trail, now: now, log: log}
}

// PaymentInput is one collection event. Date defaults to today, Method to
// cash and Status to paid. Month is a free-text billing label.
type PaymentInput struct {
	Amount        decimal.Decimal
	Method        models.PaymentMethod
	Date          *time.Time
	Month         string
	Status        models.PaymentStatus
	TransactionID string
	Notes         string
}

func (in *PaymentInput) normalize() error {
	if !in.Amount.IsPositive() {
		return errs.Invalid("amount", "must be greater than zero")
	}
	if in.Method == "" {
		in.Method = models.PaymentMethodCash
	}
	if !in.Method.Valid() {
		return errs.Invalid("payment_method", "is not a known method")
	}
	if in.Status == "" {
		in.Status = models.PaymentStatusPaid
	}
	if !in.Status.Valid() {
		return errs.Invalid("status", "is not a known payment status")
	}
	if len(in.Month) > 20 {
		return errs.Invalid("month", "must be at most 20 characters")
	}
	return nil
}

// RecordPayment stores a payment for member. The member must belong to the scoped gym.
func (l *Ledger) RecordPayment(ctx context.Context, scope tenant.Scope, member *models.Member, in PaymentInput) (*models.Payment, error) {
	if member == nil {
		return nil, errs.Invalid("member", "is required")
	}
	if err := scope.Owns("member", member.ID, member.GymID); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	date := models.Day(l.now())
	if in.Date != nil {
		date = models.Day(*in.Date)
	}
	payment := &models.Payment{
		GymID:         scope.GymID(),
		MemberID:      member.ID,
		Amount:        in.Amount.Round(2),
		Method:        in.Method,
		PaymentDate:   date,
		Month:         in.Month,
		Status:        in.Status,
		TransactionID: in.TransactionID,
		Notes:         in.Notes,
		CreatedBy:     scope.Actor().UserID,
	}
	if err := l.repo.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	l.trail.Record(scope.Activity(models.ActionPaymentAdd,
		fmt.Sprintf("Added payment of ₹%s for %s", payment.Amount.StringFixed(2), member.Name)))
	return payment, nil
}

// RecordPaymentFor loads the member from the scoped gym and records the payment
func (l *Ledger) RecordPaymentFor(ctx context.Context, scope tenant.Scope, memberID uuid.UUID, in PaymentInput) (*models.Payment, error) {
	member, err := l.repo.GetMember(ctx, scope.GymID(), memberID)
	if err != nil {
		return nil, err
	}
	return l.RecordPayment(ctx, scope, member, in)
}

// Get loads a payment of the scoped gym
func (l *Ledger) Get(ctx context.Context, scope tenant.Scope, paymentID uuid.UUID) (*models.Payment, error) {
	return l.repo.GetPayment(ctx, scope.GymID(), paymentID)
}

// UpdateStatus corrects the status of a payment, the only field editable after creation
func (l *Ledger) UpdateStatus(ctx context.Context, scope tenant.Scope, paymentID uuid.UUID, status models.PaymentStatus) (*models.Payment, error) {
	if !status.Valid() {
		return nil, errs.Invalid("status", "is not a known payment status")
	}
	if err := l.repo.UpdatePaymentStatus(ctx, scope.GymID(), paymentID, status); err != nil {
		return nil, err
	}
	l.log.WithFields(logrus.Fields{
		"gym_id":     scope.GymID(),
		"payment_id": paymentID,
		"status":     status,
	}).Info("payment status corrected")
	return l.repo.GetPayment(ctx, scope.GymID(), paymentID)
}

// List returns payments of the scoped gym, newest first
func (l *Ledger) List(ctx context.Context, scope tenant.Scope, filter store.PaymentFilter) ([]models.Payment, error) {
	return l.repo.ListPayments(ctx, scope.GymID(), filter)
}
