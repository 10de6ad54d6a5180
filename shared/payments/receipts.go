package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/gym-billing-system/shared/audit"
	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/models"
	"github.com/pavitra93/gym-billing-system/shared/observability"
	"github.com/pavitra93/gym-billing-system/shared/store"
	"github.com/pavitra93/gym-billing-system/shared/tenant"
)

const maxReceiptAttempts = 5

// Receipts issues receipt numbers of the form REC-<gym>-<YYYYMMDD>-<seq>.
// The day is the issue day in the gym's time zone.
type Receipts struct {
	repo  store.Repository
	trail audit.Trail
	now   func() time.Time
	log   logrus.FieldLogger
}

func NewReceipts(repo store.Repository, trail audit.Trail, now func() time.Time, log logrus.FieldLogger) *Receipts {
	if trail == nil {
		trail = audit.Discard{}
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Receipts{repo: repo, trail: trail, now: now, log: log}
}

// GetOrCreateReceipt returns the receipt of payment, assigning a number on
// first use. Later calls return the stored receipt unchanged.
func (s *Receipts) GetOrCreateReceipt(ctx context.Context, scope tenant.Scope, payment *models.Payment) (*models.Receipt, error) {
	if payment == nil {
		return nil, errs.Invalid("payment", "is required")
	}
	if err := scope.Owns("payment", payment.ID, payment.GymID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetReceiptByPayment(ctx, scope.GymID(), payment.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	prefix := models.ReceiptPrefix(scope.GymID(), s.now())
	for attempt := 1; attempt <= maxReceiptAttempts; attempt++ {
		receipt := &models.Receipt{
			GymID:     scope.GymID(),
			MemberID:  payment.MemberID,
			PaymentID: payment.ID,
		}
		err := s.repo.CreateNumberedReceipt(ctx, receipt, prefix)
		if err == nil {
			observability.RecordReceiptCreated()
			s.log.WithFields(logrus.Fields{
				"gym_id":         scope.GymID(),
				"payment_id":     payment.ID,
				"receipt_number": receipt.ReceiptNumber,
			}).Info("receipt issued")
			s.trail.Record(scope.Activity(models.ActionReceiptGenerated,
				fmt.Sprintf("Receipt generated: %s", receipt.ReceiptNumber)))
			return receipt, nil
		}
		if !errors.Is(err, errs.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create receipt: %w", err)
		}

		// another request won the payment or the number; re-read before retrying
		observability.RecordReceiptConflict()
		if existing, getErr := s.repo.GetReceiptByPayment(ctx, scope.GymID(), payment.ID); getErr == nil {
			return existing, nil
		}
		s.log.WithFields(logrus.Fields{
			"gym_id":  scope.GymID(),
			"prefix":  prefix,
			"attempt": attempt,
		}).Warn("receipt sequence conflict, retrying")
	}
	return nil, fmt.Errorf("failed to create receipt after %d attempts: %w", maxReceiptAttempts, errs.ErrDuplicate)
}

// ReceiptFor loads the payment of the scoped gym and returns its receipt
func (s *Receipts) ReceiptFor(ctx context.Context, scope tenant.Scope, paymentID uuid.UUID) (*models.Receipt, error) {
	payment, err := s.repo.GetPayment(ctx, scope.GymID(), paymentID)
	if err != nil {
		return nil, err
	}
	return s.GetOrCreateReceipt(ctx, scope, payment)
}

// List returns the receipts of the scoped gym, newest number first
func (s *Receipts) List(ctx context.Context, scope tenant.Scope, filter store.ReceiptFilter) ([]models.Receipt, error) {
	receipts, err := s.repo.ListReceipts(ctx, scope.GymID(), filter)
	if err != nil {
		return nil, err
	}
	if receipts == nil {
		receipts = []models.Receipt{}
	}
	return receipts, nil
}

// Document is everything a renderer or message template needs for one receipt
type Document struct {
	Gym     models.Gym     `json:"gym"`
	Member  models.Member  `json:"member"`
	Payment models.Payment `json:"payment"`
	Receipt models.Receipt `json:"receipt"`
}

// Document assembles the receipt with its payment, member and gym
func (s *Receipts) Document(ctx context.Context, scope tenant.Scope, receiptID uuid.UUID) (*Document, error) {
	receipt, err := s.repo.GetReceipt(ctx, scope.GymID(), receiptID)
	if err != nil {
		return nil, err
	}
	payment, err := s.repo.GetPayment(ctx, scope.GymID(), receipt.PaymentID)
	if err != nil {
		return nil, err
	}
	member, err := s.repo.GetMember(ctx, scope.GymID(), receipt.MemberID)
	if err != nil {
		return nil, err
	}
	return &Document{Gym: scope.Gym(), Member: *member, Payment: *payment, Receipt: *receipt}, nil
}
