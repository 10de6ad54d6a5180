// Package reminders creates the notifications owed to members. Nothing here
// sends a message; delivery belongs to the notify dispatcher.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/models"
	"github.com/pavitra93/gym-billing-system/shared/observability"
	"github.com/pavitra93/gym-billing-system/shared/store"
	"github.com/pavitra93/gym-billing-system/shared/tenant"
)

// MessageDateLayout is the date format used in member-facing messages
const MessageDateLayout = "02-Jan-2006"

// Service generates and manages reminders
type Service struct {
	repo store.Repository
	now  func() time.Time
	log  logrus.FieldLogger
}

func NewService(repo store.Repository, now func() time.Time, log logrus.FieldLogger) *Service {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{repo: repo, now: now, log: log}
}

// ExpiryMessage renders the membership expiring text for member as of asOf
func ExpiryMessage(gym models.Gym, member models.Member, asOf time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", member.Name)
	fmt.Fprintf(&b, "Your gym membership at %s is expiring in %d days on %s.\n\n",
		gym.Name, member.DaysRemaining(asOf), member.MembershipEndDate.Format(MessageDateLayout))
	b.WriteString("Please renew your membership to continue enjoying our services.\n\n")
	fmt.Fprintf(&b, "Membership Fee: ₹%s\n\n", member.MembershipFee.StringFixed(2))
	fmt.Fprintf(&b, "Contact us: %s\n\n", gym.Phone)
	b.WriteString("Thank you!\n")
	b.WriteString(gym.Name)
	return b.String()
}

// GenerateExpiryReminders creates one MEMBERSHIP_EXPIRING reminder for every
// active member whose membership ends within the next seven days of asOf.
// A member that already has a pending or sent reminder for the same end date
// is skipped, so repeated or overlapping runs create nothing new. It returns the number of
// reminders created.
func (s *Service) GenerateExpiryReminders(ctx context.Context, scope tenant.Scope, asOf time.Time) (int, error) {
	if !scope.Valid() {
		return 0, errs.Invalid("gym", "scope is not resolved")
	}
	from := models.Day(asOf)
	to := from.AddDate(0, 0, models.ExpiringWindowDays)
	candidates, err := s.repo.ListMembers(ctx, scope.GymID(), store.MemberFilter{
		ActiveOnly: true,
		EndFrom:    &from,
		EndTo:      &to,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list expiring members: %w", err)
	}

	gym := scope.Gym()
	created := 0
	for i := range candidates {
		member := candidates[i]
		due := models.Day(member.MembershipEndDate)
		existing, err := s.repo.CountReminders(ctx, scope.GymID(), store.ReminderFilter{
			MemberID: &member.ID,
			Type:     models.ReminderTypeMembershipExpiring,
			DueDate:  &due,
			Statuses: []models.ReminderStatus{models.ReminderStatusPending, models.ReminderStatusSent},
		})
		if err != nil {
			return created, fmt.Errorf("failed to check reminders for member %s: %w", member.ID, err)
		}
		if existing > 0 {
			continue
		}

		fee := member.MembershipFee
		reminder := &models.Reminder{
			GymID:     scope.GymID(),
			MemberID:  member.ID,
			Type:      models.ReminderTypeMembershipExpiring,
			Message:   ExpiryMessage(gym, member, from),
			DueDate:   due,
			Amount:    &fee,
			Status:    models.ReminderStatusPending,
			CreatedBy: scope.Actor().UserID,
		}
		err = s.repo.CreateReminder(ctx, reminder)
		if errors.Is(err, errs.ErrDuplicate) {
			// an overlapping run created it after the count above
			continue
		}
		if err != nil {
			return created, fmt.Errorf("failed to create reminder for member %s: %w", member.ID, err)
		}
		created++
	}

	observability.RecordRemindersCreated(created)
	s.log.WithFields(logrus.Fields{
		"gym_id":     scope.GymID(),
		"as_of":      from.Format(models.DateLayout),
		"candidates": len(candidates),
		"created":    created,
	}).Info("expiry reminders generated")
	return created, nil
}

// Input is a manually created reminder
type Input struct {
	MemberID uuid.UUID
	Type     models.ReminderType
	Message  string
	DueDate  time.Time
	Amount   *decimal.Decimal
}

func (in *Input) validate() error {
	in.Message = strings.TrimSpace(in.Message)
	switch {
	case in.MemberID == uuid.Nil:
		return errs.Invalid("member_id", "is required")
	case !in.Type.Valid():
		return errs.Invalid("reminder_type", "is not a known reminder type")
	case in.Message == "":
		return errs.Invalid("message", "is required")
	case in.DueDate.IsZero():
		return errs.Invalid("due_date", "is required")
	case in.Amount != nil && in.Amount.IsNegative():
		return errs.Invalid("amount", "must not be negative")
	}
	return nil
}

// Create stores a pending reminder for a member of the scoped gym
func (s *Service) Create(ctx context.Context, scope tenant.Scope, in Input) (*models.Reminder, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	member, err := s.repo.GetMember(ctx, scope.GymID(), in.MemberID)
	if err != nil {
		return nil, err
	}
	reminder := &models.Reminder{
		GymID:     scope.GymID(),
		MemberID:  member.ID,
		Type:      in.Type,
		Message:   in.Message,
		DueDate:   models.Day(in.DueDate),
		Amount:    in.Amount,
		Status:    models.ReminderStatusPending,
		CreatedBy: scope.Actor().UserID,
	}
	if err := s.repo.CreateReminder(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	return reminder, nil
}

func (s *Service) Get(ctx context.Context, scope tenant.Scope, reminderID uuid.UUID) (*models.Reminder, error) {
	return s.repo.GetReminder(ctx, scope.GymID(), reminderID)
}

// List returns reminders of the scoped gym, newest first
func (s *Service) List(ctx context.Context, scope tenant.Scope, filter store.ReminderFilter) ([]models.Reminder, error) {
	return s.repo.ListReminders(ctx, scope.GymID(), filter)
}

// Requeue moves a sent or failed reminder back to pending so that it is
// delivered again. It is the only way a reminder returns to pending.
func (s *Service) Requeue(ctx context.Context, scope tenant.Scope, reminderID uuid.UUID) (*models.Reminder, error) {
	reminder, err := s.repo.GetReminder(ctx, scope.GymID(), reminderID)
	if err != nil {
		return nil, err
	}
	if reminder.Status == models.ReminderStatusPending {
		return nil, fmt.Errorf("reminder %s is already pending: %w", reminderID, errs.ErrConflict)
	}

	previous := reminder.Status
	reminder.Status = models.ReminderStatusPending
	reminder.SentAt = nil
	reminder.DeliveryStatus = ""
	reminder.ErrorMessage = ""
	reminder.Release()
	if err := s.repo.UpdateReminder(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to requeue reminder: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"gym_id":      scope.GymID(),
		"reminder_id": reminderID,
		"previous":    previous,
	}).Info("reminder requeued")
	return reminder, nil
}
