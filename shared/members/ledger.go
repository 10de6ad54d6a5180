// Package members owns member records, their membership periods and the
// plans a gym sells.
package members

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

// Ledger is the member ledger
type Ledger struct {
	repo  store.Repository
	trail audit.Trail
	now   func() time.Time
	log   logrus.FieldLogger
}

// NewLedger builds a ledger. now supplies the gym-local current time.
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

// Today is the current calendar date
func (l *Ledger) Today() time.Time {
	return models.Day(l.now())
}

// MemberInput creates or edits a member. With PlanID set and no end date the
// period and, when Fee is nil, the fee come from the plan.
type MemberInput struct {
	Name                  string
	Phone                 string
	Email                 string
	Address               string
	Age                   int
	Gender                models.Gender
	Height                *decimal.Decimal
	Weight                *decimal.Decimal
	PlanID                *uuid.UUID
	MembershipType        string
	Fee                   *decimal.Decimal
	JoinDate              *time.Time
	StartDate             *time.Time
	EndDate               *time.Time
	EmergencyContactName  string
	EmergencyContactPhone string
	MedicalConditions     string
}

func (in *MemberInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	switch {
	case in.Name == "":
		return errs.Invalid("name", "is required")
	case in.Phone == "":
		return errs.Invalid("phone", "is required")
	case len(in.Phone) > 15:
		return errs.Invalid("phone", "must be at most 15 characters")
	case in.Age < 0:
		return errs.Invalid("age", "must not be negative")
	case in.Fee != nil && in.Fee.IsNegative():
		return errs.Invalid("membership_fee", "must not be negative")
	}
	return nil
}

// period resolves the membership window and fee for in
func (l *Ledger) period(ctx context.Context, scope tenant.Scope, in MemberInput) (time.Time, time.Time, decimal.Decimal, string, error) {
	start := l.Today()
	if in.StartDate != nil {
		start = models.Day(*in.StartDate)
	}
	fee := decimal.Zero
	if in.Fee != nil {
		fee = *in.Fee
	}
	membershipType := in.MembershipType

	plan, err := l.plan(ctx, scope, in.PlanID)
	if err != nil {
		return start, start, fee, membershipType, err
	}
	if in.EndDate != nil {
		end := models.Day(*in.EndDate)
		if end.Before(start) {
			return start, end, fee, membershipType, errs.Invalid("membership_end_date", "is before membership_start_date")
		}
		return start, end, fee, membershipType, nil
	}
	if plan == nil {
		return start, start, fee, membershipType, errs.Invalid("membership_end_date", "is required without a plan")
	}

	start, end, err := RenewalPeriod(start, plan.DurationDays)
	if err != nil {
		return start, end, fee, membershipType, err
	}
	if in.Fee == nil {
		fee = plan.Price
	}
	if membershipType == "" {
		membershipType = plan.Name
	}
	return start, end, fee, membershipType, nil
}

// plan loads the referenced plan from the scoped gym. A plan of another gym
// is reported as not found.
func (l *Ledger) plan(ctx context.Context, scope tenant.Scope, planID *uuid.UUID) (*models.MembershipPlan, error) {
	if planID == nil {
		return nil, nil
	}
	return l.repo.GetPlan(ctx, scope.GymID(), *planID)
}

func (in MemberInput) apply(m *models.Member) {
	m.Name, m.Phone, m.Email, m.Address = in.Name, in.Phone, in.Email, in.Address
	m.Age, m.Gender, m.Height, m.Weight = in.Age, in.Gender, in.Height, in.Weight
	m.PlanID = in.PlanID
	m.EmergencyContactName, m.EmergencyContactPhone = in.EmergencyContactName, in.EmergencyContactPhone
	m.MedicalConditions = in.MedicalConditions
}

func duplicatePhone(err error) error {
	if errors.Is(err, errs.ErrDuplicate) {
		return errs.Invalid("phone", "is already registered in this gym")
	}
	return err
}

// Create enrolls a member
func (l *Ledger) Create(ctx context.Context, scope tenant.Scope, in MemberInput) (*models.Member, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	start, end, fee, membershipType, err := l.period(ctx, scope, in)
	if err != nil {
		return nil, err
	}

	member := &models.Member{
		GymID:               scope.GymID(),
		JoinDate:            start,
		MembershipStartDate: start,
		MembershipEndDate:   end,
		MembershipFee:       fee,
		MembershipType:      membershipType,
		IsActive:            true,
	}
	in.apply(member)
	if in.JoinDate != nil {
		member.JoinDate = models.Day(*in.JoinDate)
	}

	if err := l.repo.CreateMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to create member: %w", duplicatePhone(err))
	}
	l.trail.Record(scope.Activity(models.ActionMemberAdd, fmt.Sprintf("Added member %s", member.Name)))
	return member, nil
}

// Get loads a member of the scoped gym
func (l *Ledger) Get(ctx context.Context, scope tenant.Scope, memberID uuid.UUID) (*models.Member, error) {
	return l.repo.GetMember(ctx, scope.GymID(), memberID)
}

// Update edits the profile of a member. Membership dates change only when supplied.
func (l *Ledger) Update(ctx context.Context, scope tenant.Scope, memberID uuid.UUID, in MemberInput) (*models.Member, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	member, err := l.repo.GetMember(ctx, scope.GymID(), memberID)
	if err != nil {
		return nil, err
	}
	if _, err := l.plan(ctx, scope, in.PlanID); err != nil {
		return nil, err
	}
	in.apply(member)
	if in.MembershipType != "" {
		member.MembershipType = in.MembershipType
	}
	if in.Fee != nil {
		member.MembershipFee = *in.Fee
	}
	if in.JoinDate != nil {
		member.JoinDate = models.Day(*in.JoinDate)
	}
	if in.StartDate != nil {
		member.MembershipStartDate = models.Day(*in.StartDate)
	}
	if in.EndDate != nil {
		member.MembershipEndDate = models.Day(*in.EndDate)
	}
	if member.MembershipEndDate.Before(member.MembershipStartDate) {
		return nil, errs.Invalid("membership_end_date", "is before membership_start_date")
	}

	if err := l.repo.UpdateMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", duplicatePhone(err))
	}
	l.trail.Record(scope.Activity(models.ActionMemberUpdate, fmt.Sprintf("Updated member %s", member.Name)))
	return member, nil
}

// RenewInput describes a renewal. Either PlanID or DurationDays supplies the
// length; Fee is applied only when set.
type RenewInput struct {
	PlanID       *uuid.UUID
	DurationDays int
	StartDate    *time.Time
	Fee          *decimal.Decimal
}

// Renew starts a new membership period for a member and reactivates it
func (l *Ledger) Renew(ctx context.Context, scope tenant.Scope, memberID uuid.UUID, in RenewInput) (*models.Member, error) {
	if in.Fee != nil && in.Fee.IsNegative() {
		return nil, errs.Invalid("membership_fee", "must not be negative")
	}
	member, err := l.repo.GetMember(ctx, scope.GymID(), memberID)
	if err != nil {
		return nil, err
	}

	days := in.DurationDays
	if in.PlanID != nil {
		plan, err := l.repo.GetPlan(ctx, scope.GymID(), *in.PlanID)
		if err != nil {
			return nil, err
		}
		days = plan.DurationDays
		member.PlanID = &plan.ID
		member.MembershipType = plan.Name
	}

	start := l.Today()
	if in.StartDate != nil {
		start = *in.StartDate
	}
	start, end, err := RenewalPeriod(start, days)
	if err != nil {
		return nil, err
	}

	member.MembershipStartDate, member.MembershipEndDate = start, end
	member.IsActive = true
	if in.Fee != nil {
		member.MembershipFee = *in.Fee
	}
	if err := l.repo.UpdateMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to renew member: %w", err)
	}

	l.log.WithFields(logrus.Fields{
		"gym_id":    scope.GymID(),
		"member_id": member.ID,
		"end_date":  end.Format(models.DateLayout),
	}).Info("membership renewed")
	l.trail.Record(scope.Activity(models.ActionMemberUpdate,
		fmt.Sprintf("Renewed member %s until %s", member.Name, end.Format(models.DateLayout))))
	return member, nil
}

// Deactivate flags a member inactive without touching history
func (l *Ledger) Deactivate(ctx context.Context, scope tenant.Scope, memberID uuid.UUID) (*models.Member, error) {
	member, err := l.repo.GetMember(ctx, scope.GymID(), memberID)
	if err != nil {
		return nil, err
	}
	if !member.IsActive {
		return member, nil
	}
	member.IsActive = false
	if err := l.repo.UpdateMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to deactivate member: %w", err)
	}
	l.trail.Record(scope.Activity(models.ActionMemberUpdate, fmt.Sprintf("Deactivated member %s", member.Name)))
	return member, nil
}

// Delete removes a member along with its payments, receipts and reminders
func (l *Ledger) Delete(ctx context.Context, scope tenant.Scope, memberID uuid.UUID) error {
	return l.repo.DeleteMember(ctx, scope.GymID(), memberID)
}

// List returns members of the scoped gym
func (l *Ledger) List(ctx context.Context, scope tenant.Scope, filter store.MemberFilter) ([]models.Member, error) {
	return l.repo.ListMembers(ctx, scope.GymID(), filter)
}

// ListExpiring returns active members whose period ends within the expiring window of asOf
func (l *Ledger) ListExpiring(ctx context.Context, scope tenant.Scope, asOf time.Time) ([]models.Member, error) {
	from := models.Day(asOf)
	to := from.AddDate(0, 0, models.ExpiringWindowDays)
	return l.repo.ListMembers(ctx, scope.GymID(), store.MemberFilter{ActiveOnly: true, EndFrom: &from, EndTo: &to})
}

// ListExpired returns members whose period ended before asOf
func (l *Ledger) ListExpired(ctx context.Context, scope tenant.Scope, asOf time.Time) ([]models.Member, error) {
	before := models.Day(asOf)
	return l.repo.ListMembers(ctx, scope.GymID(), store.MemberFilter{EndBefore: &before})
}

// History returns the payments of a member, newest first
func (l *Ledger) History(ctx context.Context, scope tenant.Scope, memberID uuid.UUID) ([]models.Payment, error) {
	if _, err := l.repo.GetMember(ctx, scope.GymID(), memberID); err != nil {
		return nil, err
	}
	return l.repo.ListPayments(ctx, scope.GymID(), store.PaymentFilter{MemberID: &memberID})
}
