package members

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/models"
	"github.com/pavitra93/gym-billing-system/shared/tenant"
)

// PlanInput is the editable part of a membership plan
type PlanInput struct {
	Name         string              `json:"name"`
	Duration     models.PlanDuration `json:"duration"`
	DurationDays int                 `json:"duration_days"`
	Price        decimal.Decimal     `json:"price"`
	Description  string              `json:"description"`
	IsActive     *bool               `json:"is_active"`
}

func (in *PlanInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return errs.Invalid("name", "is required")
	}
	if !in.Duration.Valid() {
		return errs.Invalid("duration", "is not a known plan duration")
	}
	if in.DurationDays == 0 {
		in.DurationDays = in.Duration.DefaultDays()
	}
	if in.DurationDays <= 0 {
		return errs.Invalid("duration_days", "must be greater than zero")
	}
	if in.Price.IsNegative() {
		return errs.Invalid("price", "must not be negative")
	}
	return nil
}

func (in PlanInput) apply(p *models.MembershipPlan) {
	p.Name, p.Duration, p.DurationDays = in.Name, in.Duration, in.DurationDays
	p.Price, p.Description = in.Price, in.Description
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func (l *Ledger) CreatePlan(ctx context.Context, scope tenant.Scope, in PlanInput) (*models.MembershipPlan, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	plan := &models.MembershipPlan{GymID: scope.GymID(), IsActive: true}
	in.apply(plan)
	if err := l.repo.CreatePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create membership plan: %w", err)
	}
	return plan, nil
}

func (l *Ledger) GetPlan(ctx context.Context, scope tenant.Scope, planID uuid.UUID) (*models.MembershipPlan, error) {
	return l.repo.GetPlan(ctx, scope.GymID(), planID)
}

func (l *Ledger) UpdatePlan(ctx context.Context, scope tenant.Scope, planID uuid.UUID, in PlanInput) (*models.MembershipPlan, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	plan, err := l.repo.GetPlan(ctx, scope.GymID(), planID)
	if err != nil {
		return nil, err
	}
	in.apply(plan)
	if err := l.repo.UpdatePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update membership plan: %w", err)
	}
	return plan, nil
}

func (l *Ledger) DeletePlan(ctx context.Context, scope tenant.Scope, planID uuid.UUID) error {
	return l.repo.DeletePlan(ctx, scope.GymID(), planID)
}

func (l *Ledger) ListPlans(ctx context.Context, scope tenant.Scope, activeOnly bool) ([]models.MembershipPlan, error) {
	return l.repo.ListPlans(ctx, scope.GymID(), activeOnly)
}
