// Package reports computes read-only summaries over a gym's payments and
// members. A storage failure never reaches the caller: the report degrades
// to zero totals and is flagged as degraded.
package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/members"
	"github.com/pavitra93/gym-billing-system/shared/models"
	"github.com/pavitra93/gym-billing-system/shared/observability"
	"github.com/pavitra93/gym-billing-system/shared/store"
	"github.com/pavitra93/gym-billing-system/shared/tenant"
)

// Cache stores serialized read models. utils.RedisCache satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Aggregator builds reports for one gym at a time
type Aggregator struct {
	repo     store.Repository
	now      func() time.Time
	log      logrus.FieldLogger
	cache    Cache
	cacheTTL time.Duration
}

func NewAggregator(repo store.Repository, now func() time.Time, log logrus.FieldLogger) *Aggregator {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Aggregator{repo: repo, now: now, log: log}
}

// WithCache caches dashboard stats for ttl
func (a *Aggregator) WithCache(cache Cache, ttl time.Duration) *Aggregator {
	a.cache = cache
	a.cacheTTL = ttl
	return a
}

func (a *Aggregator) today() time.Time {
	return models.Day(a.now())
}

// degrade logs and counts a failed aggregation
func (a *Aggregator) degrade(scope tenant.Scope, report string, err error) {
	aggErr := &errs.AggregationError{Report: report, Err: err}
	observability.RecordReportDegraded(report)
	a.log.WithFields(logrus.Fields{
		"gym_id": scope.GymID(),
		"report": report,
	}).WithError(aggErr).Warn("report degraded to zero totals")
}

// MethodTotal is the paid amount and count for one payment method
type MethodTotal struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int64           `json:"count"`
}

// DailyTotal is the paid amount on one calendar day
type DailyTotal struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// IncomeReport summarizes paid payments over a period. PaymentMethods holds
// every known method and DailyBreakdown every day of the range.
type IncomeReport struct {
	Period         Period                               `json:"period"`
	StartDate      string                               `json:"start_date"`
	EndDate        string                               `json:"end_date"`
	TotalIncome    decimal.Decimal                      `json:"total_income"`
	TotalPayments  int64                                `json:"total_payments"`
	PaymentMethods map[models.PaymentMethod]MethodTotal `json:"payment_methods"`
	DailyBreakdown []DailyTotal                         `json:"daily_breakdown"`
	Degraded       bool                                 `json:"degraded,omitempty"`
}

func newIncomeReport(period Period, start, end time.Time) *IncomeReport {
	if period == "" {
		period = PeriodThisMonth
	}
	report := &IncomeReport{
		Period:         period,
		StartDate:      start.Format(models.DateLayout),
		EndDate:        end.Format(models.DateLayout),
		TotalIncome:    decimal.Zero,
		PaymentMethods: make(map[models.PaymentMethod]MethodTotal, len(models.PaymentMethods)),
	}
	for _, m := range models.PaymentMethods {
		report.PaymentMethods[m] = MethodTotal{Amount: decimal.Zero}
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		report.DailyBreakdown = append(report.DailyBreakdown, DailyTotal{Date: d.Format(models.DateLayout), Amount: decimal.Zero})
	}
	return report
}

// Income reports paid income for period. from and to are used by custom periods.
func (a *Aggregator) Income(ctx context.Context, scope tenant.Scope, period Period, from, to *time.Time) (*IncomeReport, error) {
	if !scope.Valid() {
		return nil, errs.Invalid("gym", "scope is not resolved")
	}
	start, end, err := period.Range(a.today(), from, to)
	if err != nil {
		return nil, err
	}

	report := newIncomeReport(period, start, end)
	totals, err := a.repo.PaymentTotals(ctx, scope.GymID(), start, end)
	if err != nil {
		a.degrade(scope, "income", err)
		report.Degraded = true
		return report, nil
	}

	index := make(map[string]int, len(report.DailyBreakdown))
	for i, d := range report.DailyBreakdown {
		index[d.Date] = i
	}
	for _, t := range totals {
		report.TotalIncome = report.TotalIncome.Add(t.Amount)
		report.TotalPayments += t.Count

		mt := report.PaymentMethods[t.Method]
		mt.Amount = mt.Amount.Add(t.Amount)
		mt.Count += t.Count
		report.PaymentMethods[t.Method] = mt

		if i, ok := index[models.Day(t.Day).Format(models.DateLayout)]; ok {
			report.DailyBreakdown[i].Amount = report.DailyBreakdown[i].Amount.Add(t.Amount)
		}
	}
	return report, nil
}

// Summary is a paid total and count
type Summary struct {
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// PaymentStats is paid income today, this month and over the last seven days
type PaymentStats struct {
	Today     Summary `json:"today"`
	ThisMonth Summary `json:"this_month"`
	LastWeek  Summary `json:"last_week"`
	Degraded  bool    `json:"degraded,omitempty"`
}

func (a *Aggregator) PaymentStats(ctx context.Context, scope tenant.Scope) (*PaymentStats, error) {
	if !scope.Valid() {
		return nil, errs.Invalid("gym", "scope is not resolved")
	}
	today := a.today()
	month := monthStart(today)
	weekAgo := today.AddDate(0, 0, -7)
	from := month
	if weekAgo.Before(from) {
		from = weekAgo
	}

	stats := &PaymentStats{
		Today:     Summary{Total: decimal.Zero},
		ThisMonth: Summary{Total: decimal.Zero},
		LastWeek:  Summary{Total: decimal.Zero},
	}
	totals, err := a.repo.PaymentTotals(ctx, scope.GymID(), from, today)
	if err != nil {
		a.degrade(scope, "payment_stats", err)
		stats.Degraded = true
		return stats, nil
	}
	add := func(s *Summary, t store.PaymentTotal) {
		s.Total = s.Total.Add(t.Amount)
		s.Count += t.Count
	}
	for _, t := range totals {
		day := models.Day(t.Day)
		if day.Equal(today) {
			add(&stats.Today, t)
		}
		if !day.Before(month) {
			add(&stats.ThisMonth, t)
		}
		if !day.Before(weekAgo) {
			add(&stats.LastWeek, t)
		}
	}
	return stats, nil
}

// GenderDistribution counts members by gender
type GenderDistribution struct {
	Male   int `json:"male"`
	Female int `json:"female"`
	Other  int `json:"other"`
}

// TypeCount is the number of members with one membership type label
type TypeCount struct {
	MembershipType string `json:"membership_type"`
	Count          int    `json:"count"`
}

// PlanCount is the number of members on one plan
type PlanCount struct {
	PlanID uuid.UUID `json:"plan_id"`
	Name   string    `json:"name"`
	Count  int       `json:"count"`
}

// MemberReport summarizes the member base of a gym
type MemberReport struct {
	TotalMembers       int                `json:"total_members"`
	ActiveMembers      int                `json:"active_members"`
	InactiveMembers    int                `json:"inactive_members"`
	ExpiredMembers     int                `json:"expired_members"`
	NewThisMonth       int                `json:"new_this_month"`
	ExpiringSoon       int                `json:"expiring_soon"`
	GenderDistribution GenderDistribution `json:"gender_distribution"`
	MembershipTypes    []TypeCount        `json:"membership_types"`
	Plans              []PlanCount        `json:"plans"`
	Degraded           bool               `json:"degraded,omitempty"`
}

func (a *Aggregator) Members(ctx context.Context, scope tenant.Scope) (*MemberReport, error) {
	if !scope.Valid() {
		return nil, errs.Invalid("gym", "scope is not resolved")
	}
	report := &MemberReport{MembershipTypes: []TypeCount{}, Plans: []PlanCount{}}
	all, err := a.repo.ListMembers(ctx, scope.GymID(), store.MemberFilter{})
	if err != nil {
		a.degrade(scope, "members", err)
		report.Degraded = true
		return report, nil
	}
	plans, err := a.repo.ListPlans(ctx, scope.GymID(), false)
	if err != nil {
		a.degrade(scope, "members", err)
		report.Degraded = true
		return report, nil
	}

	today := a.today()
	month := monthStart(today)
	types := make(map[string]int)
	onPlan := make(map[uuid.UUID]int)
	for i := range all {
		m := &all[i]
		report.TotalMembers++
		switch members.ComputeStatus(m, today) {
		case members.StatusActive:
			report.ActiveMembers++
		case members.StatusExpiringSoon:
			report.ActiveMembers++
			report.ExpiringSoon++
		case members.StatusInactive:
			report.InactiveMembers++
		case members.StatusExpired:
			report.ExpiredMembers++
		}
		if !models.Day(m.JoinDate).Before(month) {
			report.NewThisMonth++
		}
		switch m.Gender {
		case models.GenderMale:
			report.GenderDistribution.Male++
		case models.GenderFemale:
			report.GenderDistribution.Female++
		case models.GenderOther:
			report.GenderDistribution.Other++
		}
		types[m.MembershipType]++
		if m.PlanID != nil {
			onPlan[*m.PlanID]++
		}
	}

	for t, n := range types {
		report.MembershipTypes = append(report.MembershipTypes, TypeCount{MembershipType: t, Count: n})
	}
	sort.Slice(report.MembershipTypes, func(i, j int) bool {
		return report.MembershipTypes[i].MembershipType < report.MembershipTypes[j].MembershipType
	})
	for _, p := range plans {
		report.Plans = append(report.Plans, PlanCount{PlanID: p.ID, Name: p.Name, Count: onPlan[p.ID]})
	}
	return report, nil
}

// DashboardStats is the headline view of a gym
type DashboardStats struct {
	TotalMembers    int             `json:"total_members"`
	ActiveMembers   int             `json:"active_members"`
	ExpiringSoon    int             `json:"expiring_soon"`
	ThisMonthIncome decimal.Decimal `json:"this_month_income"`
	Degraded        bool            `json:"degraded,omitempty"`
}

func (a *Aggregator) dashboardKey(scope tenant.Scope, today time.Time) string {
	return fmt.Sprintf("dashboard:%s:%s", scope.GymID(), today.Format(models.DateLayout))
}

// Dashboard returns the headline counts, from the cache when one is configured
func (a *Aggregator) Dashboard(ctx context.Context, scope tenant.Scope) (*DashboardStats, error) {
	if !scope.Valid() {
		return nil, errs.Invalid("gym", "scope is not resolved")
	}
	today := a.today()
	key := a.dashboardKey(scope, today)
	if a.cache != nil {
		var cached DashboardStats
		hit, err := a.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			a.log.WithField("gym_id", scope.GymID()).WithError(err).Warn("dashboard cache read failed")
		}
		if hit {
			return &cached, nil
		}
	}

	stats := &DashboardStats{ThisMonthIncome: decimal.Zero}
	memberReport, err := a.Members(ctx, scope)
	if err != nil {
		return nil, err
	}
	stats.TotalMembers = memberReport.TotalMembers
	stats.ActiveMembers = memberReport.ActiveMembers
	stats.ExpiringSoon = memberReport.ExpiringSoon
	stats.Degraded = memberReport.Degraded

	income, err := a.Income(ctx, scope, PeriodThisMonth, nil, nil)
	if err != nil {
		return nil, err
	}
	stats.ThisMonthIncome = income.TotalIncome
	stats.Degraded = stats.Degraded || income.Degraded

	if a.cache != nil && !stats.Degraded {
		if err := a.cache.SetJSON(ctx, key, stats, a.cacheTTL); err != nil {
			a.log.WithField("gym_id", scope.GymID()).WithError(err).Warn("dashboard cache write failed")
		}
	}
	return stats, nil
}

// DueMember is an active member with no paid payment this month
type DueMember struct {
	Member    members.View    `json:"member"`
	AmountDue decimal.Decimal `json:"amount_due"`
	Month     string          `json:"month"`
}

// MonthlyDue lists the members still owing for the current month
type MonthlyDue struct {
	Month    string      `json:"month"`
	TotalDue int         `json:"total_due"`
	Members  []DueMember `json:"members"`
	Degraded bool        `json:"degraded,omitempty"`
}

// MonthlyDueList returns active members without a PAID payment dated in the
// current calendar month. The month label on payments is not consulted.
func (a *Aggregator) MonthlyDueList(ctx context.Context, scope tenant.Scope) (*MonthlyDue, error) {
	if !scope.Valid() {
		return nil, errs.Invalid("gym", "scope is not resolved")
	}
	today := a.today()
	start := monthStart(today)
	end := start.AddDate(0, 1, -1)
	label := today.Format("January 2006")
	due := &MonthlyDue{Month: label, Members: []DueMember{}}

	active, err := a.repo.ListMembers(ctx, scope.GymID(), store.MemberFilter{ActiveOnly: true})
	if err != nil {
		a.degrade(scope, "monthly_due", err)
		due.Degraded = true
		return due, nil
	}
	paid, err := a.repo.ListPayments(ctx, scope.GymID(), store.PaymentFilter{
		Status: models.PaymentStatusPaid,
		From:   &start,
		To:     &end,
	})
	if err != nil {
		a.degrade(scope, "monthly_due", err)
		due.Degraded = true
		return due, nil
	}

	hasPaid := make(map[uuid.UUID]bool, len(paid))
	for _, p := range paid {
		hasPaid[p.MemberID] = true
	}
	for _, m := range active {
		if hasPaid[m.ID] {
			continue
		}
		due.Members = append(due.Members, DueMember{
			Member:    members.NewView(m, today),
			AmountDue: m.MembershipFee,
			Month:     label,
		})
	}
	due.TotalDue = len(due.Members)
	return due, nil
}
