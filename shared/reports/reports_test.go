package reports

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/gym-billing-system/shared/models"
	"github.com/pavitra93/gym-billing-system/shared/store"
	"github.com/pavitra93/gym-billing-system/shared/tenant"
)

var today = date(2025, 1, 10)

func clock() time.Time { return today.Add(18 * time.Hour) }

type fixture struct {
	repo  *store.Memory
	scope tenant.Scope
	agg   *Aggregator
}

func newFixture(t *testing.T, repo store.Repository, mem *store.Memory) *fixture {
	t.Helper()
	dir := tenant.NewDirectory(mem, "91")
	gym, err := dir.Onboard(context.Background(), tenant.GymInput{Name: "Iron Temple"})
	require.NoError(t, err)
	scope, err := dir.Resolve(context.Background(), gym.ID, tenant.Actor{UserID: "owner"})
	require.NoError(t, err)
	return &fixture{repo: mem, scope: scope, agg: NewAggregator(repo, clock, nil)}
}

func memoryFixture(t *testing.T) *fixture {
	mem := store.NewMemory()
	return newFixture(t, mem, mem)
}

func (f *fixture) member(t *testing.T, phone string, endIn int, active bool) *models.Member {
	t.Helper()
	m := &models.Member{
		GymID: f.scope.GymID(), Name: "Member " + phone, Phone: phone,
		Gender:              models.GenderFemale,
		MembershipType:      "Gold",
		MembershipFee:       decimal.NewFromInt(500),
		JoinDate:            today.AddDate(0, -2, 0),
		MembershipStartDate: today.AddDate(0, -2, 0),
		MembershipEndDate:   today.AddDate(0, 0, endIn),
		IsActive:            active,
	}
	require.NoError(t, f.repo.CreateMember(context.Background(), m))
	return m
}

func (f *fixture) pay(t *testing.T, m *models.Member, amount string, method models.PaymentMethod, day time.Time, status models.PaymentStatus) {
	t.Helper()
	require.NoError(t, f.repo.CreatePayment(context.Background(), &models.Payment{
		GymID: f.scope.GymID(), MemberID: m.ID,
		Amount: decimal.RequireFromString(amount), Method: method,
		PaymentDate: day, Status: status,
	}))
}

func TestIncomeWithoutPayments(t *testing.T) {
	f := memoryFixture(t)
	report, err := f.agg.Income(context.Background(), f.scope, PeriodThisMonth, nil, nil)
	require.NoError(t, err)
	require.True(t, report.TotalIncome.IsZero())
	require.Zero(t, report.TotalPayments)
	require.False(t, report.Degraded)
	require.Len(t, report.PaymentMethods, len(models.PaymentMethods))
	for _, m := range models.PaymentMethods {
		require.True(t, report.PaymentMethods[m].Amount.IsZero())
		require.Zero(t, report.PaymentMethods[m].Count)
	}
	require.Len(t, report.DailyBreakdown, 10)
	require.Equal(t, "2025-01-01", report.DailyBreakdown[0].Date)
	require.Equal(t, "2025-01-10", report.DailyBreakdown[9].Date)
}

func TestIncomeTotals(t *testing.T) {
	f := memoryFixture(t)
	m := f.member(t, "9000000001", 20, true)
	f.pay(t, m, "1500.00", models.PaymentMethodUPI, today, models.PaymentStatusPaid)
	f.pay(t, m, "500.50", models.PaymentMethodCash, date(2025, 1, 3), models.PaymentStatusPaid)
	f.pay(t, m, "250", models.PaymentMethodCash, date(2025, 1, 3), models.PaymentStatusPaid)
	f.pay(t, m, "999", models.PaymentMethodCard, today, models.PaymentStatusPending)
	f.pay(t, m, "999", models.PaymentMethodCard, today, models.PaymentStatusFailed)
	f.pay(t, m, "700", models.PaymentMethodUPI, date(2024, 12, 31), models.PaymentStatusPaid)

	report, err := f.agg.Income(context.Background(), f.scope, PeriodThisMonth, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "2250.5", report.TotalIncome.String())
	require.EqualValues(t, 3, report.TotalPayments)
	require.Equal(t, "750.5", report.PaymentMethods[models.PaymentMethodCash].Amount.String())
	require.EqualValues(t, 2, report.PaymentMethods[models.PaymentMethodCash].Count)
	require.EqualValues(t, 1, report.PaymentMethods[models.PaymentMethodUPI].Count)
	require.Zero(t, report.PaymentMethods[models.PaymentMethodCard].Count)
	require.Equal(t, "750.5", report.DailyBreakdown[2].Amount.String())
	require.True(t, report.DailyBreakdown[3].Amount.IsZero())
	require.Equal(t, "1500", report.DailyBreakdown[9].Amount.String())

	sum := decimal.Zero
	for _, d := range report.DailyBreakdown {
		sum = sum.Add(d.Amount)
	}
	require.True(t, sum.Equal(report.TotalIncome))
}

func TestIncomeCustomRange(t *testing.T) {
	f := memoryFixture(t)
	m := f.member(t, "9000000001", 20, true)
	f.pay(t, m, "700", models.PaymentMethodUPI, date(2024, 12, 31), models.PaymentStatusPaid)
	from, to := date(2024, 12, 30), date(2025, 1, 1)

	report, err := f.agg.Income(context.Background(), f.scope, PeriodCustom, &from, &to)
	require.NoError(t, err)
	require.Len(t, report.DailyBreakdown, 3)
	require.Equal(t, "700", report.TotalIncome.String())
}

func TestReportsStayInTenant(t *testing.T) {
	f := memoryFixture(t)
	m := f.member(t, "9000000001", 20, true)
	f.pay(t, m, "700", models.PaymentMethodUPI, today, models.PaymentStatusPaid)

	dir := tenant.NewDirectory(f.repo, "91")
	gym, err := dir.Onboard(context.Background(), tenant.GymInput{Name: "Next Door"})
	require.NoError(t, err)
	scope, err := dir.Resolve(context.Background(), gym.ID, tenant.SystemActor)
	require.NoError(t, err)

	report, err := f.agg.Income(context.Background(), scope, PeriodToday, nil, nil)
	require.NoError(t, err)
	require.True(t, report.TotalIncome.IsZero())
}

// brokenRepo fails every aggregate read
type brokenRepo struct {
	*store.Memory
}

var errStorage = errors.New("connection reset")

func (brokenRepo) PaymentTotals(context.Context, uuid.UUID, time.Time, time.Time) ([]store.PaymentTotal, error) {
	return nil, errStorage
}

func (brokenRepo) ListMembers(context.Context, uuid.UUID, store.MemberFilter) ([]models.Member, error) {
	return nil, errStorage
}

func TestReportsDegradeOnStorageFailure(t *testing.T) {
	mem := store.NewMemory()
	f := newFixture(t, brokenRepo{mem}, mem)
	ctx := context.Background()

	income, err := f.agg.Income(ctx, f.scope, PeriodThisWeek, nil, nil)
	require.NoError(t, err)
	require.True(t, income.Degraded)
	require.True(t, income.TotalIncome.IsZero())
	require.Len(t, income.PaymentMethods, len(models.PaymentMethods))
	require.Len(t, income.DailyBreakdown, 5)

	stats, err := f.agg.PaymentStats(ctx, f.scope)
	require.NoError(t, err)
	require.True(t, stats.Degraded)

	members, err := f.agg.Members(ctx, f.scope)
	require.NoError(t, err)
	require.True(t, members.Degraded)

	dash, err := f.agg.Dashboard(ctx, f.scope)
	require.NoError(t, err)
	require.True(t, dash.Degraded)
	require.True(t, dash.ThisMonthIncome.IsZero())

	due, err := f.agg.MonthlyDueList(ctx, f.scope)
	require.NoError(t, err)
	require.True(t, due.Degraded)
	require.Empty(t, due.Members)
}

func TestPaymentStats(t *testing.T) {
	f := memoryFixture(t)
	m := f.member(t, "9000000001", 20, true)
	f.pay(t, m, "100", models.PaymentMethodCash, today, models.PaymentStatusPaid)
	f.pay(t, m, "200", models.PaymentMethodCash, date(2025, 1, 2), models.PaymentStatusPaid)
	f.pay(t, m, "400", models.PaymentMethodCash, date(2025, 1, 3), models.PaymentStatusPaid)
	f.pay(t, m, "800", models.PaymentMethodCash, date(2024, 12, 31), models.PaymentStatusPaid)

	stats, err := f.agg.PaymentStats(context.Background(), f.scope)
	require.NoError(t, err)
	require.Equal(t, "100", stats.Today.Total.String())
	require.EqualValues(t, 1, stats.Today.Count)
	require.Equal(t, "700", stats.ThisMonth.Total.String())
	require.EqualValues(t, 3, stats.ThisMonth.Count)
	require.Equal(t, "500", stats.LastWeek.Total.String())
	require.EqualValues(t, 2, stats.LastWeek.Count)
}

func TestMemberReport(t *testing.T) {
	f := memoryFixture(t)
	f.member(t, "9000000001", 20, true)
	f.member(t, "9000000002", 3, true)
	f.member(t, "9000000003", -2, true)
	f.member(t, "9000000004", 30, false)
	fresh := &models.Member{
		GymID: f.scope.GymID(), Name: "Fresh", Phone: "9000000005", Gender: models.GenderMale,
		MembershipFee: decimal.NewFromInt(800), JoinDate: today, MembershipStartDate: today,
		MembershipEndDate: today.AddDate(0, 1, 0), IsActive: true,
	}
	require.NoError(t, f.repo.CreateMember(context.Background(), fresh))

	report, err := f.agg.Members(context.Background(), f.scope)
	require.NoError(t, err)
	require.Equal(t, 5, report.TotalMembers)
	require.Equal(t, 3, report.ActiveMembers)
	require.Equal(t, 1, report.ExpiringSoon)
	require.Equal(t, 1, report.ExpiredMembers)
	require.Equal(t, 1, report.InactiveMembers)
	require.Equal(t, 1, report.NewThisMonth)
	require.Equal(t, GenderDistribution{Male: 1, Female: 4}, report.GenderDistribution)
	require.Equal(t, []TypeCount{{MembershipType: "", Count: 1}, {MembershipType: "Gold", Count: 4}}, report.MembershipTypes)
}

func TestMonthlyDueListUsesPaymentDate(t *testing.T) {
	f := memoryFixture(t)
	paid := f.member(t, "9000000001", 20, true)
	owing := f.member(t, "9000000002", 20, true)
	f.member(t, "9000000003", 20, false)
	late := f.member(t, "9000000004", 20, true)

	f.pay(t, paid, "500", models.PaymentMethodCash, date(2025, 1, 2), models.PaymentStatusPaid)
	f.pay(t, owing, "500", models.PaymentMethodCash, date(2025, 1, 2), models.PaymentStatusPending)
	f.pay(t, late, "500", models.PaymentMethodCash, date(2024, 12, 28), models.PaymentStatusPaid)

	due, err := f.agg.MonthlyDueList(context.Background(), f.scope)
	require.NoError(t, err)
	require.Equal(t, "January 2025", due.Month)
	require.Equal(t, 2, due.TotalDue)
	ids := map[uuid.UUID]bool{}
	for _, d := range due.Members {
		ids[d.Member.ID] = true
		require.Equal(t, "500", d.AmountDue.String())
	}
	require.True(t, ids[owing.ID])
	require.True(t, ids[late.ID])
}

type mapCache struct {
	mu     sync.Mutex
	values map[string][]byte
	gets   int
}

func (c *mapCache) GetJSON(_ context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	raw, ok := c.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *mapCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = raw
	return nil
}

func TestDashboardIsCached(t *testing.T) {
	f := memoryFixture(t)
	cache := &mapCache{values: map[string][]byte{}}
	f.agg.WithCache(cache, time.Minute)
	m := f.member(t, "9000000001", 3, true)
	f.pay(t, m, "1500", models.PaymentMethodUPI, today, models.PaymentStatusPaid)

	first, err := f.agg.Dashboard(context.Background(), f.scope)
	require.NoError(t, err)
	require.Equal(t, 1, first.TotalMembers)
	require.Equal(t, 1, first.ExpiringSoon)
	require.Equal(t, "1500", first.ThisMonthIncome.String())
	require.Len(t, cache.values, 1)

	f.pay(t, m, "100", models.PaymentMethodUPI, today, models.PaymentStatusPaid)
	second, err := f.agg.Dashboard(context.Background(), f.scope)
	require.NoError(t, err)
	require.True(t, second.ThisMonthIncome.Equal(first.ThisMonthIncome))
	require.Equal(t, 2, cache.gets)
}
