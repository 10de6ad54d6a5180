//go:build integration

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/pavitra93/gym-billing-system/shared/config"
	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("gym_billing"),
		postgrescontainer.WithUsername("billing"),
		postgrescontainer.WithPassword("billing"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := config.Open(dsn)
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func TestPostgresReceiptNumbering(t *testing.T) {
	ctx := context.Background()
	s := NewPostgres(openTestDB(t))

	gym := &models.Gym{Name: "Iron Temple", CountryCode: "91"}
	require.NoError(t, s.CreateGym(ctx, gym))
	member := &models.Member{
		GymID: gym.ID, Name: "Asha", Phone: "9876543210",
		MembershipFee: decimal.NewFromInt(500),
		JoinDate:      day, MembershipStartDate: day, MembershipEndDate: day.AddDate(0, 0, 30),
		IsActive: true,
	}
	require.NoError(t, s.CreateMember(ctx, member))

	prefix := models.ReceiptPrefix(gym.ID, day)
	const n = 10
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		p := &models.Payment{GymID: gym.ID, MemberID: member.ID, Amount: decimal.NewFromInt(100),
			Method: models.PaymentMethodCash, Status: models.PaymentStatusPaid, PaymentDate: day}
		require.NoError(t, s.CreatePayment(ctx, p))
		wg.Add(1)
		go func(paymentID uuid.UUID) {
			defer wg.Done()
			r := &models.Receipt{GymID: gym.ID, MemberID: member.ID, PaymentID: paymentID}
			require.NoError(t, s.CreateNumberedReceipt(ctx, r, prefix))
			numbers <- r.ReceiptNumber
		}(p.ID)
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for num := range numbers {
		require.False(t, seen[num])
		seen[num] = true
	}
	for seq := 1; seq <= n; seq++ {
		require.True(t, seen[models.ReceiptNumber(prefix, seq)])
	}
}

func TestPostgresTenantGuardAndUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewPostgres(openTestDB(t))

	gymA, gymB := &models.Gym{Name: "A"}, &models.Gym{Name: "B"}
	require.NoError(t, s.CreateGym(ctx, gymA))
	require.NoError(t, s.CreateGym(ctx, gymB))

	member := &models.Member{GymID: gymA.ID, Name: "Asha", Phone: "9876543210",
		JoinDate: day, MembershipStartDate: day, MembershipEndDate: day}
	require.NoError(t, s.CreateMember(ctx, member))

	_, err := s.GetMember(ctx, gymB.ID, member.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)

	dup := &models.Member{GymID: gymA.ID, Name: "Other", Phone: "9876543210",
		JoinDate: day, MembershipStartDate: day, MembershipEndDate: day}
	require.ErrorIs(t, s.CreateMember(ctx, dup), errs.ErrDuplicate)

	err = s.CreatePayment(ctx, &models.Payment{GymID: gymB.ID, MemberID: member.ID,
		Amount: decimal.NewFromInt(10), Method: models.PaymentMethodUPI, Status: models.PaymentStatusPaid, PaymentDate: day})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestPostgresReminderClaimIsExclusive(t *testing.T) {
	ctx := context.Background()
	s := NewPostgres(openTestDB(t))

	gym := &models.Gym{Name: "Iron Temple"}
	require.NoError(t, s.CreateGym(ctx, gym))
	member := &models.Member{GymID: gym.ID, Name: "Asha", Phone: "9876543210",
		JoinDate: day, MembershipStartDate: day, MembershipEndDate: day}
	require.NoError(t, s.CreateMember(ctx, member))
	r := &models.Reminder{GymID: gym.ID, MemberID: member.ID, Type: models.ReminderTypeMembershipExpiring,
		Message: "expiring", DueDate: day, Status: models.ReminderStatusPending}
	require.NoError(t, s.CreateReminder(ctx, r))

	now := time.Now()
	const n = 8
	var wg sync.WaitGroup
	won := make(chan uuid.UUID, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimID := uuid.New()
			if _, err := s.ClaimReminder(ctx, gym.ID, r.ID, claimID, now, now.Add(time.Minute)); err == nil {
				won <- claimID
			}
		}()
	}
	wg.Wait()
	close(won)
	require.Len(t, won, 1)
	winner := <-won

	r.MarkSent(now)
	require.ErrorIs(t, s.FinishReminder(ctx, r, uuid.New()), errs.ErrConflict)
	require.NoError(t, s.FinishReminder(ctx, r, winner))

	stored, err := s.GetReminder(ctx, gym.ID, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReminderStatusSent, stored.Status)
	require.Nil(t, stored.ClaimID)
}

func TestPostgresOneActiveExpiryReminder(t *testing.T) {
	ctx := context.Background()
	s := NewPostgres(openTestDB(t))

	gym := &models.Gym{Name: "Iron Temple"}
	require.NoError(t, s.CreateGym(ctx, gym))
	member := &models.Member{GymID: gym.ID, Name: "Asha", Phone: "9876543210",
		JoinDate: day, MembershipStartDate: day, MembershipEndDate: day}
	require.NoError(t, s.CreateMember(ctx, member))
	expiring := func() *models.Reminder {
		return &models.Reminder{GymID: gym.ID, MemberID: member.ID, Type: models.ReminderTypeMembershipExpiring,
			Message: "expiring", DueDate: day, Status: models.ReminderStatusPending}
	}

	first := expiring()
	require.NoError(t, s.CreateReminder(ctx, first))
	require.ErrorIs(t, s.CreateReminder(ctx, expiring()), errs.ErrDuplicate)

	first.MarkFailed("timeout")
	require.NoError(t, s.UpdateReminder(ctx, first))
	require.NoError(t, s.CreateReminder(ctx, expiring()))
}
