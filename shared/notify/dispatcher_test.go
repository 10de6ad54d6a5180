package notify

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/gym-billing-system/shared/audit"
	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/models"
	"github.com/pavitra93/gym-billing-system/shared/store"
	"github.com/pavitra93/gym-billing-system/shared/tenant"
)

var sentAt = time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)

// recordingChannel fails for phones listed in failFor
type recordingChannel struct {
	mu      sync.Mutex
	sent    map[string][]string
	failFor map[string]bool
}

func newRecordingChannel(failFor ...string) *recordingChannel {
	c := &recordingChannel{sent: make(map[string][]string), failFor: make(map[string]bool)}
	for _, p := range failFor {
		c.failFor[p] = true
	}
	return c
}

func (c *recordingChannel) Send(_ context.Context, phone, text string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent[phone] = append(c.sent[phone], text)
	if c.failFor[phone] {
		return Result{Error: "API Error: 400 - invalid recipient"}
	}
	return Result{Success: true, MessageID: "wamid." + phone}
}

func (c *recordingChannel) count(phone string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent[phone])
}

type fixture struct {
	repo  *store.Memory
	dir   *tenant.Directory
	scope tenant.Scope
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := store.NewMemory()
	dir := tenant.NewDirectory(repo, "91")
	gym, err := dir.Onboard(context.Background(), tenant.GymInput{Name: "Iron Temple", Phone: "080-555-0101", Email: "desk@irontemple.in"})
	require.NoError(t, err)
	scope, err := dir.Resolve(context.Background(), gym.ID, tenant.Actor{UserID: "owner"})
	require.NoError(t, err)
	return &fixture{repo: repo, dir: dir, scope: scope}
}

func (f *fixture) dispatcher(ch Channel, timeout time.Duration) *Dispatcher {
	return NewDispatcher(f.repo, ch, audit.NewSyncTrail(audit.NewStoreSink(f.repo)), Options{
		Timeout: timeout,
		Now:     func() time.Time { return sentAt },
	})
}

func (f *fixture) member(t *testing.T, phone string) *models.Member {
	t.Helper()
	m := &models.Member{
		GymID: f.scope.GymID(), Name: "Member " + phone, Phone: phone,
		MembershipFee:       decimal.NewFromInt(500),
		JoinDate:            sentAt,
		MembershipStartDate: models.Day(sentAt),
		MembershipEndDate:   models.Day(sentAt).AddDate(0, 0, 3),
		IsActive:            true,
	}
	require.NoError(t, f.repo.CreateMember(context.Background(), m))
	return m
}

func (f *fixture) reminder(t *testing.T, m *models.Member) *models.Reminder {
	t.Helper()
	r := &models.Reminder{
		GymID: f.scope.GymID(), MemberID: m.ID,
		Type:    models.ReminderTypeMembershipExpiring,
		Message: "Dear " + m.Name, DueDate: m.MembershipEndDate,
		Status: models.ReminderStatusPending,
	}
	require.NoError(t, f.repo.CreateReminder(context.Background(), r))
	return r
}

func (f *fixture) disableChannel(t *testing.T) {
	t.Helper()
	off := false
	_, err := f.dir.Update(context.Background(), f.scope, tenant.GymInput{Name: "Iron Temple", WhatsAppEnabled: &off})
	require.NoError(t, err)
}

func TestSendReminderSuccess(t *testing.T) {
	f := newFixture(t)
	ch := newRecordingChannel()
	m := f.member(t, "09876543210")
	r := f.reminder(t, m)

	delivery, err := f.dispatcher(ch, time.Second).SendReminder(context.Background(), f.scope, r.ID)
	require.NoError(t, err)
	require.True(t, delivery.Result.Success)
	require.Equal(t, 1, ch.count("919876543210"))

	stored, err := f.repo.GetReminder(context.Background(), f.scope.GymID(), r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReminderStatusSent, stored.Status)
	require.Equal(t, "Delivered", stored.DeliveryStatus)
	require.NotNil(t, stored.SentAt)
	require.True(t, stored.SentAt.Equal(sentAt))

	logged := f.repo.Activities()
	require.Len(t, logged, 1)
	require.Equal(t, models.ActionReminderSent, logged[0].Action)
}

func TestSendReminderFailureIsRecorded(t *testing.T) {
	f := newFixture(t)
	ch := newRecordingChannel("919876543210")
	r := f.reminder(t, f.member(t, "+91 98765 43210"))
	d := f.dispatcher(ch, time.Second)

	delivery, err := d.SendReminder(context.Background(), f.scope, r.ID)
	require.ErrorIs(t, err, errs.ErrDelivery)
	require.NotNil(t, delivery)
	require.Equal(t, models.ReminderStatusFailed, delivery.Reminder.Status)

	stored, err := f.repo.GetReminder(context.Background(), f.scope.GymID(), r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReminderStatusFailed, stored.Status)
	require.Equal(t, "API Error: 400 - invalid recipient", stored.ErrorMessage)
	require.Nil(t, stored.SentAt)
	require.Empty(t, f.repo.Activities())

	// no automatic retry: a failed reminder must be requeued first
	_, err = d.SendReminder(context.Background(), f.scope, r.ID)
	require.ErrorIs(t, err, errs.ErrConflict)
	require.Equal(t, 1, ch.count("919876543210"))
}

func TestSendReminderTimeoutMarksFailed(t *testing.T) {
	f := newFixture(t)
	slow := ChannelFunc(func(ctx context.Context, _, _ string) Result {
		<-ctx.Done()
		return Result{}
	})
	r := f.reminder(t, f.member(t, "9876543210"))

	_, err := f.dispatcher(slow, 20*time.Millisecond).SendReminder(context.Background(), f.scope, r.ID)
	require.ErrorIs(t, err, errs.ErrDelivery)

	stored, err := f.repo.GetReminder(context.Background(), f.scope.GymID(), r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReminderStatusFailed, stored.Status)
	require.Equal(t, context.DeadlineExceeded.Error(), stored.ErrorMessage)
}

func TestSendReminderChannelDisabled(t *testing.T) {
	f := newFixture(t)
	ch := newRecordingChannel()
	r := f.reminder(t, f.member(t, "9876543210"))
	f.disableChannel(t)
	d := f.dispatcher(ch, time.Second)

	_, err := d.SendReminder(context.Background(), f.scope, r.ID)
	require.ErrorIs(t, err, errs.ErrChannelDisabled)
	_, err = d.SendBulk(context.Background(), f.scope, []uuid.UUID{r.ID})
	require.ErrorIs(t, err, errs.ErrChannelDisabled)
	_, err = d.SendPending(context.Background(), f.scope)
	require.ErrorIs(t, err, errs.ErrChannelDisabled)

	stored, err := f.repo.GetReminder(context.Background(), f.scope.GymID(), r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReminderStatusPending, stored.Status)
	require.Empty(t, stored.ErrorMessage)
	require.Zero(t, ch.count("919876543210"))
}

func TestSendReminderOtherGym(t *testing.T) {
	f := newFixture(t)
	r := f.reminder(t, f.member(t, "9876543210"))
	other, err := f.dir.Onboard(context.Background(), tenant.GymInput{Name: "Other"})
	require.NoError(t, err)
	otherScope, err := f.dir.Resolve(context.Background(), other.ID, tenant.SystemActor)
	require.NoError(t, err)

	_, err = f.dispatcher(newRecordingChannel(), time.Second).SendReminder(context.Background(), otherScope, r.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSendBulkIsIndependentAndRepeatable(t *testing.T) {
	f := newFixture(t)
	ch := newRecordingChannel("919000000002")
	var ids []uuid.UUID
	for _, phone := range []string{"9000000001", "9000000002", "9000000003", "9000000004"} {
		ids = append(ids, f.reminder(t, f.member(t, phone)).ID)
	}
	ids = append(ids, uuid.New())
	d := f.dispatcher(ch, time.Second)

	result, err := d.SendBulk(context.Background(), f.scope, ids)
	require.NoError(t, err)
	require.Equal(t, BulkResult{Sent: 3, Failed: 2}, result)

	again, err := d.SendBulk(context.Background(), f.scope, ids)
	require.NoError(t, err)
	require.Equal(t, BulkResult{Failed: 1, Skipped: 4}, again)
	require.Equal(t, 1, ch.count("919000000001"))
	require.Equal(t, 1, ch.count("919000000002"))
}

func TestOverlappingBulkSendsDeliverOnce(t *testing.T) {
	f := newFixture(t)
	r := f.reminder(t, f.member(t, "9000000001"))
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	gated := ChannelFunc(func(context.Context, string, string) Result {
		mu.Lock()
		calls++
		mu.Unlock()
		close(entered)
		<-release
		return Result{Success: true, MessageID: "wamid.1"}
	})
	d := f.dispatcher(gated, time.Second)

	first := make(chan BulkResult, 1)
	go func() {
		result, _ := d.SendBulk(context.Background(), f.scope, []uuid.UUID{r.ID})
		first <- result
	}()
	<-entered

	second, err := d.SendBulk(context.Background(), f.scope, []uuid.UUID{r.ID})
	require.NoError(t, err)
	require.Equal(t, BulkResult{Skipped: 1}, second)

	_, err = d.SendReminder(context.Background(), f.scope, r.ID)
	require.ErrorIs(t, err, errs.ErrConflict)

	close(release)
	require.Equal(t, BulkResult{Sent: 1}, <-first)
	require.Equal(t, 1, calls)

	stored, err := f.repo.GetReminder(context.Background(), f.scope.GymID(), r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReminderStatusSent, stored.Status)
	require.Nil(t, stored.ClaimID)
}

func TestSendPending(t *testing.T) {
	f := newFixture(t)
	ch := newRecordingChannel()
	f.reminder(t, f.member(t, "9000000001"))
	f.reminder(t, f.member(t, "9000000002"))
	d := f.dispatcher(ch, time.Second)

	result, err := d.SendPending(context.Background(), f.scope)
	require.NoError(t, err)
	require.Equal(t, BulkResult{Sent: 2}, result)

	result, err = d.SendPending(context.Background(), f.scope)
	require.NoError(t, err)
	require.Equal(t, BulkResult{}, result)
}

func TestSendReceipt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.member(t, "9876543210")
	p := &models.Payment{
		GymID: f.scope.GymID(), MemberID: m.ID,
		Amount: decimal.RequireFromString("1500"), Method: models.PaymentMethodBankTransfer,
		PaymentDate: models.Day(sentAt), Month: "January 2025", Status: models.PaymentStatusPaid,
	}
	require.NoError(t, f.repo.CreatePayment(ctx, p))
	receipt := &models.Receipt{GymID: f.scope.GymID(), MemberID: m.ID, PaymentID: p.ID}
	require.NoError(t, f.repo.CreateNumberedReceipt(ctx, receipt, models.ReceiptPrefix(f.scope.GymID(), sentAt)))

	ch := newRecordingChannel()
	delivery, err := f.dispatcher(ch, time.Second).SendReceipt(ctx, f.scope, receipt.ID)
	require.NoError(t, err)
	require.True(t, delivery.Receipt.SentViaNotification)

	stored, err := f.repo.GetReceipt(ctx, f.scope.GymID(), receipt.ID)
	require.NoError(t, err)
	require.True(t, stored.SentViaNotification)
	require.NotNil(t, stored.SentAt)

	msg := ch.sent["919876543210"][0]
	require.Contains(t, msg, "Receipt #"+receipt.ReceiptNumber)
	require.Contains(t, msg, "Amount: ₹1500.00")
	require.Contains(t, msg, "Date: 10-Jan-2025")
	require.Contains(t, msg, "Method: Bank Transfer")
	require.Contains(t, msg, "Month: January 2025")
	require.True(t, strings.HasSuffix(msg, "Thank you for being with us!"))

	logged := f.repo.Activities()
	require.Len(t, logged, 1)
	require.Equal(t, models.ActionReceiptSent, logged[0].Action)
	require.Contains(t, logged[0].Description, receipt.ReceiptNumber)
}

func TestSendReceiptFailureRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.member(t, "9876543210")
	p := &models.Payment{GymID: f.scope.GymID(), MemberID: m.ID, Amount: decimal.NewFromInt(10),
		Method: models.PaymentMethodCash, PaymentDate: models.Day(sentAt), Status: models.PaymentStatusPaid}
	require.NoError(t, f.repo.CreatePayment(ctx, p))
	receipt := &models.Receipt{GymID: f.scope.GymID(), MemberID: m.ID, PaymentID: p.ID}
	require.NoError(t, f.repo.CreateNumberedReceipt(ctx, receipt, models.ReceiptPrefix(f.scope.GymID(), sentAt)))

	_, err := f.dispatcher(newRecordingChannel("919876543210"), time.Second).SendReceipt(ctx, f.scope, receipt.ID)
	require.ErrorIs(t, err, errs.ErrDelivery)

	stored, err := f.repo.GetReceipt(ctx, f.scope.GymID(), receipt.ID)
	require.NoError(t, err)
	require.False(t, stored.SentViaNotification)
	require.Equal(t, "API Error: 400 - invalid recipient", stored.DeliveryError)
}

func TestSendTest(t *testing.T) {
	f := newFixture(t)
	ch := newRecordingChannel()
	d := f.dispatcher(ch, time.Second)

	_, err := d.SendTest(context.Background(), f.scope, "")
	require.ErrorIs(t, err, errs.ErrValidation)

	res, err := d.SendTest(context.Background(), f.scope, "09876543210")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Contains(t, ch.sent["919876543210"][0], "Test Message from Iron Temple")
}
