package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
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

const (
	kindReminder = "reminder"
	kindReceipt  = "receipt"
)

// Options tunes a Dispatcher. Zero values fall back to the defaults.
type Options struct {
	// Timeout bounds a single channel call. A call that runs out is a failure.
	Timeout time.Duration
	// Workers is how many reminders a bulk send delivers at once
	Workers int
	// ClaimTTL is how long a reminder stays claimed by one delivery. A claim
	// left behind by a crashed process lapses after it.
	ClaimTTL time.Duration
	Now      func() time.Time
	Log      logrus.FieldLogger
}

func (o *Options) defaults() {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.ClaimTTL < o.Timeout {
		o.ClaimTTL = o.Timeout + 30*time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
}

// Dispatcher sends reminders and receipts and records each outcome on the
// reminder or receipt. Failed sends are never retried here.
type Dispatcher struct {
	repo    store.Repository
	channel Channel
	trail   audit.Trail
	opts    Options
}

func NewDispatcher(repo store.Repository, channel Channel, trail audit.Trail, opts Options) *Dispatcher {
	opts.defaults()
	if trail == nil {
		trail = audit.Discard{}
	}
	return &Dispatcher{repo: repo, channel: channel, trail: trail, opts: opts}
}

// Delivery is the recorded outcome of one send
type Delivery struct {
	Reminder *models.Reminder `json:"reminder,omitempty"`
	Receipt  *models.Receipt  `json:"receipt,omitempty"`
	Result   Result           `json:"result"`
}

// BulkResult counts the outcome of a batch. Skipped reminders were not pending.
type BulkResult struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// enabledGym reloads the gym so a settings change applies to scopes resolved earlier
func (d *Dispatcher) enabledGym(ctx context.Context, scope tenant.Scope) (*models.Gym, error) {
	if !scope.Valid() {
		return nil, errs.Invalid("gym", "scope is not resolved")
	}
	gym, err := d.repo.GetGym(ctx, scope.GymID())
	if err != nil {
		return nil, err
	}
	if !gym.WhatsAppEnabled {
		return nil, &errs.ChannelDisabledError{GymID: gym.ID}
	}
	return gym, nil
}

// send calls the channel under the per-call timeout. It always reports a
// reason on failure, including when the deadline passed.
func (d *Dispatcher) send(ctx context.Context, phone, text string) Result {
	callCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	res := d.channel.Send(callCtx, phone, text)
	if res.Success && callCtx.Err() != nil {
		res = Result{Error: callCtx.Err().Error()}
	}
	if !res.Success && res.Error == "" {
		if err := callCtx.Err(); err != nil {
			res.Error = err.Error()
		} else {
			res.Error = "unknown error"
		}
	}
	return res
}

// SendReminder delivers a pending reminder. When the gym has messaging off it
// returns ChannelDisabled and leaves the reminder untouched. A failed send is
// recorded on the reminder and returned as a DeliveryFailureError together
// with the delivery.
func (d *Dispatcher) SendReminder(ctx context.Context, scope tenant.Scope, reminderID uuid.UUID) (*Delivery, error) {
	gym, err := d.enabledGym(ctx, scope)
	if err != nil {
		return nil, err
	}
	claimID, reminder, err := d.claim(ctx, scope, reminderID)
	if err != nil {
		return nil, err
	}
	return d.deliverReminder(ctx, scope, gym, reminder, claimID)
}

// claim takes the reminder for one delivery. Only pending reminders with no
// live claim can be taken, so overlapping sends deliver a reminder once.
func (d *Dispatcher) claim(ctx context.Context, scope tenant.Scope, reminderID uuid.UUID) (uuid.UUID, *models.Reminder, error) {
	claimID := uuid.New()
	now := d.opts.Now()
	reminder, err := d.repo.ClaimReminder(ctx, scope.GymID(), reminderID, claimID, now, now.Add(d.opts.ClaimTTL))
	if err != nil {
		return uuid.Nil, nil, err
	}
	return claimID, reminder, nil
}

func (d *Dispatcher) deliverReminder(ctx context.Context, scope tenant.Scope, gym *models.Gym, reminder *models.Reminder, claimID uuid.UUID) (*Delivery, error) {
	member, err := d.repo.GetMember(ctx, scope.GymID(), reminder.MemberID)
	if err != nil {
		return nil, err
	}

	res := d.send(ctx, NormalizePhone(member.Phone, gym.CountryCode), reminder.Message)
	if res.Success {
		reminder.MarkSent(d.opts.Now())
	} else {
		reminder.MarkFailed(res.Error)
	}
	if err := d.repo.FinishReminder(ctx, reminder, claimID); err != nil {
		return nil, fmt.Errorf("failed to record reminder delivery: %w", err)
	}

	log := d.opts.Log.WithFields(logrus.Fields{
		"gym_id":      scope.GymID(),
		"reminder_id": reminder.ID,
		"member_id":   member.ID,
	})
	delivery := &Delivery{Reminder: reminder, Result: res}
	if !res.Success {
		observability.RecordDelivery(kindReminder, "failed")
		log.WithField("error", res.Error).Warn("reminder delivery failed")
		return delivery, &errs.DeliveryFailureError{Reason: res.Error}
	}

	observability.RecordDelivery(kindReminder, "sent")
	log.WithField("message_id", res.MessageID).Info("reminder sent")
	d.trail.Record(scope.Activity(models.ActionReminderSent,
		fmt.Sprintf("Reminder sent to %s", member.Name)))
	return delivery, nil
}

// SendBulk delivers each listed reminder on its own. A failure never stops
// the others. Reminders that are not pending, or that an overlapping send is
// already delivering, are skipped, so calling it again does not resend anything.
func (d *Dispatcher) SendBulk(ctx context.Context, scope tenant.Scope, reminderIDs []uuid.UUID) (BulkResult, error) {
	gym, err := d.enabledGym(ctx, scope)
	if err != nil {
		return BulkResult{}, err
	}

	var (
		mu     sync.Mutex
		result BulkResult
		wg     sync.WaitGroup
	)
	count := func(sent, failed, skipped int) {
		mu.Lock()
		result.Sent += sent
		result.Failed += failed
		result.Skipped += skipped
		mu.Unlock()
	}

	ids := make(chan uuid.UUID)
	for i := 0; i < d.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				d.bulkOne(ctx, scope, gym, id, count)
			}
		}()
	}
	for _, id := range reminderIDs {
		ids <- id
	}
	close(ids)
	wg.Wait()

	d.opts.Log.WithFields(logrus.Fields{
		"gym_id":  scope.GymID(),
		"sent":    result.Sent,
		"failed":  result.Failed,
		"skipped": result.Skipped,
	}).Info("bulk reminder send finished")
	return result, nil
}

func (d *Dispatcher) bulkOne(ctx context.Context, scope tenant.Scope, gym *models.Gym, id uuid.UUID, count func(sent, failed, skipped int)) {
	claimID, reminder, err := d.claim(ctx, scope, id)
	if errors.Is(err, errs.ErrConflict) {
		observability.RecordDelivery(kindReminder, "skipped")
		count(0, 0, 1)
		return
	}
	if err != nil {
		d.opts.Log.WithFields(logrus.Fields{"gym_id": scope.GymID(), "reminder_id": id}).
			WithError(err).Warn("reminder not claimed for bulk send")
		count(0, 1, 0)
		return
	}
	if _, err := d.deliverReminder(ctx, scope, gym, reminder, claimID); err != nil {
		if !errors.Is(err, errs.ErrDelivery) {
			d.opts.Log.WithFields(logrus.Fields{"gym_id": scope.GymID(), "reminder_id": id}).
				WithError(err).Error("reminder delivery not recorded")
		}
		count(0, 1, 0)
		return
	}
	count(1, 0, 0)
}

// SendPending delivers every pending reminder of the scoped gym
func (d *Dispatcher) SendPending(ctx context.Context, scope tenant.Scope) (BulkResult, error) {
	if _, err := d.enabledGym(ctx, scope); err != nil {
		return BulkResult{}, err
	}
	pending, err := d.repo.ListReminders(ctx, scope.GymID(), store.ReminderFilter{
		Statuses: []models.ReminderStatus{models.ReminderStatusPending},
	})
	if err != nil {
		return BulkResult{}, fmt.Errorf("failed to list pending reminders: %w", err)
	}
	ids := make([]uuid.UUID, len(pending))
	for i := range pending {
		ids[i] = pending[i].ID
	}
	return d.SendBulk(ctx, scope, ids)
}

// SendReceipt delivers a receipt to its member and records the outcome on
// the receipt. Receipts can be sent any number of times.
func (d *Dispatcher) SendReceipt(ctx context.Context, scope tenant.Scope, receiptID uuid.UUID) (*Delivery, error) {
	gym, err := d.enabledGym(ctx, scope)
	if err != nil {
		return nil, err
	}
	receipt, err := d.repo.GetReceipt(ctx, scope.GymID(), receiptID)
	if err != nil {
		return nil, err
	}
	payment, err := d.repo.GetPayment(ctx, scope.GymID(), receipt.PaymentID)
	if err != nil {
		return nil, err
	}
	member, err := d.repo.GetMember(ctx, scope.GymID(), receipt.MemberID)
	if err != nil {
		return nil, err
	}

	res := d.send(ctx, NormalizePhone(member.Phone, gym.CountryCode), ReceiptMessage(*gym, *member, *payment, *receipt))
	if res.Success {
		at := d.opts.Now()
		receipt.SentViaNotification = true
		receipt.SentAt = &at
		receipt.DeliveryError = ""
	} else {
		receipt.DeliveryError = res.Error
	}
	if err := d.repo.UpdateReceipt(ctx, receipt); err != nil {
		return nil, fmt.Errorf("failed to record receipt delivery: %w", err)
	}

	log := d.opts.Log.WithFields(logrus.Fields{
		"gym_id":         scope.GymID(),
		"receipt_number": receipt.ReceiptNumber,
		"member_id":      member.ID,
	})
	delivery := &Delivery{Receipt: receipt, Result: res}
	if !res.Success {
		observability.RecordDelivery(kindReceipt, "failed")
		log.WithField("error", res.Error).Warn("receipt delivery failed")
		return delivery, &errs.DeliveryFailureError{Reason: res.Error}
	}

	observability.RecordDelivery(kindReceipt, "sent")
	log.WithField("message_id", res.MessageID).Info("receipt sent")
	d.trail.Record(scope.Activity(models.ActionReceiptSent,
		fmt.Sprintf("Receipt %s sent to %s", receipt.ReceiptNumber, member.Name)))
	return delivery, nil
}

// SendTest sends the configuration test message to phone
func (d *Dispatcher) SendTest(ctx context.Context, scope tenant.Scope, phone string) (Result, error) {
	gym, err := d.enabledGym(ctx, scope)
	if err != nil {
		return Result{}, err
	}
	if phone == "" {
		return Result{}, errs.Invalid("phone", "is required")
	}
	res := d.send(ctx, NormalizePhone(phone, gym.CountryCode), TestMessage(*gym))
	if !res.Success {
		return res, &errs.DeliveryFailureError{Reason: res.Error}
	}
	return res, nil
}
