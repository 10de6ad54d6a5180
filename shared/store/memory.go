package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/models"
)

// Memory is an in-process Repository with the same tenant guard and uniqueness
// rules as Postgres. It backs tests and dry runs.
type Memory struct {
	mu         sync.Mutex
	gyms       map[uuid.UUID]models.Gym
	plans      map[uuid.UUID]models.MembershipPlan
	members    map[uuid.UUID]models.Member
	payments   map[uuid.UUID]models.Payment
	receipts   map[uuid.UUID]models.Receipt
	reminders  map[uuid.UUID]models.Reminder
	attendance []models.MemberAttendance
	activities []models.ActivityLog
	now        func() time.Time
}

// NewMemory returns an empty store
func NewMemory() *Memory {
	return &Memory{
		gyms:      make(map[uuid.UUID]models.Gym),
		plans:     make(map[uuid.UUID]models.MembershipPlan),
		members:   make(map[uuid.UUID]models.Member),
		payments:  make(map[uuid.UUID]models.Payment),
		receipts:  make(map[uuid.UUID]models.Receipt),
		reminders: make(map[uuid.UUID]models.Reminder),
		now:       time.Now,
	}
}

// Activities returns a copy of every appended activity entry
func (m *Memory) Activities() []models.ActivityLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ActivityLog(nil), m.activities...)
}

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (m *Memory) CreateGym(_ context.Context, gym *models.Gym) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	assignID(&gym.ID)
	if _, ok := m.gyms[gym.ID]; ok {
		return fmt.Errorf("%w: gyms_pkey", errs.ErrDuplicate)
	}
	gym.CreatedAt, gym.UpdatedAt = m.now(), m.now()
	m.gyms[gym.ID] = *gym
	return nil
}

func (m *Memory) GetGym(_ context.Context, gymID uuid.UUID) (*models.Gym, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gym, ok := m.gyms[gymID]
	if !ok {
		return nil, errs.NotFound("gym", gymID)
	}
	return &gym, nil
}

func (m *Memory) UpdateGym(_ context.Context, gym *models.Gym) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.gyms[gym.ID]
	if !ok {
		return errs.NotFound("gym", gym.ID)
	}
	gym.CreatedAt, gym.UpdatedAt = old.CreatedAt, m.now()
	m.gyms[gym.ID] = *gym
	return nil
}

func (m *Memory) ListGyms(_ context.Context) ([]models.Gym, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Gym, 0, len(m.gyms))
	for _, g := range m.gyms {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CreatePlan(_ context.Context, plan *models.MembershipPlan) error {
	if err := requireGym(plan.GymID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	assignID(&plan.ID)
	plan.CreatedAt, plan.UpdatedAt = m.now(), m.now()
	m.plans[plan.ID] = *plan
	return nil
}

func (m *Memory) GetPlan(_ context.Context, gymID, planID uuid.UUID) (*models.MembershipPlan, error) {
	if err := requireGym(gymID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.plans[planID]
	if !ok || plan.GymID != gymID {
		return nil, errs.NotFound("membership plan", planID)
	}
	return &plan, nil
}

func (m *Memory) UpdatePlan(_ context.Context, plan *models.MembershipPlan) error {
	if err := requireGym(plan.GymID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.plans[plan.ID]
	if !ok || old.GymID != plan.GymID {
		return errs.NotFound("membership plan", plan.ID)
	}
	plan.CreatedAt, plan.UpdatedAt = old.CreatedAt, m.now()
	m.plans[plan.ID] = *plan
	return nil
}

func (m *Memory) DeletePlan(_ context.Context, gymID, planID uuid.UUID) error {
	if err := requireGym(gymID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.plans[planID]
	if !ok || plan.GymID != gymID {
		return errs.NotFound("membership plan", planID)
	}
	delete(m.plans, planID)
	return nil
}

func (m *Memory) ListPlans(_ context.Context, gymID uuid.UUID, activeOnly bool) ([]models.MembershipPlan, error) {
	if err := requireGym(gymID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.MembershipPlan
	for _, p := range m.plans {
		if p.GymID != gymID || (activeOnly && !p.IsActive) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DurationDays < out[j].DurationDays })
	return out, nil
}

func (m *Memory) phoneTaken(gymID, memberID uuid.UUID, phone string) bool {
	for _, other := range m.members {
		if other.GymID == gymID && other.Phone == phone && other.ID != memberID {
			return true
		}
	}
	return false
}

func (m *Memory) CreateMember(_ context.Context, member *models.Member) error {
	if err := requireGym(member.GymID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	assignID(&member.ID)
	if m.phoneTaken(member.GymID, member.ID, member.Phone) {
		return fmt.Errorf("%w: idx_members_gym_phone", errs.ErrDuplicate)
	}
	member.CreatedAt, member.UpdatedAt = m.now(), m.now()
	m.members[member.ID] = *member
	return nil
}

func (m *Memory) GetMember(_ context.Context, gymID, memberID uuid.UUID) (*models.Member, error) {
	if err := requireGym(gymID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.members[memberID]
	if !ok || member.GymID != gymID {
		return nil, errs.NotFound("member", memberID)
	}
	return &member, nil
}

func (m *Memory) UpdateMember(_ context.Context, member *models.Member) error {
	if err := requireGym(member.GymID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.members[member.ID]
	if !ok || old.GymID != member.GymID {
		return errs.NotFound("member", member.ID)
	}
	if m.phoneTaken(member.GymID, member.ID, member.Phone) {
		return fmt.Errorf("%w: idx_members_gym_phone", errs.ErrDuplicate)
	}
	member.CreatedAt, member.UpdatedAt = old.CreatedAt, m.now()
	m.members[member.ID] = *member
	return nil
}

func (m *Memory) DeleteMember(_ context.Context, gymID, memberID uuid.UUID) error {
	if err := requireGym(gymID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.members[memberID]
	if !ok || member.GymID != gymID {
		return errs.NotFound("member", memberID)
	}
	for id, r := range m.receipts {
		if r.MemberID == memberID {
			delete(m.receipts, id)
		}
	}
	for id, r := range m.reminders {
		if r.MemberID == memberID {
			delete(m.reminders, id)
		}
	}
	for id, p := range m.payments {
		if p.MemberID == memberID {
			delete(m.payments, id)
		}
	}
	kept := m.attendance[:0]
	for _, a := range m.attendance {
		if a.MemberID != memberID {
			kept = append(kept, a)
		}
	}
	m.attendance = kept
	delete(m.members, memberID)
	return nil
}

func (m *Memory) ListMembers(_ context.Context, gymID uuid.UUID, filter MemberFilter) ([]models.Member, error) {
	if err := requireGym(gymID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	search := strings.ToLower(filter.Search)
	var out []models.Member
	for _, mem := range m.members {
		end := models.Day(mem.MembershipEndDate)
		switch {
		case mem.GymID != gymID:
		case filter.ActiveOnly && !mem.IsActive:
		case search != "" && !strings.Contains(strings.ToLower(mem.Name), search) && !strings.Contains(mem.Phone, search):
		case filter.PlanID != nil && (mem.PlanID == nil || *mem.PlanID != *filter.PlanID):
		case filter.EndFrom != nil && end.Before(models.Day(*filter.EndFrom)):
		case filter.EndTo != nil && end.After(models.Day(*filter.EndTo)):
		case filter.EndBefore != nil && !end.Before(models.Day(*filter.EndBefore)):
		default:
			out = append(out, mem)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MembershipEndDate.Equal(out[j].MembershipEndDate) {
			return out[i].MembershipEndDate.Before(out[j].MembershipEndDate)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Memory) CreateAttendance(_ context.Context, attendance *models.MemberAttendance) error {
	if err := requireGym(attendance.GymID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.members[attendance.MemberID]
	if !ok || member.GymID != attendance.GymID {
		return errs.NotFound("member", attendance.MemberID)
	}
	assignID(&attendance.ID)
	if attendance.CheckInTime.IsZero() {
		attendance.CheckInTime = m.now()
	}
	stored := *attendance
	stored.Member = nil
	m.attendance = append(m.attendance, stored)
	return nil
}

func (m *Memory) ListAttendance(_ context.Context, gymID uuid.UUID, filter AttendanceFilter) ([]models.MemberAttendance, error) {
	if err := requireGym(gymID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.MemberAttendance
	for _, a := range m.attendance {
		switch {
		case a.GymID != gymID:
		case filter.MemberID != nil && a.MemberID != *filter.MemberID:
		case filter.CheckInFrom != nil && a.CheckInTime.Before(*filter.CheckInFrom):
		case filter.CheckInBefore != nil && !a.CheckInTime.Before(*filter.CheckInBefore):
		default:
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckInTime.After(out[j].CheckInTime) })
	return out, nil
}

func (m *Memory) CreatePayment(_ context.Context, payment *models.Payment) error {
	if err := requireGym(payment.GymID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.members[payment.MemberID]
	if !ok || member.GymID != payment.GymID {
		return errs.NotFound("member", payment.MemberID)
	}
	assignID(&payment.ID)
	payment.CreatedAt, payment.UpdatedAt = m.now(), m.now()
	stored := *payment
	stored.Member = nil
	m.payments[payment.ID] = stored
	return nil
}

func (m *Memory) GetPayment(_ context.Context, gymID, paymentID uuid.UUID) (*models.Payment, error) {
	if err := requireGym(gymID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentID]
	if !ok || p.GymID != gymID {
		return nil, errs.NotFound("payment", paymentID)
	}
	return &p, nil
}

func (m *Memory) UpdatePaymentStatus(_ context.Context, gymID, paymentID uuid.UUID, status models.PaymentStatus) error {
	if err := requireGym(gymID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentID]
	if !ok || p.GymID != gymID {
		return errs.NotFound("payment", paymentID)
	}
	p.Status, p.UpdatedAt = status, m.now()
	m.payments[paymentID] = p
	return nil
}

func paymentMatches(p models.Payment, filter PaymentFilter) bool {
	day := models.Day(p.PaymentDate)
	switch {
	case filter.MemberID != nil && p.MemberID != *filter.MemberID:
	case filter.Status != "" && p.Status != filter.Status:
	case filter.Method != "" && p.Method != filter.Method:
	case filter.Month != "" && p.Month != filter.Month:
	case filter.From != nil && day.Before(models.Day(*filter.From)):
	case filter.To != nil && day.After(models.Day(*filter.To)):
	default:
		return true
	}
	return false
}

func (m *Memory) ListPayments(_ context.Context, gymID uuid.UUID, filter PaymentFilter) ([]models.Payment, error) {
	if err := requireGym(gymID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Payment
	for _, p := range m.payments {
		if p.GymID == gymID && paymentMatches(p, filter) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaymentDate.Equal(out[j].PaymentDate) {
			return out[i].PaymentDate.After(out[j].PaymentDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) PaymentTotals(_ context.Context, gymID uuid.UUID, from, to time.Time) ([]PaymentTotal, error) {
	if err := requireGym(gymID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	type key struct {
		day    time.Time
		method models.PaymentMethod
	}
	sums := make(map[key]*PaymentTotal)
	filter := PaymentFilter{Status: models.PaymentStatusPaid, From: &from, To: &to}
	for _, p := range m.payments {
		if p.GymID != gymID || !paymentMatches(p, filter) {
			continue
		}
		k := key{day: models.Day(p.PaymentDate), method: p.Method}
		t, ok := sums[k]
		if !ok {
			t = &PaymentTotal{Day: k.day, Method: k.method}
			sums[k] = t
		}
		t.Amount = t.Amount.Add(p.Amount)
		t.Count++
	}
	out := make([]PaymentTotal, 0, len(sums))
	for _, t := range sums {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Day.Equal(out[j].Day) {
			return out[i].Day.Before(out[j].Day)
		}
		return out[i].Method < out[j].Method
	})
	return out, nil
}

func (m *Memory) GetReceipt(_ context.Context, gymID, receiptID uuid.UUID) (*models.Receipt, error) {
	if err := requireGym(gymID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.receipts[receiptID]
	if !ok || r.GymID != gymID {
		return nil, errs.NotFound("receipt", receiptID)
	}
	return &r, nil
}

func (m *Memory) GetReceiptByPayment(_ context.Context, gymID, paymentID uuid.UUID) (*models.Receipt, error) {
	if err := requireGym(gymID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.receipts {
		if r.GymID == gymID && r.PaymentID == paymentID {
			return &r, nil
		}
	}
	return nil, &errs.NotFoundError{Entity: "receipt for payment", ID: paymentID.String()}
}

func (m *Memory) CreateNumberedReceipt(_ context.Context, receipt *models.Receipt, prefix string) error {
	if err := requireGym(receipt.GymID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	last := 0
	for _, r := range m.receipts {
		if r.PaymentID == receipt.PaymentID {
			return fmt.Errorf("%w: receipts_payment_id", errs.ErrDuplicate)
		}
		if r.GymID != receipt.GymID || !strings.HasPrefix(r.ReceiptNumber, prefix+"-") {
			continue
		}
		if seq, ok := models.ReceiptSequence(r.ReceiptNumber); ok && seq > last {
			last = seq
		}
	}
	assignID(&receipt.ID)
	receipt.ReceiptNumber = models.ReceiptNumber(prefix, last+1)
	receipt.CreatedAt = m.now()
	stored := *receipt
	stored.Payment = nil
	m.receipts[receipt.ID] = stored
	return nil
}

func (m *Memory) UpdateReceipt(_ context.Context, receipt *models.Receipt) error {
	if err := requireGym(receipt.GymID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.receipts[receipt.ID]
	if !ok || old.GymID != receipt.GymID {
		return errs.NotFound("receipt", receipt.ID)
	}
	old.SentViaNotification = receipt.SentViaNotification
	old.SentAt = receipt.SentAt
	old.DeliveryError = receipt.DeliveryError
	m.receipts[receipt.ID] = old
	return nil
}

func (m *Memory) ListReceipts(_ context.Context, gymID uuid.UUID, filter ReceiptFilter) ([]models.Receipt, error) {
	if err := requireGym(gymID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Receipt
	for _, r := range m.receipts {
		if r.GymID == gymID && (filter.MemberID == nil || r.MemberID == *filter.MemberID) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceiptNumber > out[j].ReceiptNumber })
	return out, nil
}

func (m *Memory) CreateReminder(_ context.Context, reminder *models.Reminder) error {
	if err := requireGym(reminder.GymID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expirySlotTaken(*reminder) {
		return fmt.Errorf("%w: %s", errs.ErrDuplicate, models.ExpiryReminderIndex)
	}
	assignID(&reminder.ID)
	reminder.CreatedAt, reminder.UpdatedAt = m.now(), m.now()
	stored := *reminder
	stored.Member = nil
	m.reminders[reminder.ID] = stored
	return nil
}

func (m *Memory) GetReminder(_ context.Context, gymID, reminderID uuid.UUID) (*models.Reminder, error) {
	if err := requireGym(gymID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[reminderID]
	if !ok || r.GymID != gymID {
		return nil, errs.NotFound("reminder", reminderID)
	}
	return &r, nil
}

func (m *Memory) UpdateReminder(_ context.Context, reminder *models.Reminder) error {
	if err := requireGym(reminder.GymID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.reminders[reminder.ID]
	if !ok || old.GymID != reminder.GymID {
		return errs.NotFound("reminder", reminder.ID)
	}
	updated := *reminder
	updated.MemberID, updated.Type, updated.CreatedBy, updated.CreatedAt = old.MemberID, old.Type, old.CreatedBy, old.CreatedAt
	if m.expirySlotTaken(updated) {
		return fmt.Errorf("%w: %s", errs.ErrDuplicate, models.ExpiryReminderIndex)
	}
	updated.Member = nil
	updated.UpdatedAt = m.now()
	m.reminders[reminder.ID] = updated
	return nil
}

func (m *Memory) ClaimReminder(_ context.Context, gymID, reminderID, claimID uuid.UUID, now, until time.Time) (*models.Reminder, error) {
	if err := requireGym(gymID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[reminderID]
	if !ok || r.GymID != gymID {
		return nil, errs.NotFound("reminder", reminderID)
	}
	if !r.Claimable(now) {
		return nil, fmt.Errorf("reminder %s is %s or being delivered: %w", reminderID, r.Status, errs.ErrConflict)
	}
	r.ClaimID, r.ClaimedUntil = &claimID, &until
	m.reminders[reminderID] = r
	return &r, nil
}

func (m *Memory) FinishReminder(_ context.Context, reminder *models.Reminder, claimID uuid.UUID) error {
	if err := requireGym(reminder.GymID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.reminders[reminder.ID]
	if !ok || old.GymID != reminder.GymID {
		return errs.NotFound("reminder", reminder.ID)
	}
	if old.Status != models.ReminderStatusPending || old.ClaimID == nil || *old.ClaimID != claimID {
		return fmt.Errorf("reminder %s claim was lost: %w", reminder.ID, errs.ErrConflict)
	}
	old.Status, old.SentAt = reminder.Status, reminder.SentAt
	old.DeliveryStatus, old.ErrorMessage = reminder.DeliveryStatus, reminder.ErrorMessage
	old.Release()
	old.UpdatedAt = m.now()
	m.reminders[reminder.ID] = old
	reminder.Release()
	return nil
}

// expirySlotTaken mirrors the partial unique index on active expiry reminders.
// Callers hold m.mu.
func (m *Memory) expirySlotTaken(r models.Reminder) bool {
	if !r.HoldsExpirySlot() {
		return false
	}
	for id, other := range m.reminders {
		if id != r.ID && other.GymID == r.GymID && other.MemberID == r.MemberID &&
			other.HoldsExpirySlot() && models.Day(other.DueDate).Equal(models.Day(r.DueDate)) {
			return true
		}
	}
	return false
}

func reminderMatches(r models.Reminder, filter ReminderFilter) bool {
	if filter.MemberID != nil && r.MemberID != *filter.MemberID {
		return false
	}
	if filter.Type != "" && r.Type != filter.Type {
		return false
	}
	if filter.DueDate != nil && !models.Day(r.DueDate).Equal(models.Day(*filter.DueDate)) {
		return false
	}
	if len(filter.Statuses) == 0 {
		return true
	}
	for _, s := range filter.Statuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

func (m *Memory) ListReminders(_ context.Context, gymID uuid.UUID, filter ReminderFilter) ([]models.Reminder, error) {
	if err := requireGym(gymID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reminder
	for _, r := range m.reminders {
		if r.GymID == gymID && reminderMatches(r, filter) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CountReminders(ctx context.Context, gymID uuid.UUID, filter ReminderFilter) (int64, error) {
	list, err := m.ListReminders(ctx, gymID, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (m *Memory) AppendActivity(_ context.Context, entries ...models.ActivityLog) error {
	for _, e := range entries {
		if err := requireGym(e.GymID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		for _, existing := range m.activities {
			if e.ID != uuid.Nil && existing.ID == e.ID {
				return fmt.Errorf("%w: activity_logs_pkey", errs.ErrDuplicate)
			}
		}
	}
	for _, e := range entries {
		assignID(&e.ID)
		if e.CreatedAt.IsZero() {
			e.CreatedAt = m.now()
		}
		m.activities = append(m.activities, e)
	}
	return nil
}

func (m *Memory) ListActivity(_ context.Context, gymID uuid.UUID, limit int) ([]models.ActivityLog, error) {
	if err := requireGym(gymID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ActivityLog
	for i := len(m.activities) - 1; i >= 0; i-- {
		if m.activities[i].GymID != gymID {
			continue
		}
		out = append(out, m.activities[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

var (
	_ Repository = (*Memory)(nil)
	_ Repository = (*Postgres)(nil)
)
