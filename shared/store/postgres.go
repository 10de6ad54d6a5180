package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/models"
)

const pgUniqueViolation = "23505"

// Postgres is the gorm-backed Repository
type Postgres struct {
	db *gorm.DB
}

// NewPostgres wraps an open gorm handle
func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

// scoped is the only way queries below the gym level are built
func scoped(db *gorm.DB, gymID uuid.UUID) (*gorm.DB, error) {
	if err := requireGym(gymID); err != nil {
		return nil, err
	}
	return db.Where("gym_id = ?", gymID), nil
}

func (s *Postgres) scoped(ctx context.Context, gymID uuid.UUID) (*gorm.DB, error) {
	return scoped(s.db.WithContext(ctx), gymID)
}

// mapError translates driver errors into the errs taxonomy
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", errs.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func first[T any](q *gorm.DB, entity string, id uuid.UUID) (*T, error) {
	var out T
	if err := q.Where("id = ?", id).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound(entity, id)
		}
		return nil, fmt.Errorf("failed to load %s: %w", entity, err)
	}
	return &out, nil
}

func (s *Postgres) CreateGym(ctx context.Context, gym *models.Gym) error {
	return mapError(s.db.WithContext(ctx).Create(gym).Error)
}

func (s *Postgres) GetGym(ctx context.Context, gymID uuid.UUID) (*models.Gym, error) {
	return first[models.Gym](s.db.WithContext(ctx), "gym", gymID)
}

func (s *Postgres) UpdateGym(ctx context.Context, gym *models.Gym) error {
	res := s.db.WithContext(ctx).Model(&models.Gym{}).Where("id = ?", gym.ID).
		Select("*").Omit("id", "created_at").Updates(gym)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("gym", gym.ID)
	}
	return nil
}

func (s *Postgres) ListGyms(ctx context.Context) ([]models.Gym, error) {
	var gyms []models.Gym
	if err := s.db.WithContext(ctx).Order("created_at").Find(&gyms).Error; err != nil {
		return nil, fmt.Errorf("failed to list gyms: %w", err)
	}
	return gyms, nil
}

func (s *Postgres) CreatePlan(ctx context.Context, plan *models.MembershipPlan) error {
	if err := requireGym(plan.GymID); err != nil {
		return err
	}
	return mapError(s.db.WithContext(ctx).Create(plan).Error)
}

func (s *Postgres) GetPlan(ctx context.Context, gymID, planID uuid.UUID) (*models.MembershipPlan, error) {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return nil, err
	}
	return first[models.MembershipPlan](q, "membership plan", planID)
}

func (s *Postgres) UpdatePlan(ctx context.Context, plan *models.MembershipPlan) error {
	return s.updateScoped(ctx, plan.GymID, plan.ID, "membership plan", &models.MembershipPlan{}, plan)
}

func (s *Postgres) DeletePlan(ctx context.Context, gymID, planID uuid.UUID) error {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return err
	}
	res := q.Where("id = ?", planID).Delete(&models.MembershipPlan{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete membership plan: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("membership plan", planID)
	}
	return nil
}

func (s *Postgres) ListPlans(ctx context.Context, gymID uuid.UUID, activeOnly bool) ([]models.MembershipPlan, error) {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var plans []models.MembershipPlan
	if err := q.Order("duration_days").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to list membership plans: %w", err)
	}
	return plans, nil
}

func (s *Postgres) CreateMember(ctx context.Context, member *models.Member) error {
	if err := requireGym(member.GymID); err != nil {
		return err
	}
	return mapError(s.db.WithContext(ctx).Create(member).Error)
}

func (s *Postgres) GetMember(ctx context.Context, gymID, memberID uuid.UUID) (*models.Member, error) {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return nil, err
	}
	return first[models.Member](q, "member", memberID)
}

func (s *Postgres) UpdateMember(ctx context.Context, member *models.Member) error {
	return s.updateScoped(ctx, member.GymID, member.ID, "member", &models.Member{}, member)
}

func (s *Postgres) DeleteMember(ctx context.Context, gymID, memberID uuid.UUID) error {
	if err := requireGym(gymID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var member models.Member
		err := tx.Select("id").Where("gym_id = ? AND id = ?", gymID, memberID).First(&member).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("member", memberID)
		}
		if err != nil {
			return fmt.Errorf("failed to load member: %w", err)
		}
		for _, owned := range []interface{}{&models.Receipt{}, &models.Reminder{}, &models.Payment{}, &models.MemberAttendance{}} {
			if err := tx.Where("gym_id = ? AND member_id = ?", gymID, memberID).Delete(owned).Error; err != nil {
				return fmt.Errorf("failed to delete member records: %w", err)
			}
		}
		if err := tx.Where("gym_id = ? AND id = ?", gymID, memberID).Delete(&models.Member{}).Error; err != nil {
			return fmt.Errorf("failed to delete member: %w", err)
		}
		return nil
	})
}

func (s *Postgres) ListMembers(ctx context.Context, gymID uuid.UUID, filter MemberFilter) ([]models.Member, error) {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR phone LIKE ?", like, like)
	}
	if filter.PlanID != nil {
		q = q.Where("plan_id = ?", *filter.PlanID)
	}
	if filter.EndFrom != nil {
		q = q.Where("membership_end_date >= ?", models.Day(*filter.EndFrom))
	}
	if filter.EndTo != nil {
		q = q.Where("membership_end_date <= ?", models.Day(*filter.EndTo))
	}
	if filter.EndBefore != nil {
		q = q.Where("membership_end_date < ?", models.Day(*filter.EndBefore))
	}
	var members []models.Member
	if err := q.Order("membership_end_date, name").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

func (s *Postgres) CreateAttendance(ctx context.Context, attendance *models.MemberAttendance) error {
	if err := requireGym(attendance.GymID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var member models.Member
		err := tx.Select("id").
			Where("gym_id = ? AND id = ?", attendance.GymID, attendance.MemberID).
			First(&member).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("member", attendance.MemberID)
		}
		if err != nil {
			return fmt.Errorf("failed to verify member: %w", err)
		}
		if attendance.CheckInTime.IsZero() {
			attendance.CheckInTime = time.Now()
		}
		return mapError(tx.Omit(clause.Associations).Create(attendance).Error)
	})
}

func (s *Postgres) ListAttendance(ctx context.Context, gymID uuid.UUID, filter AttendanceFilter) ([]models.MemberAttendance, error) {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if filter.MemberID != nil {
		q = q.Where("member_id = ?", *filter.MemberID)
	}
	if filter.CheckInFrom != nil {
		q = q.Where("check_in_time >= ?", *filter.CheckInFrom)
	}
	if filter.CheckInBefore != nil {
		q = q.Where("check_in_time < ?", *filter.CheckInBefore)
	}
	var out []models.MemberAttendance
	if err := q.Order("check_in_time DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return out, nil
}

func (s *Postgres) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if err := requireGym(payment.GymID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var member models.Member
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id").
			Where("gym_id = ? AND id = ?", payment.GymID, payment.MemberID).
			First(&member).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("member", payment.MemberID)
		}
		if err != nil {
			return fmt.Errorf("failed to verify member: %w", err)
		}
		return mapError(tx.Omit(clause.Associations).Create(payment).Error)
	})
}

func (s *Postgres) GetPayment(ctx context.Context, gymID, paymentID uuid.UUID) (*models.Payment, error) {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return nil, err
	}
	return first[models.Payment](q, "payment", paymentID)
}

func (s *Postgres) UpdatePaymentStatus(ctx context.Context, gymID, paymentID uuid.UUID, status models.PaymentStatus) error {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return err
	}
	res := q.Model(&models.Payment{}).Where("id = ?", paymentID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update payment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("payment", paymentID)
	}
	return nil
}

func (s *Postgres) paymentQuery(q *gorm.DB, filter PaymentFilter) *gorm.DB {
	if filter.MemberID != nil {
		q = q.Where("member_id = ?", *filter.MemberID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Method != "" {
		q = q.Where("payment_method = ?", filter.Method)
	}
	if filter.Month != "" {
		q = q.Where("month = ?", filter.Month)
	}
	if filter.From != nil {
		q = q.Where("payment_date >= ?", models.Day(*filter.From))
	}
	if filter.To != nil {
		q = q.Where("payment_date <= ?", models.Day(*filter.To))
	}
	return q
}

func (s *Postgres) ListPayments(ctx context.Context, gymID uuid.UUID, filter PaymentFilter) ([]models.Payment, error) {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return nil, err
	}
	var payments []models.Payment
	if err := s.paymentQuery(q, filter).Order("payment_date DESC, created_at DESC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (s *Postgres) PaymentTotals(ctx context.Context, gymID uuid.UUID, from, to time.Time) ([]PaymentTotal, error) {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return nil, err
	}
	var totals []PaymentTotal
	err = q.Model(&models.Payment{}).
		Select("payment_date AS day, payment_method AS method, COALESCE(SUM(amount), 0) AS amount, COUNT(*) AS count").
		Where("status = ? AND payment_date >= ? AND payment_date <= ?", models.PaymentStatusPaid, models.Day(from), models.Day(to)).
		Group("payment_date, payment_method").
		Order("payment_date").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to total payments: %w", err)
	}
	for i := range totals {
		totals[i].Day = models.Day(totals[i].Day)
	}
	return totals, nil
}

func (s *Postgres) GetReceipt(ctx context.Context, gymID, receiptID uuid.UUID) (*models.Receipt, error) {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return nil, err
	}
	return first[models.Receipt](q, "receipt", receiptID)
}

func (s *Postgres) GetReceiptByPayment(ctx context.Context, gymID, paymentID uuid.UUID) (*models.Receipt, error) {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return nil, err
	}
	var receipt models.Receipt
	if err := q.Where("payment_id = ?", paymentID).First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &errs.NotFoundError{Entity: "receipt for payment", ID: paymentID.String()}
		}
		return nil, fmt.Errorf("failed to load receipt: %w", err)
	}
	return &receipt, nil
}

// CreateNumberedReceipt holds a transaction-scoped advisory lock on the prefix while it
// reads the highest used sequence and inserts the next one. The unique index on
// receipt_number remains the last line if the lock is bypassed.
func (s *Postgres) CreateNumberedReceipt(ctx context.Context, receipt *models.Receipt, prefix string) error {
	if err := requireGym(receipt.GymID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix).Error; err != nil {
			return fmt.Errorf("failed to lock receipt sequence: %w", err)
		}

		var numbers []string
		err := tx.Model(&models.Receipt{}).
			Where("gym_id = ? AND receipt_number LIKE ?", receipt.GymID, prefix+"-%").
			Pluck("receipt_number", &numbers).Error
		if err != nil {
			return fmt.Errorf("failed to read receipt sequence: %w", err)
		}

		last := 0
		for _, n := range numbers {
			if seq, ok := models.ReceiptSequence(n); ok && seq > last {
				last = seq
			}
		}
		receipt.ReceiptNumber = models.ReceiptNumber(prefix, last+1)
		return tx.Omit(clause.Associations).Create(receipt).Error
	})
	return mapError(err)
}

func (s *Postgres) UpdateReceipt(ctx context.Context, receipt *models.Receipt) error {
	q, err := s.scoped(ctx, receipt.GymID)
	if err != nil {
		return err
	}
	// number, payment and owner are fixed once assigned
	res := q.Model(&models.Receipt{}).Where("id = ?", receipt.ID).
		Select("sent_via_notification", "sent_at", "delivery_error").
		Updates(receipt)
	if res.Error != nil {
		return fmt.Errorf("failed to update receipt: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("receipt", receipt.ID)
	}
	return nil
}

func (s *Postgres) ListReceipts(ctx context.Context, gymID uuid.UUID, filter ReceiptFilter) ([]models.Receipt, error) {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if filter.MemberID != nil {
		q = q.Where("member_id = ?", *filter.MemberID)
	}
	var receipts []models.Receipt
	if err := q.Order("receipt_number DESC").Find(&receipts).Error; err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	return receipts, nil
}

func (s *Postgres) CreateReminder(ctx context.Context, reminder *models.Reminder) error {
	if err := requireGym(reminder.GymID); err != nil {
		return err
	}
	return mapError(s.db.WithContext(ctx).Omit(clause.Associations).Create(reminder).Error)
}

func (s *Postgres) GetReminder(ctx context.Context, gymID, reminderID uuid.UUID) (*models.Reminder, error) {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return nil, err
	}
	return first[models.Reminder](q, "reminder", reminderID)
}

func (s *Postgres) UpdateReminder(ctx context.Context, reminder *models.Reminder) error {
	q, err := s.scoped(ctx, reminder.GymID)
	if err != nil {
		return err
	}
	res := q.Model(&models.Reminder{}).Where("id = ?", reminder.ID).
		Select("message", "due_date", "amount", "status", "sent_at", "delivery_status", "error_message",
			"claim_id", "claimed_until", "updated_at").
		Updates(reminder)
	if res.Error != nil {
		return fmt.Errorf("failed to update reminder: %w", mapError(res.Error))
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("reminder", reminder.ID)
	}
	return nil
}

func (s *Postgres) ClaimReminder(ctx context.Context, gymID, reminderID, claimID uuid.UUID, now, until time.Time) (*models.Reminder, error) {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return nil, err
	}
	res := q.Model(&models.Reminder{}).
		Where("id = ? AND status = ?", reminderID, models.ReminderStatusPending).
		Where("claimed_until IS NULL OR claimed_until <= ?", now).
		Updates(map[string]interface{}{"claim_id": claimID, "claimed_until": until})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to claim reminder: %w", res.Error)
	}
	reminder, err := s.GetReminder(ctx, gymID, reminderID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("reminder %s is %s or being delivered: %w", reminderID, reminder.Status, errs.ErrConflict)
	}
	return reminder, nil
}

func (s *Postgres) FinishReminder(ctx context.Context, reminder *models.Reminder, claimID uuid.UUID) error {
	q, err := s.scoped(ctx, reminder.GymID)
	if err != nil {
		return err
	}
	res := q.Model(&models.Reminder{}).
		Where("id = ? AND status = ? AND claim_id = ?", reminder.ID, models.ReminderStatusPending, claimID).
		Updates(map[string]interface{}{
			"status":          reminder.Status,
			"sent_at":         reminder.SentAt,
			"delivery_status": reminder.DeliveryStatus,
			"error_message":   reminder.ErrorMessage,
			"claim_id":        nil,
			"claimed_until":   nil,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to record reminder delivery: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("reminder %s claim was lost: %w", reminder.ID, errs.ErrConflict)
	}
	reminder.Release()
	return nil
}

func (s *Postgres) reminderQuery(q *gorm.DB, filter ReminderFilter) *gorm.DB {
	if filter.MemberID != nil {
		q = q.Where("member_id = ?", *filter.MemberID)
	}
	if filter.Type != "" {
		q = q.Where("reminder_type = ?", filter.Type)
	}
	if filter.DueDate != nil {
		q = q.Where("due_date = ?", models.Day(*filter.DueDate))
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	return q
}

func (s *Postgres) ListReminders(ctx context.Context, gymID uuid.UUID, filter ReminderFilter) ([]models.Reminder, error) {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return nil, err
	}
	var reminders []models.Reminder
	if err := s.reminderQuery(q, filter).Order("created_at DESC").Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

func (s *Postgres) CountReminders(ctx context.Context, gymID uuid.UUID, filter ReminderFilter) (int64, error) {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := s.reminderQuery(q.Model(&models.Reminder{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count reminders: %w", err)
	}
	return count, nil
}

func (s *Postgres) AppendActivity(ctx context.Context, entries ...models.ActivityLog) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if err := requireGym(e.GymID); err != nil {
			return err
		}
	}
	return mapError(s.db.WithContext(ctx).Create(&entries).Error)
}

func (s *Postgres) ListActivity(ctx context.Context, gymID uuid.UUID, limit int) ([]models.ActivityLog, error) {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []models.ActivityLog
	if err := q.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, nil
}

func (s *Postgres) updateScoped(ctx context.Context, gymID, id uuid.UUID, entity string, model, values interface{}) error {
	q, err := s.scoped(ctx, gymID)
	if err != nil {
		return err
	}
	res := q.Model(model).Where("id = ?", id).
		Select("*").Omit("id", "gym_id", "created_at").
		Updates(values)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound(entity, id)
	}
	return nil
}
