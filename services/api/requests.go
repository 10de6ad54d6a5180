package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/members"
	"github.com/pavitra93/gym-billing-system/shared/middleware"
	"github.com/pavitra93/gym-billing-system/shared/models"
	"github.com/pavitra93/gym-billing-system/shared/payments"
	"github.com/pavitra93/gym-billing-system/shared/reminders"
	"github.com/pavitra93/gym-billing-system/shared/store"
	"github.com/pavitra93/gym-billing-system/shared/tenant"
	"github.com/pavitra93/gym-billing-system/shared/utils"
)

// scopeOf returns the tenant scope bound by the auth middleware
func scopeOf(c *gin.Context) (tenant.Scope, bool) {
	scope, ok := middleware.ScopeFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Gym context not found")
	}
	return scope, ok
}

// pathID parses the :id route parameter
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// optionalDate parses a YYYY-MM-DD value, nil when raw is empty
func optionalDate(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := models.ParseDate(raw)
	if err != nil {
		return nil, errs.Invalid(field, "must be a YYYY-MM-DD date")
	}
	return &t, nil
}

func optionalUUID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, errs.Invalid(field, "must be a uuid")
	}
	return &id, nil
}

type memberRequest struct {
	Name                  string           `json:"name" binding:"required"`
	Phone                 string           `json:"phone" binding:"required"`
	Email                 string           `json:"email"`
	Address               string           `json:"address"`
	Age                   int              `json:"age"`
	Gender                models.Gender    `json:"gender"`
	Height                *decimal.Decimal `json:"height"`
	Weight                *decimal.Decimal `json:"weight"`
	PlanID                *uuid.UUID       `json:"plan_id"`
	MembershipType        string           `json:"membership_type"`
	MembershipFee         *decimal.Decimal `json:"membership_fee"`
	JoinDate              string           `json:"join_date"`
	MembershipStartDate   string           `json:"membership_start_date"`
	MembershipEndDate     string           `json:"membership_end_date"`
	EmergencyContactName  string           `json:"emergency_contact_name"`
	EmergencyContactPhone string           `json:"emergency_contact_phone"`
	MedicalConditions     string           `json:"medical_conditions"`
}

func (r memberRequest) input() (members.MemberInput, error) {
	in := members.MemberInput{
		Name:                  r.Name,
		Phone:                 r.Phone,
		Email:                 r.Email,
		Address:               r.Address,
		Age:                   r.Age,
		Gender:                r.Gender,
		Height:                r.Height,
		Weight:                r.Weight,
		PlanID:                r.PlanID,
		MembershipType:        r.MembershipType,
		Fee:                   r.MembershipFee,
		EmergencyContactName:  r.EmergencyContactName,
		EmergencyContactPhone: r.EmergencyContactPhone,
		MedicalConditions:     r.MedicalConditions,
	}
	var err error
	if in.JoinDate, err = optionalDate("join_date", r.JoinDate); err != nil {
		return in, err
	}
	if in.StartDate, err = optionalDate("membership_start_date", r.MembershipStartDate); err != nil {
		return in, err
	}
	if in.EndDate, err = optionalDate("membership_end_date", r.MembershipEndDate); err != nil {
		return in, err
	}
	return in, nil
}

type renewRequest struct {
	PlanID        *uuid.UUID       `json:"plan_id"`
	DurationDays  int              `json:"duration_days"`
	StartDate     string           `json:"start_date"`
	MembershipFee *decimal.Decimal `json:"membership_fee"`
}

func (r renewRequest) input() (members.RenewInput, error) {
	start, err := optionalDate("start_date", r.StartDate)
	if err != nil {
		return members.RenewInput{}, err
	}
	return members.RenewInput{
		PlanID:       r.PlanID,
		DurationDays: r.DurationDays,
		StartDate:    start,
		Fee:          r.MembershipFee,
	}, nil
}

// memberFilter reads ?active=&search=&plan_id=
func memberFilter(c *gin.Context) (store.MemberFilter, error) {
	filter := store.MemberFilter{Search: strings.TrimSpace(c.Query("search"))}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errs.Invalid("active", "must be true or false")
		}
		filter.ActiveOnly = active
	}
	planID, err := optionalUUID("plan_id", c.Query("plan_id"))
	if err != nil {
		return filter, err
	}
	filter.PlanID = planID
	return filter, nil
}

type paymentRequest struct {
	MemberID        uuid.UUID            `json:"member_id"`
	Amount          decimal.Decimal      `json:"amount"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	PaymentDate     string               `json:"payment_date"`
	PaymentForMonth string               `json:"payment_for_month"`
	Status          models.PaymentStatus `json:"status"`
	TransactionID   string               `json:"transaction_id"`
	Notes           string               `json:"notes"`
}

func (r paymentRequest) input() (payments.PaymentInput, error) {
	date, err := optionalDate("payment_date", r.PaymentDate)
	if err != nil {
		return payments.PaymentInput{}, err
	}
	return payments.PaymentInput{
		Amount:        r.Amount,
		Method:        r.PaymentMethod,
		Date:          date,
		Month:         r.PaymentForMonth,
		Status:        r.Status,
		TransactionID: r.TransactionID,
		Notes:         r.Notes,
	}, nil
}

type paymentStatusRequest struct {
	Status models.PaymentStatus `json:"status" binding:"required"`
}

// paymentFilter reads ?member_id=&status=&payment_method=&month=&start_date=&end_date=
func paymentFilter(c *gin.Context) (store.PaymentFilter, error) {
	var filter store.PaymentFilter
	var err error
	if filter.MemberID, err = optionalUUID("member_id", c.Query("member_id")); err != nil {
		return filter, err
	}
	if raw := c.Query("status"); raw != "" {
		if err := filter.Status.UnmarshalText([]byte(raw)); err != nil {
			return filter, errs.Invalid("status", "is not a known payment status")
		}
	}
	if raw := c.Query("payment_method"); raw != "" {
		if err := filter.Method.UnmarshalText([]byte(raw)); err != nil {
			return filter, errs.Invalid("payment_method", "is not a known method")
		}
	}
	filter.Month = c.Query("month")
	if filter.From, err = optionalDate("start_date", c.Query("start_date")); err != nil {
		return filter, err
	}
	if filter.To, err = optionalDate("end_date", c.Query("end_date")); err != nil {
		return filter, err
	}
	return filter, nil
}

type reminderRequest struct {
	MemberID     uuid.UUID           `json:"member_id"`
	ReminderType models.ReminderType `json:"reminder_type" binding:"required"`
	Message      string              `json:"message" binding:"required"`
	DueDate      string              `json:"due_date" binding:"required"`
	Amount       *decimal.Decimal    `json:"amount"`
}

func (r reminderRequest) input() (reminders.Input, error) {
	due, err := optionalDate("due_date", r.DueDate)
	if err != nil {
		return reminders.Input{}, err
	}
	in := reminders.Input{
		MemberID: r.MemberID,
		Type:     r.ReminderType,
		Message:  r.Message,
		Amount:   r.Amount,
	}
	if due != nil {
		in.DueDate = *due
	}
	return in, nil
}

// reminderFilter reads ?member_id=&reminder_type=&status=, status taking a comma separated list
func reminderFilter(c *gin.Context) (store.ReminderFilter, error) {
	var filter store.ReminderFilter
	var err error
	if filter.MemberID, err = optionalUUID("member_id", c.Query("member_id")); err != nil {
		return filter, err
	}
	if raw := c.Query("reminder_type"); raw != "" {
		if err := filter.Type.UnmarshalText([]byte(raw)); err != nil {
			return filter, errs.Invalid("reminder_type", "is not a known reminder type")
		}
	}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			var status models.ReminderStatus
			if err := status.UnmarshalText([]byte(part)); err != nil {
				return filter, errs.Invalid("status", "is not a known reminder status")
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	return filter, nil
}

type bulkSendRequest struct {
	ReminderIDs []uuid.UUID `json:"reminder_ids"`
}

type testMessageRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type checkInRequest struct {
	Notes string `json:"notes"`
}

// attendanceQuery reads ?member_id=&start_date=&end_date=
func attendanceQuery(c *gin.Context) (members.AttendanceQuery, error) {
	var q members.AttendanceQuery
	var err error
	if q.MemberID, err = optionalUUID("member_id", c.Query("member_id")); err != nil {
		return q, err
	}
	if q.From, err = optionalDate("start_date", c.Query("start_date")); err != nil {
		return q, err
	}
	if q.To, err = optionalDate("end_date", c.Query("end_date")); err != nil {
		return q, err
	}
	return q, nil
}
