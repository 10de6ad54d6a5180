package models

import (
	"fmt"
	"strings"
)

// PaymentMethod is how a payment was collected
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodUPI          PaymentMethod = "UPI"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// PaymentMethods lists every known method in display order
var PaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodUPI,
	PaymentMethodCard,
	PaymentMethodBankTransfer,
}

// Valid reports whether m is a known method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodCard, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// Label returns the human readable name used in messages
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentMethodCash:
		return "Cash"
	case PaymentMethodUPI:
		return "UPI"
	case PaymentMethodCard:
		return "Card"
	case PaymentMethodBankTransfer:
		return "Bank Transfer"
	}
	return string(m)
}

func (m *PaymentMethod) UnmarshalText(text []byte) error {
	v := PaymentMethod(strings.ToUpper(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("unknown payment method %q", string(text))
	}
	*m = v
	return nil
}

// PaymentStatus is the collection state of a payment
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusPending, PaymentStatusFailed:
		return true
	}
	return false
}

func (s *PaymentStatus) UnmarshalText(text []byte) error {
	v := PaymentStatus(strings.ToUpper(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("unknown payment status %q", string(text))
	}
	*s = v
	return nil
}

// ReminderType classifies why a reminder exists
type ReminderType string

const (
	ReminderTypePaymentDue         ReminderType = "PAYMENT_DUE"
	ReminderTypeMembershipExpiring ReminderType = "MEMBERSHIP_EXPIRING"
	ReminderTypeRenewal            ReminderType = "RENEWAL"
)

func (t ReminderType) Valid() bool {
	switch t {
	case ReminderTypePaymentDue, ReminderTypeMembershipExpiring, ReminderTypeRenewal:
		return true
	}
	return false
}

func (t *ReminderType) UnmarshalText(text []byte) error {
	v := ReminderType(strings.ToUpper(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("unknown reminder type %q", string(text))
	}
	*t = v
	return nil
}

// ReminderStatus is the delivery state of a reminder
type ReminderStatus string

const (
	ReminderStatusPending ReminderStatus = "PENDING"
	ReminderStatusSent    ReminderStatus = "SENT"
	ReminderStatusFailed  ReminderStatus = "FAILED"
)

func (s ReminderStatus) Valid() bool {
	switch s {
	case ReminderStatusPending, ReminderStatusSent, ReminderStatusFailed:
		return true
	}
	return false
}

func (s *ReminderStatus) UnmarshalText(text []byte) error {
	v := ReminderStatus(strings.ToUpper(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("unknown reminder status %q", string(text))
	}
	*s = v
	return nil
}

// PlanDuration is the billing cadence of a membership plan
type PlanDuration string

const (
	PlanDurationMonthly    PlanDuration = "MONTHLY"
	PlanDurationQuarterly  PlanDuration = "QUARTERLY"
	PlanDurationHalfYearly PlanDuration = "HALF_YEARLY"
	PlanDurationYearly     PlanDuration = "YEARLY"
	PlanDurationCustom     PlanDuration = "CUSTOM"
)

func (d PlanDuration) Valid() bool {
	switch d {
	case PlanDurationMonthly, PlanDurationQuarterly, PlanDurationHalfYearly, PlanDurationYearly, PlanDurationCustom:
		return true
	}
	return false
}

// DefaultDays returns the conventional length of the cadence, or 0 for custom plans
func (d PlanDuration) DefaultDays() int {
	switch d {
	case PlanDurationMonthly:
		return 30
	case PlanDurationQuarterly:
		return 90
	case PlanDurationHalfYearly:
		return 180
	case PlanDurationYearly:
		return 365
	}
	return 0
}

func (d *PlanDuration) UnmarshalText(text []byte) error {
	v := PlanDuration(strings.ToUpper(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("unknown plan duration %q", string(text))
	}
	*d = v
	return nil
}

// Gender of a member
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

func (g *Gender) UnmarshalText(text []byte) error {
	v := Gender(strings.ToUpper(strings.TrimSpace(string(text))))
	if v != "" && !v.Valid() {
		return fmt.Errorf("unknown gender %q", string(text))
	}
	*g = v
	return nil
}

// ActivityAction is the kind of event recorded in the activity log
type ActivityAction string

const (
	ActionLogin            ActivityAction = "LOGIN"
	ActionLogout           ActivityAction = "LOGOUT"
	ActionMemberAdd        ActivityAction = "MEMBER_ADD"
	ActionMemberUpdate     ActivityAction = "MEMBER_UPDATE"
	ActionPaymentAdd       ActivityAction = "PAYMENT_ADD"
	ActionReceiptGenerated ActivityAction = "RECEIPT_GENERATED"
	ActionReceiptSent      ActivityAction = "RECEIPT_SENT"
	ActionReminderSent     ActivityAction = "REMINDER_SENT"
)

func (a ActivityAction) Valid() bool {
	switch a {
	case ActionLogin, ActionLogout, ActionMemberAdd, ActionMemberUpdate,
		ActionPaymentAdd, ActionReceiptGenerated, ActionReceiptSent, ActionReminderSent:
		return true
	}
	return false
}

func (a *ActivityAction) UnmarshalText(text []byte) error {
	v := ActivityAction(strings.ToUpper(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("unknown activity action %q", string(text))
	}
	*a = v
	return nil
}
