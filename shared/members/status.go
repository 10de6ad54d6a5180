package members

import (
	"fmt"
	"time"

	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/models"
)

// Status is the derived membership state of a member
type Status string

const (
	StatusActive       Status = "active"
	StatusExpiringSoon Status = "expiring_soon"
	StatusExpired      Status = "expired"
	// StatusInactive is a deactivated member whose period has not ended
	StatusInactive Status = "inactive"
)

// ComputeStatus derives the state of m on asOf. An ended period is expired
// whether or not the member is still flagged active.
func ComputeStatus(m *models.Member, asOf time.Time) Status {
	days := m.DaysRemaining(asOf)
	switch {
	case days < 0:
		return StatusExpired
	case !m.IsActive:
		return StatusInactive
	case days <= models.ExpiringWindowDays:
		return StatusExpiringSoon
	default:
		return StatusActive
	}
}

// RenewalPeriod returns the membership window starting on start and lasting durationDays
func RenewalPeriod(start time.Time, durationDays int) (time.Time, time.Time, error) {
	if durationDays <= 0 {
		return time.Time{}, time.Time{}, errs.Invalid("duration_days", fmt.Sprintf("must be greater than zero, got %d", durationDays))
	}
	start = models.Day(start)
	end := start.AddDate(0, 0, durationDays)
	if end.Before(start) {
		return time.Time{}, time.Time{}, errs.Invalid("membership_end_date", "is before membership_start_date")
	}
	return start, end, nil
}

// View is a member with its derived values for read models
type View struct {
	models.Member
	Status        Status `json:"status"`
	DaysRemaining int    `json:"days_remaining"`
	ExpiringSoon  bool   `json:"is_expiring_soon"`
}

// NewView derives the read model of m on asOf
func NewView(m models.Member, asOf time.Time) View {
	days := m.DaysRemaining(asOf)
	if days < 0 {
		days = 0
	}
	return View{
		Member:        m,
		Status:        ComputeStatus(&m, asOf),
		DaysRemaining: days,
		ExpiringSoon:  m.IsActive && m.IsExpiringSoon(asOf),
	}
}
