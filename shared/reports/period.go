package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/models"
)

// MaxRangeDays bounds a custom range so the daily series stays small
const MaxRangeDays = 731

// Period names the date range of a report
type Period string

const (
	PeriodToday     Period = "today"
	PeriodThisWeek  Period = "this_week"
	PeriodThisMonth Period = "this_month"
	PeriodThisYear  Period = "this_year"
	PeriodCustom    Period = "custom"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodToday, PeriodThisWeek, PeriodThisMonth, PeriodThisYear, PeriodCustom:
		return true
	}
	return false
}

func (p *Period) UnmarshalText(text []byte) error {
	v := Period(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("unknown report period %q", string(text))
	}
	*p = v
	return nil
}

// Range returns the inclusive calendar range of p ending today. Weeks start
// on Monday. Custom periods take from and to, both required. An empty period
// means this month.
func (p Period) Range(today time.Time, from, to *time.Time) (time.Time, time.Time, error) {
	today = models.Day(today)
	switch p {
	case PeriodToday:
		return today, today, nil
	case PeriodThisWeek:
		offset := (int(today.Weekday()) + 6) % 7
		return today.AddDate(0, 0, -offset), today, nil
	case "", PeriodThisMonth:
		return monthStart(today), today, nil
	case PeriodThisYear:
		return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), today, nil
	case PeriodCustom:
		if from == nil || to == nil {
			return time.Time{}, time.Time{}, errs.Invalid("start_date", "and end_date are required for a custom period")
		}
		start, end := models.Day(*from), models.Day(*to)
		if end.Before(start) {
			return time.Time{}, time.Time{}, errs.Invalid("end_date", "is before start_date")
		}
		if models.DaysBetween(start, end) >= MaxRangeDays {
			return time.Time{}, time.Time{}, errs.Invalid("end_date", fmt.Sprintf("range must be shorter than %d days", MaxRangeDays))
		}
		return start, end, nil
	}
	return time.Time{}, time.Time{}, errs.Invalid("period", fmt.Sprintf("unknown period %q", string(p)))
}

func monthStart(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
}
