package members

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/models"
	"github.com/pavitra93/gym-billing-system/shared/store"
	"github.com/pavitra93/gym-billing-system/shared/tenant"
)

// CheckIn records that a member of the scoped gym arrived now
func (l *Ledger) CheckIn(ctx context.Context, scope tenant.Scope, memberID uuid.UUID, notes string) (*models.MemberAttendance, error) {
	attendance := &models.MemberAttendance{
		GymID:       scope.GymID(),
		MemberID:    memberID,
		CheckInTime: l.now(),
		Notes:       strings.TrimSpace(notes),
	}
	if err := l.repo.CreateAttendance(ctx, attendance); err != nil {
		return nil, fmt.Errorf("failed to record check-in: %w", err)
	}
	l.log.WithFields(logrus.Fields{
		"gym_id":    scope.GymID(),
		"member_id": memberID,
	}).Debug("member checked in")
	return attendance, nil
}

// AttendanceQuery narrows the attendance list. From and To are inclusive
// calendar dates in the gym's time zone.
type AttendanceQuery struct {
	MemberID *uuid.UUID
	From     *time.Time
	To       *time.Time
}

// Attendance lists check-ins of the scoped gym, newest first
func (l *Ledger) Attendance(ctx context.Context, scope tenant.Scope, q AttendanceQuery) ([]models.MemberAttendance, error) {
	if q.From != nil && q.To != nil && models.Day(*q.To).Before(models.Day(*q.From)) {
		return nil, errs.Invalid("end_date", "is before start_date")
	}
	loc := l.now().Location()
	filter := store.AttendanceFilter{MemberID: q.MemberID}
	if q.From != nil {
		from := localMidnight(*q.From, loc)
		filter.CheckInFrom = &from
	}
	if q.To != nil {
		before := localMidnight(*q.To, loc).AddDate(0, 0, 1)
		filter.CheckInBefore = &before
	}
	out, err := l.repo.ListAttendance(ctx, scope.GymID(), filter)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.MemberAttendance{}
	}
	return out, nil
}

func localMidnight(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
