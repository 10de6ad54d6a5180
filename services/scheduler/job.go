package main

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/notify"
	"github.com/pavitra93/gym-billing-system/shared/reminders"
	"github.com/pavitra93/gym-billing-system/shared/tenant"
)

// reminderJob generates and delivers expiry reminders for every gym with
// automatic reminders on
type reminderJob struct {
	directory  *tenant.Directory
	reminders  *reminders.Service
	dispatcher *notify.Dispatcher
	now        func() time.Time
	log        logrus.FieldLogger
}

// runSummary totals one run across gyms
type runSummary struct {
	Gyms     int
	Created  int
	Sent     int
	Failed   int
	Skipped  int
	Disabled int
	Errors   int
}

// Run processes each gym on its own so one failing gym does not stop the others
func (j *reminderJob) Run(ctx context.Context) runSummary {
	var summary runSummary
	scopes, err := j.directory.AutoReminderScopes(ctx, tenant.SystemActor)
	if err != nil {
		j.log.WithError(err).Error("failed to list gyms for reminders")
		summary.Errors++
		return summary
	}

	asOf := j.now()
	for _, scope := range scopes {
		if ctx.Err() != nil {
			j.log.WithError(ctx.Err()).Warn("reminder run interrupted")
			break
		}
		summary.Gyms++
		log := j.log.WithField("gym_id", scope.GymID())

		created, err := j.reminders.GenerateExpiryReminders(ctx, scope, asOf)
		summary.Created += created
		if err != nil {
			log.WithError(err).Error("failed to generate reminders")
			summary.Errors++
			continue
		}

		result, err := j.dispatcher.SendPending(ctx, scope)
		switch {
		case errors.Is(err, errs.ErrChannelDisabled):
			log.Info("messaging disabled, reminders left pending")
			summary.Disabled++
			continue
		case err != nil:
			log.WithError(err).Error("failed to send pending reminders")
			summary.Errors++
			continue
		}
		summary.Sent += result.Sent
		summary.Failed += result.Failed
		summary.Skipped += result.Skipped
	}

	j.log.WithFields(logrus.Fields{
		"gyms":     summary.Gyms,
		"created":  summary.Created,
		"sent":     summary.Sent,
		"failed":   summary.Failed,
		"skipped":  summary.Skipped,
		"disabled": summary.Disabled,
		"errors":   summary.Errors,
	}).Info("reminder run finished")
	return summary
}
