package main

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/gym-billing-system/shared/notify"
	"github.com/pavitra93/gym-billing-system/shared/reminders"
	"github.com/pavitra93/gym-billing-system/shared/utils"
)

// handleListReminders lists reminders of the caller's gym
func handleListReminders(service *reminders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		filter, err := reminderFilter(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		list, err := service.List(c.Request.Context(), scope, filter)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Reminders retrieved successfully", list)
	}
}

// handleCreateReminder stores a manual pending reminder
func handleCreateReminder(service *reminders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		var req reminderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		in, err := req.input()
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		reminder, err := service.Create(c.Request.Context(), scope, in)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.CreatedResponse(c, "Reminder created successfully", reminder)
	}
}

func handleGetReminder(service *reminders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		reminder, err := service.Get(c.Request.Context(), scope, id)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Reminder retrieved successfully", reminder)
	}
}

// handleGenerateReminders creates expiry reminders for the caller's gym as of today
func handleGenerateReminders(service *reminders.Service, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}

		created, err := service.GenerateExpiryReminders(c.Request.Context(), scope, now())
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Reminders generated successfully", gin.H{"created": created})
	}
}

// handleSendReminder delivers one pending reminder
func handleSendReminder(dispatcher *notify.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		delivery, err := dispatcher.SendReminder(c.Request.Context(), scope, id)
		if err != nil {
			deliveryErrorResponse(c, delivery, err)
			return
		}

		utils.OKResponse(c, "Reminder sent successfully", delivery)
	}
}

// handleSendBulk delivers the listed reminders, or every pending one when the list is empty
func handleSendBulk(dispatcher *notify.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		var req bulkSendRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				utils.BadRequestResponse(c, "Invalid request format")
				return
			}
		}

		var (
			result notify.BulkResult
			err    error
		)
		if len(req.ReminderIDs) == 0 {
			result, err = dispatcher.SendPending(c.Request.Context(), scope)
		} else {
			result, err = dispatcher.SendBulk(c.Request.Context(), scope, req.ReminderIDs)
		}
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Reminders processed", result)
	}
}

// handleRequeueReminder moves a sent or failed reminder back to pending
func handleRequeueReminder(service *reminders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		reminder, err := service.Requeue(c.Request.Context(), scope, id)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Reminder requeued successfully", reminder)
	}
}
