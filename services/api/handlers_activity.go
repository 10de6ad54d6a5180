package main

import (
	"github.com/gin-gonic/gin"

	"github.com/pavitra93/gym-billing-system/shared/audit"
	"github.com/pavitra93/gym-billing-system/shared/members"
	"github.com/pavitra93/gym-billing-system/shared/utils"
)

// handleCheckIn records a member arriving at the gym. The body is optional.
func handleCheckIn(ledger *members.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req checkInRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				utils.BadRequestResponse(c, "Invalid request format")
				return
			}
		}

		attendance, err := ledger.CheckIn(c.Request.Context(), scope, id, req.Notes)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.CreatedResponse(c, "Check-in recorded successfully", attendance)
	}
}

// handleListAttendance lists check-ins filtered by member and date range
func handleListAttendance(ledger *members.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		q, err := attendanceQuery(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		list, err := ledger.Attendance(c.Request.Context(), scope, q)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Attendance retrieved successfully", list)
	}
}

// handleListActivity returns the latest activity log entries of the gym
func handleListActivity(reader audit.ActivityReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}

		entries, err := audit.Recent(c.Request.Context(), reader, scope)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Activity retrieved successfully", entries)
	}
}
