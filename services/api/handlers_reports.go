package main

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/gym-billing-system/shared/reports"
	"github.com/pavitra93/gym-billing-system/shared/utils"
)

// handleIncomeReport reports paid income for ?period=, with ?start_date=&end_date= for custom ranges
func handleIncomeReport(aggregator *reports.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		from, err := optionalDate("start_date", c.Query("start_date"))
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
		to, err := optionalDate("end_date", c.Query("end_date"))
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
		period := reports.Period(strings.ToLower(strings.TrimSpace(c.Query("period"))))

		report, err := aggregator.Income(c.Request.Context(), scope, period, from, to)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Income report generated successfully", report)
	}
}

func handleMemberReport(aggregator *reports.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}

		report, err := aggregator.Members(c.Request.Context(), scope)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Member report generated successfully", report)
	}
}

func handleDashboard(aggregator *reports.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}

		stats, err := aggregator.Dashboard(c.Request.Context(), scope)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Dashboard stats retrieved successfully", stats)
	}
}

// handleMonthlyDue lists active members without a paid payment this month
func handleMonthlyDue(aggregator *reports.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}

		due, err := aggregator.MonthlyDueList(c.Request.Context(), scope)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Monthly due list generated successfully", due)
	}
}
