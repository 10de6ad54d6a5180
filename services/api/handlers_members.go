package main

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/gym-billing-system/shared/members"
	"github.com/pavitra93/gym-billing-system/shared/models"
	"github.com/pavitra93/gym-billing-system/shared/utils"
)

func views(list []models.Member, asOf time.Time) []members.View {
	out := make([]members.View, 0, len(list))
	for _, m := range list {
		out = append(out, members.NewView(m, asOf))
	}
	return out
}

// handleListMembers lists members of the caller's gym
func handleListMembers(ledger *members.Ledger, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		filter, err := memberFilter(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		list, err := ledger.List(c.Request.Context(), scope, filter)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Members retrieved successfully", views(list, now()))
	}
}

// handleCreateMember enrolls a member
func handleCreateMember(ledger *members.Ledger, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		var req memberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		in, err := req.input()
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		member, err := ledger.Create(c.Request.Context(), scope, in)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.CreatedResponse(c, "Member created successfully", members.NewView(*member, now()))
	}
}

// handleGetMember returns a member with its derived status
func handleGetMember(ledger *members.Ledger, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		member, err := ledger.Get(c.Request.Context(), scope, id)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Member retrieved successfully", members.NewView(*member, now()))
	}
}

// handleUpdateMember replaces the profile of a member
func handleUpdateMember(ledger *members.Ledger, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req memberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		in, err := req.input()
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		member, err := ledger.Update(c.Request.Context(), scope, id, in)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Member updated successfully", members.NewView(*member, now()))
	}
}

// handleDeleteMember removes a member and everything recorded for it
func handleDeleteMember(ledger *members.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		if err := ledger.Delete(c.Request.Context(), scope, id); err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Member deleted successfully", nil)
	}
}

// handleRenewMember starts a new membership period
func handleRenewMember(ledger *members.Ledger, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req renewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		in, err := req.input()
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		member, err := ledger.Renew(c.Request.Context(), scope, id, in)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Membership renewed successfully", members.NewView(*member, now()))
	}
}

// handleDeactivateMember flags a member inactive
func handleDeactivateMember(ledger *members.Ledger, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		member, err := ledger.Deactivate(c.Request.Context(), scope, id)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Member deactivated successfully", members.NewView(*member, now()))
	}
}

// handleListExpiring lists active members whose period ends within a week
func handleListExpiring(ledger *members.Ledger, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		asOf := now()

		list, err := ledger.ListExpiring(c.Request.Context(), scope, asOf)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Expiring members retrieved successfully", views(list, asOf))
	}
}

// handleListExpired lists members whose period has ended
func handleListExpired(ledger *members.Ledger, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		asOf := now()

		list, err := ledger.ListExpired(c.Request.Context(), scope, asOf)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Expired members retrieved successfully", views(list, asOf))
	}
}

// handleMemberHistory returns the payments of a member
func handleMemberHistory(ledger *members.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		history, err := ledger.History(c.Request.Context(), scope, id)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Payment history retrieved successfully", history)
	}
}

// handleListPlans lists plans, ?active=true for the sellable ones only
func handleListPlans(ledger *members.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}

		plans, err := ledger.ListPlans(c.Request.Context(), scope, c.Query("active") == "true")
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Plans retrieved successfully", plans)
	}
}

func handleCreatePlan(ledger *members.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		var req members.PlanInput
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		plan, err := ledger.CreatePlan(c.Request.Context(), scope, req)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.CreatedResponse(c, "Plan created successfully", plan)
	}
}

func handleGetPlan(ledger *members.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		plan, err := ledger.GetPlan(c.Request.Context(), scope, id)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Plan retrieved successfully", plan)
	}
}

func handleUpdatePlan(ledger *members.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req members.PlanInput
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		plan, err := ledger.UpdatePlan(c.Request.Context(), scope, id, req)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Plan updated successfully", plan)
	}
}

func handleDeletePlan(ledger *members.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		if err := ledger.DeletePlan(c.Request.Context(), scope, id); err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Plan deleted successfully", nil)
	}
}
