package main

import (
	"github.com/gin-gonic/gin"

	"github.com/pavitra93/gym-billing-system/shared/notify"
	"github.com/pavitra93/gym-billing-system/shared/tenant"
	"github.com/pavitra93/gym-billing-system/shared/utils"
)

// handleOnboardGym creates a gym (operator only)
func handleOnboardGym(directory *tenant.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tenant.GymInput
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		gym, err := directory.Onboard(c.Request.Context(), req)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.CreatedResponse(c, "Gym created successfully", gym)
	}
}

// handleGetGym returns the caller's gym
func handleGetGym() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		utils.OKResponse(c, "Gym retrieved successfully", scope.Gym())
	}
}

// handleUpdateGym edits the profile and messaging settings of the caller's gym (owner only)
func handleUpdateGym(directory *tenant.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		var req tenant.GymInput
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		gym, err := directory.Update(c.Request.Context(), scope, req)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Gym updated successfully", gym)
	}
}

// handleSendTest sends the configuration test message
func handleSendTest(dispatcher *notify.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		var req testMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Phone number is required")
			return
		}

		result, err := dispatcher.SendTest(c.Request.Context(), scope, req.Phone)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Test message sent successfully", result)
	}
}
