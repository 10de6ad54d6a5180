package main

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/notify"
	"github.com/pavitra93/gym-billing-system/shared/payments"
	"github.com/pavitra93/gym-billing-system/shared/reports"
	"github.com/pavitra93/gym-billing-system/shared/store"
	"github.com/pavitra93/gym-billing-system/shared/utils"
)

// handleListPayments lists payments of the caller's gym, newest first
func handleListPayments(ledger *payments.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		filter, err := paymentFilter(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		list, err := ledger.List(c.Request.Context(), scope, filter)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Payments retrieved successfully", list)
	}
}

// handleRecordPayment records a payment against a member
func handleRecordPayment(ledger *payments.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		var req paymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		in, err := req.input()
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		payment, err := ledger.RecordPaymentFor(c.Request.Context(), scope, req.MemberID, in)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.CreatedResponse(c, "Payment recorded successfully", payment)
	}
}

func handleGetPayment(ledger *payments.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		payment, err := ledger.Get(c.Request.Context(), scope, id)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Payment retrieved successfully", payment)
	}
}

// handleUpdatePaymentStatus corrects the status of a payment
func handleUpdatePaymentStatus(ledger *payments.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req paymentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format. Status must be PAID, PENDING or FAILED")
			return
		}

		payment, err := ledger.UpdateStatus(c.Request.Context(), scope, id, req.Status)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Payment status updated successfully", payment)
	}
}

// handlePaymentStats returns collection totals for today, this month and the last week
func handlePaymentStats(aggregator *reports.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}

		stats, err := aggregator.PaymentStats(c.Request.Context(), scope)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Payment stats retrieved successfully", stats)
	}
}

// handleCreateReceipt issues the receipt of a payment, or returns the existing one
func handleCreateReceipt(ledger *payments.Ledger, receipts *payments.Receipts) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		payment, err := ledger.Get(c.Request.Context(), scope, id)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
		receipt, err := receipts.GetOrCreateReceipt(c.Request.Context(), scope, payment)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Receipt generated successfully", receipt)
	}
}

func handleGetReceipt(receipts *payments.Receipts) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		receipt, err := receipts.ReceiptFor(c.Request.Context(), scope, id)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Receipt retrieved successfully", receipt)
	}
}

// handleListReceipts lists receipts of the gym, ?member_id= narrows to one member
func handleListReceipts(receipts *payments.Receipts) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		memberID, err := optionalUUID("member_id", c.Query("member_id"))
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		list, err := receipts.List(c.Request.Context(), scope, store.ReceiptFilter{MemberID: memberID})
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Receipts retrieved successfully", list)
	}
}

// handleReceiptDocument returns everything a printed receipt shows
func handleReceiptDocument(receipts *payments.Receipts) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		doc, err := receipts.Document(c.Request.Context(), scope, id)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Receipt retrieved successfully", doc)
	}
}

// handleSendReceipt delivers a receipt to its member
func handleSendReceipt(dispatcher *notify.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := scopeOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		delivery, err := dispatcher.SendReceipt(c.Request.Context(), scope, id)
		if err != nil {
			deliveryErrorResponse(c, delivery, err)
			return
		}

		utils.OKResponse(c, "Receipt sent successfully", delivery)
	}
}

// deliveryErrorResponse reports a failed send together with the recorded outcome
func deliveryErrorResponse(c *gin.Context, delivery *notify.Delivery, err error) {
	if delivery != nil && errors.Is(err, errs.ErrDelivery) {
		c.JSON(utils.StatusFor(err), utils.APIResponse{
			Success: false,
			Error:   err.Error(),
			Data:    delivery,
		})
		return
	}
	utils.DomainErrorResponse(c, err)
}
