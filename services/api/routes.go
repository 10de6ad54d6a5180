package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/gym-billing-system/shared/audit"
	"github.com/pavitra93/gym-billing-system/shared/members"
	"github.com/pavitra93/gym-billing-system/shared/middleware"
	"github.com/pavitra93/gym-billing-system/shared/notify"
	"github.com/pavitra93/gym-billing-system/shared/payments"
	"github.com/pavitra93/gym-billing-system/shared/reminders"
	"github.com/pavitra93/gym-billing-system/shared/reports"
	"github.com/pavitra93/gym-billing-system/shared/store"
	"github.com/pavitra93/gym-billing-system/shared/tenant"
	"github.com/pavitra93/gym-billing-system/shared/utils"
)

// services is the core the handlers call into
type services struct {
	directory  *tenant.Directory
	members    *members.Ledger
	payments   *payments.Ledger
	receipts   *payments.Receipts
	reminders  *reminders.Service
	dispatcher *notify.Dispatcher
	reports    *reports.Aggregator
	activity   audit.ActivityReader
	now        func() time.Time
}

type serviceOptions struct {
	Now            func() time.Time
	CountryCode    string
	NotifyTimeout  time.Duration
	Cache          reports.Cache
	ReportCacheTTL time.Duration
}

func newServices(repo store.Repository, channel notify.Channel, trail audit.Trail, opts serviceOptions) *services {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := logrus.StandardLogger()

	aggregator := reports.NewAggregator(repo, opts.Now, log)
	if opts.Cache != nil {
		aggregator.WithCache(opts.Cache, opts.ReportCacheTTL)
	}

	return &services{
		directory: tenant.NewDirectory(repo, opts.CountryCode),
		members:   members.NewLedger(repo, trail, opts.Now, log),
		payments:  payments.NewLedger(repo, trail, opts.Now, log),
		receipts:  payments.NewReceipts(repo, trail, opts.Now, log),
		reminders: reminders.NewService(repo, opts.Now, log),
		dispatcher: notify.NewDispatcher(repo, channel, trail, notify.Options{
			Timeout: opts.NotifyTimeout,
			Now:     opts.Now,
			Log:     log,
		}),
		reports:  aggregator,
		activity: repo,
		now:      opts.Now,
	}
}

func newRouter(svc *services, authMiddleware *middleware.AuthMiddleware, adminKey string) *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Billing API is healthy", nil)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := r.Group("/admin")
	admin.Use(middleware.RequireAPIKey(adminKey))
	{
		admin.POST("/gyms", handleOnboardGym(svc.directory))
	}

	api := r.Group("/api")
	api.Use(authMiddleware.RequireAuth())
	{
		api.GET("/gym", handleGetGym())
		api.PUT("/gym", authMiddleware.RequireRole(middleware.RoleOwner), handleUpdateGym(svc.directory))
		api.POST("/notify/test", handleSendTest(svc.dispatcher))
		api.GET("/activity", handleListActivity(svc.activity))
		api.GET("/attendance", handleListAttendance(svc.members))

		plans := api.Group("/plans")
		{
			plans.GET("", handleListPlans(svc.members))
			plans.POST("", handleCreatePlan(svc.members))
			plans.GET("/:id", handleGetPlan(svc.members))
			plans.PUT("/:id", handleUpdatePlan(svc.members))
			plans.DELETE("/:id", handleDeletePlan(svc.members))
		}

		memberRoutes := api.Group("/members")
		{
			memberRoutes.GET("", handleListMembers(svc.members, svc.now))
			memberRoutes.POST("", handleCreateMember(svc.members, svc.now))
			memberRoutes.GET("/expiring", handleListExpiring(svc.members, svc.now))
			memberRoutes.GET("/expired", handleListExpired(svc.members, svc.now))
			memberRoutes.GET("/:id", handleGetMember(svc.members, svc.now))
			memberRoutes.PUT("/:id", handleUpdateMember(svc.members, svc.now))
			memberRoutes.DELETE("/:id", handleDeleteMember(svc.members))
			memberRoutes.POST("/:id/renew", handleRenewMember(svc.members, svc.now))
			memberRoutes.POST("/:id/deactivate", handleDeactivateMember(svc.members, svc.now))
			memberRoutes.GET("/:id/payments", handleMemberHistory(svc.members))
			memberRoutes.POST("/:id/check-in", handleCheckIn(svc.members))
		}

		paymentRoutes := api.Group("/payments")
		{
			paymentRoutes.GET("", handleListPayments(svc.payments))
			paymentRoutes.POST("", handleRecordPayment(svc.payments))
			paymentRoutes.GET("/stats", handlePaymentStats(svc.reports))
			paymentRoutes.GET("/:id", handleGetPayment(svc.payments))
			paymentRoutes.PATCH("/:id/status", handleUpdatePaymentStatus(svc.payments))
			paymentRoutes.POST("/:id/receipt", handleCreateReceipt(svc.payments, svc.receipts))
			paymentRoutes.GET("/:id/receipt", handleGetReceipt(svc.receipts))
		}

		receiptRoutes := api.Group("/receipts")
		{
			receiptRoutes.GET("", handleListReceipts(svc.receipts))
			receiptRoutes.GET("/:id", handleReceiptDocument(svc.receipts))
			receiptRoutes.POST("/:id/send", handleSendReceipt(svc.dispatcher))
		}

		reminderRoutes := api.Group("/reminders")
		{
			reminderRoutes.GET("", handleListReminders(svc.reminders))
			reminderRoutes.POST("", handleCreateReminder(svc.reminders))
			reminderRoutes.POST("/generate", handleGenerateReminders(svc.reminders, svc.now))
			reminderRoutes.POST("/send", handleSendBulk(svc.dispatcher))
			reminderRoutes.GET("/:id", handleGetReminder(svc.reminders))
			reminderRoutes.POST("/:id/send", handleSendReminder(svc.dispatcher))
			reminderRoutes.POST("/:id/requeue", handleRequeueReminder(svc.reminders))
		}

		reportRoutes := api.Group("/reports")
		{
			reportRoutes.GET("/income", handleIncomeReport(svc.reports))
			reportRoutes.GET("/members", handleMemberReport(svc.reports))
			reportRoutes.GET("/dashboard", handleDashboard(svc.reports))
			reportRoutes.GET("/monthly-due", handleMonthlyDue(svc.reports))
		}
	}

	return r
}
