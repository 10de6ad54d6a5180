package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/gym-billing-system/shared/audit"
	"github.com/pavitra93/gym-billing-system/shared/middleware"
	"github.com/pavitra93/gym-billing-system/shared/models"
	"github.com/pavitra93/gym-billing-system/shared/notify"
	"github.com/pavitra93/gym-billing-system/shared/store"
)

const (
	testSecret = "handler-secret"
	testIssuer = "gym-billing"
	adminKey   = "operator-key"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type sentMessage struct {
	Phone string
	Text  string
}

type harness struct {
	t      *testing.T
	router *gin.Engine
	repo   *store.Memory

	mu   sync.Mutex
	sent []sentMessage
	fail string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{t: t, repo: store.NewMemory()}
	channel := notify.ChannelFunc(func(_ context.Context, phone, text string) notify.Result {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.fail != "" {
			return notify.Result{Error: h.fail}
		}
		h.sent = append(h.sent, sentMessage{Phone: phone, Text: text})
		return notify.Result{Success: true, MessageID: "wamid.test"}
	})

	fixed := time.Date(2025, time.January, 10, 11, 0, 0, 0, time.UTC)
	svc := newServices(h.repo, channel, audit.NewSyncTrail(audit.NewStoreSink(h.repo)), serviceOptions{
		Now:           func() time.Time { return fixed },
		CountryCode:   "91",
		NotifyTimeout: time.Second,
	})
	authMiddleware := middleware.NewAuthMiddleware(testSecret, testIssuer, svc.directory)
	h.router = newRouter(svc, authMiddleware, adminKey)
	return h
}

func (h *harness) do(method, path, token string, body interface{}) (int, envelope) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token == adminKey {
		req.Header.Set("X-API-Key", adminKey)
	} else if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (h *harness) onboard(name string) uuid.UUID {
	h.t.Helper()
	code, env := h.do(http.MethodPost, "/admin/gyms", adminKey, map[string]interface{}{"name": name})
	require.Equal(h.t, http.StatusCreated, code, env.Error)
	var gym models.Gym
	require.NoError(h.t, json.Unmarshal(env.Data, &gym))
	return gym.ID
}

func token(t *testing.T, gymID uuid.UUID, role string) string {
	t.Helper()
	tok, err := middleware.IssueToken(testSecret, testIssuer, "user-"+role, gymID, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), string(env.Data))
	return v
}

type memberView struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	MembershipFee     decimal.Decimal `json:"membership_fee"`
	MembershipEndDate time.Time       `json:"membership_end_date"`
	Status            string          `json:"status"`
	DaysRemaining     int             `json:"days_remaining"`
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	code, env := h.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, env.Success)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestOnboardingNeedsAPIKey(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(http.MethodPost, "/admin/gyms", "", map[string]interface{}{"name": "Iron Temple"})
	require.Equal(t, http.StatusUnauthorized, code)

	code, env := h.do(http.MethodPost, "/admin/gyms", adminKey, map[string]interface{}{"name": "  "})
	require.Equal(t, http.StatusBadRequest, code)
	require.False(t, env.Success)

	gymID := h.onboard("Iron Temple")
	code, env = h.do(http.MethodGet, "/api/gym", token(t, gymID, middleware.RoleStaff), nil)
	require.Equal(t, http.StatusOK, code)
	gym := decode[models.Gym](t, env)
	require.Equal(t, "Iron Temple", gym.Name)
	require.Equal(t, "91", gym.CountryCode)
	require.True(t, gym.WhatsAppEnabled)
}

func TestAPIRequiresToken(t *testing.T) {
	h := newHarness(t)
	code, env := h.do(http.MethodGet, "/api/members", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)
	require.False(t, env.Success)
}

func TestMemberPaymentReceiptFlow(t *testing.T) {
	h := newHarness(t)
	gymID := h.onboard("Iron Temple")
	tok := token(t, gymID, middleware.RoleStaff)

	code, env := h.do(http.MethodPost, "/api/plans", tok, map[string]interface{}{
		"name":     "Monthly",
		"duration": "MONTHLY",
		"price":    "1500",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	plan := decode[models.MembershipPlan](t, env)
	require.Equal(t, 30, plan.DurationDays)

	code, env = h.do(http.MethodPost, "/api/members", tok, map[string]interface{}{
		"name":                  "Asha",
		"phone":                 "9876543210",
		"plan_id":               plan.ID,
		"membership_start_date": "2025-01-10",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	member := decode[memberView](t, env)
	require.Equal(t, "active", member.Status)
	require.Equal(t, 30, member.DaysRemaining)
	require.True(t, member.MembershipFee.Equal(decimal.NewFromInt(1500)))
	require.Equal(t, "2025-02-09", member.MembershipEndDate.Format(models.DateLayout))

	code, env = h.do(http.MethodPost, "/api/payments", tok, map[string]interface{}{
		"member_id":      member.ID,
		"amount":         "1500",
		"payment_method": "UPI",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	payment := decode[models.Payment](t, env)
	require.Equal(t, models.PaymentStatusPaid, payment.Status)

	code, env = h.do(http.MethodPost, "/api/payments/"+payment.ID.String()+"/receipt", tok, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	receipt := decode[models.Receipt](t, env)
	day := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	require.Equal(t, models.ReceiptNumber(models.ReceiptPrefix(gymID, day), 1), receipt.ReceiptNumber)

	code, env = h.do(http.MethodPost, "/api/payments/"+payment.ID.String()+"/receipt", tok, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, receipt.ReceiptNumber, decode[models.Receipt](t, env).ReceiptNumber)

	code, env = h.do(http.MethodPost, "/api/receipts/"+receipt.ID.String()+"/send", tok, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	require.Len(t, h.sent, 1)
	require.Equal(t, "919876543210", h.sent[0].Phone)
	require.Contains(t, h.sent[0].Text, receipt.ReceiptNumber)

	code, env = h.do(http.MethodGet, "/api/members/"+member.ID.String()+"/payments", tok, nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, decode[[]models.Payment](t, env), 1)
}

func TestCrossTenantAccessIsRejected(t *testing.T) {
	h := newHarness(t)
	gymA := h.onboard("Gym A")
	gymB := h.onboard("Gym B")
	tokA := token(t, gymA, middleware.RoleStaff)
	tokB := token(t, gymB, middleware.RoleStaff)

	code, env := h.do(http.MethodPost, "/api/members", tokA, map[string]interface{}{
		"name":                "Ravi",
		"phone":               "9000000001",
		"membership_fee":      500,
		"membership_end_date": "2025-03-01",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	member := decode[memberView](t, env)

	code, _ = h.do(http.MethodGet, "/api/members/"+member.ID.String(), tokB, nil)
	require.Equal(t, http.StatusNotFound, code)

	code, _ = h.do(http.MethodPost, "/api/payments", tokB, map[string]interface{}{
		"member_id": member.ID,
		"amount":    500,
	})
	require.Equal(t, http.StatusNotFound, code)

	code, env = h.do(http.MethodGet, "/api/members", tokB, nil)
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, decode[[]memberView](t, env))

	payments, err := h.repo.ListPayments(context.Background(), gymA, store.PaymentFilter{})
	require.NoError(t, err)
	require.Empty(t, payments)
}

func TestValidationErrorsMapTo400(t *testing.T) {
	h := newHarness(t)
	gymID := h.onboard("Iron Temple")
	tok := token(t, gymID, middleware.RoleStaff)

	code, env := h.do(http.MethodPost, "/api/members", tok, map[string]interface{}{
		"name":                "Ravi",
		"phone":               "9000000001",
		"membership_end_date": "01-03-2025",
	})
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, env.Error, "membership_end_date")

	code, env = h.do(http.MethodPost, "/api/members", tok, map[string]interface{}{
		"name":                "Ravi",
		"phone":               "9000000001",
		"membership_end_date": "2025-03-01",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	member := decode[memberView](t, env)

	code, _ = h.do(http.MethodPost, "/api/payments", tok, map[string]interface{}{
		"member_id": member.ID,
		"amount":    0,
	})
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(http.MethodGet, "/api/members/not-a-uuid", tok, nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(http.MethodGet, "/api/reports/income?period=custom&start_date=2025-01-01", tok, nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(http.MethodGet, "/api/reports/income?period=fortnight", tok, nil)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestReminderDeliveryLifecycle(t *testing.T) {
	h := newHarness(t)
	gymID := h.onboard("Iron Temple")
	tok := token(t, gymID, middleware.RoleStaff)

	code, env := h.do(http.MethodPost, "/api/members", tok, map[string]interface{}{
		"name":                  "Meera",
		"phone":                 "9876543210",
		"membership_fee":        500,
		"membership_start_date": "2024-12-14",
		"membership_end_date":   "2025-01-13",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, env = h.do(http.MethodPost, "/api/reminders/generate", tok, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	require.JSONEq(t, `{"created":1}`, string(env.Data))

	code, env = h.do(http.MethodPost, "/api/reminders/generate", tok, nil)
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"created":0}`, string(env.Data))

	code, env = h.do(http.MethodGet, "/api/reminders?status=pending", tok, nil)
	require.Equal(t, http.StatusOK, code)
	pending := decode[[]models.Reminder](t, env)
	require.Len(t, pending, 1)
	id := pending[0].ID.String()

	h.fail = "API Error: 500 - upstream unavailable"
	code, env = h.do(http.MethodPost, "/api/reminders/"+id+"/send", tok, nil)
	require.Equal(t, http.StatusBadGateway, code)
	delivery := decode[notify.Delivery](t, env)
	require.Equal(t, models.ReminderStatusFailed, delivery.Reminder.Status)
	require.Equal(t, "API Error: 500 - upstream unavailable", delivery.Reminder.ErrorMessage)

	code, _ = h.do(http.MethodPost, "/api/reminders/"+id+"/send", tok, nil)
	require.Equal(t, http.StatusConflict, code)

	code, env = h.do(http.MethodPost, "/api/reminders/"+id+"/requeue", tok, nil)
	require.Equal(t, http.StatusOK, code, env.Error)

	h.fail = ""
	code, env = h.do(http.MethodPost, "/api/reminders/send", tok, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	require.Equal(t, notify.BulkResult{Sent: 1}, decode[notify.BulkResult](t, env))
	require.Len(t, h.sent, 1)

	code, env = h.do(http.MethodPost, "/api/reminders/send", tok, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, notify.BulkResult{}, decode[notify.BulkResult](t, env))
	require.Len(t, h.sent, 1)
}

func TestGymSettingsAreOwnerOnly(t *testing.T) {
	h := newHarness(t)
	gymID := h.onboard("Iron Temple")
	staff := token(t, gymID, middleware.RoleStaff)
	owner := token(t, gymID, middleware.RoleOwner)
	disabled := map[string]interface{}{"name": "Iron Temple", "whatsapp_enabled": false}

	code, _ := h.do(http.MethodPut, "/api/gym", staff, disabled)
	require.Equal(t, http.StatusForbidden, code)

	code, env := h.do(http.MethodPut, "/api/gym", owner, disabled)
	require.Equal(t, http.StatusOK, code, env.Error)
	require.False(t, decode[models.Gym](t, env).WhatsAppEnabled)

	code, env = h.do(http.MethodPost, "/api/notify/test", staff, map[string]interface{}{"phone": "9876543210"})
	require.Equal(t, http.StatusConflict, code)
	require.False(t, env.Success)
	require.Empty(t, h.sent)
}

func TestReportsRespond(t *testing.T) {
	h := newHarness(t)
	gymID := h.onboard("Iron Temple")
	tok := token(t, gymID, middleware.RoleStaff)

	for _, path := range []string{
		"/api/reports/income",
		"/api/reports/income?period=custom&start_date=2025-01-01&end_date=2025-01-10",
		"/api/reports/members",
		"/api/reports/dashboard",
		"/api/reports/monthly-due",
		"/api/payments/stats",
	} {
		code, env := h.do(http.MethodGet, path, tok, nil)
		require.Equal(t, http.StatusOK, code, path)
		require.True(t, env.Success, path)
	}
}

func TestAttendanceReceiptListAndActivity(t *testing.T) {
	h := newHarness(t)
	gymID := h.onboard("Iron Temple")
	tok := token(t, gymID, middleware.RoleStaff)

	code, env := h.do(http.MethodPost, "/api/members", tok, map[string]interface{}{
		"name":                "Asha",
		"phone":               "9876543210",
		"membership_fee":      500,
		"membership_end_date": "2025-03-01",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	member := decode[memberView](t, env)

	code, env = h.do(http.MethodPost, "/api/members/"+member.ID.String()+"/check-in", tok, map[string]interface{}{"notes": "morning"})
	require.Equal(t, http.StatusCreated, code, env.Error)
	code, env = h.do(http.MethodPost, "/api/members/"+member.ID.String()+"/check-in", tok, nil)
	require.Equal(t, http.StatusCreated, code, env.Error)
	code, _ = h.do(http.MethodPost, "/api/members/"+uuid.NewString()+"/check-in", tok, nil)
	require.Equal(t, http.StatusNotFound, code)

	code, env = h.do(http.MethodGet, "/api/attendance?start_date=2025-01-10&end_date=2025-01-10&member_id="+member.ID.String(), tok, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	require.Len(t, decode[[]models.MemberAttendance](t, env), 2)
	code, env = h.do(http.MethodGet, "/api/attendance?start_date=2025-01-11", tok, nil)
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, decode[[]models.MemberAttendance](t, env))
	code, _ = h.do(http.MethodGet, "/api/attendance?start_date=yesterday", tok, nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, env = h.do(http.MethodPost, "/api/payments", tok, map[string]interface{}{
		"member_id": member.ID,
		"amount":    "500",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	payment := decode[models.Payment](t, env)
	code, env = h.do(http.MethodPost, "/api/payments/"+payment.ID.String()+"/receipt", tok, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	receipt := decode[models.Receipt](t, env)

	code, env = h.do(http.MethodGet, "/api/receipts", tok, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	listed := decode[[]models.Receipt](t, env)
	require.Len(t, listed, 1)
	require.Equal(t, receipt.ReceiptNumber, listed[0].ReceiptNumber)

	code, env = h.do(http.MethodGet, "/api/activity", tok, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	actions := make(map[models.ActivityAction]bool)
	for _, e := range decode[[]models.ActivityLog](t, env) {
		require.Equal(t, gymID, e.GymID)
		actions[e.Action] = true
	}
	require.True(t, actions[models.ActionMemberAdd])
	require.True(t, actions[models.ActionPaymentAdd])
	require.True(t, actions[models.ActionReceiptGenerated])

	other := token(t, h.onboard("Other"), middleware.RoleStaff)
	code, env = h.do(http.MethodGet, "/api/receipts", other, nil)
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, decode[[]models.Receipt](t, env))
	code, env = h.do(http.MethodGet, "/api/activity", other, nil)
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, decode[[]models.ActivityLog](t, env))
}
