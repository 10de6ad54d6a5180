package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pavitra93/gym-billing-system/shared/utils"
)

// WhatsAppConfig holds the Cloud API credentials of a deployment
type WhatsAppConfig struct {
	BaseURL       string
	APIVersion    string
	PhoneNumberID string
	AccessToken   string
	Timeout       time.Duration
}

// WhatsApp sends text messages through the WhatsApp Business Cloud API
type WhatsApp struct {
	cfg     WhatsAppConfig
	client  *http.Client
	breaker *utils.CircuitBreaker
}

func NewWhatsApp(cfg WhatsAppConfig) *WhatsApp {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://graph.facebook.com"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v18.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &WhatsApp{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: utils.NewCircuitBreaker(5, 30*time.Second),
	}
}

type whatsAppText struct {
	Body string `json:"body"`
}

type whatsAppRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

type whatsAppResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func (w *WhatsApp) endpoint() string {
	return fmt.Sprintf("%s/%s/%s/messages", strings.TrimRight(w.cfg.BaseURL, "/"), w.cfg.APIVersion, w.cfg.PhoneNumberID)
}

// Send posts one text message. Only HTTP 200 counts as delivered.
func (w *WhatsApp) Send(ctx context.Context, phone, text string) Result {
	if w.cfg.PhoneNumberID == "" || w.cfg.AccessToken == "" {
		return Result{Error: "WhatsApp API credentials not configured"}
	}

	var result Result
	err := w.breaker.Call(func() error {
		result = w.post(ctx, phone, text)
		// rejected numbers or templates are not an outage
		if !result.Success && !strings.HasPrefix(result.Error, "API Error: 4") {
			return errors.New(result.Error)
		}
		return nil
	})
	if err != nil && !result.Success && result.Error == "" {
		result.Error = err.Error()
	}
	return result
}

func (w *WhatsApp) post(ctx context.Context, phone, text string) Result {
	payload, err := json.Marshal(whatsAppRequest{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "text",
		Text:             whatsAppText{Body: text},
	})
	if err != nil {
		return Result{Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return Result{Error: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+w.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return Result{Error: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Result{Error: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{Error: fmt.Sprintf("API Error: %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var parsed whatsAppResponse
	result := Result{Success: true}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Messages) > 0 {
		result.MessageID = parsed.Messages[0].ID
	}
	return result
}
