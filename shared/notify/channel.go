// Package notify delivers reminders and receipts to members over an outbound
// messaging channel and records the outcome.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Result is the outcome of one send. Error holds the raw transport text on failure.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Channel sends a text message to a normalized phone number
type Channel interface {
	Send(ctx context.Context, phone, text string) Result
}

// ChannelFunc adapts a function to Channel
type ChannelFunc func(ctx context.Context, phone, text string) Result

func (f ChannelFunc) Send(ctx context.Context, phone, text string) Result {
	return f(ctx, phone, text)
}

// LogChannel writes messages to the log instead of sending them. It is used
// for local runs where no messaging credentials exist.
type LogChannel struct {
	Log logrus.FieldLogger
}

func (c LogChannel) Send(ctx context.Context, phone, text string) Result {
	if err := ctx.Err(); err != nil {
		return Result{Error: err.Error()}
	}
	log := c.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{
		"phone":  phone,
		"length": len(text),
	}).Info("message not sent, log channel in use")
	return Result{Success: true, MessageID: "log"}
}
