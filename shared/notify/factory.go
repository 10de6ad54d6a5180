package notify

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pavitra93/gym-billing-system/shared/config"
)

const (
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sns"
	ChannelLog      = "log"
)

// NewChannel builds the outbound channel selected by cfg.Channel
func NewChannel(cfg config.NotifyConfig, log logrus.FieldLogger) (Channel, error) {
	switch cfg.Channel {
	case ChannelWhatsApp, "":
		return NewWhatsApp(WhatsAppConfig{
			BaseURL:       cfg.WhatsAppBaseURL,
			APIVersion:    cfg.WhatsAppAPIVersion,
			PhoneNumberID: cfg.WhatsAppPhoneNumberID,
			AccessToken:   cfg.WhatsAppAccessToken,
			Timeout:       cfg.Timeout,
		}), nil
	case ChannelSMS:
		return NewSMS(cfg.AWSRegion)
	case ChannelLog:
		return LogChannel{Log: log}, nil
	default:
		return nil, fmt.Errorf("unknown NOTIFY_CHANNEL %q", cfg.Channel)
	}
}
