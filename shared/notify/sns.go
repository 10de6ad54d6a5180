package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
)

// SMS sends transactional text messages through Amazon SNS
type SMS struct {
	client snsiface.SNSAPI
}

// NewSMS builds an SNS client for region using the default credential chain
func NewSMS(region string) (*SMS, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &SMS{client: sns.New(sess)}, nil
}

// NewSMSWithClient wraps an existing SNS client
func NewSMSWithClient(client snsiface.SNSAPI) *SMS {
	return &SMS{client: client}
}

func (s *SMS) Send(ctx context.Context, phone, text string) Result {
	out, err := s.client.PublishWithContext(ctx, &sns.PublishInput{
		PhoneNumber: aws.String("+" + phone),
		Message:     aws.String(text),
		MessageAttributes: map[string]*sns.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	})
	if err != nil {
		return Result{Error: err.Error()}
	}
	return Result{Success: true, MessageID: aws.StringValue(out.MessageId)}
}
