// Package aws adapts SES and SNS to the notification senders.
package aws

import (
	"context"
	"fmt"

	"franchise-leads/internal/common/email"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the subset of the SES client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender sends email.Message values through Amazon SES.
type SESSender struct {
	client SESAPI
}

var _ email.Sender = (*SESSender)(nil)

func NewSESSender(ctx context.Context, region string) (*SESSender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewSESSenderWithClient(ses.NewFromConfig(cfg)), nil
}

func NewSESSenderWithClient(client SESAPI) *SESSender {
	return &SESSender{client: client}
}

func (s *SESSender) Send(ctx context.Context, msg email.Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	body := &types.Body{
		Text: &types.Content{Data: sdkaws.String(msg.TextBody), Charset: sdkaws.String("UTF-8")},
	}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{Data: sdkaws.String(msg.HTMLBody), Charset: sdkaws.String("UTF-8")}
	}

	input := &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{msg.To}},
		Message: &types.Message{
			Subject: &types.Content{Data: sdkaws.String(msg.Subject), Charset: sdkaws.String("UTF-8")},
			Body:    body,
		},
		Source: sdkaws.String(msg.From),
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("ses send: %w", err)
	}
	return sdkaws.ToString(out.MessageId), nil
}
