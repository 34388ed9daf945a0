package aws

import (
	"context"
	"errors"
	"testing"

	"franchise-leads/internal/common/email"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSES struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type mockSNS struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func TestSESSender_Send(t *testing.T) {
	var captured *ses.SendEmailInput
	sender := NewSESSenderWithClient(&mockSES{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			captured = params
			return &ses.SendEmailOutput{MessageId: sdkaws.String("ses-123")}, nil
		},
	})

	id, err := sender.Send(context.Background(), email.Message{
		From:     "noreply@shakes.example.com",
		To:       "owner@shakes.example.com",
		ReplyTo:  "dana@example.com",
		Subject:  "New lead",
		TextBody: "text",
		HTMLBody: "<p>html</p>",
	})

	require.NoError(t, err)
	assert.Equal(t, "ses-123", id)
	require.NotNil(t, captured)
	assert.Equal(t, []string{"owner@shakes.example.com"}, captured.Destination.ToAddresses)
	assert.Equal(t, []string{"dana@example.com"}, captured.ReplyToAddresses)
	assert.Equal(t, "noreply@shakes.example.com", *captured.Source)
	assert.Equal(t, "New lead", *captured.Message.Subject.Data)
	assert.Equal(t, "<p>html</p>", *captured.Message.Body.Html.Data)
}

func TestSESSender_SendTextOnlyAndErrors(t *testing.T) {
	calls := 0
	sender := NewSESSenderWithClient(&mockSES{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			calls++
			assert.Nil(t, params.Message.Body.Html)
			assert.Empty(t, params.ReplyToAddresses)
			return nil, errors.New("MessageRejected")
		},
	})

	_, err := sender.Send(context.Background(), email.Message{
		From: "noreply@shakes.example.com", To: "dana@example.com", Subject: "s", TextBody: "t",
	})
	assert.ErrorContains(t, err, "MessageRejected")

	_, err = sender.Send(context.Background(), email.Message{From: "bad", To: "dana@example.com"})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestSNSSender_SendSMS(t *testing.T) {
	var captured *sns.PublishInput
	sender := NewSNSSenderWithClient(&mockSNS{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{}, nil
		},
	}, "SHAKES")

	require.NoError(t, sender.SendSMS(context.Background(), "+15550100", "New lead"))
	assert.Equal(t, "+15550100", *captured.PhoneNumber)
	assert.Equal(t, "SHAKES", *captured.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue)

	failing := NewSNSSenderWithClient(&mockSNS{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			_, hasSender := params.MessageAttributes["AWS.SNS.SMS.SenderID"]
			assert.False(t, hasSender)
			return nil, errors.New("throttled")
		},
	}, "")
	assert.ErrorContains(t, failing.SendSMS(context.Background(), "+15550100", "x"), "throttled")
}
