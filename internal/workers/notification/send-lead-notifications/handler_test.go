// internal/workers/notification/send-lead-notifications/handler_test.go
package sendleadnotifications

import (
	"context"
	"errors"
	"html"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"franchise-leads/internal/common/email"
	"franchise-leads/internal/common/logger"
	"franchise-leads/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockMailer struct {
	mu       sync.Mutex
	sent     []email.Message
	SendFunc func(ctx context.Context, msg email.Message) (string, error)
}

func (m *MockMailer) Send(ctx context.Context, msg email.Message) (string, error) {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	if m.SendFunc == nil {
		return "msg-1", nil
	}
	return m.SendFunc(ctx, msg)
}

func (m *MockMailer) messages() []email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.Message(nil), m.sent...)
}

func (m *MockMailer) sentTo(addr string) (email.Message, bool) {
	for _, msg := range m.messages() {
		if msg.To == addr {
			return msg, true
		}
	}
	return email.Message{}, false
}

type MockSMS struct {
	SendSMSFunc func(ctx context.Context, phone, message string) error
}

func (m *MockSMS) SendSMS(ctx context.Context, phone, message string) error {
	return m.SendSMSFunc(ctx, phone, message)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		EmailEnabled:  true,
		SMSEnabled:    false,
		FromEmail:     "noreply@shakes.example.com",
		OperatorEmail: "owner@shakes.example.com",
		ReplyTo:       "franchise@shakes.example.com",
		BrandName:     "Milkshake Franchise",
		Timeout:       5 * time.Second,
	}
}

func createTestLead() models.Lead {
	return *models.NewLead("lead-001", models.LeadSubmission{
		FullName:        "Dana <Whitfield>",
		Email:           "dana@example.com",
		Phone:           "+1 555 010 2030",
		CityState:       "Austin, TX",
		OwnsBusiness:    "no",
		InterestReason:  "Love the shakes",
		EstimatedBudget: "$100k-$250k",
		HasSpace:        "yes",
		StartTimeline:   "ASAP",
		HeardAboutUs:    "Friend",
		Confirm:         true,
	}, time.Date(2026, 3, 1, 15, 4, 0, 0, time.UTC))
}

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

// ==========================
// Execute
// ==========================

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name           string
		mutateConfig   func(c *Config)
		mailer         *MockMailer
		sms            *MockSMS
		validateOutput func(t *testing.T, output *Output, mailer *MockMailer)
	}{
		{
			name:   "both emails sent",
			mailer: &MockMailer{},
			validateOutput: func(t *testing.T, output *Output, mailer *MockMailer) {
				assert.Equal(t, models.NotificationStatusSent, output.Status(models.RecipientSubmitter, models.ChannelEmail))
				assert.Equal(t, models.NotificationStatusSent, output.Status(models.RecipientOperator, models.ChannelEmail))
				assert.Equal(t, models.NotificationStatusDisabled, output.Status(models.RecipientOperator, models.ChannelSMS))
				assert.Len(t, mailer.messages(), 2)

				confirmation, ok := mailer.sentTo("dana@example.com")
				require.True(t, ok)
				assert.Equal(t, "Thanks for your interest in Milkshake Franchise", confirmation.Subject)
				assert.Equal(t, "franchise@shakes.example.com", confirmation.ReplyTo)

				alert, ok := mailer.sentTo("owner@shakes.example.com")
				require.True(t, ok)
				assert.Equal(t, "dana@example.com", alert.ReplyTo)
				assert.Contains(t, alert.TextBody, "Lead ID: lead-001")
				assert.Contains(t, alert.HTMLBody, "Dana &lt;Whitfield&gt;")
				assert.NotContains(t, alert.TextBody, "{{")
			},
		},
		{
			name: "confirmation failure does not affect operator alert",
			mailer: &MockMailer{
				SendFunc: func(ctx context.Context, msg email.Message) (string, error) {
					if msg.To == "dana@example.com" {
						return "", errors.New("MessageRejected: address blacklisted")
					}
					return "msg-2", nil
				},
			},
			validateOutput: func(t *testing.T, output *Output, mailer *MockMailer) {
				assert.Equal(t, models.NotificationStatusFailed, output.Status(models.RecipientSubmitter, models.ChannelEmail))
				assert.Equal(t, models.NotificationStatusSent, output.Status(models.RecipientOperator, models.ChannelEmail))
				for _, n := range output.Notifications {
					if n.Status == models.NotificationStatusFailed {
						assert.Contains(t, n.Error, "blacklisted")
					}
				}
			},
		},
		{
			name:         "missing sender address skips both emails",
			mutateConfig: func(c *Config) { c.FromEmail = "" },
			mailer:       &MockMailer{},
			validateOutput: func(t *testing.T, output *Output, mailer *MockMailer) {
				assert.Equal(t, models.NotificationStatusDisabled, output.Status(models.RecipientSubmitter, models.ChannelEmail))
				assert.Equal(t, models.NotificationStatusDisabled, output.Status(models.RecipientOperator, models.ChannelEmail))
				assert.Empty(t, mailer.messages())
			},
		},
		{
			name:         "missing operator address skips only the alert",
			mutateConfig: func(c *Config) { c.OperatorEmail = "" },
			mailer:       &MockMailer{},
			validateOutput: func(t *testing.T, output *Output, mailer *MockMailer) {
				assert.Equal(t, models.NotificationStatusSent, output.Status(models.RecipientSubmitter, models.ChannelEmail))
				assert.Equal(t, models.NotificationStatusDisabled, output.Status(models.RecipientOperator, models.ChannelEmail))
				assert.Len(t, mailer.messages(), 1)
			},
		},
		{
			name:         "email disabled",
			mutateConfig: func(c *Config) { c.EmailEnabled = false },
			mailer:       &MockMailer{},
			validateOutput: func(t *testing.T, output *Output, mailer *MockMailer) {
				assert.Empty(t, mailer.messages())
			},
		},
		{
			name: "sms alert sent when configured",
			mutateConfig: func(c *Config) {
				c.SMSEnabled = true
				c.OperatorPhone = "+15550100"
			},
			mailer: &MockMailer{},
			sms: &MockSMS{
				SendSMSFunc: func(ctx context.Context, phone, message string) error {
					if phone != "+15550100" || !strings.Contains(message, "Austin, TX") {
						return errors.New("unexpected sms")
					}
					return nil
				},
			},
			validateOutput: func(t *testing.T, output *Output, mailer *MockMailer) {
				assert.Equal(t, models.NotificationStatusSent, output.Status(models.RecipientOperator, models.ChannelSMS))
			},
		},
		{
			name: "panicking sender is contained",
			mailer: &MockMailer{
				SendFunc: func(ctx context.Context, msg email.Message) (string, error) {
					panic("nil client")
				},
			},
			validateOutput: func(t *testing.T, output *Output, mailer *MockMailer) {
				assert.Equal(t, models.NotificationStatusFailed, output.Status(models.RecipientSubmitter, models.ChannelEmail))
				assert.Equal(t, models.NotificationStatusFailed, output.Status(models.RecipientOperator, models.ChannelEmail))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig()
			if tt.mutateConfig != nil {
				tt.mutateConfig(cfg)
			}
			var sms SMSSender
			if tt.sms != nil {
				sms = tt.sms
			}
			h := NewHandler(cfg, tt.mailer, sms, newTestLogger(t))

			output := h.Execute(context.Background(), &Input{Lead: createTestLead()})

			require.NotNil(t, output)
			assert.Equal(t, "lead-001", output.LeadID)
			assert.Len(t, output.Notifications, 3)
			tt.validateOutput(t, output, tt.mailer)
		})
	}
}

func TestHandler_Execute_SendsConcurrently(t *testing.T) {
	var started int32
	release := make(chan struct{})
	mailer := &MockMailer{
		SendFunc: func(ctx context.Context, msg email.Message) (string, error) {
			if atomic.AddInt32(&started, 1) == 2 {
				close(release)
			}
			select {
			case <-release:
				return "ok", nil
			case <-time.After(2 * time.Second):
				return "", errors.New("sends were serialized")
			}
		},
	}
	h := NewHandler(createTestConfig(), mailer, nil, newTestLogger(t))

	output := h.Execute(context.Background(), &Input{Lead: createTestLead()})

	assert.Equal(t, models.NotificationStatusSent, output.Status(models.RecipientSubmitter, models.ChannelEmail))
	assert.Equal(t, models.NotificationStatusSent, output.Status(models.RecipientOperator, models.ChannelEmail))
}

// ==========================
// Dispatch / Wait
// ==========================

func TestHandler_Dispatch_IsDetached(t *testing.T) {
	block := make(chan struct{})
	var delivered int32
	mailer := &MockMailer{
		SendFunc: func(ctx context.Context, msg email.Message) (string, error) {
			<-block
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			atomic.AddInt32(&delivered, 1)
			return "ok", nil
		},
	}
	h := NewHandler(createTestConfig(), mailer, nil, newTestLogger(t))

	reqCtx, cancel := context.WithCancel(context.Background())
	h.Dispatch(reqCtx, createTestLead())
	cancel() // the request finishing must not cancel the sends

	shortCtx, shortCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer shortCancel()
	assert.ErrorIs(t, h.Wait(shortCtx), context.DeadlineExceeded)

	close(block)
	require.NoError(t, h.Wait(context.Background()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&delivered))
}

func TestHandler_Dispatch_TimeoutBoundsSends(t *testing.T) {
	cfg := createTestConfig()
	cfg.Timeout = 10 * time.Millisecond
	mailer := &MockMailer{
		SendFunc: func(ctx context.Context, msg email.Message) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	h := NewHandler(cfg, mailer, nil, newTestLogger(t))

	h.Dispatch(context.Background(), createTestLead())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, h.Wait(ctx))
}

// ==========================
// Templates
// ==========================

func TestRenderTemplate(t *testing.T) {
	data := map[string]interface{}{"name": "Dana", "count": 3, "empty": nil}

	assert.Equal(t, "Hi Dana (3)", renderTemplate("Hi {{name}} ({{count}})", data, nil))
	assert.Equal(t, "Hi ", renderTemplate("Hi {{unknown}}", data, nil))
	assert.Equal(t, "[]", renderTemplate("[{{empty}}]", data, nil))
	assert.Equal(t, "unterminated {{name", renderTemplate("unterminated {{name", map[string]interface{}{}, nil))
}

func TestRenderTemplate_ValuesAreNotExpanded(t *testing.T) {
	data := map[string]interface{}{
		"fullName":  "Eve {{email}}",
		"email":     "eve@example.com",
		"cityState": "A {{x}} B",
	}

	for i := 0; i < 50; i++ {
		got := renderTemplate("New franchise lead: {{fullName}} ({{cityState}})", data, nil)
		require.Equal(t, "New franchise lead: Eve {{email}} (A {{x}} B)", got)
	}

	assert.Equal(t, "<b>Eve {{email}}</b>", renderTemplate("<b>{{fullName}}</b>", data, nil))
	assert.Equal(t, "&lt;i&gt;", renderTemplate("{{v}}", map[string]interface{}{"v": "<i>"}, html.EscapeString))
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := render("nope", nil)
	assert.ErrorContains(t, err, "template not found")
}
