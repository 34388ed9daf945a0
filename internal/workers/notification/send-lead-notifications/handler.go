// internal/workers/notification/send-lead-notifications/handler.go
package sendleadnotifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"franchise-leads/internal/common/email"
	"franchise-leads/internal/common/logger"
	"franchise-leads/internal/common/metrics"
	"franchise-leads/internal/models"

	"github.com/google/uuid"
)

const (
	TaskType = "send-lead-notifications"
)

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// Handler sends the submitter confirmation and the operator alerts for a
// newly created lead. Delivery is best effort: failures are logged and
// counted, never returned and never retried.
type Handler struct {
	config *Config
	logger logger.Logger
	mailer email.Sender
	sms    SMSSender

	inflight sync.WaitGroup
}

// NewHandler accepts nil senders; the corresponding channel is then
// reported as disabled.
func NewHandler(config *Config, mailer email.Sender, sms SMSSender, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		mailer: mailer,
		sms:    sms,
	}
}

type delivery struct {
	notification models.Notification
	send         func(ctx context.Context) error
}

// Execute issues every enabled send concurrently and waits for all of them.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	lead := input.Lead
	data := templateData(lead, h.config.BrandName)

	deliveries := h.plan(lead, data)
	results := make([]models.Notification, len(deliveries))

	var wg sync.WaitGroup
	for i, d := range deliveries {
		results[i] = d.notification
		if d.send == nil {
			results[i].Status = models.NotificationStatusDisabled
			h.logger.Debug("notification skipped", map[string]interface{}{
				"leadId":    lead.ID,
				"recipient": d.notification.RecipientType,
				"channel":   d.notification.Channel,
			})
			continue
		}

		wg.Add(1)
		go func(i int, d delivery) {
			defer wg.Done()
			results[i] = h.deliver(ctx, d)
		}(i, d)
	}
	wg.Wait()

	for _, n := range results {
		metrics.NotificationsSent.WithLabelValues(n.Channel, n.RecipientType, n.Status).Inc()
	}

	return &Output{LeadID: lead.ID, Notifications: results}
}

func (h *Handler) deliver(ctx context.Context, d delivery) (n models.Notification) {
	n = d.notification
	defer func() {
		if r := recover(); r != nil {
			n.Status = models.NotificationStatusFailed
			n.Error = fmt.Sprintf("panic: %v", r)
			h.logger.Error("notification send panicked", map[string]interface{}{
				"leadId": n.LeadID,
				"panic":  r,
			})
		}
	}()

	if err := d.send(ctx); err != nil {
		n.Status = models.NotificationStatusFailed
		n.Error = err.Error()
		h.logger.Error("notification send failed", map[string]interface{}{
			"leadId":    n.LeadID,
			"recipient": n.RecipientType,
			"channel":   n.Channel,
			"error":     err,
		})
		return n
	}

	n.Status = models.NotificationStatusSent
	n.SentAt = time.Now().UTC().Format(time.RFC3339)
	return n
}

// plan decides which sends apply to this lead. A missing sender address
// skips both emails; a missing operator address skips only the alert.
func (h *Handler) plan(lead models.Lead, data map[string]interface{}) []delivery {
	newNotification := func(recipientType, recipient, channel string) models.Notification {
		return models.Notification{
			ID:            uuid.New().String(),
			LeadID:        lead.ID,
			RecipientType: recipientType,
			Recipient:     recipient,
			Channel:       channel,
		}
	}

	confirmation := delivery{notification: newNotification(models.RecipientSubmitter, lead.Email, models.ChannelEmail)}
	alert := delivery{notification: newNotification(models.RecipientOperator, h.config.OperatorEmail, models.ChannelEmail)}
	sms := delivery{notification: newNotification(models.RecipientOperator, h.config.OperatorPhone, models.ChannelSMS)}

	emailReady := h.config.EmailEnabled && h.mailer != nil && h.config.FromEmail != ""
	if emailReady && lead.Email != "" {
		confirmation.send = h.emailSend(TemplateSubmitterConfirmation, lead.Email, h.config.ReplyTo, data)
	}
	if emailReady && h.config.OperatorEmail != "" {
		// Operator replies go straight to the prospect.
		alert.send = h.emailSend(TemplateOperatorAlert, h.config.OperatorEmail, lead.Email, data)
	}
	if h.config.SMSEnabled && h.sms != nil && h.config.OperatorPhone != "" {
		sms.send = func(ctx context.Context) error {
			msg, err := render(TemplateOperatorSMS, data)
			if err != nil {
				return err
			}
			return h.sms.SendSMS(ctx, h.config.OperatorPhone, msg.Text)
		}
	}

	return []delivery{confirmation, alert, sms}
}

func (h *Handler) emailSend(templateID, to, replyTo string, data map[string]interface{}) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		msg, err := render(templateID, data)
		if err != nil {
			return err
		}
		_, err = h.mailer.Send(ctx, email.Message{
			From:     h.config.FromEmail,
			To:       to,
			ReplyTo:  replyTo,
			Subject:  msg.Subject,
			TextBody: msg.Text,
			HTMLBody: msg.HTML,
		})
		return err
	}
}

// Dispatch runs Execute on a detached goroutine. The caller's cancellation
// does not reach the sends; the configured timeout bounds them instead.
func (h *Handler) Dispatch(ctx context.Context, lead models.Lead) {
	h.inflight.Add(1)
	metrics.NotificationsInFlight.Inc()

	go func() {
		defer h.inflight.Done()
		defer metrics.NotificationsInFlight.Dec()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.config.Timeout)
		defer cancel()

		output := h.Execute(sendCtx, &Input{Lead: lead})

		fields := map[string]interface{}{"leadId": lead.ID}
		for _, n := range output.Notifications {
			fields[n.RecipientType+"_"+n.Channel] = n.Status
		}
		h.logger.Info("lead notifications finished", fields)
	}()
}

// Wait blocks until every dispatched notification has finished or ctx is
// done, whichever comes first.
func (h *Handler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
