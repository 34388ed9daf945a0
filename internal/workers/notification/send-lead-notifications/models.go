package sendleadnotifications

import "franchise-leads/internal/models"

type Input struct {
	Lead models.Lead `json:"lead"`
}

type Output struct {
	LeadID        string                `json:"leadId"`
	Notifications []models.Notification `json:"notifications"`
}

// Status returns the outcome recorded for one recipient and channel, or
// "disabled" when nothing was attempted.
func (o *Output) Status(recipientType, channel string) string {
	for _, n := range o.Notifications {
		if n.RecipientType == recipientType && n.Channel == channel {
			return n.Status
		}
	}
	return models.NotificationStatusDisabled
}

// Template ids
const (
	TemplateSubmitterConfirmation = "submitter_confirmation"
	TemplateOperatorAlert         = "operator_alert"
	TemplateOperatorSMS           = "operator_sms"
)
