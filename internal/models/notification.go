// internal/models/notification.go
package models

const (
	NotificationStatusSent     = "sent"
	NotificationStatusFailed   = "failed"
	NotificationStatusDisabled = "disabled"

	ChannelEmail = "email"
	ChannelSMS   = "sms"

	RecipientSubmitter = "submitter"
	RecipientOperator  = "operator"
)

// Notification records the outcome of one channel send for a lead.
type Notification struct {
	ID            string `json:"id"`
	LeadID        string `json:"leadId"`
	RecipientType string `json:"recipientType"` // "submitter" or "operator"
	Recipient     string `json:"recipient,omitempty"`
	Channel       string `json:"channel"` // "email", "sms"
	Status        string `json:"status"`  // "sent", "failed", "disabled"
	Error         string `json:"error,omitempty"`
	SentAt        string `json:"sentAt,omitempty"`
}

type NotificationTemplate struct {
	ID       string `json:"id"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"htmlBody,omitempty"`
}
