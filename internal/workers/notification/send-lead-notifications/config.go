package sendleadnotifications

import (
	"time"

	"franchise-leads/internal/common/config"
)

type Config struct {
	EmailEnabled  bool
	SMSEnabled    bool
	FromEmail     string
	OperatorEmail string
	ReplyTo       string
	BrandName     string
	OperatorPhone string
	Timeout       time.Duration
}

func LoadConfig(cfg config.NotificationConfig) *Config {
	c := &Config{
		EmailEnabled:  cfg.Email.Enabled,
		SMSEnabled:    cfg.SMS.Enabled,
		FromEmail:     cfg.Email.FromEmail,
		OperatorEmail: cfg.Email.OperatorEmail,
		ReplyTo:       cfg.Email.ReplyTo,
		BrandName:     cfg.Email.BrandName,
		OperatorPhone: cfg.SMS.OperatorPhone,
		Timeout:       config.GetDuration(cfg.Timeout),
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}
