package config

import (
	"time"

	"github.com/commercegrid/identity-service/pkg/notification"
)

// EmailConfig holds SMTP email configuration
type EmailConfig struct {
	Host     string `env:"EMAIL_HOST" env-default:""`
	Port     uint16 `env:"EMAIL_PORT" env-default:"1025"`
	Username string `env:"EMAIL_USERNAME" env-default:""`
	Password string `env:"EMAIL_PASSWORD" env-default:""`
	From     string `env:"EMAIL_FROM" env-default:"noreply@example.com"`
	TLS      bool   `env:"EMAIL_TLS" env-default:"false"`
	Timeout  string `env:"EMAIL_TIMEOUT" env-default:"5s"`
}

// Configured reports whether an SMTP host has been provided. When it
// has not, verification codes are logged instead of emailed.
func (e EmailConfig) Configured() bool {
	return e.Host != ""
}

// ToSMTPConfig converts the config to a notification.SMTPConfig
func (e EmailConfig) ToSMTPConfig() notification.SMTPConfig {
	timeout, err := parseDurationISO8601(e.Timeout)
	if err != nil {
		timeout = 5 * time.Second
	}
	return notification.SMTPConfig{
		Host:     e.Host,
		Port:     int(e.Port),
		Username: e.Username,
		Password: e.Password,
		From:     e.From,
		TLS:      e.TLS,
		Timeout:  timeout,
	}
}
