package email

import (
	"time"

	"github.com/Alijeyrad/formora_backend/config"
	"github.com/Alijeyrad/formora_backend/pkg/constants"
)

type Config struct {
	Enabled bool
	From    string
	SMTP    SMTP

	// rendering
	AppName      string
	BaseURL      string
	PrimaryColor string
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	Timeout  time.Duration
}

func FromCentralConfig(c config.EmailConfig) Config {
	timeout := time.Duration(c.SMTP.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return Config{
		Enabled: c.Enabled,
		From:    c.From,
		SMTP: SMTP{
			Host:     c.SMTP.Host,
			Port:     c.SMTP.Port,
			Username: c.SMTP.Username,
			Password: c.SMTP.Password,
			UseTLS:   c.SMTP.UseTLS,
			Timeout:  timeout,
		},
		AppName:      constants.AppDisplayName,
		BaseURL:      c.BaseURL,
		PrimaryColor: "#4f46e5",
	}
}
