package email

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/gomail.v2"

	"github.com/Alijeyrad/formora_backend/config"
)

// Client delivers mail over SMTP with gomail.
type Client struct {
	cfg  Config
	dial func(*gomail.Message) error
}

func NewFromCentral(cfg config.EmailConfig) (*Client, error) {
	return New(FromCentralConfig(cfg))
}

func New(cfg Config) (*Client, error) {
	if cfg.Enabled && cfg.SMTP.Host == "" {
		return nil, invalid("smtp host is required")
	}
	c := &Client{cfg: cfg}
	c.dial = c.dialer().DialAndSend
	return c, nil
}

// Enabled reports whether Send will try to deliver.
func (c *Client) Enabled() bool { return c.cfg.Enabled }

// Send delivers m, giving up at the SMTP timeout or when ctx ends,
// whichever comes first. gomail has no context support, so an abandoned
// delivery keeps running in the background until the dial fails.
func (c *Client) Send(ctx context.Context, m Message) error {
	if !c.cfg.Enabled {
		return ErrDisabled
	}
	msg, err := compose(c.cfg.From, m)
	if err != nil {
		return err
	}

	if c.cfg.SMTP.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.SMTP.Timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- c.dial(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return &SendError{Host: c.cfg.SMTP.Host, Err: err}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) dialer() *gomail.Dialer {
	s := c.cfg.SMTP
	d := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)
	d.SSL = s.UseTLS
	if s.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: s.Host, MinVersion: tls.VersionTLS12}
	}
	return d
}

func compose(from string, m Message) (*gomail.Message, error) {
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, invalid("from is required")
	}
	to := lo.Compact(lo.Map(m.To, func(s string, _ int) string { return strings.TrimSpace(s) }))
	if len(to) == 0 {
		return nil, invalid("at least one recipient is required")
	}
	subject := strings.TrimSpace(m.Subject)
	if subject == "" {
		return nil, invalid("subject is required")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	if r := strings.TrimSpace(m.ReplyTo); r != "" {
		msg.SetHeader("Reply-To", r)
	}
	for k, v := range m.Headers {
		if k = strings.TrimSpace(k); k != "" && v != "" {
			msg.SetHeader(k, v)
		}
	}
	msg.SetDateHeader("Date", time.Now())

	text := strings.TrimSpace(m.TextBody) != ""
	htm := strings.TrimSpace(m.HTMLBody) != ""
	switch {
	case text && htm:
		msg.SetBody("text/plain", m.TextBody)
		msg.AddAlternative("text/html", m.HTMLBody)
	case htm:
		msg.SetBody("text/html", m.HTMLBody)
	case text:
		msg.SetBody("text/plain", m.TextBody)
	default:
		return nil, invalid("a text or html body is required")
	}
	return msg, nil
}
