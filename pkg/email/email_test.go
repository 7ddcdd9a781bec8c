package email

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func TestBuildNewResponseEmail(t *testing.T) {
	cfg := Config{AppName: "Formora", BaseURL: "https://app.formora.io/"}
	msg := BuildNewResponseEmail(cfg, NewResponseData{
		OwnerName:       "Ada",
		OwnerEmail:      "ada@example.com",
		FormID:          "f1",
		FormTitle:       "<Feedback>",
		TotalResponses:  3,
		SubmittedAt:     time.Now().Add(-2 * time.Minute),
		Preview:         []string{"Name: Bob"},
		RespondentEmail: "bob@example.com",
	})

	assert.Equal(t, []string{"ada@example.com"}, msg.To)
	assert.Equal(t, "bob@example.com", msg.ReplyTo)
	assert.Equal(t, "f1", msg.Headers[HeaderFormID])
	assert.Equal(t, `New response to "<Feedback>"`, msg.Subject)
	assert.Contains(t, msg.TextBody, "received its 3rd response 2 minutes ago")
	assert.Contains(t, msg.TextBody, "  Name: Bob\n")
	assert.Contains(t, msg.TextBody, "https://app.formora.io/forms/f1/responses")
	assert.Contains(t, msg.HTMLBody, "&lt;Feedback&gt;")
	assert.NotContains(t, msg.HTMLBody, "<Feedback>")
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		msg     Message
		wantErr bool
	}{
		{"ok", "noreply@formora.io", Message{To: []string{" a@b.c "}, Subject: "s", TextBody: "t"}, false},
		{"no from", "", Message{To: []string{"a@b.c"}, Subject: "s", TextBody: "t"}, true},
		{"blank recipients", "x@y.z", Message{To: []string{" ", ""}, Subject: "s", TextBody: "t"}, true},
		{"no subject", "x@y.z", Message{To: []string{"a@b.c"}, TextBody: "t"}, true},
		{"no body", "x@y.z", Message{To: []string{"a@b.c"}, Subject: "s"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compose(tt.from, tt.msg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMessage)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCompose_Headers(t *testing.T) {
	msg, err := compose("noreply@formora.io", Message{
		To:       []string{"ada@example.com"},
		ReplyTo:  "bob@example.com",
		Subject:  "New response",
		TextBody: "hi",
		HTMLBody: "<p>hi</p>",
		Headers:  map[string]string{HeaderFormID: "f1"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bob@example.com"}, msg.GetHeader("Reply-To"))
	assert.Equal(t, []string{"f1"}, msg.GetHeader(HeaderFormID))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/html")
}

func TestClient_Send(t *testing.T) {
	c, err := New(Config{Enabled: true, From: "noreply@formora.io", SMTP: SMTP{Host: "smtp.test"}})
	require.NoError(t, err)

	var got *gomail.Message
	c.dial = func(m *gomail.Message) error {
		got = m
		return nil
	}
	err = c.Send(context.Background(), Message{To: []string{"a@b.c"}, Subject: "s", TextBody: "t"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"a@b.c"}, got.GetHeader("To"))

	c.dial = func(*gomail.Message) error { return errors.New("refused") }
	err = c.Send(context.Background(), Message{To: []string{"a@b.c"}, Subject: "s", TextBody: "t"})
	var se *SendError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "smtp.test", se.Host)
}

func TestClient_SendTimeout(t *testing.T) {
	c, err := New(Config{Enabled: true, From: "noreply@formora.io", SMTP: SMTP{Host: "smtp.test", Timeout: 20 * time.Millisecond}})
	require.NoError(t, err)

	release := make(chan struct{})
	defer close(release)
	c.dial = func(*gomail.Message) error {
		<-release
		return nil
	}
	err = c.Send(context.Background(), Message{To: []string{"a@b.c"}, Subject: "s", TextBody: "t"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Disabled(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)
	assert.ErrorIs(t, c.Send(context.Background(), Message{}), ErrDisabled)

	_, err = New(Config{Enabled: true})
	assert.ErrorIs(t, err, ErrInvalidMessage)
}
