package email

import (
	"cmp"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Alijeyrad/formora_backend/pkg/constants"
)

// NewResponseData is the payload of the new-response notification.
type NewResponseData struct {
	OwnerName      string
	OwnerEmail     string
	FormID         string
	FormTitle      string
	TotalResponses int64
	SubmittedAt    time.Time
	// Preview holds up to a few "label: answer" lines.
	Preview []string
	// RespondentEmail, when the form asked for one, becomes Reply-To.
	RespondentEmail string
}

// BuildNewResponseEmail tells a form owner that a response came in.
func BuildNewResponseEmail(cfg Config, data NewResponseData) Message {
	appName := cmp.Or(cfg.AppName, constants.AppDisplayName)
	color := cmp.Or(cfg.PrimaryColor, "#4f46e5")
	name := cmp.Or(data.OwnerName, "there")
	title := cmp.Or(data.FormTitle, "Untitled form")
	link := strings.TrimRight(cfg.BaseURL, "/") + "/forms/" + data.FormID + "/responses"

	subject := fmt.Sprintf("New response to %q", title)
	when := humanize.Time(data.SubmittedAt)
	total := humanize.Ordinal(int(data.TotalResponses))

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n", name)
	fmt.Fprintf(&text, "%q received its %s response %s.\n", title, total, when)
	if len(data.Preview) > 0 {
		text.WriteString("\n")
		for _, line := range data.Preview {
			fmt.Fprintf(&text, "  %s\n", line)
		}
	}
	if cfg.BaseURL != "" {
		fmt.Fprintf(&text, "\nSee all responses: %s\n", link)
	}
	fmt.Fprintf(&text, "\nThe %s Team", appName)

	var preview strings.Builder
	for _, line := range data.Preview {
		fmt.Fprintf(&preview, "<li>%s</li>", html.EscapeString(line))
	}
	button := ""
	if cfg.BaseURL != "" {
		button = fmt.Sprintf(`<p style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background-color: %s; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">View responses</a>
    </p>`, html.EscapeString(link), color)
	}

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: %s;">Hi %s,</h2>
    <p><strong>%s</strong> received its %s response %s.</p>
    <ul style="background-color: #f3f4f6; padding: 10px 30px; border-radius: 4px;">%s</ul>
    %s
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">The %s Team</p>
</body>
</html>`,
		color, html.EscapeString(name), html.EscapeString(title), total, when,
		preview.String(), button, appName)

	return Message{
		To:       []string{data.OwnerEmail},
		ReplyTo:  data.RespondentEmail,
		Subject:  subject,
		TextBody: text.String(),
		HTMLBody: htmlBody,
		Headers:  map[string]string{HeaderFormID: data.FormID},
	}
}
