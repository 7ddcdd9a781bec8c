package email

// Message is a single outgoing mail. ReplyTo and Headers are optional.
type Message struct {
	To       []string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
	Headers  map[string]string
}

// HeaderFormID tags notification mails with the form they are about so
// mailbox rules can filter per form.
const HeaderFormID = "X-Formora-Form-Id"
