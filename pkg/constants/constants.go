package constants

const (
	AppName        = "formora"
	AppDisplayName = "Formora"

	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "FORMORA"
)

// NATS subjects. The trailing token is the form id.
const (
	SubjectResponseSubmitted = "formora.response.submitted"
	SubjectFormDeleted       = "formora.form.deleted"
)

// Redis key prefixes.
const (
	SessionKeyPrefix   = "session:"
	AnalyticsKeyPrefix = "analytics:"
)
