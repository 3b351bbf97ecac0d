package constants

// Extraction defaults applied by the normalizer and echoed in the model instruction.
const (
	DefaultTime            = "23:59"
	DefaultReminderMinutes = 1440
)

// Calendar submission defaults.
const (
	PrimaryCalendarID     = "primary"
	DefaultReminderMethod = "email"
	ReauthRedirectPath    = "/sign-in?reauth=true"
)

// Wire layouts.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)
