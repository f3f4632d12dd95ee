package constants

// Telemetry event names. External consumers join the requested/terminal
// pair of a dispatch through the shared email hash and purpose.
const (
	EventOTPRequested      = "auth.otp.requested"
	EventOTPDispatched     = "auth.otp.dispatched"
	EventOTPDispatchFailed = "auth.otp.dispatch_failed"

	EventUserCreated    = "auth.user.created"
	EventSessionCreated = "auth.session.created"
	EventSessionUpdated = "auth.session.updated"
	EventSessionDeleted = "auth.session.deleted"
)

// Auth providers recorded on account rows
const (
	ProviderCredential = "credential"
)
