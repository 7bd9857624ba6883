package configuration

const AppName = "riskgate"

// Cache key formats. Each service writes only into its own cache.
const (
	CacheGeolocationKey   = "geoloc:%s"     // Authenticator: resolved geolocation per IP
	CachePendingMFAKey    = "mfa:%s"        // Authenticator: email -> event id of the pending challenge
	CacheBlacklistKey     = "bl:%s"         // Authenticator: revoked bearer tokens
	CacheOTPChallengeKey  = "otp:%s"        // Arbiter: live challenge per email
	CacheTrustedDeviceKey = "trusted:%s:%s" // Arbiter: user id + device id trust hint
)

// TTLs in seconds unless noted.
const (
	OTPChallengeTTL     = 300
	PendingChallengeTTL = 300
	GeolocationTTLDays  = 30
	TrustedDeviceDays   = 30
)

const (
	// DefaultRiskThreshold triggers a challenge at risk_score >= threshold
	// unless the device is trusted.
	DefaultRiskThreshold = 50
	OTPDigits            = 6
)

// Topic exchanges and routing keys on the event bus.
const (
	EventsAuthExchange = "auth_events"
	EventsRiskExchange = "risk_events"
	EventsMFAExchange  = "mfa_events"

	RoutingKeyLoginAttempted = "login.attempted"
	RoutingKeyRiskScored     = "risk.scored"
	RoutingKeyMFACompleted   = "mfa.completed"
)

// Inter-service call budget; a single upstream call is authoritative, no
// retries on the synchronous path.
const (
	UpstreamTimeoutSeconds = 10
	CacheOpTimeoutMillis   = 100
	PublishTimeoutSeconds  = 1
)

var ConfigFileSearchPaths = []string{
	"./config.yaml",
	"templates/config.yaml",
}

var ArrayConfigFields = []string{
	"app.allowed_origins",
	"auth.cache.hosts",
	"mfa.cache.hosts",
}
