package models

type Configuration struct {
	App      AppConfiguration      `mapstructure:"app"      validate:"required"`
	Auth     ServiceConfiguration  `mapstructure:"auth"     validate:"required"`
	Risk     ServiceConfiguration  `mapstructure:"risk"     validate:"required"`
	MFA      ServiceConfiguration  `mapstructure:"mfa"      validate:"required"`
	Events   EventsConfiguration   `mapstructure:"events"   validate:"required"`
	Notifier NotifierConfiguration `mapstructure:"notifier" validate:"required"`
	Geo      GeoConfiguration      `mapstructure:"geo"`
}

type AppConfiguration struct {
	Profile           string   `mapstructure:"profile"             validate:"oneof=all auth risk mfa"`
	LogLevel          string   `mapstructure:"log_level"           validate:"oneof=debug info warn error fatal panic"`
	AllowedOrigins    []string `mapstructure:"allowed_origins"     validate:"required"`
	JWTSecret         string   `mapstructure:"jwt_secret"          validate:"required"`
	JWTAlgorithm      string   `mapstructure:"jwt_algorithm"       validate:"oneof=HS256 HS384 HS512"`
	AccessTokenExpiry int      `mapstructure:"access_token_expiry" validate:"gte=1,lte=1440"`
	RiskThreshold     int      `mapstructure:"risk_threshold"      validate:"gte=0,lte=100"`
}

// ServiceConfiguration describes one of the three services. Database and
// cache stay per-service: each table has exactly one writer and the caches
// are private to their owner.
type ServiceConfiguration struct {
	Port     int                    `mapstructure:"port"     validate:"gte=80,lte=65535"`
	URL      string                 `mapstructure:"url"`
	Database *DatabaseConfiguration `mapstructure:"database"`
	Cache    *CacheConfiguration    `mapstructure:"cache"`
}

type DatabaseConfiguration struct {
	Host     string `mapstructure:"host"     validate:"required"`
	Port     int32  `mapstructure:"port"     validate:"gte=80,lte=65535"`
	User     string `mapstructure:"user"     validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	Name     string `mapstructure:"name"     validate:"required"`
	SSLMode  string `mapstructure:"sslmode"`
}

type CacheConfiguration struct {
	Hosts         []string `mapstructure:"hosts"    validate:"required"`
	Password      string   `mapstructure:"password"`
	TLSEnabled    bool     `mapstructure:"tls_enabled"`
	TLSServerName string   `mapstructure:"tls_server_name"`
}

type EventsConfiguration struct {
	Type      string                 `mapstructure:"type"      validate:"required,oneof=amqp jetstream memory"`
	AMQP      *AMQPEventsConfig      `mapstructure:"amqp"      validate:"required_if=Type amqp"`
	Jetstream *JetStreamEventsConfig `mapstructure:"jetstream" validate:"required_if=Type jetstream"`
}

type AMQPEventsConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

type JetStreamEventsConfig struct {
	Host string `mapstructure:"host" validate:"required"`
	Port string `mapstructure:"port" validate:"required"`
}

type MailerConfiguration struct {
	Host          string `mapstructure:"host"            validate:"required"`
	Port          int    `mapstructure:"port"            validate:"required"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	Sender        string `mapstructure:"sender"          validate:"required"`
	EnableTLS     bool   `mapstructure:"enable_tls"`
	SkipVerifyTLS bool   `mapstructure:"skip_verify_tls"`
}

type NotifierConfiguration struct {
	Type       string                           `mapstructure:"type"       validate:"required,oneof=smtp filesystem"`
	SMTP       *MailerConfiguration             `mapstructure:"smtp"       validate:"required_if=Type smtp"`
	Filesystem *FilesystemNotifierConfiguration `mapstructure:"filesystem" validate:"required_if=Type filesystem"`
}

type FilesystemNotifierConfiguration struct {
	Directory string `mapstructure:"directory" validate:"required"`
}

// GeoConfiguration points at the ip-geolocation API. The endpoint is
// overridable so tests can stand in a local server.
type GeoConfiguration struct {
	Endpoint string `mapstructure:"endpoint"`
}

// AuthConfig is the slice of configuration the Authenticator handlers need.
type AuthConfig struct {
	JWTSecret         string
	JWTAlgorithm      string
	AccessTokenExpiry int
}

func (a AppConfiguration) GetAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:         a.JWTSecret,
		JWTAlgorithm:      a.JWTAlgorithm,
		AccessTokenExpiry: a.AccessTokenExpiry,
	}
}
