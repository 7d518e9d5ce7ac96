// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS); AppConfig is everything specific to MemberHub:
// database connection details, the shared session/token secrets issued
// by the auth service, and the transactional mail API credentials.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connections in the driver pool
	MongoMinPoolSize uint64 // Min connections kept warm in the pool

	// Session and token configuration. Both secrets are issued by the
	// association's auth service; MemberHub only verifies.
	SessionKey    string // Key the auth service signs session cookies with
	SessionName   string // Cookie name for sessions (default: memberhub-session)
	SessionDomain string // Cookie domain (blank means current host)
	TokenKey      string // HMAC key for API bearer tokens (blank disables bearer auth)

	// Transactional mail API configuration
	MailAPIURL string // Send endpoint of the mail provider
	MailAPIKey string // Bearer key for the mail provider
}
