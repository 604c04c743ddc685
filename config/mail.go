package config

// MailConfig contains outbound SMTP configuration for 2FA and reset emails.
type MailConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"587"`
	Username string `env:"USERNAME" envDefault:""`
	Password string `env:"PASSWORD" envDefault:""`
	From     string `env:"FROM"     envDefault:"no-reply@bakery.local"`

	// DisableTLS skips STARTTLS. Only for local development against a
	// plaintext relay such as MailHog.
	DisableTLS bool `env:"DISABLE_TLS" envDefault:"false"`
}
