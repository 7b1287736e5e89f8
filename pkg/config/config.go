package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Admin    AdminConfig
	Intake   IntakeConfig
	Notify   NotifyConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port         string        `env:"PORT" envDefault:"3000"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
}

type DatabaseConfig struct {
	Path string `env:"DB_FILE" envDefault:"data/eurobrokers.db"`
}

type SessionConfig struct {
	Secret       string        `env:"SESSION_SECRET" envDefault:"change_me"`
	CookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"leads.sid"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	TTL          time.Duration `env:"SESSION_TTL" envDefault:"12h"`
}

type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL" envDefault:"admin@example.com"`
	Password string `env:"ADMIN_PASSWORD" envDefault:"changeme123"`
	Reset    bool   `env:"ADMIN_RESET" envDefault:"false"`
}

// IntakeConfig overrides the regional formats accepted by the public form.
// Empty values keep the built-in Czech patterns.
type IntakeConfig struct {
	PostalCodePattern string `env:"LEADS_POSTAL_CODE_PATTERN"`
	PhonePattern      string `env:"LEADS_PHONE_PATTERN"`
}

type NotifyConfig struct {
	// Recipient of new-lead notifications; empty disables email.
	Email         string `env:"NOTIFY_EMAIL"`
	MailerSendKey string `env:"MAILERSEND_API_KEY"`
	MailerFrom    string `env:"MAILER_FROM"`
	MailerName    string `env:"MAILER_FROM_NAME" envDefault:"Poptávky"`
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"1025"`
	SMTPUser      string `env:"SMTP_USER"`
	SMTPPass      string `env:"SMTP_PASS"`
	SMTPUseTLS    bool   `env:"SMTP_USE_TLS" envDefault:"false"`
	DevMode       bool   `env:"EMAIL_DEV_MODE" envDefault:"false"`
	NATSURL       string `env:"NATS_URL"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Addr() string {
	return ":" + c.Server.Port
}
