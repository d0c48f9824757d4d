package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env   string `yaml:"env" env:"APP_ENV" env-default:"development"`
	Debug bool   `yaml:"debug" env:"APP_DEBUG" env-default:"false"`
	HTTP  HTTP   `yaml:"http"`
	DB    DB     `yaml:"db"`
	Auth  Auth   `yaml:"auth"`
	Mail  Mail   `yaml:"mail"`
	AMQP  AMQP   `yaml:"amqp"`
}

type HTTP struct {
	Address      string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":5000"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type DB struct {
	Driver      string        `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	DSN         string        `yaml:"dsn" env:"DB_DSN" env-default:"file:storefront.db?cache=shared"`
	Debug       bool          `yaml:"debug" env:"DB_DEBUG" env-default:"false"`
	PingTimeout time.Duration `yaml:"ping_timeout" env:"DB_PING_TIMEOUT" env-default:"5s"`
}

const DefaultPingTimeout = 5 * time.Second

func (d DB) GetDebug() bool {
	return d.Debug
}

func (d DB) GetDriver() string {
	return d.Driver
}

// GetServer returns the connection string
func (d DB) GetServer() string {
	return d.DSN
}

func (d DB) GetPingTimeout() time.Duration {
	if d.PingTimeout <= 0 {
		return DefaultPingTimeout
	}
	return d.PingTimeout
}

func (d DB) GetOtelIdentifier() string {
	return "storefront"
}

type Auth struct {
	SigningKey      string        `yaml:"signing_key" env:"JWT_SECRET"`
	TokenExpiration time.Duration `yaml:"token_expiration" env:"JWT_EXPIRE" env-default:"720h"`
	Issuer          string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"storefront"`
	ContextKey      string        `yaml:"context_key" env:"AUTH_CONTEXT_KEY" env-default:"user"`
	TokenLookup     string        `yaml:"token_lookup" env:"AUTH_TOKEN_LOOKUP" env-default:"header:Authorization"`
	AuthScheme      string        `yaml:"auth_scheme" env:"AUTH_SCHEME" env-default:"Bearer"`
	BcryptCost      int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
	ResetTokenTTL   time.Duration `yaml:"reset_token_ttl" env:"RESET_TOKEN_TTL" env-default:"10m"`
	UseHashid       bool          `yaml:"use_hashid" env:"AUTH_USE_HASHID" env-default:"false"`
}

type Mail struct {
	Driver   string        `yaml:"driver" env:"MAIL_DRIVER" env-default:"log"`
	Host     string        `yaml:"host" env:"SMTP_HOST"`
	Port     int           `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string        `yaml:"username" env:"SMTP_USERNAME"`
	Password string        `yaml:"password" env:"SMTP_PASSWORD"`
	From     string        `yaml:"from" env:"SMTP_FROM" env-default:"no-reply@storefront.local"`
	Timeout  time.Duration `yaml:"timeout" env:"SMTP_TIMEOUT" env-default:"10s"`
}

type AMQP struct {
	URL      string `yaml:"url" env:"AMQP_URL"`
	Exchange string `yaml:"exchange" env:"AMQP_EXCHANGE" env-default:"storefront.events"`
}

var ErrMissingSigningKey = errors.New("auth signing key is required, set JWT_SECRET", errors.CategoryValidation).
	WithTextCode("CONFIG_MISSING_SIGNING_KEY")

func unknownDriver(key, value string) error {
	return errors.New(fmt.Sprintf("unknown %s %q", key, value), errors.CategoryValidation).
		WithTextCode("CONFIG_UNKNOWN_DRIVER").
		WithMetadata(map[string]any{key: value})
}

// Load reads an optional .env file, then the YAML file at path if it
// exists, then the environment. Environment values win.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load .env file")
	}

	var cfg Config
	if path != "" && fileExists(path) {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, errors.Wrap(err, errors.CategoryValidation, fmt.Sprintf("failed to read config %s", path))
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "failed to read config from environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad panics if the configuration can not be loaded
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.Auth.SigningKey == "" {
		return ErrMissingSigningKey
	}

	switch c.DB.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return unknownDriver("db.driver", c.DB.Driver)
	}

	switch c.Mail.Driver {
	case MailDriverLog, MailDriverSMTP:
	default:
		return unknownDriver("mail.driver", c.Mail.Driver)
	}

	return nil
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	MailDriverLog  = "log"
	MailDriverSMTP = "smtp"
)

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) GetSigningKey() string {
	return c.Auth.SigningKey
}

func (c *Config) GetTokenExpiration() time.Duration {
	return c.Auth.TokenExpiration
}

func (c *Config) GetIssuer() string {
	return c.Auth.Issuer
}

func (c *Config) GetContextKey() string {
	return c.Auth.ContextKey
}

func (c *Config) GetTokenLookup() string {
	return c.Auth.TokenLookup
}

func (c *Config) GetAuthScheme() string {
	return c.Auth.AuthScheme
}

func (c *Config) GetBcryptCost() int {
	return c.Auth.BcryptCost
}

func (c *Config) GetResetTokenTTL() time.Duration {
	return c.Auth.ResetTokenTTL
}

func (c *Config) GetUseHashid() bool {
	return c.Auth.UseHashid
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
