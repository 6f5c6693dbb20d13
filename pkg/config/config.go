package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable consumed by the service.
const EnvPrefix = "ADEE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Mail          MailConfig
	Stripe        StripeConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ADEE_APP_ENV" required:"true"`
	Port         string `envconfig:"ADEE_APP_PORT" required:"true"`
	PublicURL    string `envconfig:"ADEE_APP_PUBLIC_URL" default:"https://ad-ee.tech"`
	LogLevel     string `envconfig:"ADEE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ADEE_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"ADEE_CORS_ORIGINS" default:"http://localhost:3000,https://ad-ee.tech"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ADEE_DB_DSN"`
	Driver string `envconfig:"ADEE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"ADEE_DB_HOST"`
	Port     int    `envconfig:"ADEE_DB_PORT" default:"5432"`
	User     string `envconfig:"ADEE_DB_USER"`
	Password string `envconfig:"ADEE_DB_PASSWORD"`
	Name     string `envconfig:"ADEE_DB_NAME"`
	SSLMode  string `envconfig:"ADEE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ADEE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ADEE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ADEE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ADEE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ADEE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ADEE_REDIS_ADDR"`
	Password     string        `envconfig:"ADEE_REDIS_PASSWORD"`
	DB           int           `envconfig:"ADEE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ADEE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ADEE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ADEE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ADEE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ADEE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig carries the secrets and TTLs for the three signing channels:
// access/refresh session tokens and the email-link tokens (verification and
// password reset share the email secret, distinguished by subject).
type JWTConfig struct {
	AccessSecret        string `envconfig:"ADEE_JWT_ACCESS_SECRET" required:"true"`
	RefreshSecret       string `envconfig:"ADEE_JWT_REFRESH_SECRET" required:"true"`
	EmailSecret         string `envconfig:"ADEE_JWT_EMAIL_SECRET" required:"true"`
	Issuer              string `envconfig:"ADEE_JWT_ISSUER" default:"adee"`
	AccessTTLMinutes    int    `envconfig:"ADEE_JWT_ACCESS_TTL_MINUTES" default:"100"`
	RefreshTTLMinutes   int    `envconfig:"ADEE_JWT_REFRESH_TTL_MINUTES" default:"10800"`
	EmailLinkTTLMinutes int    `envconfig:"ADEE_JWT_EMAIL_LINK_TTL_MINUTES" default:"60"`
}

func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTTLMinutes) * time.Minute
}

func (j JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshTTLMinutes) * time.Minute
}

func (j JWTConfig) EmailLinkTTL() time.Duration {
	return time.Duration(j.EmailLinkTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ADEE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ADEE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ADEE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ADEE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ADEE_ARGON_KEY_LEN" default:"32"`
}

type MailConfig struct {
	APIKey    string `envconfig:"ADEE_MAIL_API_KEY"`
	BaseURL   string `envconfig:"ADEE_MAIL_BASE_URL" default:"https://api.mailersend.com/v1"`
	FromEmail string `envconfig:"ADEE_MAIL_FROM_EMAIL" default:"info@ad-ee.tech"`
	FromName  string `envconfig:"ADEE_MAIL_FROM_NAME" default:"Adee"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"ADEE_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"ADEE_STRIPE_WEBHOOK_SECRET"`
}

// AuthRateLimitConfig bounds credential-guessing attempts per source IP and
// per target email within a sliding window.
type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"ADEE_AUTH_RL_LOGIN_WINDOW" default:"5m"`
	LoginIPLimit    int           `envconfig:"ADEE_AUTH_RL_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"ADEE_AUTH_RL_LOGIN_EMAIL_LIMIT" default:"8"`

	RegisterWindow     time.Duration `envconfig:"ADEE_AUTH_RL_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"ADEE_AUTH_RL_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"ADEE_AUTH_RL_REGISTER_EMAIL_LIMIT" default:"4"`

	ForgotWindow     time.Duration `envconfig:"ADEE_AUTH_RL_FORGOT_WINDOW" default:"1h"`
	ForgotIPLimit    int           `envconfig:"ADEE_AUTH_RL_FORGOT_IP_LIMIT" default:"10"`
	ForgotEmailLimit int           `envconfig:"ADEE_AUTH_RL_FORGOT_EMAIL_LIMIT" default:"4"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ADEE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ADEE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for env, value := range map[string]string{
		"ADEE_DB_HOST": db.Host,
		"ADEE_DB_USER": db.User,
		"ADEE_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either ADEE_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
