package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	SMTP          SMTPConfig
	Notifications NotificationsConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.JWT.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"REPAIRDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"REPAIRDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"REPAIRDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"REPAIRDESK_LOG_WARN_STACK" default:"false"`
	// ClientURL is the web client origin used to build emailed links.
	ClientURL    string `envconfig:"REPAIRDESK_CLIENT_URL" default:"http://localhost:3000"`
	SecureCookie bool   `envconfig:"REPAIRDESK_SECURE_COOKIE" default:"true"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"REPAIRDESK_DB_DSN"`
	Driver     string `envconfig:"REPAIRDESK_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"REPAIRDESK_SQLITE_PATH" default:"repairdesk.db"`

	LegacyHost     string `envconfig:"REPAIRDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"REPAIRDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"REPAIRDESK_DB_USER"`
	LegacyPassword string `envconfig:"REPAIRDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"REPAIRDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"REPAIRDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REPAIRDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REPAIRDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REPAIRDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REPAIRDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REPAIRDESK_REDIS_URL"`
	Address      string        `envconfig:"REPAIRDESK_REDIS_ADDR"`
	Password     string        `envconfig:"REPAIRDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"REPAIRDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REPAIRDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REPAIRDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REPAIRDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REPAIRDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REPAIRDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"REPAIRDESK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"REPAIRDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"REPAIRDESK_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshTokenTTLMinutes int    `envconfig:"REPAIRDESK_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
	OneTimeTokenTTLMinutes int    `envconfig:"REPAIRDESK_ONE_TIME_TOKEN_TTL_MINUTES" default:"3600"`
}

// AccessTokenTTL returns the access token TTL configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return minutes(j.ExpirationMinutes)
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return minutes(j.RefreshTokenTTLMinutes)
}

// OneTimeTokenTTL returns the emailed login link TTL configured in minutes.
func (j JWTConfig) OneTimeTokenTTL() time.Duration {
	return minutes(j.OneTimeTokenTTLMinutes)
}

func (j JWTConfig) validate() error {
	if j.AccessTokenTTL() <= 0 {
		return fmt.Errorf("%s must be positive", EnvJWTExpMins)
	}
	if j.RefreshTokenTTL() <= j.AccessTokenTTL() {
		return fmt.Errorf("%s must exceed %s", EnvRefreshTokenTTLMinutes, EnvJWTExpMins)
	}
	if j.OneTimeTokenTTL() <= 0 {
		return fmt.Errorf("%s must be positive", EnvOneTimeTokenTTLMinutes)
	}
	return nil
}

func minutes(value int) time.Duration {
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"REPAIRDESK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"REPAIRDESK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"REPAIRDESK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"REPAIRDESK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"REPAIRDESK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"REPAIRDESK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"REPAIRDESK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"REPAIRDESK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LinkWindow         time.Duration `envconfig:"REPAIRDESK_AUTH_RATE_LIMIT_LINK_WINDOW" default:"10m"`
	LinkEmailLimit     int           `envconfig:"REPAIRDESK_AUTH_RATE_LIMIT_LINK_EMAIL_LIMIT" default:"3"`
	LinkIPLimit        int           `envconfig:"REPAIRDESK_AUTH_RATE_LIMIT_LINK_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"REPAIRDESK_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"REPAIRDESK_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"REPAIRDESK_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"REPAIRDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"REPAIRDESK_AUTO_MIGRATE" default:"false"`
	// DisableEmail skips SMTP delivery and only logs outgoing mail.
	DisableEmail bool `envconfig:"REPAIRDESK_DISABLE_EMAIL" default:"false"`
}

type SMTPConfig struct {
	Host        string `envconfig:"REPAIRDESK_SMTP_HOST" default:"localhost"`
	Port        int    `envconfig:"REPAIRDESK_SMTP_PORT" default:"587"`
	Username    string `envconfig:"REPAIRDESK_SMTP_USERNAME"`
	Password    string `envconfig:"REPAIRDESK_SMTP_PASSWORD"`
	FromAddress string `envconfig:"REPAIRDESK_SMTP_FROM_ADDRESS" default:"no-reply@repairdesk.local"`
	FromName    string `envconfig:"REPAIRDESK_SMTP_FROM_NAME" default:"Repair Desk"`
	SSL         bool   `envconfig:"REPAIRDESK_SMTP_SSL" default:"false"`
}

type NotificationsConfig struct {
	EmailTimeout time.Duration `envconfig:"REPAIRDESK_NOTIFICATION_EMAIL_TIMEOUT" default:"5s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"REPAIRDESK_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
