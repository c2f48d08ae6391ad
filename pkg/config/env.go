package config

const (
	EnvPrefix = "REPAIRDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "REPAIRDESK_APP_ENV"
	EnvPort      = "REPAIRDESK_APP_PORT"
	EnvClientURL = "REPAIRDESK_CLIENT_URL"

	EnvDBDSN  = "REPAIRDESK_DB_DSN"
	EnvDBHost = "REPAIRDESK_DB_HOST"
	EnvDBUser = "REPAIRDESK_DB_USER"
	EnvDBName = "REPAIRDESK_DB_NAME"

	EnvRedisURL = "REPAIRDESK_REDIS_URL"

	EnvJWTSecret                = "REPAIRDESK_JWT_SECRET"
	EnvJWTIssuer                = "REPAIRDESK_JWT_ISSUER"
	EnvJWTExpMins               = "REPAIRDESK_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes   = "REPAIRDESK_REFRESH_TOKEN_TTL_MINUTES"
	EnvOneTimeTokenTTLMinutes   = "REPAIRDESK_ONE_TIME_TOKEN_TTL_MINUTES"
	EnvSMTPHost                 = "REPAIRDESK_SMTP_HOST"
	EnvSMTPFromAddress          = "REPAIRDESK_SMTP_FROM_ADDRESS"
	EnvFeatureUseSQLite         = "REPAIRDESK_USE_SQLITE"
	EnvNotificationEmailTimeout = "REPAIRDESK_NOTIFICATION_EMAIL_TIMEOUT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
