package config

const (
	EnvPrefix = "ELOITY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv   = "ELOITY_APP_ENV"
	EnvPort     = "ELOITY_APP_PORT"
	EnvLogLevel = "ELOITY_LOG_LEVEL"

	EnvDBDSN  = "ELOITY_DB_DSN"
	EnvDBHost = "ELOITY_DB_HOST"
	EnvDBUser = "ELOITY_DB_USER"
	EnvDBName = "ELOITY_DB_NAME"

	EnvUseSQLite = "ELOITY_USE_SQLITE"
	EnvRedisURL  = "ELOITY_REDIS_URL"

	EnvJWTSecret = "ELOITY_JWT_SECRET"
	EnvJWTIssuer = "ELOITY_JWT_ISSUER"

	EnvWalletBaseURL = "ELOITY_WALLET_BASE_URL"
	EnvWalletTimeout = "ELOITY_WALLET_TIMEOUT"

	EnvRewardsSignupBonus      = "ELOITY_REWARDS_SIGNUP_BONUS"
	EnvRewardsDefaultAutoShare = "ELOITY_REWARDS_DEFAULT_AUTO_SHARE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
