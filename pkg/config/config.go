package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Wallet       WalletConfig
	Rewards      RewardsConfig
	Notify       NotifyConfig
	Cron         CronConfig
	HTTP         HTTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Rewards.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ELOITY_APP_ENV" required:"true"`
	Port         string `envconfig:"ELOITY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ELOITY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ELOITY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ELOITY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ELOITY_DB_DSN"`
	Driver string `envconfig:"ELOITY_DB_DRIVER" default:"postgres"`

	SQLitePath string `envconfig:"ELOITY_SQLITE_PATH" default:"eloity.db"`

	LegacyHost     string `envconfig:"ELOITY_DB_HOST"`
	LegacyPort     int    `envconfig:"ELOITY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ELOITY_DB_USER"`
	LegacyPassword string `envconfig:"ELOITY_DB_PASSWORD"`
	LegacyName     string `envconfig:"ELOITY_DB_NAME"`
	LegacySSLMode  string `envconfig:"ELOITY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ELOITY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ELOITY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ELOITY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ELOITY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"ELOITY_DB_SLOW_QUERY" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ELOITY_REDIS_URL"`
	Address      string        `envconfig:"ELOITY_REDIS_ADDR"`
	Password     string        `envconfig:"ELOITY_REDIS_PASSWORD"`
	DB           int           `envconfig:"ELOITY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ELOITY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ELOITY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ELOITY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ELOITY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ELOITY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"ELOITY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ELOITY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ELOITY_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite     bool `envconfig:"ELOITY_USE_SQLITE" default:"false"`
	AutoMigrate   bool `envconfig:"ELOITY_AUTO_MIGRATE" default:"false"`
	NotifyRelay   bool `envconfig:"ELOITY_NOTIFY_REDIS_RELAY" default:"false"`
	WalletSync    bool `envconfig:"ELOITY_WALLET_SYNC" default:"true"`
	ExposeMetrics bool `envconfig:"ELOITY_EXPOSE_METRICS" default:"true"`
}

type WalletConfig struct {
	BaseURL string        `envconfig:"ELOITY_WALLET_BASE_URL" default:"http://localhost:3000/api/wallet"`
	APIKey  string        `envconfig:"ELOITY_WALLET_API_KEY"`
	Timeout time.Duration `envconfig:"ELOITY_WALLET_TIMEOUT" default:"5s"`
	Source  string        `envconfig:"ELOITY_WALLET_SOURCE" default:"rewards"`
}

type RewardsConfig struct {
	SignupBonus            string        `envconfig:"ELOITY_REWARDS_SIGNUP_BONUS" default:"500"`
	DefaultAutoSharePct    string        `envconfig:"ELOITY_REWARDS_DEFAULT_AUTO_SHARE" default:"0.5"`
	TrustIdempotencyWindow time.Duration `envconfig:"ELOITY_REWARDS_TRUST_IDEMPOTENCY_WINDOW" default:"1m"`
	CodeAttempts           int           `envconfig:"ELOITY_REWARDS_CODE_ATTEMPTS" default:"3"`
}

// SignupBonusAmount returns the configured one-time verification bonus.
func (r RewardsConfig) SignupBonusAmount() decimal.Decimal {
	amount, err := decimal.NewFromString(strings.TrimSpace(r.SignupBonus))
	if err != nil {
		return decimal.NewFromInt(500)
	}
	return amount
}

// DefaultAutoSharePercentage returns the auto-share percentage applied to new referrals.
func (r RewardsConfig) DefaultAutoSharePercentage() decimal.Decimal {
	pct, err := decimal.NewFromString(strings.TrimSpace(r.DefaultAutoSharePct))
	if err != nil {
		return decimal.RequireFromString("0.5")
	}
	return pct
}

func (r RewardsConfig) validate() error {
	bonus, err := decimal.NewFromString(strings.TrimSpace(r.SignupBonus))
	if err != nil || bonus.IsNegative() {
		return fmt.Errorf("%s must be a non-negative decimal", EnvRewardsSignupBonus)
	}
	pct, err := decimal.NewFromString(strings.TrimSpace(r.DefaultAutoSharePct))
	if err != nil || pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be within [0,1]", EnvRewardsDefaultAutoShare)
	}
	return nil
}

type NotifyConfig struct {
	BufferSize   int    `envconfig:"ELOITY_NOTIFY_BUFFER_SIZE" default:"32"`
	RelayChannel string `envconfig:"ELOITY_NOTIFY_RELAY_CHANNEL" default:"eloity:changes"`
}

type HTTPConfig struct {
	CORSOrigins     []string      `envconfig:"ELOITY_HTTP_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	RateLimitWindow time.Duration `envconfig:"ELOITY_HTTP_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitWrites int           `envconfig:"ELOITY_HTTP_RATE_LIMIT_WRITES" default:"60"`
	StreamBuffer    int           `envconfig:"ELOITY_HTTP_STREAM_BUFFER" default:"16"`
}

type CronConfig struct {
	Interval         time.Duration `envconfig:"ELOITY_CRON_INTERVAL" default:"1h"`
	TrustRefreshSize int           `envconfig:"ELOITY_CRON_TRUST_REFRESH_BATCH" default:"200"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		return nil
	}
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
