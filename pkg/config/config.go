package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App    AppConfig
	Store  StoreConfig
	DB     DBConfig
	Redis  RedisConfig
	Alerts AlertsConfig
	Inbox  InboxConfig
	Recipe RecipeConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if cfg.Store.UsesSQL() {
		cfg.DB.Driver = cfg.Store.Backend
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.Store.Backend == BackendRedis && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("either %s or %s is required when %s=%s", EnvRedisURL, EnvRedisAddr, EnvStoreBackend, BackendRedis)
	}
	if cfg.Alerts.SweepInterval <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvAlertSweepInterval)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FRIDGE_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"FRIDGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FRIDGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StoreConfig selects where the inventory and macro blobs live.
type StoreConfig struct {
	Backend   string `envconfig:"FRIDGE_STORE_BACKEND" default:"sqlite"`
	StateKey  string `envconfig:"FRIDGE_STATE_KEY" default:"fridge_db_v1"`
	MacrosKey string `envconfig:"FRIDGE_MACROS_KEY" default:"fridge_macro_overrides_v1"`
}

func (s StoreConfig) UsesSQL() bool {
	return s.Backend == BackendSQLite || s.Backend == BackendPostgres
}

func (s *StoreConfig) validate() error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case BackendSQLite, BackendPostgres, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s, %s (got %q)", EnvStoreBackend, BackendSQLite, BackendPostgres, BackendRedis, BackendMemory, s.Backend)
	}
	if strings.TrimSpace(s.StateKey) == "" || strings.TrimSpace(s.MacrosKey) == "" {
		return fmt.Errorf("%s and %s must not be blank", EnvStateKey, EnvMacrosKey)
	}
	if s.StateKey == s.MacrosKey {
		return fmt.Errorf("%s and %s must differ", EnvStateKey, EnvMacrosKey)
	}
	return nil
}

type DBConfig struct {
	DSN    string `envconfig:"FRIDGE_DB_DSN"`
	Driver string `ignored:"true"`

	LegacyHost     string `envconfig:"FRIDGE_DB_HOST"`
	LegacyPort     int    `envconfig:"FRIDGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FRIDGE_DB_USER"`
	LegacyPassword string `envconfig:"FRIDGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"FRIDGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"FRIDGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FRIDGE_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"FRIDGE_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"FRIDGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FRIDGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"FRIDGE_AUTO_MIGRATE" default:"true"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FRIDGE_REDIS_URL"`
	Address      string        `envconfig:"FRIDGE_REDIS_ADDR"`
	Password     string        `envconfig:"FRIDGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FRIDGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FRIDGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FRIDGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FRIDGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FRIDGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FRIDGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type AlertsConfig struct {
	SweepInterval time.Duration `envconfig:"FRIDGE_ALERT_SWEEP_INTERVAL" default:"1h"`
}

type InboxConfig struct {
	Dir      string        `envconfig:"FRIDGE_INBOX_DIR" default:"./inbox"`
	Debounce time.Duration `envconfig:"FRIDGE_INBOX_DEBOUNCE" default:"250ms"`
}

type RecipeConfig struct {
	File string `envconfig:"FRIDGE_RECIPES_FILE"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Driver == BackendSQLite {
		db.DSN = DefaultSQLiteDSN
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
