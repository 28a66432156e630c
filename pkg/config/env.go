package config

const EnvPrefix = "FRIDGE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"

	DefaultSQLiteDSN = "fridge.db"
)

const (
	EnvAppEnv       = "FRIDGE_APP_ENV"
	EnvLogLevel     = "FRIDGE_LOG_LEVEL"
	EnvLogWarnStack = "FRIDGE_LOG_WARN_STACK"

	EnvStoreBackend = "FRIDGE_STORE_BACKEND"
	EnvStateKey     = "FRIDGE_STATE_KEY"
	EnvMacrosKey    = "FRIDGE_MACROS_KEY"

	EnvDBDSN       = "FRIDGE_DB_DSN"
	EnvDBHost      = "FRIDGE_DB_HOST"
	EnvDBPort      = "FRIDGE_DB_PORT"
	EnvDBUser      = "FRIDGE_DB_USER"
	EnvDBPassword  = "FRIDGE_DB_PASSWORD"
	EnvDBName      = "FRIDGE_DB_NAME"
	EnvDBSSLMode   = "FRIDGE_DB_SSLMODE"
	EnvAutoMigrate = "FRIDGE_AUTO_MIGRATE"

	EnvRedisURL  = "FRIDGE_REDIS_URL"
	EnvRedisAddr = "FRIDGE_REDIS_ADDR"

	EnvAlertSweepInterval = "FRIDGE_ALERT_SWEEP_INTERVAL"
	EnvInboxDir           = "FRIDGE_INBOX_DIR"
	EnvInboxDebounce      = "FRIDGE_INBOX_DEBOUNCE"
	EnvRecipesFile        = "FRIDGE_RECIPES_FILE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
