package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Cron   CronConfig   `mapstructure:"cron"`

	TransactionAPI TransactionAPIConfig `mapstructure:"transaction_api"`
	BlockchainRPC  BlockchainRPCConfig  `mapstructure:"blockchain_rpc"`
	Prices         PricesConfig         `mapstructure:"prices"`
	Alert          AlertConfig          `mapstructure:"alert"`

	Dispatcher    DispatcherConfig    `mapstructure:"dispatcher"`
	Reconciler    ReconcilerConfig    `mapstructure:"reconciler"`
	MovingAverage MovingAverageConfig `mapstructure:"moving_average"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Dispatch      string `mapstructure:"dispatch"`
	Reconcile     string `mapstructure:"reconcile"`
	MovingAverage string `mapstructure:"moving_average"`
}

// TransactionAPIConfig points at the external broadcast API. An empty BaseURL
// selects the deterministic simulator at wiring time.
type TransactionAPIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type BlockchainRPCConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PricesConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	Assets  []string      `mapstructure:"assets"`
}

type AlertConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type DispatcherConfig struct {
	ClaimTimeout time.Duration `mapstructure:"claim_timeout"`
}

type ReconcilerConfig struct {
	ExecutionTimeout time.Duration `mapstructure:"execution_timeout"`
	NotFoundGrace    time.Duration `mapstructure:"not_found_grace"`
	LogRetention     time.Duration `mapstructure:"log_retention"`
	AlertBatchSize   int           `mapstructure:"alert_batch_size"`
	BatchLimit       int           `mapstructure:"batch_limit"`
}

type MovingAverageConfig struct {
	WindowDays int `mapstructure:"window_days"`
	MinSamples int `mapstructure:"min_samples"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SPOTMF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.dispatch", "@every 1h")
	v.SetDefault("cron.reconcile", "@every 10m")
	v.SetDefault("cron.moving_average", "@every 6h")
	v.SetDefault("transaction_api.base_url", "")
	v.SetDefault("transaction_api.timeout", "30s")
	v.SetDefault("blockchain_rpc.url", "")
	v.SetDefault("blockchain_rpc.timeout", "10s")
	v.SetDefault("prices.base_url", "")
	v.SetDefault("prices.timeout", "15s")
	v.SetDefault("prices.assets", []string{})
	v.SetDefault("alert.webhook_url", "")
	v.SetDefault("alert.timeout", "5s")
	v.SetDefault("dispatcher.claim_timeout", "15m")
	v.SetDefault("reconciler.execution_timeout", "24h")
	v.SetDefault("reconciler.not_found_grace", "2h")
	v.SetDefault("reconciler.log_retention", "336h")
	v.SetDefault("reconciler.alert_batch_size", 10)
	v.SetDefault("reconciler.batch_limit", 500)
	v.SetDefault("moving_average.window_days", 200)
	v.SetDefault("moving_average.min_samples", 200)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
