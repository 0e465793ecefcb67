package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// StorageJSON keeps every collection in a flat JSON file under storage.dir.
	StorageJSON = "json"
	// StoragePostgres keeps collections in Postgres tables.
	StoragePostgres = "postgres"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for per-user inbound rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// PostgresConfig holds connection settings for the Postgres storage backend.
// It mirrors database.Config; bootstrap converts between the two.
type PostgresConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// StorageConfig selects and configures the record store backend.
type StorageConfig struct {
	Driver   string         `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	Dir      string         `yaml:"dir" envconfig:"STORAGE_DIR"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// BroadcastConfig tunes the fan-out engine.
type BroadcastConfig struct {
	// UserDelayMS is the pause between consecutive user-targeted sends.
	UserDelayMS int `yaml:"user_delay_ms" envconfig:"BROADCAST_USER_DELAY_MS"`
	// ProgressEvery controls how often the broadcast status message is edited.
	ProgressEvery int `yaml:"progress_every" envconfig:"BROADCAST_PROGRESS_EVERY"`
}

// StateConfig tunes the conversation state store.
type StateConfig struct {
	TTLMinutes   int `yaml:"ttl_minutes" envconfig:"STATE_TTL_MINUTES"`
	SweepMinutes int `yaml:"sweep_minutes" envconfig:"STATE_SWEEP_MINUTES"`
}

// AdminsConfig seeds the admin registry when its store is empty.
type AdminsConfig struct {
	Seed []int64 `yaml:"seed" envconfig:"ADMIN_SEED"`
}

// Config aggregates all bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Storage   StorageConfig   `yaml:"storage"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	State     StateConfig     `yaml:"state"`
	Admins    AdminsConfig    `yaml:"admins"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if driver == "" {
		driver = StorageJSON
	}
	switch driver {
	case StorageJSON:
		if strings.TrimSpace(cfg.Storage.Dir) == "" {
			cfg.Storage.Dir = "data"
		}
	case StoragePostgres:
		if strings.TrimSpace(cfg.Storage.Postgres.Host) == "" {
			return fmt.Errorf("storage.postgres.host is required when storage.driver is 'postgres'")
		}
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: json, postgres", cfg.Storage.Driver)
	}
	cfg.Storage.Driver = driver

	if cfg.Broadcast.UserDelayMS < 0 {
		return fmt.Errorf("broadcast.user_delay_ms must be >= 0")
	}
	if cfg.Broadcast.UserDelayMS == 0 {
		cfg.Broadcast.UserDelayMS = 50
	}
	if cfg.Broadcast.ProgressEvery <= 0 {
		cfg.Broadcast.ProgressEvery = 5
	}

	if cfg.State.TTLMinutes <= 0 {
		cfg.State.TTLMinutes = 60
	}
	if cfg.State.SweepMinutes <= 0 {
		cfg.State.SweepMinutes = 60
	}

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}

// StateTTL returns the conversation state time-to-live as a duration.
func (c *Config) StateTTL() time.Duration {
	return time.Duration(c.State.TTLMinutes) * time.Minute
}

// StateSweepInterval returns how often expired conversation states are swept.
func (c *Config) StateSweepInterval() time.Duration {
	return time.Duration(c.State.SweepMinutes) * time.Minute
}

// UserSendDelay returns the pause inserted between consecutive user-targeted sends.
func (c *Config) UserSendDelay() time.Duration {
	return time.Duration(c.Broadcast.UserDelayMS) * time.Millisecond
}
