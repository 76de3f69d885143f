package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Push     PushConfig     `mapstructure:"push"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// MigrationsDir overrides the embedded migrations when set
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// PushConfig holds the live notification channels
type PushConfig struct {
	HandlerTimeout time.Duration   `mapstructure:"handler_timeout"`
	WebSocket      WebSocketConfig `mapstructure:"websocket"`
	Redis          RedisConfig     `mapstructure:"redis"`
	Lark           LarkConfig      `mapstructure:"lark"`
}

// WebSocketConfig holds websocket hub settings
type WebSocketConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RedisConfig holds redis pub/sub settings. An empty URL disables redis.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	Channel      string        `mapstructure:"channel"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LarkConfig holds Lark IM credentials. Push through Lark is off without an app id.
type LarkConfig struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
	BaseURL   string `mapstructure:"base_url"`
}

// StorageConfig holds evidence storage settings
type StorageConfig struct {
	EvidenceDir      string `mapstructure:"evidence_dir"`
	MaxEvidenceBytes int    `mapstructure:"max_evidence_bytes"`
	ExportFont       string `mapstructure:"export_font"`
}

// WorkflowConfig holds case workflow policy
type WorkflowConfig struct {
	CaseNumberPrefix      string `mapstructure:"case_number_prefix"`
	AllowRespondentCancel bool   `mapstructure:"allow_respondent_cancel"`
}

// Load loads configuration from file and environment variables. A .env file
// next to the working directory is applied to the environment first.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.path", "data/mediation.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("auth.issuer", "mediation-desk")

	v.SetDefault("push.handler_timeout", 10*time.Second)
	v.SetDefault("push.websocket.enabled", true)
	v.SetDefault("push.redis.channel", "mediation:notifications")
	v.SetDefault("push.redis.pool_size", 10)
	v.SetDefault("push.redis.dial_timeout", 5*time.Second)

	v.SetDefault("storage.evidence_dir", "data/evidence")
	v.SetDefault("storage.max_evidence_bytes", 20<<20)

	v.SetDefault("workflow.case_number_prefix", "MD")
	v.SetDefault("workflow.allow_respondent_cancel", false)
}

// bindEnvVars binds secrets that never belong in the YAML file
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"auth.jwt_secret":      "AUTH_JWT_SECRET",
		"push.redis.url":       "REDIS_URL",
		"push.lark.app_id":     "LARK_APP_ID",
		"push.lark.app_secret": "LARK_APP_SECRET",
		"database.path":        "DATABASE_PATH",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("auth.jwt_secret must be at least 16 characters (set AUTH_JWT_SECRET)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.EvidenceDir == "" {
		return fmt.Errorf("storage.evidence_dir is required")
	}
	if c.Storage.MaxEvidenceBytes <= 0 || c.Storage.MaxEvidenceBytes > 200<<20 {
		return fmt.Errorf("storage.max_evidence_bytes must be between 1 and %d", 200<<20)
	}
	if c.Push.Lark.AppID != "" && c.Push.Lark.AppSecret == "" {
		return fmt.Errorf("push.lark.app_secret is required when push.lark.app_id is set")
	}
	if strings.TrimSpace(c.Workflow.CaseNumberPrefix) == "" {
		return fmt.Errorf("workflow.case_number_prefix is required")
	}
	return nil
}
