// Package container provides dependency injection and lifecycle management
// for the mediation service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Push     PushConfig
	Storage  StorageConfig
	Workflow WorkflowConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsDir replaces the embedded migrations when set
	MigrationsDir string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// PushConfig holds live notification settings. Each channel is optional.
type PushConfig struct {
	// HandlerTimeout bounds one sink delivery
	HandlerTimeout time.Duration

	WebSocketEnabled bool
	AllowedOrigins   []string

	// RedisURL enables cross-instance fan-out when set
	RedisURL          string
	RedisChannel      string
	RedisPoolSize     int
	RedisDialTimeout  time.Duration
	RedisReadTimeout  time.Duration
	RedisWriteTimeout time.Duration

	// LarkAppID enables Lark IM delivery when set
	LarkAppID     string
	LarkAppSecret string
	LarkBaseURL   string
}

// StorageConfig holds evidence and export settings.
type StorageConfig struct {
	EvidenceDir      string
	MaxEvidenceBytes int
	ExportFont       string
}

// WorkflowConfig holds case workflow policy.
type WorkflowConfig struct {
	CaseNumberPrefix      string
	AllowRespondentCancel bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/mediation.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			Issuer: "mediation-desk",
		},
		Push: PushConfig{
			HandlerTimeout:   10 * time.Second,
			WebSocketEnabled: true,
			RedisChannel:     "mediation:notifications",
		},
		Storage: StorageConfig{
			EvidenceDir:      "data/evidence",
			MaxEvidenceBytes: 20 << 20,
		},
		Workflow: WorkflowConfig{
			CaseNumberPrefix: "MD",
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Storage.EvidenceDir == "" {
		return fmt.Errorf("storage.evidence_dir is required")
	}
	if c.Push.LarkAppID != "" && c.Push.LarkAppSecret == "" {
		return fmt.Errorf("lark app secret is required when the app id is set")
	}
	return nil
}
