package config

import (
	"github.com/garyjia/mediation-desk/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
		Auth: container.AuthConfig{
			JWTSecret: c.Auth.JWTSecret,
			Issuer:    c.Auth.Issuer,
		},
		Push: container.PushConfig{
			HandlerTimeout:    c.Push.HandlerTimeout,
			WebSocketEnabled:  c.Push.WebSocket.Enabled,
			AllowedOrigins:    c.Push.WebSocket.AllowedOrigins,
			RedisURL:          c.Push.Redis.URL,
			RedisChannel:      c.Push.Redis.Channel,
			RedisPoolSize:     c.Push.Redis.PoolSize,
			RedisDialTimeout:  c.Push.Redis.DialTimeout,
			RedisReadTimeout:  c.Push.Redis.ReadTimeout,
			RedisWriteTimeout: c.Push.Redis.WriteTimeout,
			LarkAppID:         c.Push.Lark.AppID,
			LarkAppSecret:     c.Push.Lark.AppSecret,
			LarkBaseURL:       c.Push.Lark.BaseURL,
		},
		Storage: container.StorageConfig{
			EvidenceDir:      c.Storage.EvidenceDir,
			MaxEvidenceBytes: c.Storage.MaxEvidenceBytes,
			ExportFont:       c.Storage.ExportFont,
		},
		Workflow: container.WorkflowConfig{
			CaseNumberPrefix:      c.Workflow.CaseNumberPrefix,
			AllowRespondentCancel: c.Workflow.AllowRespondentCancel,
		},
	}
}
