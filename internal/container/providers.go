package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/garyjia/mediation-desk/internal/application/dispatcher"
	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/application/service"
	"github.com/garyjia/mediation-desk/internal/application/workflow"
	"github.com/garyjia/mediation-desk/internal/domain/event"
	"github.com/garyjia/mediation-desk/internal/infrastructure/export"
	"github.com/garyjia/mediation-desk/internal/infrastructure/external/lark"
	"github.com/garyjia/mediation-desk/internal/infrastructure/metrics"
	"github.com/garyjia/mediation-desk/internal/infrastructure/persistence/repository"
	"github.com/garyjia/mediation-desk/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/mediation-desk/internal/infrastructure/push"
	pushredis "github.com/garyjia/mediation-desk/internal/infrastructure/push/redis"
	"github.com/garyjia/mediation-desk/internal/infrastructure/storage"
	"github.com/garyjia/mediation-desk/internal/infrastructure/worker"
	httpserver "github.com/garyjia/mediation-desk/internal/interfaces/http"
	"github.com/garyjia/mediation-desk/internal/interfaces/websocket"
	"github.com/garyjia/mediation-desk/pkg/database"
	"github.com/garyjia/mediation-desk/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Cases         port.CaseRepository
	Audit         port.AuditRepository
	Notifications port.NotificationRepository
	Panels        port.PanelRepository
	Witnesses     port.WitnessRepository
	Evidence      port.EvidenceRepository
	Users         *repository.UserRepository
}

// MetricsBundle holds the registry and the collectors registered on it.
type MetricsBundle struct {
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Handler  http.Handler
}

// PushBundle holds the live notification channels. Hub, Redis and Relay are
// nil when their channel is disabled.
type PushBundle struct {
	Dispatcher dispatcher.Dispatcher
	Notifier   port.Notifier
	Hub        *websocket.Hub
	Redis      *pushredis.Client
	Relay      *pushredis.Relay
	Sinks      []string
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Notifications service.NotificationService
	Evidence      service.EvidenceService
	Export        service.ExportService
}

// ProvideDatabase opens the database, applies pending migrations and
// builds the transaction manager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if cfg.MigrationsDir != "" {
		err = migrator.RunMigrations(cfg.MigrationsDir)
	} else {
		err = migrator.RunEmbedded()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates every repository over the shared connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) *RepositoryBundle {
	return &RepositoryBundle{
		Cases:         repository.NewCaseRepository(db.DB, logger),
		Audit:         repository.NewAuditRepository(db.DB, logger),
		Notifications: repository.NewNotificationRepository(db.DB, logger),
		Panels:        repository.NewPanelRepository(db.DB, logger),
		Witnesses:     repository.NewWitnessRepository(db.DB, logger),
		Evidence:      repository.NewEvidenceRepository(db.DB, logger),
		Users:         repository.NewUserRepository(db.DB, logger),
	}
}

// ProvideMetrics creates a private registry with the process collectors and
// the service collectors on it.
func ProvideMetrics() *MetricsBundle {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsBundle{
		Registry: reg,
		Metrics:  metrics.New(reg),
		Handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}
}

// ProvidePush builds the dispatcher and subscribes the enabled sinks.
// With Redis configured, events go through the channel and the relay hands
// them to the local hub; otherwise the hub is subscribed directly.
func ProvidePush(ctx context.Context, cfg *PushConfig, users port.UserDirectory, m *metrics.Metrics, logger *zap.Logger) (*PushBundle, error) {
	disp := dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.NewKeyValueLogger(logger)),
		dispatcher.WithHandlerTimeout(cfg.HandlerTimeout),
	)
	b := &PushBundle{
		Dispatcher: disp,
		Notifier:   push.NewNotifier(disp),
	}

	subscribe := func(name string, h dispatcher.Handler) {
		disp.SubscribeNamed(event.TypeNotificationCreated, name, push.Instrument(name, h, m))
		b.Sinks = append(b.Sinks, name)
	}

	if cfg.WebSocketEnabled {
		b.Hub = websocket.NewHub(cfg.AllowedOrigins, logger)
	}

	client, err := pushredis.New(ctx, pushredis.Config{
		URL:          cfg.RedisURL,
		Channel:      cfg.RedisChannel,
		PoolSize:     cfg.RedisPoolSize,
		DialTimeout:  cfg.RedisDialTimeout,
		ReadTimeout:  cfg.RedisReadTimeout,
		WriteTimeout: cfg.RedisWriteTimeout,
	})
	if err != nil {
		disp.Close()
		if b.Hub != nil {
			b.Hub.Close()
		}
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	switch {
	case client != nil:
		b.Redis = client
		subscribe("redis", pushredis.NewPublisher(client, logger).Handle)
		if b.Hub != nil {
			b.Relay = pushredis.NewRelay(client, b.Hub.Deliver, logger)
		}
	case b.Hub != nil:
		subscribe("websocket", b.Hub.Deliver)
	}

	if cfg.LarkAppID != "" {
		sdk := lark.NewSDKClient(lark.Config{
			AppID:     cfg.LarkAppID,
			AppSecret: cfg.LarkAppSecret,
			BaseURL:   cfg.LarkBaseURL,
		}, logger)
		subscribe("lark", lark.NewNotificationSink(lark.NewMessenger(sdk, logger), users, logger).Handle)
	}

	if len(b.Sinks) == 0 {
		logger.Warn("No push sinks enabled, notifications are inbox-only")
	}
	return b, nil
}

// ProvideEngine creates the case workflow engine.
func ProvideEngine(cfg *WorkflowConfig, repos *RepositoryBundle, txManager port.TransactionManager, notifier port.Notifier, m *metrics.Metrics, logger *zap.Logger) workflow.CaseEngine {
	return workflow.NewEngine(
		workflow.Repositories{
			Cases:         repos.Cases,
			Audit:         repos.Audit,
			Notifications: repos.Notifications,
			Panels:        repos.Panels,
			Witnesses:     repos.Witnesses,
			Evidence:      repos.Evidence,
		},
		repos.Users,
		txManager,
		workflow.WithNotifier(notifier),
		workflow.WithMetrics(m),
		workflow.WithLogger(utils.NewKeyValueLogger(logger)),
		workflow.WithCaseNumberPrefix(cfg.CaseNumberPrefix),
		workflow.WithRespondentCancel(cfg.AllowRespondentCancel),
	)
}

// ProvideServices creates the application services around the engine.
func ProvideServices(cfg *StorageConfig, engine workflow.CaseEngine, repos *RepositoryBundle, m *metrics.Metrics, logger *zap.Logger) *ServiceBundle {
	kv := utils.NewKeyValueLogger(logger)
	blobs := storage.NewLocalBlobStore(cfg.EvidenceDir, logger)
	renderer := export.NewHistoryWorkbook(cfg.ExportFont, logger)

	return &ServiceBundle{
		Notifications: service.NewNotificationService(repos.Notifications, kv),
		Evidence:      service.NewEvidenceService(engine, repos.Evidence, blobs, cfg.MaxEvidenceBytes, m, kv),
		Export:        service.NewExportService(engine, renderer, kv),
	}
}

// ProvideWorkers registers the background workers. The manager is empty
// when nothing needs to run in the background.
func ProvideWorkers(p *PushBundle, logger *zap.Logger) *worker.Manager {
	mgr := worker.NewManager(logger)
	if p.Relay != nil {
		mgr.Register(p.Relay)
	}
	return mgr
}

// ProvideHTTPServer creates the HTTP server.
func ProvideHTTPServer(cfg *Config, engine workflow.CaseEngine, services *ServiceBundle, p *PushBundle, m *MetricsBundle, health func(context.Context) error, logger *zap.Logger) *httpserver.Server {
	deps := httpserver.Dependencies{
		Engine:         engine,
		Notifications:  services.Notifications,
		Evidence:       services.Evidence,
		Export:         services.Export,
		Tokens:         httpserver.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Observer:       m.Metrics,
		MetricsHandler: m.Handler,
		HealthCheck:    health,
	}
	if p.Hub != nil {
		deps.Push = p.Hub
	}

	return httpserver.NewServer(httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxUploadBytes: int64(cfg.Storage.MaxEvidenceBytes),
	}, deps, utils.NewKeyValueLogger(logger))
}
