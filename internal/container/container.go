package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/application/workflow"
	"github.com/garyjia/mediation-desk/internal/infrastructure/worker"
	httpserver "github.com/garyjia/mediation-desk/internal/interfaces/http"
	"go.uber.org/zap"
)

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and are torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	database     *DatabaseBundle
	repositories *RepositoryBundle

	// Infrastructure - Observability and push
	metrics *MetricsBundle
	push    *PushBundle

	// Application
	engine   workflow.CaseEngine
	services *ServiceBundle

	// Interfaces
	server *httpserver.Server

	// Workers
	workers *worker.Manager

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components. Order:
// 1. Database and repositories
// 2. Metrics registry
// 3. Push channels and dispatcher
// 4. Workflow engine and services
// 5. HTTP server
// 6. Workers
//
// A failed step tears down whatever was already built.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(); err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized", zap.String("path", c.config.Database.Path))

	c.metrics = ProvideMetrics()

	if err := c.initPush(); err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize push: %w", err)
	}
	c.logger.Info("Push channels initialized", zap.Strings("sinks", c.push.Sinks))

	c.engine = ProvideEngine(&c.config.Workflow, c.repositories, c.database.TransactionMgr, c.push.Notifier, c.metrics.Metrics, c.logger)
	c.services = ProvideServices(&c.config.Storage, c.engine, c.repositories, c.metrics.Metrics, c.logger)
	c.server = ProvideHTTPServer(c.config, c.engine, c.services, c.push, c.metrics, c.Ping, c.logger)

	c.workers = ProvideWorkers(c.push, c.logger)
	if err := c.workers.StartAll(c.ctx); err != nil {
		c.teardown()
		return fmt.Errorf("failed to start workers: %w", err)
	}

	c.ready.Store(true)
	c.logger.Info("Container started", zap.Int("workers", c.workers.Count()))
	return nil
}

func (c *Container) initDatabase() error {
	db, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.database = db
	c.repositories = ProvideRepositories(db.DB, c.logger)
	return nil
}

func (c *Container) initPush() error {
	p, err := ProvidePush(c.ctx, &c.config.Push, c.repositories.Users, c.metrics.Metrics, c.logger)
	if err != nil {
		return err
	}
	c.push = p
	return nil
}

// Close tears everything down in reverse order. Safe to call more than once.
func (c *Container) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.logger.Info("Closing container")
	c.ready.Store(false)

	// in-flight health checks take the read lock
	c.mu.RLock()
	server := c.server
	c.mu.RUnlock()
	var serverErr error
	if server != nil {
		serverErr = server.Stop()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := errors.Join(serverErr, c.teardown())

	if err != nil {
		c.logger.Error("Container closed with errors", zap.Error(err))
		return err
	}
	c.logger.Info("Container closed")
	return nil
}

// teardown releases built components: workers, dispatcher, hub, redis, db.
// The HTTP server is never serving here. Callers hold c.mu.
func (c *Container) teardown() error {
	var errs []error

	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			errs = append(errs, fmt.Errorf("workers: %w", err))
		}
	}
	c.server = nil
	if c.push != nil {
		// drain in-flight sinks before their transports go away
		if err := c.push.Dispatcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("dispatcher: %w", err))
		}
		if c.push.Hub != nil {
			c.push.Hub.Close()
		}
		if c.push.Redis != nil {
			if err := c.push.Redis.Close(); err != nil {
				errs = append(errs, fmt.Errorf("redis: %w", err))
			}
		}
	}
	if c.database != nil {
		if err := c.database.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if c.cancel != nil {
		c.cancel()
	}

	c.workers, c.push, c.database = nil, nil, nil
	return errors.Join(errs...)
}

// Ready reports whether Start completed and Close has not been called.
func (c *Container) Ready() bool {
	return c.ready.Load() && !c.closed.Load()
}

// Ping fails when a required dependency is unreachable. It backs /health.
func (c *Container) Ping(ctx context.Context) error {
	status := c.Health(ctx)
	if status.Overall {
		return nil
	}
	for name, comp := range status.Components {
		if !comp.Healthy {
			return fmt.Errorf("%s: %s", name, comp.Message)
		}
	}
	return fmt.Errorf("container not ready")
}

// Health checks each component.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	record := func(name string, err error) {
		if err != nil {
			status.Overall = false
			status.Components[name] = ComponentHealth{Healthy: false, Message: err.Error()}
			return
		}
		status.Components[name] = ComponentHealth{Healthy: true}
	}

	if !c.ready.Load() {
		record("container", fmt.Errorf("not started"))
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	record("database", c.database.DB.PingContext(ctx))
	if c.push.Redis != nil {
		record("redis", c.push.Redis.Health(ctx))
	}
	if c.workers.Count() > 0 && !c.workers.IsRunning() {
		record("workers", fmt.Errorf("not running"))
	}

	// sink failures are best effort and never fail the check
	stats := c.push.Dispatcher.Stats()
	status.Components["push"] = ComponentHealth{
		Healthy: true,
		Message: fmt.Sprintf("sinks=%d delivered=%d failed=%d", len(c.push.Sinks), stats.Delivered, stats.Failed),
	}

	return status
}

// Getters for accessing components

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.database.TransactionMgr
}

// Repositories returns the repository bundle.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Engine returns the case workflow engine.
func (c *Container) Engine() workflow.CaseEngine {
	return c.engine
}

// Services returns the application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Push returns the live notification channels.
func (c *Container) Push() *PushBundle {
	return c.push
}

// HTTPServer returns the HTTP server. Start it with the serving context.
func (c *Container) HTTPServer() *httpserver.Server {
	return c.server
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.Manager {
	return c.workers
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
