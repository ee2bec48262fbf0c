package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neogan74/fedbridge/internal/bridge"
	"github.com/neogan74/fedbridge/internal/config"
	"github.com/neogan74/fedbridge/internal/fedimint"
	"github.com/neogan74/fedbridge/internal/handlers"
	"github.com/neogan74/fedbridge/internal/logger"
	"github.com/neogan74/fedbridge/internal/metrics"
	"github.com/neogan74/fedbridge/internal/middleware"
	"github.com/neogan74/fedbridge/internal/persistence"
	"github.com/neogan74/fedbridge/internal/reconcile"
	"github.com/neogan74/fedbridge/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

// Builder wires fedbridge application dependencies.
type Builder struct {
	cfg        *config.Config
	version    string
	logger     logger.Logger
	fiberApp   *fiber.App
	engine     persistence.Engine
	channel    *bridge.Channel
	federation *fedimint.FederationClient
	reconciler *reconcile.Manager

	connector  fedimint.Connector
	invite     fedimint.InviteOrID
	rootSecret []byte

	tracerProvider *telemetry.TracerProvider
	closers        []func()
}

// NewBuilder creates a new application builder.
func NewBuilder(cfg *config.Config, version string) *Builder {
	return &Builder{cfg: cfg, version: version}
}

// WithFederation configures the builder to connect a federation client
// on startup. Without it the daemon serves the admin API over durable
// storage only.
func (b *Builder) WithFederation(connector fedimint.Connector, invite fedimint.InviteOrID, rootSecret []byte) *Builder {
	b.connector = connector
	b.invite = invite
	b.rootSecret = rootSecret
	return b
}

// Build assembles the fedbridge application components.
func (b *Builder) Build(ctx context.Context) (*App, error) {
	b.initLogger()
	b.recordStartupMetrics()
	b.initFiber()
	b.initTracing(ctx)
	b.initMiddleware()

	if err := b.initPersistence(); err != nil {
		b.cleanupOnError()
		return nil, err
	}

	b.initBridge()

	if err := b.initFederation(ctx); err != nil {
		b.cleanupOnError()
		return nil, err
	}

	b.initReconciler()
	b.initHandlers()

	return &App{
		cfg:            b.cfg,
		version:        b.version,
		logger:         b.logger,
		fiberApp:       b.fiberApp,
		channel:        b.channel,
		federation:     b.federation,
		reconciler:     b.reconciler,
		tracerProvider: b.tracerProvider,
		closers:        b.closers,
	}, nil
}

func (b *Builder) initLogger() {
	b.logger = logger.NewFromConfig(b.cfg.Log.Level, b.cfg.Log.Format)
	logger.SetDefault(b.logger)
}

func (b *Builder) recordStartupMetrics() {
	metrics.BuildInfo.WithLabelValues(b.version, runtime.Version()).Set(1)

	b.logger.Info("Starting fedbridge",
		logger.String("version", b.version),
		logger.String("address", b.cfg.Address()),
		logger.String("network", b.cfg.Federation.Network),
		logger.String("log_level", b.cfg.Log.Level),
		logger.String("persistence_type", b.cfg.Persistence.Type),
	)
}

func (b *Builder) initFiber() {
	b.fiberApp = fiber.New()
}

func (b *Builder) initTracing(ctx context.Context) {
	provider, err := telemetry.InitTracing(ctx, b.cfg.Tracing)
	if err != nil {
		b.logger.Error("Failed to initialize tracing", logger.Error(err))
		return
	}

	if b.cfg.Tracing.Enabled {
		b.logger.Info("OpenTelemetry tracing initialized",
			logger.String("endpoint", b.cfg.Tracing.Endpoint),
			logger.String("service_name", b.cfg.Tracing.ServiceName),
		)

		b.addCloser(func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				b.logger.Error("Failed to shutdown tracer provider", logger.Error(err))
			}
		})
	}

	b.tracerProvider = provider
}

func (b *Builder) initMiddleware() {
	b.fiberApp.Use(middleware.RequestLogging(b.logger))
	b.fiberApp.Use(middleware.MetricsMiddleware())

	if b.cfg.Tracing.Enabled {
		b.fiberApp.Use(middleware.TracingMiddleware(b.cfg.Tracing.ServiceName))
	}
}

func (b *Builder) initPersistence() error {
	engine, err := persistence.NewEngine(persistence.Config{
		Type:       b.cfg.Persistence.Type,
		DataDir:    b.cfg.Persistence.DataDir,
		BackupDir:  b.cfg.Persistence.BackupDir,
		SyncWrites: b.cfg.Persistence.SyncWrites,
	}, b.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize persistence engine: %w", err)
	}

	b.engine = engine

	b.addCloser(func() {
		if err := engine.Close(); err != nil {
			b.logger.Error("Failed to close persistence engine", logger.Error(err))
		}
	})

	return nil
}

func (b *Builder) initBridge() {
	b.channel = bridge.NewChannel(b.cfg.Bridge.BufferSize)
	b.addCloser(b.channel.Close)
}

func (b *Builder) initFederation(ctx context.Context) error {
	if b.connector == nil {
		b.logger.Info("No federation configured, serving admin API only")
		return nil
	}

	client, err := fedimint.New(ctx, b.engine, b.connector, b.invite, b.rootSecret, fedimint.Options{
		Network:                b.cfg.Federation.Network,
		GatewayRefreshInterval: b.cfg.Federation.GatewayRefreshInterval,
		GatewayCacheTTL:        b.cfg.Federation.GatewayCacheTTL,
	}, b.logger)
	if err != nil {
		return fmt.Errorf("failed to connect federation: %w", err)
	}

	b.federation = client
	b.addCloser(client.Stop)

	b.logger.Info("Federation connected",
		logger.String("federation_id", client.FederationID()),
		logger.String("network", client.Network()),
		logger.Int("snapshot_keys", client.SnapshotSize()),
	)
	return nil
}

func (b *Builder) initReconciler() {
	var balance reconcile.BalanceSource = noBalance{}
	if b.federation != nil {
		balance = b.federation
	}
	b.reconciler = reconcile.NewManager(b.engine, b.channel, balance, b.logger)
}

func (b *Builder) initHandlers() {
	healthHandler := handlers.NewHealthHandler(b.engine, b.reconciler, b.version)
	historyHandler := handlers.NewHistoryHandler(b.engine, b.logger)
	backupHandler := handlers.NewBackupHandler(b.engine, b.cfg.Persistence.BackupDir, b.logger)
	eventsHandler := handlers.NewEventsHandler(b.channel, b.logger)

	var federation handlers.Federation
	if b.federation != nil {
		federation = b.federation
	}
	federationHandler := handlers.NewFederationHandler(b.engine, federation, b.logger)

	b.fiberApp.Get("/health", healthHandler.Check)
	b.fiberApp.Get("/health/live", healthHandler.Liveness)
	b.fiberApp.Get("/health/ready", healthHandler.Readiness)

	b.fiberApp.Get("/history", historyHandler.List)
	b.fiberApp.Get("/history/:id", historyHandler.Get)

	b.fiberApp.Get("/federations", federationHandler.List)
	b.fiberApp.Get("/federations/gateways", federationHandler.Gateways)
	b.fiberApp.Post("/federations/gateways/select", federationHandler.SelectGateway)
	b.fiberApp.Get("/federations/:id", federationHandler.Get)

	b.fiberApp.Post("/backup", backupHandler.CreateBackup)
	b.fiberApp.Post("/restore", backupHandler.RestoreBackup)
	b.fiberApp.Get("/backups", backupHandler.ListBackups)

	b.fiberApp.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	b.fiberApp.Get("/ws/events", websocket.New(eventsHandler.Stream))

	b.fiberApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

func (b *Builder) addCloser(closer func()) {
	b.closers = append(b.closers, closer)
}

func (b *Builder) cleanupOnError() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// noBalance serves the admin-only mode where no federation is connected
type noBalance struct{}

func (noBalance) Balance(ctx context.Context) (uint64, error) {
	return 0, fmt.Errorf("no federation connected")
}

// App represents a configured fedbridge application ready to run.
type App struct {
	cfg            *config.Config
	version        string
	logger         logger.Logger
	fiberApp       *fiber.App
	channel        *bridge.Channel
	federation     *fedimint.FederationClient
	reconciler     *reconcile.Manager
	tracerProvider *telemetry.TracerProvider
	closers        []func()
}

// Federation returns the connected federation client, or nil
func (a *App) Federation() *fedimint.FederationClient {
	return a.federation
}

// Reconciler returns the operation reconciler
func (a *App) Reconciler() *reconcile.Manager {
	return a.reconciler
}

// Bridge returns the UI bridge channel
func (a *App) Bridge() *bridge.Channel {
	return a.channel
}

// Run starts the fedbridge application and handles graceful shutdown.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("Server starting", logger.String("address", a.cfg.Address()))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.fiberApp.Listen(a.cfg.Address())
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			a.logger.Error("Failed to start server", logger.Error(err))
			a.shutdownTasks()
			a.runClosers()
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server...")

	a.shutdownTasks()

	if err := a.fiberApp.Shutdown(); err != nil {
		a.logger.Error("Server forced to shutdown", logger.Error(err))
	}

	a.runClosers()

	if err := <-serverErr; err != nil {
		return err
	}

	a.logger.Info("Server exited gracefully")
	return nil
}

func (a *App) shutdownTasks() {
	if a.reconciler != nil {
		a.reconciler.CancelAll()
		a.reconciler.Wait()
	}
}

func (a *App) runClosers() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
