package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"github.com/Paidguy/SpotiFLAC-web/internal/app"
	"github.com/Paidguy/SpotiFLAC-web/internal/config"
	"github.com/Paidguy/SpotiFLAC-web/internal/constants"
	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
	"github.com/Paidguy/SpotiFLAC-web/internal/downloader"
	"github.com/Paidguy/SpotiFLAC-web/internal/events"
	"github.com/Paidguy/SpotiFLAC-web/internal/fetcher"
	httpapp "github.com/Paidguy/SpotiFLAC-web/internal/http"
	"github.com/Paidguy/SpotiFLAC-web/internal/httpclient"
	"github.com/Paidguy/SpotiFLAC-web/internal/logger"
	"github.com/Paidguy/SpotiFLAC-web/internal/metrics"
	"github.com/Paidguy/SpotiFLAC-web/internal/queue"
	"github.com/Paidguy/SpotiFLAC-web/internal/storage"
	"github.com/Paidguy/SpotiFLAC-web/internal/store"
	"github.com/Paidguy/SpotiFLAC-web/internal/store/mongostore"
	"github.com/Paidguy/SpotiFLAC-web/internal/telemetry"
)

func main() {
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, "spotiflac")
	if err != nil {
		appLogger.Error("Failed to init tracing", "error", err)
		os.Exit(1)
	}

	for _, dir := range []string{filepath.Dir(cfg.DBPath), cfg.DownloadPath} {
		if err := storage.EnsureDir(dir); err != nil {
			appLogger.Error("Failed to create directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	// Initialize DB
	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	history, fetchHistory, closeHistory, err := openHistory(ctx, cfg, db, appLogger)
	if err != nil {
		appLogger.Error("Failed to init history store", "backend", cfg.HistoryBackend, "error", err)
		os.Exit(1)
	}
	defer closeHistory()

	// Queue engine
	bus := events.NewBus(cfg.SubscriberBuffer, appLogger)
	manager := queue.NewManager(bus, history, appLogger)

	client := httpclient.NewClient(nil, cfg.SourceRPS)
	httpFetcher := fetcher.NewHTTPFetcher(client, cfg.DownloadPath, cfg.FilenameTemplate, appLogger)
	httpFetcher.DefaultFormat = cfg.DefaultFormat

	dispatcher := downloader.NewDispatcher(cfg.DefaultService)
	for _, service := range constants.BuiltinServices {
		dispatcher.Register(service, httpFetcher)
	}
	appLogger.Info("Fetch services registered", "services", dispatcher.Services(), "default", cfg.DefaultService)

	pool := downloader.NewPool(manager, dispatcher, appLogger)
	pool.MaxConcurrent = cfg.MaxConcurrent
	pool.ProgressInterval = cfg.ProgressInterval
	pool.Start()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewQueueCollector(manager.Snapshot),
	)
	metrics.Register(reg)

	// Routes
	h := httpapp.NewHandler(
		manager,
		app.NewQueueService(manager, cfg.DefaultService, cfg.DefaultFormat, appLogger),
		app.NewHistoryService(history, fetchHistory, store.NewSettingsRepo(db), appLogger),
		bus,
		cfg.DownloadPath,
		appLogger,
	)

	// Start Server
	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpapp.NewRouter(h, httpapp.RouterOptions{
			Gatherer:     reg,
			RateLimitRPS: cfg.RateLimitRPS,
			CORS:         cfg.IsDevelopment(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Server listening", "addr", srv.Addr, "download_path", cfg.DownloadPath, "workers", cfg.MaxConcurrent)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful Shutdown
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		appLogger.Error("Server error", "error", err)
	}

	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	// In-flight items fail first so observers still see their events.
	// Streams only end once the bus closes.
	pool.Stop()
	bus.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.Warn("Tracing shutdown failed", "error", err)
	}

	appLogger.Info("Server exiting")
}

// openHistory picks the history backend. SQLite shares the main database;
// Mongo gets its own client, closed by the returned func.
func openHistory(ctx context.Context, cfg *config.Config, db *store.DB, log *logger.Logger) (domain.HistoryStore, domain.FetchHistoryStore, func(), error) {
	if cfg.HistoryBackend != constants.HistoryBackendMongo {
		return store.NewHistoryRepo(db), store.NewFetchHistoryRepo(db), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongostore.Connect(connectCtx, cfg.MongoURI, options.Client().SetMonitor(otelmongo.NewMonitor()))
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Warn("Mongo disconnect failed", "error", err)
		}
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		closeFn()
		return nil, nil, nil, err
	}

	history := mongostore.NewHistoryRepository(client, cfg.MongoDB)
	fetchHistory := mongostore.NewFetchHistoryRepository(client, cfg.MongoDB)
	if err := history.EnsureIndexes(connectCtx); err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	if err := fetchHistory.EnsureIndexes(connectCtx); err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	log.Info("Using MongoDB history store", "database", cfg.MongoDB)
	return history, fetchHistory, closeFn, nil
}
