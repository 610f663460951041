// Package main is the entry point for the config registry server binary.
// It dispatches serve, migrate and version via a switch on os.Args. serve applies
// pending migrations on startup so a fresh deployment needs no separate step.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/config-registry/config-registry/internal/api"
	"github.com/config-registry/config-registry/internal/audit"
	"github.com/config-registry/config-registry/internal/config"
	"github.com/config-registry/config-registry/internal/db"
	"github.com/config-registry/config-registry/internal/db/repositories"
	"github.com/config-registry/config-registry/internal/services"
	"github.com/config-registry/config-registry/internal/telemetry"
)

// version is overridden with -ldflags "-X main.version=..."
var version = "0.1.0"

const usage = "usage: %s <serve|migrate up|migrate down|migrate force VERSION|version>"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	if command == "version" {
		fmt.Printf("config-registry v%s\n", version)
		return nil
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	switch command {
	case "serve":
		return serve(cfg)
	case "migrate":
		if len(os.Args) < 3 {
			return fmt.Errorf(usage, os.Args[0])
		}
		return runMigrations(cfg, os.Args[2:])
	default:
		return fmt.Errorf("unknown command: %s\n"+usage, command, os.Args[0])
	}
}

func serve(cfg *config.Config) error {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()
	slog.Info("connected to database", "host", cfg.Database.Host, "name", cfg.Database.Name)

	telemetry.StartDBStatsCollector(database)

	if err := db.RunMigrations(database, "up"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if v, dirty, err := db.GetMigrationVersion(database); err != nil {
		slog.Warn("failed to read migration version", "error", err)
	} else {
		slog.Info("database schema ready", "version", v, "dirty", dirty)
	}

	shipper, err := newAuditShipper(cfg)
	if err != nil {
		return err
	}

	sqlxDB := db.Wrap(database)
	svc := services.NewNamespaceService(services.NewSQLStores(sqlxDB), services.NewSQLTransactor(sqlxDB), shipper)

	var metricsSrv *http.Server
	if cfg.Telemetry.Metrics.Enabled {
		metricsSrv = startMetricsServer(cfg.Telemetry.Metrics.PrometheusPort)
	}

	api.Version = version
	router, bg := api.NewRouter(cfg, database, svc, repositories.NewAuditRepository(sqlxDB))

	server := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", server.Addr, "tls", cfg.Security.TLS.Enabled)

		var err error
		if cfg.Security.TLS.Enabled {
			err = server.ListenAndServeTLS(cfg.Security.TLS.CertFile, cfg.Security.TLS.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			slog.Warn("metrics server shutdown", "error", err)
		}
	}

	bg.Shutdown()

	// Pending webhook batches flush here, after the last request has committed.
	if shipper != nil {
		if err := shipper.Close(); err != nil {
			slog.Warn("audit shipper close", "error", err)
		}
	}

	slog.Info("server stopped")
	return nil
}

// newAuditShipper returns nil when no external audit destination is enabled
func newAuditShipper(cfg *config.Config) (audit.Shipper, error) {
	configs := audit.ConfigsFromSettings(cfg.Audit)
	if len(configs) == 0 {
		return nil, nil
	}

	ms, err := audit.NewMultiShipper(configs)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise audit shippers: %w", err)
	}
	if ms.Len() == 0 {
		return nil, nil
	}

	slog.Info("audit shipping enabled", "destinations", ms.Len())
	return ms, nil
}

// startMetricsServer serves /metrics on its own port, off the public API listener
func startMetricsServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("starting Prometheus metrics server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return srv
}

func runMigrations(cfg *config.Config, args []string) error {
	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	switch args[0] {
	case "up", "down":
		slog.Info("running migrations", "direction", args[0])
		if err := db.RunMigrations(database, args[0]); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case "force":
		if len(args) < 2 {
			return fmt.Errorf(usage, os.Args[0])
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid migration version %q: %w", args[1], err)
		}
		if err := db.ForceMigrationVersion(database, v); err != nil {
			return err
		}
	default:
		return fmt.Errorf(usage, os.Args[0])
	}

	v, dirty, err := db.GetMigrationVersion(database)
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	slog.Info("migration completed", "version", v, "dirty", dirty)
	return nil
}
