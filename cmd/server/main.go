// Command server runs the catalog API.
//
// Subcommands:
//
//	serve    start the HTTP server (default)
//	migrate  apply or roll back schema migrations, then exit
//	version  print the build version, then exit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spiget/spiget-api/internal/api"
	"github.com/spiget/spiget-api/internal/config"
	"github.com/spiget/spiget-api/internal/db"
	"github.com/spiget/spiget-api/internal/safego"
	"github.com/spiget/spiget-api/internal/telemetry"
	"github.com/spiget/spiget-api/internal/upstream"
)

func main() {
	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 && args[0][0] != '-' {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "serve":
		runServe(args)
	case "migrate":
		runMigrate(args)
	case "version":
		fmt.Printf("spiget-api %s\n", api.Version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s (expected serve, migrate, or version)\n", command)
		os.Exit(2)
	}
}

func loadConfig(fs *flag.FlagSet, args []string) *config.Config {
	configPath := fs.String("config", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func runServe(args []string) {
	cfg := loadConfig(flag.NewFlagSet("serve", flag.ExitOnError), args)

	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)
	slog.Info("starting catalog API",
		"version", api.Version,
		"mode", cfg.Server.Mode,
		"addr", cfg.Server.GetAddress(),
	)

	for _, u := range []string{cfg.Upstream.SiteURL, cfg.Upstream.CDNURL} {
		if err := upstream.ValidateBaseURL(u); err != nil {
			slog.Error("invalid upstream configuration", "error", err)
			os.Exit(1)
		}
	}

	handle, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.GetReplicaDSN(),
		cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer handle.Close()

	if err := db.RunMigrations(handle.Primary().DB, "up"); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	telemetry.StartDBStatsCollector(handle.Primary().DB)

	router, bg := api.NewRouter(cfg, handle)

	if cfg.Telemetry.Metrics.Enabled {
		startMetricsServer(cfg.Telemetry.Metrics.PrometheusPort)
	}
	if cfg.Telemetry.Profiling.Enabled {
		startPprofServer(cfg.Telemetry.Profiling.Port)
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	safego.Go("http-server", func() {
		var err error
		if cfg.Security.TLS.Enabled {
			err = srv.ListenAndServeTLS(cfg.Security.TLS.CertFile, cfg.Security.TLS.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "error", err)
			os.Exit(1)
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	bg.Shutdown()
	slog.Info("server stopped")
}

func runMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	direction := fs.String("direction", "up", "migration direction: up or down")
	cfg := loadConfig(fs, args)

	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	handle, err := db.Connect(cfg.Database.GetDSN(), "", cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer handle.Close()

	if err := db.RunMigrations(handle.Primary().DB, *direction); err != nil {
		slog.Error("migration failed", "direction", *direction, "error", err)
		os.Exit(1)
	}

	version, dirty, err := db.GetMigrationVersion(handle.Primary().DB)
	if err != nil {
		slog.Error("failed to read migration version", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations complete", "direction", *direction, "version", version, "dirty", dirty)
}

// startMetricsServer exposes /metrics on a dedicated port, kept off the
// public router so scrapes never traverse the ingress.
func startMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	safego.Go("metrics-server", func() {
		addr := fmt.Sprintf(":%d", port)
		slog.Info("metrics server listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "error", err)
		}
	})
}

// startPprofServer exposes the net/http/pprof handlers on a dedicated port.
func startPprofServer(port int) {
	safego.Go("pprof-server", func() {
		addr := fmt.Sprintf("localhost:%d", port)
		slog.Info("pprof server listening", "addr", addr)
		if err := http.ListenAndServe(addr, nil); err != nil && err != http.ErrServerClosed {
			slog.Error("pprof server failed", "error", err)
		}
	})
}
