package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/vulnreport/api/internal/app"
	"github.com/vulnreport/api/internal/config"
	"github.com/vulnreport/api/internal/infra/http"
	"github.com/vulnreport/api/internal/infra/http/routes"
	"github.com/vulnreport/api/internal/infra/postgres"
	"github.com/vulnreport/api/internal/infra/redis"
	"github.com/vulnreport/api/pkg/logger"
	"github.com/vulnreport/api/pkg/migrations"
	"github.com/vulnreport/api/pkg/validator"
)

// Command line flags.
var (
	showRoutes  = flag.Bool("routes", false, "Print all registered routes and exit")
	routeFormat = flag.String("route-format", "table", "Route output format: table, json, csv, simple")
	routeMethod = flag.String("route-method", "", "Filter routes by HTTP method")
	routePath   = flag.String("route-path", "", "Filter routes containing this path")
	routeSort   = flag.String("route-sort", "path", "Sort routes by: path, method, handler")
	skipMigrate = flag.Bool("skip-migrate", false, "Skip running database migrations on startup")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log := logger.NewDefault()
		log.Error("failed to load configuration", "error", err)
		return 1
	}

	log := initLogger(cfg)
	log.Info("starting application", "app", cfg.App.Name, "env", cfg.App.Environment)

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return 1
	}
	defer closeWithLog(db, "database", log)
	log.Info("database connected")

	if !*skipMigrate {
		if err := migrations.NewRunner(db.DB).Up(ctx); err != nil {
			log.Error("failed to run migrations", "error", err)
			return 1
		}
		log.Info("migrations applied")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.New(&cfg.Redis, log)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			return 1
		}
		defer closeWithLog(redisClient, "redis", log)
		log.Info("redis connected")
	}

	repos := NewRepositories(db)
	log.Info("repositories initialized")

	services, err := NewServices(&ServiceDeps{
		Config:      cfg,
		Log:         log,
		Repos:       repos,
		RedisClient: redisClient,
	})
	if err != nil {
		log.Error("failed to initialize services", "error", err)
		return 1
	}
	log.Info("services initialized")

	v := validator.New()
	handlers := NewHandlers(&HandlerDeps{
		Config:    cfg,
		Log:       log,
		Validator: v,
		DB:        db,
		Redis:     redisClient,
		Services:  services,
	})

	server := http.NewServer(cfg, log)
	routes.Register(server.Router(), handlers, routes.Options{
		MaxUploadSize: cfg.Ingest.MaxUploadSize,
	})

	if *showRoutes {
		stats := http.CollectRoutes(server.Router())
		filters := http.RouteFilters{
			Method: *routeMethod,
			Path:   *routePath,
			SortBy: *routeSort,
		}
		http.PrintRoutes(os.Stdout, stats, *routeFormat, filters)
		return 0
	}

	var janitor *app.Janitor
	if cfg.Janitor.Enabled {
		janitor = app.NewJanitor(repos.Report, cfg.Janitor.StaleAfter, log)
		if err := janitor.Start(cfg.Janitor.Schedule); err != nil {
			log.Error("failed to start janitor", "error", err)
			return 1
		}
		log.Info("janitor started", "schedule", cfg.Janitor.Schedule)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", "error", err)
		}
	}()
	log.Info("application started", "http_addr", cfg.Server.Addr())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if janitor != nil {
		janitor.Stop()
		log.Info("janitor stopped")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return 1
	}

	log.Info("application stopped")
	return 0
}

func initLogger(cfg *config.Config) *logger.Logger {
	var log *logger.Logger
	if cfg.IsProduction() {
		log = logger.New(logger.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
		})
	} else {
		log = logger.NewDevelopment()
	}
	log.SetDefault()
	return log
}

type closer interface {
	Close() error
}

func closeWithLog(c closer, name string, log *logger.Logger) {
	if err := c.Close(); err != nil {
		log.Error("failed to close "+name, "error", err)
	}
}
