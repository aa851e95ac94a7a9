package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mizusaki/procureflow-backend/api/controllers"
	"github.com/mizusaki/procureflow-backend/api/routes"
	"github.com/mizusaki/procureflow-backend/internal/candidates"
	"github.com/mizusaki/procureflow-backend/internal/documents"
	"github.com/mizusaki/procureflow-backend/internal/inventory"
	"github.com/mizusaki/procureflow-backend/internal/mailer"
	"github.com/mizusaki/procureflow-backend/internal/orders"
	"github.com/mizusaki/procureflow-backend/internal/requests"
	"github.com/mizusaki/procureflow-backend/internal/staging"
	"github.com/mizusaki/procureflow-backend/pkg/config"
	"github.com/mizusaki/procureflow-backend/pkg/db"
	"github.com/mizusaki/procureflow-backend/pkg/logger"
	"github.com/mizusaki/procureflow-backend/pkg/metrics"
	"github.com/mizusaki/procureflow-backend/pkg/migrate"
	"github.com/mizusaki/procureflow-backend/pkg/redis"
	"github.com/mizusaki/procureflow-backend/pkg/render"
	"github.com/mizusaki/procureflow-backend/pkg/smtp"
	"github.com/mizusaki/procureflow-backend/pkg/storage/fs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	docStore, err := fs.NewClient(context.Background(), cfg.Documents.Root, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open document storage", err)
		os.Exit(1)
	}

	renderer, err := render.NewRenderer()
	if err != nil {
		logg.Error(context.Background(), "failed to parse document template", err)
		os.Exit(1)
	}
	transport := smtp.NewTransport(cfg.SMTP)

	registry := prometheus.NewRegistry()
	dispatchMetrics := metrics.NewDispatchMetrics(registry)

	inventoryService, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}
	requestsService, err := requests.NewService(requests.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create requests service", err)
		os.Exit(1)
	}
	stagingService, err := staging.NewService(staging.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create staging service", err)
		os.Exit(1)
	}
	candidatesService, err := candidates.NewService(candidates.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create candidates service", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		dbClient,
		inventoryService,
		candidatesService,
		dispatchMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	documentsService, err := documents.NewService(
		documents.NewRepository(dbClient.DB()),
		dbClient,
		renderer,
		docStore,
		redisClient,
		cfg.Mail,
		dispatchMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create documents service", err)
		os.Exit(1)
	}
	mailerService, err := mailer.NewService(
		mailer.NewRepository(dbClient.DB()),
		dbClient,
		transport,
		docStore,
		documentsService,
		redisClient,
		cfg.Mail,
		dispatchMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create mailer service", err)
		os.Exit(1)
	}

	pingers := map[string]controllers.Pinger{
		"db":        dbClient,
		"redis":     redisClient,
		"documents": docStore,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			pingers,
			registry,
			inventoryService,
			requestsService,
			stagingService,
			candidatesService,
			ordersService,
			documentsService,
			mailerService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
