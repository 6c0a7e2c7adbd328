package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/consultia/expense-portal/internal/application/service"
	"github.com/consultia/expense-portal/internal/config"
	"github.com/consultia/expense-portal/internal/infrastructure/auth"
	"github.com/consultia/expense-portal/internal/infrastructure/external/travel"
	"github.com/consultia/expense-portal/internal/infrastructure/persistence/repository"
	"github.com/consultia/expense-portal/internal/infrastructure/persistence/sqlite"
	"github.com/consultia/expense-portal/internal/infrastructure/storage"
	httpadapter "github.com/consultia/expense-portal/internal/interfaces/http"
	"github.com/consultia/expense-portal/internal/report"
	"github.com/consultia/expense-portal/pkg/database"
	"github.com/consultia/expense-portal/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting travel expense portal",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	for _, dir := range []string{cfg.Storage.AttachmentDir, cfg.Report.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	kvLogger := utils.NewKVLogger(logger)
	txManager := sqlite.NewDB(db.DB, logger)

	// Repositories
	assignmentRepo := repository.NewAssignmentRepository(db.DB, logger)
	searchRepo := repository.NewSearchRepository(db.DB, logger)
	quoteRepo := repository.NewQuoteRepository(db.DB, logger)
	capRepo := repository.NewCapRepository(db.DB, logger)
	claimRepo := repository.NewClaimRepository(db.DB, logger)
	attachmentRepo := repository.NewAttachmentRepository(db.DB, logger)
	auditRepo := repository.NewAuditRepository(db.DB, logger)

	// Infrastructure adapters
	fileStorage := storage.NewLocalFileStorage(cfg.Storage.AttachmentDir, logger)
	searcher := travel.NewSearcher(travel.Config{
		BaseURL: cfg.TravelAPI.BaseURL,
		APIKey:  cfg.TravelAPI.APIKey,
		Timeout: cfg.TravelAPI.Timeout,
	}, logger)
	authorizer := auth.NewSQLAuthorizer(db.DB, logger)

	// Application services
	auditService := service.NewAuditService(auditRepo, kvLogger)
	capService := service.NewCapService(capRepo, quoteRepo, auditService, kvLogger)
	searchService := service.NewSearchService(assignmentRepo, searchRepo, quoteRepo, searcher, capService, auditService, kvLogger)
	claimService := service.NewClaimService(claimRepo, attachmentRepo, assignmentRepo, capService, fileStorage, auditService, kvLogger)
	reviewService := service.NewReviewService(claimRepo, auditRepo, txManager, kvLogger)
	resolver := service.NewAccessResolver(authorizer)

	exporter := report.NewExporter(logger)

	handlers := httpadapter.NewHandlers(
		resolver,
		searchService,
		capService,
		claimService,
		reviewService,
		auditService,
		exporter,
		cfg.Report.OutputDir,
		kvLogger,
	)

	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Auth:         httpadapter.AuthConfig{Secret: cfg.Auth.JWTSecret},
	}, handlers, kvLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server stopped")
}
