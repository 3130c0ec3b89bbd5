package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethanctan/ai-oa/internal/chat"
	"github.com/ethanctan/ai-oa/internal/config"
	"github.com/ethanctan/ai-oa/internal/gitutil"
	"github.com/ethanctan/ai-oa/internal/handlers"
	"github.com/ethanctan/ai-oa/internal/jobs"
	"github.com/ethanctan/ai-oa/internal/llm"
	_ "github.com/ethanctan/ai-oa/internal/llm/gemini"
	"github.com/ethanctan/ai-oa/internal/metrics"
	"github.com/ethanctan/ai-oa/internal/middleware"
	"github.com/ethanctan/ai-oa/internal/models"
	"github.com/ethanctan/ai-oa/internal/orchestrator"
	"github.com/ethanctan/ai-oa/internal/prompts"
	"github.com/ethanctan/ai-oa/internal/provisioner"
	"github.com/ethanctan/ai-oa/internal/reports"
	"github.com/ethanctan/ai-oa/internal/repositories"
	"github.com/ethanctan/ai-oa/internal/routers"
	"github.com/ethanctan/ai-oa/internal/timers"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// initDatabase connects to PostgreSQL and migrates the schema. TranslateError
// maps driver-specific constraint failures onto gorm's sentinel errors, which
// the repositories match against.
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(
		&models.Company{},
		&models.Candidate{},
		&models.Test{},
		&models.TestCandidate{},
		&models.Instance{},
		&models.ChatMessage{},
		&models.Report{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	defer provisioner.Cleanup()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	logger.Info("Configuration loaded",
		zap.String("provider", cfg.Provider),
		zap.String("network_mode", cfg.NetworkMode))

	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	timerStore := timers.NewStoreWithClient(rdb)

	sandbox, err := provisioner.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize docker provisioner", zap.Error(err))
	}

	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		logger.Fatal("Failed to initialize prompt manager", zap.Error(err))
	}
	aiProvider, err := llm.NewProvider(cfg.Provider)
	if err != nil {
		logger.Fatal("Failed to initialize AI provider", zap.Error(err))
	}

	git := gitutil.New(cfg.ProjectsDir, logger)

	instanceRepo := &repositories.InstanceRepository{DB: db}
	testRepo := &repositories.TestRepository{DB: db}
	candidateRepo := &repositories.CandidateRepository{DB: db}
	companyRepo := &repositories.CompanyRepository{DB: db}
	chatRepo := &repositories.ChatRepository{DB: db}
	reportRepo := &repositories.ReportRepository{DB: db}

	orch := orchestrator.New(instanceRepo, testRepo, sandbox, timerStore, logger).
		WithGit(git, cfg.GithubToken)
	chatService := chat.NewService(chatRepo, instanceRepo, testRepo, timerStore, aiProvider, promptManager, logger)
	reportService := reports.NewService(reportRepo, instanceRepo, testRepo, chatRepo, aiProvider, promptManager, logger).
		WithGit(git, cfg.GithubToken)

	cleanupJob := jobs.NewCleanupJob(candidateRepo, instanceRepo, sandbox, timerStore, &jobs.CleanupConfig{
		Schedule:  cfg.CleanupSchedule,
		Retention: time.Duration(cfg.CleanupRetention) * time.Hour,
		Enabled:   cfg.CleanupEnabled,
	}, logger)
	if err := cleanupJob.Start(); err != nil {
		logger.Error("Failed to start cleanup job", zap.Error(err))
	}

	auth := middleware.RequireAuth(cfg.JWTSecret)

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "https://" + cfg.BaseDomain},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	router.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Logger, chimiddleware.Recoverer, chimiddleware.Timeout(5*time.Minute))
	router.Use(metrics.Middleware())

	routers.HealthRoutes(router, &handlers.HealthHandler{DB: db, Redis: rdb})
	routers.InstanceRoutes(router, &handlers.InstanceHandler{Orchestrator: orch}, auth)
	routers.TimerRoutes(router, &handlers.TimerHandler{Timers: timerStore})
	routers.TestRoutes(router, &handlers.TestHandler{Repo: testRepo}, auth)
	routers.CandidateRoutes(router, &handlers.CandidateHandler{Repo: candidateRepo}, auth)
	routers.CompanyRoutes(router, &handlers.CompanyHandler{Repo: companyRepo}, auth)
	routers.ChatRoutes(router, &handlers.ChatHandler{Service: chatService})
	routers.ReportRoutes(router, &handlers.ReportHandler{Service: reportService}, auth)
	router.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // provisioning runs on the request
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Assessment service starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("Assessment service shutting down...")
	cleanupJob.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		logger.Warn("failed to close redis client", zap.Error(err))
	}
	logger.Info("Assessment service exited")
}
