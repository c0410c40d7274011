package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"

	_ "github.com/johnquangdev/shot-analyzer/docs"
	"github.com/johnquangdev/shot-analyzer/internal/adapter/handler"
	"github.com/johnquangdev/shot-analyzer/internal/adapter/repository"
	"github.com/johnquangdev/shot-analyzer/internal/infrastructure/cache"
	"github.com/johnquangdev/shot-analyzer/internal/infrastructure/database"
	"github.com/johnquangdev/shot-analyzer/internal/infrastructure/media"
	"github.com/johnquangdev/shot-analyzer/internal/infrastructure/storage"
	"github.com/johnquangdev/shot-analyzer/internal/usecase/analysis"
	"github.com/johnquangdev/shot-analyzer/internal/usecase/recompute"
	"github.com/johnquangdev/shot-analyzer/internal/usecase/weights"
	pkgai "github.com/johnquangdev/shot-analyzer/pkg/ai"
	"github.com/johnquangdev/shot-analyzer/pkg/config"
	"github.com/johnquangdev/shot-analyzer/pkg/logger"
	"github.com/johnquangdev/shot-analyzer/pkg/tracing"
	pkgvalidator "github.com/johnquangdev/shot-analyzer/pkg/validator"
)

// @title           Shot Analyzer API
// @version         1.0
// @description     Basketball shot technique analysis from multi-angle video

// @BasePath  /v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("🔧 Initializing dependencies...")

	shutdownTracing, err := tracing.Init(rootCtx, cfg, zapLogger)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg, zapLogger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Production deployments manage schema through sql-migrate only.
	if cfg.Database.AutoMigrate {
		if cfg.IsProduction() {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		log.Println("🔄 Applying migrations (development only) ...")
		if _, err := database.Migrate(db, database.MigrationsDir, migrate.Up, zapLogger); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; use scripts/migrate.go in CI/CD/production")
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	analysisRepo := repository.NewAnalysisRepository(db)
	keyframeRepo := repository.NewKeyframeRepository(db)
	weightRepo := repository.NewWeightProfileRepository(db)

	profileStore := weights.NewStore(weightRepo, zapLogger)
	if err := profileStore.Seed(rootCtx); err != nil {
		log.Fatalf("Failed to seed weight profiles: %v", err)
	}

	// Initialize object storage
	log.Println("🪣 Connecting to object storage...")
	videoStore, err := storage.NewMinIOClient(&cfg.Storage, zapLogger)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	tools := media.NewTools(cfg.Pipeline.FFmpegPath, cfg.Pipeline.FFprobePath, zapLogger)
	if err := tools.AssertReady(); err != nil {
		log.Fatalf("Media tools unavailable: %v", err)
	}

	// Initialize AI components
	log.Println("🤖 Initializing AI components...")
	gemini, err := pkgai.NewGeminiClient(rootCtx, &cfg.Gemini)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
	}
	if !gemini.HasCredential() {
		log.Println("⚠️  GEMINI_API_KEY not set: heuristic fallbacks enabled, checklists must be submitted manually")
	}

	extractor := analysis.NewKeyframeExtractor(videoStore, tools, cfg.Pipeline, zapLogger)
	analysisService := analysis.NewService(analysis.Dependencies{
		Analyses:  analysisRepo,
		Keyframes: keyframeRepo,
		Profiles:  profileStore,
		Validator: analysis.NewContentValidator(gemini, extractor, cfg.Pipeline.RejectConfidence, zapLogger),
		Extractor: extractor,
		Boundary:  analysis.NewMotionBoundaryDetector(gemini, cfg.Pipeline.BoundaryFrames, cfg.Pipeline.BoundaryConfidence, zapLogger),
		Rater:     analysis.NewChecklistRater(gemini, zapLogger),
	}, cfg.Pipeline, zapLogger)

	if err := analysisService.StartWorkerPool(rootCtx); err != nil {
		log.Fatalf("Failed to start worker pool: %v", err)
	}

	// Recompute lock: Redis when enabled, process-local otherwise
	var locker recompute.Locker = cache.NewMemoryLocker()
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(rootCtx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		locker = cache.NewRedisLocker(redisClient)
	}

	recomputeJob := recompute.NewJob(analysisRepo, profileStore, locker, cfg.Recompute.PageSize, cfg.Recompute.LockTTL, zapLogger)

	var scheduler *recompute.Scheduler
	if cfg.Recompute.Schedule != "" {
		scheduler, err = recompute.NewScheduler(recomputeJob, cfg.Recompute.Schedule, zapLogger)
		if err != nil {
			log.Fatalf("Failed to schedule recompute: %v", err)
		}
		scheduler.Start()
	}

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))
	e.Use(middleware.BodyLimit("2M"))

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg,
		handler.NewAnalysisHandler(analysisService, zapLogger),
		handler.NewAdminHandler(recomputeJob, profileStore, zapLogger),
		handler.NewStorageHandler(videoStore, zapLogger),
	)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	<-rootCtx.Done()
	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-ctx.Done():
			log.Println("⚠️  Scheduled recompute still running at shutdown")
		}
	}

	if err := analysisService.StopWorkerPool(); err != nil {
		zapLogger.Error("❌ Failed to stop worker pool", zap.Error(err))
	}

	if err := shutdownTracing(ctx); err != nil {
		zapLogger.Error("❌ Failed to flush traces", zap.Error(err))
	}

	log.Println("✅ Server stopped gracefully")
}
