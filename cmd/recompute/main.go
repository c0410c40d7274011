package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/shot-analyzer/internal/adapter/repository"
	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	"github.com/johnquangdev/shot-analyzer/internal/infrastructure/cache"
	"github.com/johnquangdev/shot-analyzer/internal/infrastructure/database"
	usecaseErrors "github.com/johnquangdev/shot-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/shot-analyzer/internal/usecase/recompute"
	"github.com/johnquangdev/shot-analyzer/internal/usecase/weights"
	"github.com/johnquangdev/shot-analyzer/pkg/config"
	"github.com/johnquangdev/shot-analyzer/pkg/logger"
	"github.com/johnquangdev/shot-analyzer/pkg/tracing"
)

func main() {
	shotType := flag.String("shot-type", "", "only rescore this shot type (general, libre, media, tres)")
	startAfter := flag.String("start-after", "", "resume after this analysis id")
	pageSize := flag.Int("page-size", 0, "analyses per committed page (defaults to RECOMPUTE_PAGE_SIZE)")
	listProfiles := flag.Bool("profiles", false, "print the stored weight profiles and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg, zapLogger)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	db, err := database.NewPostgresDB(cfg, zapLogger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	weightRepo := repository.NewWeightProfileRepository(db)
	if *listProfiles {
		profiles, err := weightRepo.List(ctx)
		if err != nil {
			log.Fatalf("Failed to list weight profiles: %v", err)
		}
		printJSON(profiles)
		return
	}

	var req recompute.Request
	if *shotType != "" {
		st, err := entities.ParseShotType(*shotType)
		if err != nil {
			log.Fatalf("Invalid -shot-type: %v", err)
		}
		req.ShotType = &st
	}
	if *startAfter != "" {
		id, err := uuid.Parse(*startAfter)
		if err != nil {
			log.Fatalf("Invalid -start-after: %v", err)
		}
		req.StartAfter = &id
	}

	var locker recompute.Locker = cache.NewMemoryLocker()
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		locker = cache.NewRedisLocker(redisClient)
	} else {
		log.Println("⚠️  Redis disabled: the recompute lock only covers this process")
	}

	size := cfg.Recompute.PageSize
	if *pageSize > 0 {
		size = *pageSize
	}

	job := recompute.NewJob(
		repository.NewAnalysisRepository(db),
		weights.NewStore(weightRepo, zapLogger),
		locker,
		size,
		cfg.Recompute.LockTTL,
		zapLogger,
	)

	result, err := job.Run(ctx, req)
	if result != nil {
		printJSON(result)
	}
	switch {
	case err == nil:
		log.Println("✅ Recompute complete")
	case errors.Is(err, usecaseErrors.ErrRecomputeInProgress):
		log.Fatalf("⏭️  Another recompute is running")
	case (errors.Is(err, usecaseErrors.ErrBatchPageWriteFailure) || errors.Is(err, usecaseErrors.ErrRecomputeLockLost)) && result != nil && result.LastID != nil:
		zapLogger.Error("❌ Recompute aborted", zap.Error(err))
		log.Fatalf("Resume with -start-after %s", result.LastID)
	default:
		log.Fatalf("❌ Recompute failed: %v", err)
	}
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("Failed to print result: %v", err)
	}
}
