package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/purchase-guardian/internal/app"
	"github.com/example/purchase-guardian/internal/config"
	"github.com/example/purchase-guardian/internal/logger"
	"github.com/example/purchase-guardian/internal/pricing"
	"github.com/example/purchase-guardian/internal/repository"
	"github.com/example/purchase-guardian/pkg/openai"
)

func main() {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	var repo repository.UserRepository
	switch cfg.StorageBackend {
	case "postgres":
		pg, err := repository.NewPostgresUserRepository(cfg.DatabaseURL)
		if err != nil {
			zlog.Fatal("open postgres users store", zap.Error(err))
		}
		defer pg.Close()
		repo = pg
	default:
		fr, err := repository.NewFileUserRepository(cfg.UsersFile, zlog)
		if err != nil {
			zlog.Fatal("open users store", zap.Error(err))
		}
		repo = fr
	}

	garden, err := repository.NewFileGardenRepository(cfg.GardenFile)
	if err != nil {
		zlog.Fatal("open garden store", zap.Error(err))
	}

	var priceStore pricing.Store
	switch cfg.CacheBackend {
	case "redis":
		rs := pricing.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rs.Close()
		priceStore = rs
	default:
		fs, err := pricing.NewFileStore(cfg.PriceCacheFile)
		if err != nil {
			zlog.Fatal("open price cache", zap.Error(err))
		}
		priceStore = fs
	}

	var ai pricing.AIClient
	if cfg.OpenAIToken != "" {
		ai = openai.NewClient(cfg.OpenAIToken, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	}

	application := app.New(cfg, zlog, repo, garden, priceStore, ai)
	if err := application.Run(context.Background()); err != nil {
		zlog.Fatal("run", zap.Error(err))
	}
}
