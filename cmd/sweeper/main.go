// Command sweeper flips expired device sessions inactive out of band. The
// request path already treats stale sessions as dead on sight; this keeps
// the table and the session listings tidy. Run it one-shot from cron or as a
// long-running loop with -interval.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resumeforge-service/internal/config"
	"resumeforge-service/internal/db"
	"resumeforge-service/internal/repository/postgres"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	interval := flag.Duration("interval", 0, "sweep repeatedly at this interval (0 = run once)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("[SWEEPER] No .env file found, relying on system env vars")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()
	pool, err := db.ConnectDB(cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pool.Close()

	repo := postgres.NewSessionRepository(pool)

	sweep := func(ctx context.Context) {
		n, err := repo.ExpireActiveBefore(ctx, time.Now())
		if err != nil {
			logger.Error("sweep failed", zap.Error(err))
			return
		}
		logger.Info("sweep complete", zap.Int64("expired_sessions", n))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *interval <= 0 {
		sweep(ctx)
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	sweep(ctx)
	for {
		select {
		case <-ticker.C:
			sweep(ctx)
		case <-quit:
			logger.Info("sweeper stopping")
			return
		}
	}
}
