package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/app"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/memstore"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/migrations"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/ratelimit"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/storage"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Infow("starting service-library-go", "storage", cfg.StorageDriver, "media", cfg.Media.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		repos app.Repos
		ready func(context.Context) error
	)
	switch cfg.StorageDriver {
	case config.DriverMemory:
		sugar.Warn("using in-memory storage; data is lost on exit")
		repos = app.MemoryRepos(memstore.New())
	default:
		sqlDB, err := database.Connect(cfg.Database)
		if err != nil {
			sugar.Fatalf("db connect: %v", err)
		}
		defer sqlDB.Close()
		if err := migrations.Up(ctx, sqlDB); err != nil {
			sugar.Fatalf("migrate: %v", err)
		}
		repos = app.PostgresRepos(database.Wrap(sqlDB))
		ready = sqlDB.PingContext
	}

	photos, media, err := openMedia(ctx, cfg.Media)
	if err != nil {
		sugar.Fatalf("media storage: %v", err)
	}

	svcs, err := app.NewServices(cfg, repos, nil, photos, sugar)
	if err != nil {
		sugar.Fatalf("build services: %v", err)
	}

	opts := app.Options{MaxUploadBytes: cfg.Media.MaxUploadBytes, Media: media, Ready: ready}
	if cfg.RateLimit.RedisAddr != "" {
		limiter, err := ratelimit.NewFixedWindowLimiter(cfg.RateLimit.RedisAddr, cfg.RateLimit.RedisPassword,
			cfg.RateLimit.Prefix, cfg.RateLimit.Limit, cfg.RateLimit.Window)
		if err != nil {
			sugar.Fatalf("rate limiter: %v", err)
		}
		defer limiter.Close()
		trusted, err := ratelimit.NewTrustedProxies(cfg.RateLimit.TrustedProxies)
		if err != nil {
			sugar.Fatalf("trusted proxies: %v", err)
		}
		limiter.TrustProxies(trusted)
		opts.Limiter = limiter
	} else {
		sugar.Info("REDIS_ADDR not set; token endpoint is not throttled")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           svcs.Handler(sugar, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}

// openMedia returns the photo store and, for the disk driver, the handler
// serving /media/.
func openMedia(ctx context.Context, cfg config.MediaConfig) (storage.ObjectStore, http.Handler, error) {
	if cfg.Driver == config.MediaMinio {
		store, err := storage.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
	store, err := storage.NewDiskStore(cfg.Dir, "/media/")
	if err != nil {
		return nil, nil, err
	}
	return store, store.Handler(), nil
}
