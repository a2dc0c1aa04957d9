// @title                       Vanguard Escrow API
// @version                     1.0
// @description                 Buyer and seller escrow lifecycle with session authentication.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/api"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/api/handler"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/ports"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/service"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/infrastructure/blob"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/infrastructure/config"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/infrastructure/db/mongo"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/infrastructure/db/postgres"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/infrastructure/db/redis"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/infrastructure/jobs"
	"github.com/AgongaAlpha/vanguardescrow-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "vanguardescrow-api",
		Env:     cfg.Env,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// blobStore is a ports.BlobStore that can also report readiness.
type blobStore interface {
	ports.BlobStore
	Ping(ctx context.Context) error
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	db, err := postgres.Open(ctx, cfg.Database.URL, postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info().Msg("database migrations applied")
	}
	store := postgres.NewStore(db)

	checks := map[string]handler.Checker{"postgres": db.PingContext}

	var idem service.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, Idempotency-Key replays disabled")
		} else {
			defer rdb.Close()
			idem = redis.NewIdempotencyStore(rdb, cfg.IdempotencyTTL)
			checks["redis"] = redisChecker(rdb)
		}
	}

	blobs, closeBlobs, err := openBlobStore(ctx, cfg.Blob, log)
	if err != nil {
		return err
	}
	defer closeBlobs()
	checks["blob"] = blobs.Ping

	authService := service.NewAuthService(store, cfg.SessionTTL, logger.Component("auth"))
	router := api.NewRouter(api.Deps{
		Auth:               authService,
		Sessions:           authService,
		Escrows:            service.NewEscrowService(store, blobs, idem, logger.Component("escrow")),
		Sellers:            service.NewSellerService(store, blobs, logger.Component("seller")),
		Payments:           service.NewPaymentMethodService(store.PaymentMethods(), logger.Component("payments")),
		Checks:             checks,
		BodyLimit:          cfg.BodyLimit,
		MaxAttachmentBytes: cfg.MaxAttachmentBytes,
		ServeDocs:          !cfg.IsProduction(),
		Logger:             log,
	})

	jobsCtx, stopJobs := context.WithCancel(ctx)
	defer stopJobs()
	sweeperDone := jobs.NewSessionSweeper(store.Sessions(), cfg.SessionSweepInterval, logger.Component("session-sweeper")).Start(jobsCtx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var srvErr error
	select {
	case err := <-serveErr:
		if err != nil {
			srvErr = fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	stopJobs()
	<-sweeperDone

	if srvErr != nil {
		return srvErr
	}
	log.Info().Msg("server stopped cleanly")
	return nil
}

func openBlobStore(ctx context.Context, cfg config.BlobConfig, log zerolog.Logger) (blobStore, func(), error) {
	switch cfg.Backend {
	case config.BlobBackendS3:
		s, err := blob.NewS3Store(ctx, blob.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("bucket", cfg.S3Bucket).Msg("attachments stored in S3")
		return s, func() {}, nil

	default:
		mdb, err := mongo.Connect(ctx, mongo.Config{URI: cfg.MongoURI, Database: cfg.MongoDB})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mdb.Client().Disconnect(dctx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect failed")
			}
		}
		log.Info().Str("database", cfg.MongoDB).Str("bucket", cfg.MongoBucket).Msg("attachments stored in GridFS")
		return blob.NewGridFSStore(mdb, cfg.MongoBucket), closeFn, nil
	}
}

func redisChecker(rdb *goredis.Client) handler.Checker {
	return func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
}
