// @title                       Backoffice Admin API
// @version                     1.0
// @description                 Authentication and product catalog for the admin backoffice.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/backoffice/admin-api/internal/api"
	"github.com/backoffice/admin-api/internal/api/handler"
	"github.com/backoffice/admin-api/internal/core/service"
	"github.com/backoffice/admin-api/internal/infrastructure/auth"
	"github.com/backoffice/admin-api/internal/infrastructure/config"
	mongodb "github.com/backoffice/admin-api/internal/infrastructure/db/mongo"
	redisdb "github.com/backoffice/admin-api/internal/infrastructure/db/redis"
	"github.com/backoffice/admin-api/internal/infrastructure/queue"
	"github.com/backoffice/admin-api/internal/infrastructure/storage/s3"
	"github.com/backoffice/admin-api/internal/pkg/clock"
	"github.com/backoffice/admin-api/pkg/logger"
)

const (
	serviceName     = "admin-api"
	shutdownTimeout = 15 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("admin api stopped")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
	})

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	images, err := s3.NewImageStore(ctx, s3.Config{
		Bucket:    cfg.S3.Bucket,
		Region:    cfg.S3.Region,
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		PathStyle: cfg.S3.PathStyle,
		PublicURL: cfg.S3.PublicURL,
	})
	if err != nil {
		return err
	}
	if cfg.S3.Endpoint != "" {
		if err := images.EnsureBucket(ctx); err != nil {
			return err
		}
	}

	credentialRepo := mongodb.NewCredentialRepository(db)
	productRepo := mongodb.NewProductRepository(db)
	if err := credentialRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := productRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	// --- Background workers ---
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	janitor := queue.NewDispatcher(cfg.Cleanup.Workers, images, logger.Component(log, "image_cleanup"))
	janitor.Start(workerCtx)
	defer janitor.Close()

	// --- Services ---
	clk := clock.System()
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	issuer, err := auth.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, clk)
	if err != nil {
		return err
	}
	credentials, err := service.NewCredentialService(credentialRepo, hasher, clk, cfg.Auth.DefaultRole, log)
	if err != nil {
		return err
	}
	products := service.NewProductService(productRepo, images, janitor, clk, log)

	if cfg.Auth.HasBootstrapAdmin() {
		if err := credentials.EnsureAdmin(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPassword); err != nil {
			return err
		}
	} else if !cfg.Auth.AllowOpenRegistration {
		log.Warn().Msg("registration is closed and no bootstrap admin is configured")
	}

	e := api.NewRouter(api.Deps{
		Credentials: credentials,
		Tokens:      issuer,
		Throttle:    redisdb.NewLoginThrottle(rdb, cfg.Throttle.MaxAttempts, cfg.Throttle.Window),
		Products:    products,
		Health: []handler.Dependency{
			{Name: "mongodb", Pinger: handler.PingFunc(mongodb.Ping(mongoClient))},
			{Name: "redis", Pinger: handler.PingFunc(redisdb.Ping(rdb))},
			{Name: "s3", Pinger: images},
		},
		AllowOpenRegistration: cfg.Auth.AllowOpenRegistration,
		Metrics:               true,
		Logger:                log,
	})

	// --- Serve ---
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("admin api listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
