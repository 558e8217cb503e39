package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"postboard/internal/auth"
	"postboard/internal/config"
	apphttp "postboard/internal/http"
	"postboard/internal/repository"
	"postboard/internal/repository/memory"
	"postboard/internal/repository/sqlite"
	"postboard/internal/service"
	"postboard/internal/storage"
)

type repositories struct {
	users       repository.UserRepository
	posts       repository.PostRepository
	attachments repository.AttachmentRepository
	db          *sql.DB
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	configureLogger(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		logger.Fatalf("setup repositories: %v", err)
	}
	if repos.db != nil {
		defer repos.db.Close()
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret,
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithDefaultTTL(time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute),
	)
	if err != nil {
		logger.Fatalf("setup token issuer: %v", err)
	}
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost, auth.PasswordPolicy{MinLength: cfg.Auth.PasswordMinLength})
	pool := auth.NewHashPool(cfg.Auth.HashWorkers)

	authService, err := auth.NewService(service.NewDirectory(repos.users), hasher, tokens, pool, logger)
	if err != nil {
		logger.Fatalf("setup auth service: %v", err)
	}

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	postService := service.NewPostService(repos.posts, repos.attachments, service.StorageConfig{
		Service:    storageSvc,
		Bucket:     cfg.Storage.Bucket,
		KeyPrefix:  cfg.Storage.KeyPrefix,
		PresignTTL: time.Duration(cfg.Storage.PresignTTLMinutes) * time.Minute,
	}, logger)
	userService := service.NewUserService(repos.users, authService, postService)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(authService, userService, postService, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s (hash workers: %d)", cfg.Server.Addr, pool.Size())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, cfg config.Config) {
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

func openRepositories(ctx context.Context, cfg config.Config) (repositories, error) {
	if cfg.Database.Driver == "memory" {
		return repositories{
			users:       memory.NewUserRepository(),
			posts:       memory.NewPostRepository(),
			attachments: memory.NewAttachmentRepository(),
		}, nil
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return repositories{}, err
	}
	repos := repositories{
		users:       sqlite.NewUserRepository(db),
		posts:       sqlite.NewPostRepository(db),
		attachments: sqlite.NewAttachmentRepository(db),
		db:          db,
	}

	if err := repos.users.Init(ctx); err != nil {
		db.Close()
		return repositories{}, fmt.Errorf("init user repository: %w", err)
	}
	if err := repos.posts.Init(ctx); err != nil {
		db.Close()
		return repositories{}, fmt.Errorf("init post repository: %w", err)
	}
	if err := repos.attachments.Init(ctx); err != nil {
		db.Close()
		return repositories{}, fmt.Errorf("init attachment repository: %w", err)
	}
	return repos, nil
}

// buildStorage returns a nil service when no bucket is configured; attachment
// endpoints then answer 503.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("storage bucket not set, attachments disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
