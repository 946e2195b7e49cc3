package main

import (
	"context"
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

	"campus-board/internal/config"
	apphttp "campus-board/internal/http"
	"campus-board/internal/repository/sqlite"
	"campus-board/internal/search"
	"campus-board/internal/service"
	"campus-board/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	schoolRepo := sqlite.NewSchoolRepository(db)
	userRepo := sqlite.NewUserRepository(db)
	keyRepo := sqlite.NewAPIKeyRepository(db)
	postRepo := sqlite.NewPostRepository(db)
	commentRepo := sqlite.NewCommentRepository(db)
	attachmentRepo := sqlite.NewAttachmentRepository(db)
	index := search.NewIndex(db)

	type initer interface {
		Init(ctx context.Context) error
	}
	for _, r := range []initer{schoolRepo, userRepo, keyRepo, postRepo, commentRepo, attachmentRepo, index} {
		if err := r.Init(ctx); err != nil {
			logger.Fatalf("init storage: %v", err)
		}
	}

	userService := service.NewUserService(userRepo, keyRepo, schoolRepo, logger)
	postService := service.NewPostService(postRepo, commentRepo, attachmentRepo, userRepo, schoolRepo, index)
	commentService := service.NewCommentService(commentRepo, postRepo, userRepo)
	schoolService := service.NewSchoolService(schoolRepo, postRepo)

	storageSvc := buildStorage(ctx, cfg, logger)

	rebuilder := search.NewRebuilder(index, cfg.Search.RebuildInterval, logger)
	rebuilder.Start(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler, err := apphttp.NewHandler(userService, postService, commentService, schoolService, apphttp.Options{
		Storage:      storageSvc,
		Bucket:       cfg.Storage.Bucket,
		KeyPrefix:    cfg.Storage.KeyPrefix,
		Logger:       logger,
		DefaultLimit: cfg.Pagination.DefaultLimit,
		MaxLimit:     cfg.Pagination.MaxLimit,
	})
	if err != nil {
		logger.Fatalf("configure resources: %v", err)
	}
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
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
	rebuilder.Shutdown()

	logger.Info("bye")
}

// buildStorage returns nil when no bucket is configured; attachment
// endpoints then refuse uploads and everything else keeps working.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) storage.Service {
	if cfg.Storage.Bucket == "" {
		logger.Info("no storage bucket configured, attachments disabled")
		return nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		logger.Fatalf("load aws config: %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client)
}
