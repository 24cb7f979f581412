package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/TheRizaev/kronik/internal/api/handler"
	"github.com/TheRizaev/kronik/internal/api/middleware"
	"github.com/TheRizaev/kronik/internal/catalog"
	"github.com/TheRizaev/kronik/internal/config"
	"github.com/TheRizaev/kronik/internal/docstore"
	"github.com/TheRizaev/kronik/internal/infrastructure/cache"
	"github.com/TheRizaev/kronik/internal/infrastructure/postgres"
	"github.com/TheRizaev/kronik/internal/infrastructure/queue"
	"github.com/TheRizaev/kronik/internal/infrastructure/storage"
	"github.com/TheRizaev/kronik/internal/signer"
	"github.com/TheRizaev/kronik/internal/transcoder"
	"github.com/TheRizaev/kronik/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Infrastructure clients
	storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
		Endpoint:       cfg.MinIO.Endpoint,
		PublicEndpoint: cfg.MinIO.PublicEndpoint,
		AccessKey:      cfg.MinIO.AccessKey,
		SecretKey:      cfg.MinIO.SecretKey,
		Bucket:         cfg.MinIO.Bucket,
		UseSSL:         cfg.MinIO.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MinIO: %w", err)
	}
	logger.Info("connected to MinIO")

	pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(cfg.Database.DSN()))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pgClient.Close()
	logger.Info("connected to PostgreSQL")

	queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis")

	// Document store, catalog and signer
	storeCfg := docstore.DefaultConfig()
	storeCfg.AvatarURLTTL = cfg.Signing.AvatarTTL
	if cfg.Server.DefaultAvatarPath != "" {
		avatar, err := os.ReadFile(cfg.Server.DefaultAvatarPath)
		if err != nil {
			return fmt.Errorf("failed to read default avatar: %w", err)
		}
		storeCfg.DefaultAvatar = avatar
		storeCfg.DefaultAvatarContentType = "image/png"
	}
	docs := docstore.New(storageClient, storeCfg)

	catalogCache := catalog.New(storageClient, docs, catalog.Config{
		Workers:        cfg.Catalog.Workers,
		RebuildTimeout: cfg.Catalog.RebuildTimeout,
		StaleAfter:     cfg.Catalog.StaleAfter,
	})

	urlSigner := signer.New(storageClient, cfg.Signing.PlaybackTTL)

	// Services
	engagement := postgres.NewEngagementRepository(pgClient.Pool())
	recordCache := cache.NewRedisRecordCache(redisClient)

	uploadSvc := usecase.NewUploadService(docs, queueClient, transcoder.NewFFprobe(""), usecase.DefaultUploadServiceConfig())
	playbackSvc := usecase.NewPlaybackService(docs, recordCache, urlSigner, engagement, usecase.PlaybackServiceConfig{
		RecordTTL: cfg.Redis.RecordTTL,
	})
	subscriptionSvc := usecase.NewSubscriptionService(engagement)

	r := setupRouter(logger, routerDeps{
		docs:        docs,
		catalog:     catalogCache,
		uploads:     uploadSvc,
		playback:    playbackSvc,
		subs:        subscriptionSvc,
		playbackTTL: cfg.Signing.PlaybackTTL,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

type routerDeps struct {
	docs        *docstore.Store
	catalog     *catalog.Cache
	uploads     usecase.UploadService
	playback    usecase.PlaybackService
	subs        usecase.SubscriptionService
	playbackTTL time.Duration
}

func setupRouter(logger *slog.Logger, deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	channelHandler := handler.NewChannelHandler(deps.docs, deps.subs)
	videoHandler := handler.NewVideoHandler(deps.docs, deps.uploads, deps.playback, deps.playbackTTL)
	commentHandler := handler.NewCommentHandler(deps.docs)
	catalogHandler := handler.NewCatalogHandler(deps.catalog)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/catalog", catalogHandler.List)
		r.Post("/catalog/rebuild", catalogHandler.Rebuild)

		r.Route("/channels", func(r chi.Router) {
			r.Post("/", channelHandler.Create)

			r.Route("/{handle}", func(r chi.Router) {
				r.Get("/", channelHandler.GetProfile)
				r.Patch("/", channelHandler.UpdateProfile)

				r.Post("/subscriptions", channelHandler.Subscribe)
				r.Delete("/subscriptions/{userID}", channelHandler.Unsubscribe)
				r.Get("/subscribers", channelHandler.Subscribers)

				r.Route("/videos", func(r chi.Router) {
					r.Post("/", videoHandler.Upload)
					r.Get("/", videoHandler.List)

					r.Route("/{videoID}", func(r chi.Router) {
						r.Get("/", videoHandler.Get)
						r.Delete("/", videoHandler.Delete)
						r.Get("/playback", videoHandler.Playback)
						r.Post("/views", videoHandler.RegisterView)
						r.Post("/reactions", videoHandler.React)
						r.Put("/thumbnail", videoHandler.AttachThumbnail)

						r.Get("/comments", commentHandler.List)
						r.Post("/comments", commentHandler.Add)
						r.Post("/comments/{commentID}/replies", commentHandler.Reply)
					})
				})
			})
		})
	})

	return r
}
