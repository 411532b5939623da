package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Social_Feed/internal/config"
	"Social_Feed/internal/middleware"
	"Social_Feed/internal/pkg"
	"Social_Feed/internal/repository/mysql"
	"Social_Feed/internal/repository/redis"
	"Social_Feed/internal/router"
	"Social_Feed/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := mysql.Open(cfg.MySQLDSN)
	if err != nil {
		logger.Error("open mysql", "err", err)
		os.Exit(1)
	}
	// 自动建表（开发阶段 OK）
	if cfg.AutoMigrate {
		if err := mysql.AutoMigrate(db); err != nil {
			logger.Error("auto migrate", "err", err)
			os.Exit(1)
		}
	}

	// 配置了 redis 才做单点登录校验
	var sessions middleware.SessionStore
	if cfg.RedisAddr != "" {
		client, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("connect redis", "addr", cfg.RedisAddr, "err", err)
			os.Exit(1)
		}
		defer client.Close()
		sessions = redis.NewSessionRepository(client)
	}

	postRepo := &mysql.PostRepository{DB: db}
	commentRepo := &mysql.CommentRepository{DB: db}
	likeRepo := &mysql.LikeRepository{DB: db}
	userRepo := &mysql.UserRepository{DB: db}
	outboxRepo := &mysql.OutboxRepository{DB: db}

	feed := service.NewFeedService(service.FeedServiceDeps{
		Posts:      service.NewPostService(postRepo, nil),
		Aggregator: service.NewPostAggregator(postRepo, commentRepo, userRepo, likeRepo, cfg.PageSize),
		Cache:      service.NewFeedCache(cfg.FeedCacheTTL, nil),
		Likes:      service.NewLikeToggler(likeRepo),
		Comments:   service.NewCommentTree(commentRepo, postRepo, userRepo, likeRepo, nil, logger),
		Events:     service.NewEventRecorder(outboxRepo, logger),
		Logger:     logger,
	})

	// 未配置 kafka 时事件只打日志
	sender := service.LogSender(logger)
	if len(cfg.KafkaBrokers) > 0 {
		producer := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Error("close kafka producer", "err", err)
			}
		}()
		sender = service.KafkaSender(producer)
	}
	relayer := service.NewOutboxRelayer(outboxRepo, sender, cfg.OutboxInterval, cfg.OutboxBatch, logger)
	go relayer.Run(ctx)

	// 定时对账帖子冗余计数
	reconciler := service.NewCountReconciler(&mysql.CountReconcilerRepo{DB: db}, cfg.ReconcileInterval, logger)
	go reconciler.Run(ctx)

	auth := middleware.NewAuth(pkg.NewTokenCodec(cfg.AccessSecret), sessions)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router.InitRouter(feed, auth, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("server stopped")
}
