package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"taskmaster/internal/apiclient"
	"taskmaster/internal/board"
	"taskmaster/internal/cache"
	appconfig "taskmaster/internal/config"
	"taskmaster/internal/dashboard"
	"taskmaster/internal/handler"
	"taskmaster/internal/httpserver"
	"taskmaster/internal/repository"
	"taskmaster/internal/session"
	"taskmaster/pkg/config"
	"taskmaster/pkg/db"
	"taskmaster/pkg/logger"
	"taskmaster/pkg/mq"
	"taskmaster/pkg/redis"
)

func main() {
	bootLog := logger.NewLogger()

	cfg, err := appconfig.Load(config.GetEnv("CONFIG_DIR", "config"))
	if err != nil {
		bootLog.Fatal("Failed to load config", zap.Error(err))
	}

	log := logger.NewLoggerWithConfig(cfg.Log)
	defer log.Sync()

	if config.GetConfigEnv() == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	workflow, err := board.ParseWorkflow(cfg.Board.Workflow)
	if err != nil {
		log.Fatal("Invalid board workflow", zap.Error(err))
	}

	log.Info("Starting taskmaster BFF...",
		zap.String("env", config.GetConfigEnv()),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("workflow", workflow.Name()),
	)

	client := apiclient.New(cfg.Backend, log)
	var checks []httpserver.ReadyCheck
	checks = append(checks, httpserver.ReadyCheck{Name: "backend", Check: func(context.Context) error {
		if client.BreakerState() == gobreaker.StateOpen {
			return errors.New("circuit breaker open")
		}
		return nil
	}})

	var boardOpts []board.Option
	boardOpts = append(boardOpts, board.WithWorkflow(workflow))

	// 失败写入记录（可选）
	var failures handler.FailedWriteLister
	if cfg.DB.Host != "" {
		log.Info("Initializing database connection...")
		dbConn, err := db.NewConnection(context.Background(), cfg.DB, log)
		if err != nil {
			log.Fatal("Failed to init DB", zap.Error(err))
		}
		defer dbConn.Close()

		repo := repository.NewFailedWriteRepository(dbConn)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			log.Fatal("Failed to create failed_writes table", zap.Error(err))
		}
		failures = repo
		boardOpts = append(boardOpts, board.WithFailureRecorder(repo))
		checks = append(checks, httpserver.ReadyCheck{Name: "db", Check: dbConn.Ping})
	} else {
		log.Info("DB not configured, failed writes are only logged")
	}

	// MQ Publisher（可选）
	if cfg.MQ.URL != "" {
		publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange)
		if err != nil {
			log.Fatal("Failed to init MQ publisher", zap.Error(err))
		}
		defer publisher.Close()
		boardOpts = append(boardOpts, board.WithPublisher(publisher))
		checks = append(checks, httpserver.ReadyCheck{Name: "mq", Check: func(context.Context) error {
			if !publisher.IsConnected() {
				return errors.New("publisher disconnected")
			}
			return nil
		}})
	}

	// Redis 公开看板缓存（可选）
	var dashOpts []dashboard.Option
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(context.Background(), cfg.Redis)
		if err != nil {
			log.Fatal("Failed to init Redis", zap.Error(err))
		}
		defer rdb.Close()
		dashOpts = append(dashOpts, dashboard.WithShareCache(cache.NewShareCache(rdb, cfg.Share.CacheTTL)))
		checks = append(checks, httpserver.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	boards := board.NewRegistry(func(s *session.Session) *board.Reconciler {
		return board.New(s.UserID(), client.WithSession(s), log, boardOpts...)
	}, board.WithIdleTTL(cfg.Board.IdleTTL))
	dashSvc := dashboard.NewService(func(s *session.Session) dashboard.Backend {
		return client.WithSession(s)
	}, client, cfg.Share.PublicBaseURL, log, dashOpts...)

	router := httpserver.NewRouter(httpserver.Deps{
		Board:          handler.NewBoardHandler(boards, failures, log),
		Dashboard:      handler.NewDashboardHandler(dashSvc, log),
		Checks:         checks,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down taskmaster BFF gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	// 等待后台写入和回滚完成
	log.Info("Waiting for in-flight board writes...", zap.Int("boards", boards.Len()))
	boards.Wait()

	log.Info("taskmaster BFF shutdown complete")
}
