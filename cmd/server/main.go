// 医生排班服务
// 主程序入口

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

	"github.com/Simon6088/Doctor-Scheduling-System/internal/cache"
	"github.com/Simon6088/Doctor-Scheduling-System/internal/config"
	"github.com/Simon6088/Doctor-Scheduling-System/internal/database"
	"github.com/Simon6088/Doctor-Scheduling-System/internal/handler"
	"github.com/Simon6088/Doctor-Scheduling-System/internal/notify"
	"github.com/Simon6088/Doctor-Scheduling-System/internal/repository"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:   cfg.App.LogLevel,
		Format:  cfg.App.LogFormat,
		Service: cfg.App.Name,
	})

	if err := run(cfg); err != nil {
		logger.Error().Err(err).Msg("服务异常退出")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	deps := handler.Deps{
		Checks: make(map[string]handler.HealthChecker),
		Build:  handler.BuildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit},
	}

	/**********************************************
	 * 连接数据库（可选）
	 **********************************************/
	if cfg.Database.Enabled() {
		db, err := database.New(&cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		deps.Roster = repository.NewRosterRepository(db)
		deps.Schedules = repository.NewScheduleRepository(db)
		deps.Checks["database"] = db.Health
	} else {
		logger.Warn().Msg("未配置数据库，仅支持请求内联数据排班")
	}

	/**********************************************
	 * 连接 redis（可选）
	 **********************************************/
	if cfg.Redis.Enabled() {
		rdb := cache.NewRedisClient(&cfg.Redis)
		resultCache := cache.New(rdb, cfg.Redis.ResultTTL)
		defer resultCache.Close()

		deps.Cache = resultCache
		deps.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	/**********************************************
	 * 连接 rabbitmq（可选）
	 **********************************************/
	if cfg.RabbitMQ.Enabled() {
		publisher, err := notify.Dial(&cfg.RabbitMQ)
		if err != nil {
			return err
		}
		defer publisher.Close()
		deps.Publisher = publisher
	}

	/**********************************************
	 * 创建 handler
	 **********************************************/
	h, err := handler.NewHandler(cfg, deps)
	if err != nil {
		return fmt.Errorf("无法创建 handler: %w", err)
	}
	h.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      h.Mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.API.Timeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Msg("服务器启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("服务器启动失败: %w", err)
	case <-quit:
	}

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("服务器关闭失败: %w", err)
	}

	logger.Info().Msg("服务器已关闭")
	return nil
}
