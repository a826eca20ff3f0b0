package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apihttp "github-project-compare/internal/adapter/http"
	"github-project-compare/internal/app"
	"github-project-compare/internal/config"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 1. 读取配置
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logrus.Fatalf("❌ 配置加载失败: %v", err)
	}
	app.SetupLogging(cfg.LogLevel)

	// 2. 监听退出信号
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 组装服务
	svc, cleanup, err := app.Build(ctx, cfg)
	if err != nil {
		logrus.Fatalf("❌ 服务初始化失败: %v", err)
	}
	defer cleanup()

	srv := newServer(cfg.Port, apihttp.NewRouter(apihttp.NewHandler(svc)))
	if err := run(ctx, srv); err != nil {
		logrus.Errorf("❌ 服务异常退出: %v", err)
		cleanup()
		os.Exit(1)
	}
}

// newServer 对比请求可能要等模型，写超时放宽
func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}

// run 启动服务，ctx 结束后优雅关闭
func run(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("🚀 对比服务已启动，监听 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("👋 收到停止信号，正在退出...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
