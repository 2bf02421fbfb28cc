package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/inkhub/content-go/app/bootstrap"
	"github.com/inkhub/content-go/internal/config"
	"github.com/inkhub/content-go/internal/di"
	"github.com/inkhub/content-go/internal/kafka"
	"github.com/inkhub/content-go/internal/logger"
	"github.com/inkhub/content-go/internal/metrics"
	"github.com/inkhub/content-go/internal/pipeline"
)

func main() {
	app, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("Failed to bootstrap application: %v", err)
	}
	defer app.Shutdown()

	// 把管道工作流挂到Kafka消费者上
	if err := di.Invoke(func(runner *pipeline.Runner) {
		runner.Register(kafka.GetConsumer())
	}); err != nil {
		logger.Fatal("初始化管道Runner失败", zap.Error(err))
	}

	// 启动补偿清扫器，兜底补齐漏掉的触发
	var janitor *pipeline.Janitor
	if err := di.Invoke(func(j *pipeline.Janitor) {
		janitor = j
		janitor.Start()
	}); err != nil {
		logger.Fatal("初始化清扫器失败", zap.Error(err))
	}

	// 暴露Prometheus指标
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:    ":" + config.AppConfig.Server.Port,
		Handler: mux,
	}

	go func() {
		logger.Info("✅ 管道Worker启动", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP服务启动失败", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("收到退出信号，开始优雅关闭")
	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP服务关闭失败", zap.Error(err))
	}
}
