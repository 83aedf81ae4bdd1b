package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firesafe-engine/internal/auth"
	"firesafe-engine/internal/common/logger"
	"firesafe-engine/internal/config"
	"firesafe-engine/internal/httpapi"
	"firesafe-engine/internal/service"

	"go.uber.org/zap"
)

func main() {
	issueToken := flag.String("issue-token", "", "print an admin token for the given subject and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the token printed by -issue-token")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if *issueToken != "" {
		if cfg.Auth.JWTSecret == "" {
			fmt.Fprintln(os.Stderr, "JWT_SECRET is required to issue tokens")
			os.Exit(1)
		}
		token, err := auth.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer).
			Issue(*issueToken, []string{auth.CapabilityAdmin}, *tokenTTL)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	// 2. 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "firesafe-engine")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. 创建引擎
	app, err := service.NewApp(cfg, log)
	if err != nil {
		log.Fatal("Failed to create engine", zap.Error(err))
	}
	defer app.Stop()

	// 4. 创建上下文（支持优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Fatal("Failed to start engine", zap.Error(err))
	}

	// 5. 启动 HTTP 服务
	router := httpapi.NewRouter(app.Review(), app.Sensors(), app.Hub(), app.Verifier(), log)
	server := service.NewServer(cfg.HTTP.Addr, router, log)
	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// 6. 等待信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErrChan:
		log.Error("HTTP server error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop HTTP server", zap.Error(err))
	}
	cancel()

	log.Info("Firesafe engine stopped")
}
