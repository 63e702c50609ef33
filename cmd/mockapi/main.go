package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"docsearch-console/internal/bootstrap"
	"docsearch-console/internal/config"
	"docsearch-console/internal/pkg/logger"
	"docsearch-console/internal/server"
	"docsearch-console/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Logger and Tracer
	zapLog := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer zapLog.Sync()

	shutdownTracer := tracer.InitTracer(tracer.Config{
		Enabled:     cfg.Otel.Enabled,
		Endpoint:    cfg.Otel.Endpoint,
		ServiceName: "docsearch-mockapi",
	}, zapLog)
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewMockContainer(context.Background(), cfg, zapLog)
	if err != nil {
		log.Panicf("Unable to build mock backend: %v", err)
	}

	// 4. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		zapLog.Info("MockAPI", "Shutting down", nil)
		if err := srv.Shutdown(); err != nil {
			zapLog.Error("MockAPI", "Shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// 5. Run Server
	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
