package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hoanghaiduong/gym-food-rag/internal/bootstrap"
	"github.com/hoanghaiduong/gym-food-rag/internal/config"
	"github.com/hoanghaiduong/gym-food-rag/internal/pkg/logger"
	"github.com/hoanghaiduong/gym-food-rag/internal/server"
	"github.com/hoanghaiduong/gym-food-rag/internal/tracer"
	"github.com/hoanghaiduong/gym-food-rag/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer sysLogger.Sync()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Tracing, sysLogger)
	defer shutdownTracer(context.Background())

	// 3. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.LogLevel)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 4. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(gormDB, cfg, sysLogger)
	if err != nil {
		log.Panicf("Unable to bootstrap container: %v", err)
	}

	// 5. Start Background Services
	if err := container.Persistence.Run(); err != nil {
		log.Panicf("Unable to start persistence consumers: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Run Server
	srv := server.New(cfg, container)
	go func() {
		if err := srv.Run(); err != nil {
			sysLogger.Error("SERVER", "Server stopped", map[string]interface{}{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	sysLogger.Info("SERVER", "Shutting down", nil)
	if err := srv.Shutdown(); err != nil {
		sysLogger.Warn("SERVER", "Shutdown error", map[string]interface{}{"error": err.Error()})
	}
	// Persistence drains after the server so turns from finished requests still land.
	container.Close()
}
