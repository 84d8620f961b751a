// cmd/cortex/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/watchgrid/cortex/internal/analysis"
	"github.com/watchgrid/cortex/internal/api"
	"github.com/watchgrid/cortex/internal/config"
	"github.com/watchgrid/cortex/internal/detection"
	"github.com/watchgrid/cortex/internal/engine"
	"github.com/watchgrid/cortex/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	autoStart := flag.Bool("start", true, "begin monitoring immediately")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Dev wiring: synthetic frames into the simulated detector. A real
	// deployment swaps in a camera source and an external detector.
	source := detection.NewSyntheticSource(cfg.Detection.CameraID, time.Now().UnixNano())
	detector := detection.NewSimulatedDetector(logger)
	analyzer := analysis.NewOllamaClient(cfg.Analysis.Endpoint, cfg.Analysis.Model, cfg.Analysis.Timeout, logger)

	eng := engine.NewCoreEngine(cfg, logger, source, detector, analyzer)
	server := api.NewServer(cfg, logger, eng)

	if *autoStart {
		eng.Start(context.Background())
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down...")
		eng.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
		os.Exit(0)
	}()

	fmt.Printf("cortex listening on :%d (camera %s, %d fps target)\n",
		cfg.Server.Port, cfg.Detection.CameraID, cfg.Detection.TargetFPS)

	if err := server.Start(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
