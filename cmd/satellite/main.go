// voxsat-satellite is a voice-assistant satellite: it listens for a
// hub connection, detects wake words locally, and streams microphone
// audio and media playback over the satellite protocol.
//
// Usage:
//
//	voxsat-satellite [-name NAME] [-port PORT] [-wakeword-dir DIR]...
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/voxsat/satellite/internal/config"
	"github.com/voxsat/satellite/internal/logger"
	"github.com/voxsat/satellite/internal/orchestrator"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "voxsat-satellite: %v\n", err)
		return 2
	}

	logLevel := logger.LevelNormal
	if cfg.Verbose {
		logLevel = logger.LevelVerbose
	}
	log := logger.New(logLevel, os.Stderr)

	orch, err := orchestrator.New(cfg, log)
	if err != nil {
		log.Error("startup failed: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("voxsat-satellite %q starting on %s", cfg.Name, cfg.Addr())
	if err := orch.Run(ctx); err != nil {
		log.Error("satellite exited with error: %v", err)
		return 1
	}
	return 0
}
