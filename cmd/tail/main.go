// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/altitude_logger/internal/app"
	"github.com/relabs-tech/altitude_logger/internal/config"
)

func main() {
	configPath := flag.String("config", "./altitude_logger.yaml", "path to configuration file")
	sink := flag.String("sink", "", "serial or mqtt, overrides debug.sink")
	flag.Parse()

	log.Println("starting altitude logger debug tail")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	if *sink != "" {
		cfg.Debug.Sink = *sink
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunTail(ctx, cfg, os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
